package vault

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/shipenv/shipenv/pkg/oskeyring"
	"github.com/tyler-smith/go-bip39"
)

// RecoveryPhrase encodes the vault key as a BIP-39 mnemonic. Writing the
// phrase down lets the operator restore vault access on a machine whose
// keyring does not hold the key.
func (v *Vault) RecoveryPhrase() (string, error) {
	key, err := v.vaultKey()
	if err != nil {
		return "", err
	}
	mnemonic, err := bip39.NewMnemonic(key[:])
	if err != nil {
		return "", fmt.Errorf("encoding recovery phrase: %w", err)
	}
	return mnemonic, nil
}

// Restore derives the vault key from a recovery phrase and stores it in the
// keyring, replacing whatever key is there.
func (v *Vault) Restore(phrase string) error {
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return fmt.Errorf("invalid recovery phrase: %w", err)
	}
	if len(entropy) != 32 {
		return errors.New("recovery phrase does not encode a vault key")
	}
	return v.keyring.Set(oskeyring.ServiceName, keyringUser, hex.EncodeToString(entropy))
}
