// Package vault stores credential blobs encrypted at rest in a local bbolt
// file, so the raw key JSON never has to sit in the working tree. The
// symmetric vault key lives in the OS keyring.
package vault

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/shipenv/shipenv/pkg/oskeyring"
	"go.etcd.io/bbolt"
	"golang.org/x/crypto/nacl/secretbox"
)

// DefaultFilename is the vault file created next to the project.
const DefaultFilename = ".shipenv-vault"

const (
	bucketName  = "credentials"
	keyringUser = "vault-key"
)

// ErrNotFound is returned by Get and Delete for unknown entry names.
var ErrNotFound = errors.New("no such vault entry")

// ErrCorrupt means an entry could not be decrypted with the vault key.
var ErrCorrupt = errors.New("vault entry cannot be decrypted")

// Vault is an encrypted name -> blob store.
type Vault struct {
	db      *bbolt.DB
	keyring oskeyring.Service
}

// Open opens (or creates) the vault file at path. The vault key is fetched
// from the keyring, or generated and stored on first use.
func Open(path string, keyring oskeyring.Service) (*Vault, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening vault %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Vault{db: db, keyring: keyring}, nil
}

// Close releases the underlying database file.
func (v *Vault) Close() error {
	return v.db.Close()
}

// vaultKey loads the 32-byte vault key from the keyring, generating one on
// first use.
func (v *Vault) vaultKey() ([32]byte, error) {
	var key [32]byte
	encoded, err := v.keyring.Get(oskeyring.ServiceName, keyringUser)
	if err == nil {
		return decodeKey(encoded)
	}
	if !errors.Is(err, oskeyring.ErrNotFound) {
		return key, err
	}

	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("generating vault key: %w", err)
	}
	if err := v.keyring.Set(oskeyring.ServiceName, keyringUser, hex.EncodeToString(key[:])); err != nil {
		return key, fmt.Errorf("storing vault key in keyring: %w", err)
	}
	return key, nil
}

func decodeKey(encoded string) ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return key, fmt.Errorf("vault key in keyring is not hex: %w", err)
	}
	if len(raw) != 32 {
		return key, fmt.Errorf("vault key in keyring is %d bytes, want 32", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// Put seals plaintext under name, replacing any previous entry.
func (v *Vault) Put(name string, plaintext []byte) error {
	if name == "" {
		return fmt.Errorf("vault entry name is empty")
	}
	key, err := v.vaultKey()
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &key)

	return v.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(name), sealed)
	})
}

// Get opens the entry stored under name.
func (v *Vault) Get(name string) ([]byte, error) {
	key, err := v.vaultKey()
	if err != nil {
		return nil, err
	}

	var sealed []byte
	err = v.db.View(func(tx *bbolt.Tx) error {
		stored := tx.Bucket([]byte(bucketName)).Get([]byte(name))
		if stored == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		sealed = append([]byte(nil), stored...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(sealed) < 24 {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, name)
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &key)
	if !ok {
		return nil, fmt.Errorf("%w: %s (wrong vault key?)", ErrCorrupt, name)
	}
	return plaintext, nil
}

// List returns the entry names in the vault, sorted by bbolt's key order.
func (v *Vault) List() ([]string, error) {
	var names []string
	err := v.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete removes the entry stored under name.
func (v *Vault) Delete(name string) error {
	return v.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return bucket.Delete([]byte(name))
	})
}
