package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/shipenv/shipenv"
	"github.com/shipenv/shipenv/pkg/credentials"
	"github.com/shipenv/shipenv/pkg/vault"
)

type VaultCmd struct {
	Put     VaultPutCmd     `cmd:"" help:"Seal a credentials file into the vault"`
	Get     VaultGetCmd     `cmd:"" help:"Print a vault entry"`
	List    VaultListCmd    `cmd:"" help:"List vault entries"`
	Rm      VaultRmCmd      `cmd:"" help:"Remove a vault entry"`
	Recover VaultRecoverCmd `cmd:"" help:"Print or restore the vault recovery phrase"`

	File string `help:"Vault file" default:".shipenv-vault" type:"path"`
}

func (c *VaultCmd) open(ctx *cliCtx) (*vault.Vault, error) {
	return vault.Open(c.File, ctx.OSKeyring)
}

type VaultPutCmd struct {
	Name string `arg:"" help:"Entry name, e.g. 'prod-key'"`
	File string `arg:"" help:"Credentials file to seal, or '-' for stdin" default:"-"`
}

func (c *VaultPutCmd) Run(ctx *cliCtx, parent *VaultCmd) error {
	var data []byte
	var err error
	if c.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return err
	}

	// Vault entries are meant to hold key material; validate before sealing
	// so a typo'd path does not silently store garbage.
	key, err := credentials.Parse(data)
	if err != nil {
		return fmt.Errorf("refusing to store non-credentials data: %w", err)
	}
	if err := key.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid credentials: %w", err)
	}

	v, err := parent.open(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Put(c.Name, data); err != nil {
		return err
	}
	fmt.Printf("Sealed %s into %s (%s)\n", c.Name, parent.File, key.Fingerprint())
	return nil
}

type VaultGetCmd struct {
	Name string `arg:"" help:"Entry name"`
	Env  bool   `help:"Print a ready-to-paste env entry instead of the raw JSON" short:"e"`
}

func (c *VaultGetCmd) Run(ctx *cliCtx, parent *VaultCmd) error {
	v, err := parent.open(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	data, err := v.Get(c.Name)
	if err != nil {
		return err
	}
	if c.Env {
		return writeCredentialsEnvEntry(os.Stdout, data)
	}
	os.Stdout.Write(data)
	return nil
}

// writeCredentialsEnvEntry prints the sealed key as a NAME=value env entry.
func writeCredentialsEnvEntry(w io.Writer, data []byte) error {
	line, err := convertReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return shipenv.WriteEnvEntry(w, shipenv.CredentialsEnvVar, line)
}

type VaultListCmd struct{}

func (c *VaultListCmd) Run(ctx *cliCtx, parent *VaultCmd) error {
	v, err := parent.open(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	names, err := v.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

type VaultRmCmd struct {
	Name string `arg:"" help:"Entry name"`
}

func (c *VaultRmCmd) Run(ctx *cliCtx, parent *VaultCmd) error {
	v, err := parent.open(ctx)
	if err != nil {
		return err
	}
	defer v.Close()
	return v.Delete(c.Name)
}

type VaultRecoverCmd struct {
	Phrase string `help:"Restore the vault key from this recovery phrase instead of printing one" default:""`
}

func (c *VaultRecoverCmd) Run(ctx *cliCtx, parent *VaultCmd) error {
	v, err := parent.open(ctx)
	if err != nil {
		return err
	}
	defer v.Close()

	if c.Phrase != "" {
		if err := v.Restore(c.Phrase); err != nil {
			return err
		}
		fmt.Println("Vault key restored from recovery phrase.")
		return nil
	}

	phrase, err := v.RecoveryPhrase()
	if err != nil {
		return err
	}
	fmt.Println(phrase)
	fmt.Fprintln(os.Stderr, "Write this phrase down. Anyone holding it can open the vault.")
	return nil
}
