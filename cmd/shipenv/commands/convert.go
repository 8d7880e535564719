package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/shipenv/shipenv"
	"github.com/shipenv/shipenv/pkg/credentials"
	"github.com/shipenv/shipenv/pkg/envfile"
)

type ConvertCmd struct {
	File  string `arg:"" help:"Service account key file to convert, or '-' for stdin" default:"-"`
	Write bool   `help:"Write the result into an env profile instead of printing it" short:"w"`
	Env   string `help:"Environment profile to write to, e.g. 'prod' for .env.prod" short:"e" default:""`
	Name  string `help:"Env var name to write" default:"GCP_CREDENTIALS_JSON" short:"n"`
}

func (c *ConvertCmd) Run(ctx *cliCtx) error {
	var line string
	var err error
	if c.File == "-" {
		line, err = convertReader(os.Stdin)
	} else {
		line, err = shipenv.ConvertFile(c.File)
	}
	if err != nil {
		return err
	}

	if !c.Write {
		fmt.Println(line)
		return nil
	}

	filename, err := envfile.Filename(c.Env)
	if err != nil {
		return err
	}
	if !shipenv.ValidEnvName(c.Name) {
		return fmt.Errorf("invalid environment variable name: %q", c.Name)
	}
	if err := envfile.SetFile(filename, map[string]string{c.Name: line}); err != nil {
		return err
	}
	ctx.Logger.Debug("wrote credentials to profile", "file", filename, "name", c.Name)
	fmt.Printf("Wrote %s to %s\n", c.Name, filename)
	return nil
}

func convertReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key, err := credentials.Parse(data)
	if err != nil {
		return "", err
	}
	if err := key.Validate(); err != nil {
		return "", err
	}
	return key.Compact()
}

type ValidateCmd struct {
	File string `arg:"" help:"Service account key file to validate"`
}

func (c *ValidateCmd) Run(ctx *cliCtx) error {
	key, err := credentials.Load(c.File)
	if err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	fmt.Printf("%s: valid service account key (%s)\n", c.File, key.Fingerprint())
	return nil
}
