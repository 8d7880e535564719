package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/shipenv/shipenv/pkg/envfile"
)

type EnvCmd struct {
	Set   EnvSetCmd   `cmd:"" help:"Set a variable in an env profile"`
	Unset EnvUnsetCmd `cmd:"" help:"Remove a variable from an env profile"`
	Get   EnvGetCmd   `cmd:"" help:"Print one variable from an env profile"`
	List  EnvListCmd  `cmd:"" help:"List the variables in an env profile"`

	Env string `help:"Environment profile, e.g. 'prod' for .env.prod" short:"e" default:""`
}

type EnvSetCmd struct {
	Entries []string `arg:"" help:"NAME=value pairs to set"`
}

func (c *EnvSetCmd) Run(ctx *cliCtx, parent *EnvCmd) error {
	filename, err := envfile.Filename(parent.Env)
	if err != nil {
		return err
	}
	updates, err := parseEntries(c.Entries)
	if err != nil {
		return err
	}
	if err := envfile.SetFile(filename, updates); err != nil {
		return err
	}
	fmt.Printf("Updated %d variable(s) in %s\n", len(updates), filename)
	return nil
}

type EnvUnsetCmd struct {
	Names []string `arg:"" help:"Variable names to remove"`
}

func (c *EnvUnsetCmd) Run(ctx *cliCtx, parent *EnvCmd) error {
	filename, err := envfile.Filename(parent.Env)
	if err != nil {
		return err
	}
	data, err := readProfileFile(filename)
	if err != nil {
		return err
	}
	for _, name := range c.Names {
		data, err = envfile.UnsetValue(data, name)
		if err != nil {
			return err
		}
	}
	return writeProfileFile(filename, data)
}

type EnvGetCmd struct {
	Name string `arg:"" help:"Variable name to print"`
}

func (c *EnvGetCmd) Run(ctx *cliCtx, parent *EnvCmd) error {
	filename, err := envfile.Filename(parent.Env)
	if err != nil {
		return err
	}
	value, err := envfile.Get(filename, c.Name)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

type EnvListCmd struct {
	Values bool `help:"Print values as well as names" short:"v"`
}

func (c *EnvListCmd) Run(ctx *cliCtx, parent *EnvCmd) error {
	filename, err := envfile.Filename(parent.Env)
	if err != nil {
		return err
	}
	vars, err := envfile.Read(filename)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c.Values {
			fmt.Printf("%s=%s\n", name, vars[name])
		} else {
			fmt.Println(name)
		}
	}
	return nil
}

func parseEntries(entries []string) (map[string]string, error) {
	updates := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, value, ok := cutEntry(entry)
		if !ok {
			return nil, fmt.Errorf("expected NAME=value, got %q", entry)
		}
		updates[name] = value
	}
	return updates, nil
}

func cutEntry(entry string) (string, string, bool) {
	for i := 0; i < len(entry); i++ {
		if entry[i] == '=' {
			return entry[:i], entry[i+1:], i > 0
		}
	}
	return "", "", false
}

func readProfileFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("profile %s does not exist", path)
		}
		return nil, err
	}
	return data, nil
}

func writeProfileFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}
