package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shipenv/shipenv"
	"github.com/shipenv/shipenv/pkg/envfile"
	"github.com/shipenv/shipenv/pkg/platform"
	"github.com/shipenv/shipenv/pkg/project"
)

type InitCmd struct {
	Platform string `arg:"" help:"Target platform (render, railway, cloudrun, fly)" default:"render"`
	Dir      string `help:"Directory to scaffold" default:"." short:"d"`
	App      string `help:"App name used in platform configs; defaults to the directory name" default:""`
	Runtime  string `help:"Runtime pin for runtime.txt" default:""`
	Project  string `help:"Bind the directory to a sync project (org/repo)" default:""`
	Force    bool   `help:"Overwrite files that already exist" short:"f"`
}

func (c *InitCmd) Run(ctx *cliCtx) error {
	p, err := platform.Lookup(c.Platform)
	if err != nil {
		return err
	}

	written, err := p.Scaffold(c.Dir, platform.ScaffoldOptions{
		AppName: c.App,
		Runtime: c.Runtime,
		EnvVars: []string{
			shipenv.CredentialsEnvVar,
			shipenv.SecretKeyEnvVar,
			shipenv.GeminiAPIKeyEnvVar,
		},
		Force: c.Force,
	})
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Printf("wrote %s\n", path)
	}

	if err := c.ensureGitignore(); err != nil {
		return err
	}
	if err := c.ensureProfile(); err != nil {
		return err
	}

	if c.Project != "" {
		if err := project.WriteProjectFile(c.Dir, c.Project); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", filepath.Join(c.Dir, project.ProjectFileName))
	}

	fmt.Printf("Initialized for %s.\n", p.Name)
	return nil
}

// ensureGitignore makes sure key files can never be committed.
func (c *InitCmd) ensureGitignore() error {
	path := filepath.Join(c.Dir, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "*.json" {
			return nil
		}
	}
	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "*.json\n" + envfile.DefaultName + "*\n" + ".shipenv-vault\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// ensureProfile creates an empty .env with the banner when none exists.
func (c *InitCmd) ensureProfile() error {
	path := filepath.Join(c.Dir, envfile.DefaultName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(envfile.Banner()), 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
