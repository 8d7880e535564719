package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipenv/shipenv/pkg/envfile"
	"github.com/shipenv/shipenv/pkg/project"
)

type PushCmd struct {
	Env     string `help:"Environment profile to push, e.g. 'prod' for .env.prod" short:"e" default:""`
	Project string `help:"Project (org/repo); defaults to .shipenv-project" short:"p" default:""`
	Server  string `help:"Sync server URL" default:""`
	Dir     string `help:"Project directory" default:"." short:"d"`
}

func (c *PushCmd) Run(ctx *cliCtx) error {
	orgRepo, err := resolveProject(c.Project, c.Dir)
	if err != nil {
		return err
	}
	filename, err := envfile.Filename(c.Env)
	if err != nil {
		return err
	}
	path := filepath.Join(c.Dir, filename)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("profile %s does not exist", path)
	}
	vars, err := envfile.Read(path)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return fmt.Errorf("profile %s is empty; nothing to push", path)
	}

	client, err := setupSyncClient(ctx, c.Server)
	if err != nil {
		return err
	}

	environment := c.Env
	if environment == "" {
		environment = "default"
	}
	if err := client.PushProfile(ctx, orgRepo, environment, vars); err != nil {
		return fmt.Errorf("failed to push profile: %w", err)
	}
	fmt.Printf("Pushed %d variable(s) from %s to %s/%s\n", len(vars), path, orgRepo, environment)
	return nil
}

type PullCmd struct {
	Env     string `help:"Environment profile to pull, e.g. 'prod' for .env.prod" short:"e" default:""`
	Project string `help:"Project (org/repo); defaults to .shipenv-project" short:"p" default:""`
	Server  string `help:"Sync server URL" default:""`
	Dir     string `help:"Project directory" default:"." short:"d"`
	Stdout  bool   `help:"Print the profile instead of writing the file"`
}

func (c *PullCmd) Run(ctx *cliCtx) error {
	orgRepo, err := resolveProject(c.Project, c.Dir)
	if err != nil {
		return err
	}
	client, err := setupSyncClient(ctx, c.Server)
	if err != nil {
		return err
	}

	environment := c.Env
	if environment == "" {
		environment = "default"
	}
	vars, err := client.PullProfile(ctx, orgRepo, environment)
	if err != nil {
		return fmt.Errorf("failed to pull profile: %w", err)
	}

	formatted := envfile.Format(vars)
	if c.Stdout {
		fmt.Print(formatted)
		return nil
	}

	filename, err := envfile.Filename(c.Env)
	if err != nil {
		return err
	}
	path := filepath.Join(c.Dir, filename)
	if err := os.WriteFile(path, []byte(formatted), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Pulled %d variable(s) into %s\n", len(vars), path)
	return nil
}

type ProjectsCmd struct {
	Create ProjectsCreateCmd `cmd:"" help:"Register a project on the sync server"`
	List   ProjectsListCmd   `cmd:"" help:"List the environments a project has profiles for"`
}

type ProjectsCreateCmd struct {
	OrgRepo string `arg:"" help:"Project in org/repo form"`
	Server  string `help:"Sync server URL" default:""`
	Dir     string `help:"Directory whose .shipenv-project file to write" default:"." short:"d"`
	NoBind  bool   `help:"Do not write a .shipenv-project file"`
}

func (c *ProjectsCreateCmd) Run(ctx *cliCtx) error {
	if err := project.ValidateOrgRepo(c.OrgRepo); err != nil {
		return err
	}
	client, err := setupSyncClient(ctx, c.Server)
	if err != nil {
		return err
	}
	if err := client.CreateProject(ctx, c.OrgRepo); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	fmt.Printf("Project %s registered.\n", c.OrgRepo)

	if !c.NoBind {
		if err := project.WriteProjectFile(c.Dir, c.OrgRepo); err != nil {
			return fmt.Errorf("project registered but writing %s failed: %w", project.ProjectFileName, err)
		}
		fmt.Printf("Bound %s to %s\n", c.Dir, c.OrgRepo)
	}
	return nil
}

type ProjectsListCmd struct {
	Project string `help:"Project (org/repo); defaults to .shipenv-project" short:"p" default:""`
	Server  string `help:"Sync server URL" default:""`
	Dir     string `help:"Project directory" default:"." short:"d"`
}

func (c *ProjectsListCmd) Run(ctx *cliCtx) error {
	orgRepo, err := resolveProject(c.Project, c.Dir)
	if err != nil {
		return err
	}
	client, err := setupSyncClient(ctx, c.Server)
	if err != nil {
		return err
	}
	environments, err := client.ListProfiles(ctx, orgRepo)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	for _, environment := range environments {
		fmt.Println(environment)
	}
	return nil
}
