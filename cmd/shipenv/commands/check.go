package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipenv/shipenv/pkg/doctor"
	"github.com/shipenv/shipenv/pkg/envfile"
	"github.com/shipenv/shipenv/pkg/platform"
)

type CheckCmd struct {
	Dir         string `help:"Repository directory to audit" default:"." short:"d"`
	Platform    string `help:"Target platform (render, railway, cloudrun, fly); auto-detected when omitted" short:"p" default:""`
	Env         string `help:"Environment profile to audit, e.g. 'prod' for .env.prod" short:"e" default:""`
	Credentials string `help:"Service account key file; discovered when omitted" short:"c" default:""`
	Entrypoint  string `help:"Application entry file scanned for PORT handling" default:"app.py"`
	JSON        bool   `help:"Emit results as JSON" name:"json"`
}

func (c *CheckCmd) Run(ctx *cliCtx) error {
	p, err := resolvePlatform(ctx, c.Platform, c.Dir)
	if err != nil {
		return err
	}

	var profile string
	if c.Env != "" {
		name, err := envfile.Filename(c.Env)
		if err != nil {
			return err
		}
		profile = filepath.Join(c.Dir, name)
	}

	results := doctor.Run(doctor.Config{
		Dir:             c.Dir,
		CredentialsFile: c.Credentials,
		Profile:         profile,
		Platform:        p,
		Entrypoint:      c.Entrypoint,
	})

	if c.JSON {
		if err := doctor.WriteJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		if err := doctor.WriteTable(os.Stdout, results); err != nil {
			return err
		}
	}

	if doctor.Failed(results) {
		return fmt.Errorf("deployment checklist has failures")
	}
	return nil
}

// resolvePlatform looks up the named platform, or detects one from the
// directory, falling back to Render's conventions.
func resolvePlatform(ctx *cliCtx, slug, dir string) (platform.Platform, error) {
	if slug != "" {
		return platform.Lookup(slug)
	}
	if p, ok := platform.Detect(dir); ok {
		ctx.Logger.Debug("detected platform", "platform", p.Slug)
		return p, nil
	}
	p, err := platform.Lookup("render")
	if err != nil {
		return platform.Platform{}, err
	}
	ctx.Logger.Debug("no platform config found, assuming render conventions")
	return p, nil
}
