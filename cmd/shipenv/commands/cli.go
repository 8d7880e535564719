package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/shipenv/shipenv/pkg/oskeyring"
)

type cliCtx struct {
	Debug     bool
	Logger    *slog.Logger
	OSKeyring oskeyring.Service
	context.Context
}

type cli struct {
	Convert  ConvertCmd  `cmd:"" help:"Convert a service account key file to a single-line env var value"`
	Validate ValidateCmd `cmd:"" help:"Validate a service account key file without printing it"`
	Check    CheckCmd    `cmd:"" help:"Audit the repository against the deployment checklist"`
	Init     InitCmd     `cmd:"" help:"Scaffold deployment files for a hosting platform"`
	Env      EnvCmd      `cmd:"" help:"Manage env profile files (.env, .env.<environment>)"`
	Run      RunCmd      `cmd:"" help:"Run a command with an env profile injected"`
	Vault    VaultCmd    `cmd:"" help:"Store credentials encrypted outside the working tree"`
	Auth     AuthCmd     `cmd:"" help:"Log in or out of the sync server"`
	Push     PushCmd     `cmd:"" help:"Push an env profile to the sync server"`
	Pull     PullCmd     `cmd:"" help:"Pull an env profile from the sync server"`
	Projects ProjectsCmd `cmd:"" help:"Manage sync server projects"`

	Debug   bool             `help:"Enable debug logging"`
	Version kong.VersionFlag `help:"Show version"`
}

func Execute(version string) {
	var cli cli
	ctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Name("shipenv"),
		kong.Description("shipenv prepares a Flask/GCP project for cloud deployment"),
		kong.Vars{"version": version},
	)

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	err := ctx.Run(&cliCtx{
		Debug:     cli.Debug,
		Logger:    logger,
		OSKeyring: oskeyring.NewDefaultService(),
		Context:   context.Background(),
	})
	ctx.FatalIfErrorf(err)
}
