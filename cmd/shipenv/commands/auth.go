package commands

import (
	"fmt"
	"os"

	"github.com/shipenv/shipenv/pkg/auth"
)

// defaultGithubClientID is the OAuth app used for the device flow. Override
// with SHIPENV_GITHUB_CLIENT_ID for self-hosted setups.
const defaultGithubClientID = "Ov23liOQq0GaeGyvFAap"

type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Log in to GitHub via the device flow"`
	Logout AuthLogoutCmd `cmd:"" help:"Remove the stored token"`
}

type AuthLoginCmd struct{}

func (c *AuthLoginCmd) Run(ctx *cliCtx) error {
	provider := newAuthProvider(ctx)
	if err := provider.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

type AuthLogoutCmd struct{}

func (c *AuthLogoutCmd) Run(ctx *cliCtx) error {
	provider := newAuthProvider(ctx)
	if err := provider.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func newAuthProvider(ctx *cliCtx) auth.Provider {
	clientID := os.Getenv("SHIPENV_GITHUB_CLIENT_ID")
	if clientID == "" {
		clientID = defaultGithubClientID
	}
	return auth.NewGithubProvider(auth.Config{GithubClientID: clientID}, ctx.OSKeyring)
}
