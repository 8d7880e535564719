package commands

import (
	"fmt"
	"os"

	"github.com/shipenv/shipenv/pkg/project"
	synclient "github.com/shipenv/shipenv/pkg/sync"
)

// defaultServerURL is the public sync server. Override with --server or
// SHIPENV_SERVER_URL.
const defaultServerURL = "https://sync.shipenv.dev"

// serverURL resolves the sync server address from the flag or environment.
func serverURL(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("SHIPENV_SERVER_URL"); env != "" {
		return env
	}
	return defaultServerURL
}

// setupSyncClient builds an authenticated API client from the stored token.
func setupSyncClient(ctx *cliCtx, server string) (*synclient.APIClient, error) {
	provider := newAuthProvider(ctx)
	token, err := provider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("not logged in (run 'shipenv auth login'): %w", err)
	}
	return synclient.NewAPIClient(synclient.ClientConfig{
		ServerURL: serverURL(server),
		AuthToken: token,
		Logger:    ctx.Logger,
	})
}

// resolveProject picks the org/repo from the flag, the SHIPENV_PROJECT env
// var, or the .shipenv-project file in dir.
func resolveProject(flag, dir string) (string, error) {
	if flag != "" {
		if err := project.ValidateOrgRepo(flag); err != nil {
			return "", err
		}
		return flag, nil
	}
	if env := os.Getenv(project.ProjectKey); env != "" {
		if err := project.ValidateOrgRepo(env); err != nil {
			return "", err
		}
		return env, nil
	}
	return project.ReadProjectFile(dir)
}
