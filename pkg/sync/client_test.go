package sync_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/shipenv/shipenv/pkg/sync"
	"github.com/shipenv/shipenv/server"
	"github.com/shipenv/shipenv/server/middleware"
	"github.com/shipenv/shipenv/server/stores"
	"github.com/shipenv/shipenv/testutl"
)

const testToken = "test-token"

// startTestServer runs a real sync server with in-memory stores and a stub
// token validator.
func startTestServer(t *testing.T) string {
	t.Helper()
	validate := func(token string) (middleware.GithubUser, bool) {
		if token == testToken {
			return middleware.GithubUser{Login: "alice", ID: 12345}, true
		}
		return middleware.GithubUser{}, false
	}
	srv := server.NewServer(stores.NewMemoryStore(), stores.NewMemoryUserStore(), server.Options{
		Validate:          validate,
		UserHasRoleInRepo: func(token, orgRepo, role string) bool { return token == testToken },
		RateLimit:         rate.Inf,
		RateBurst:         1,
	})

	port := testutl.GetPort()
	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			t.Errorf("server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL)
	return serverURL
}

func waitForServer(t *testing.T, serverURL string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server did not come up")
}

func newClient(t *testing.T, serverURL, token string) *sync.APIClient {
	t.Helper()
	client, err := sync.NewAPIClient(sync.ClientConfig{
		ServerURL: serverURL,
		AuthToken: token,
	})
	require.NoError(t, err)
	return client
}

func TestClientRoundtrip(t *testing.T) {
	serverURL := startTestServer(t)
	client := newClient(t, serverURL, testToken)
	ctx := context.Background()

	require.NoError(t, client.CreateProject(ctx, "acme/boatapp"))

	vars := map[string]string{
		"GCP_CREDENTIALS_JSON": `{"type":"service_account"}`,
		"PORT":                 "8080",
	}
	require.NoError(t, client.PushProfile(ctx, "acme/boatapp", "prod", vars))

	got, err := client.PullProfile(ctx, "acme/boatapp", "prod")
	require.NoError(t, err)
	assert.Equal(t, vars, got)

	environments, err := client.ListProfiles(ctx, "acme/boatapp")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod"}, environments)

	require.NoError(t, client.DeleteProfile(ctx, "acme/boatapp", "prod"))

	_, err = client.PullProfile(ctx, "acme/boatapp", "prod")
	assert.Error(t, err)
}

func TestClientBadToken(t *testing.T) {
	serverURL := startTestServer(t)
	client := newClient(t, serverURL, "wrong-token")

	err := client.CreateProject(context.Background(), "acme/boatapp")
	assert.Error(t, err)
}

func TestClientMissingToken(t *testing.T) {
	client, err := sync.NewAPIClient(sync.ClientConfig{ServerURL: "http://localhost:1"})
	require.NoError(t, err)

	err = client.CreateProject(context.Background(), "acme/boatapp")
	assert.ErrorContains(t, err, "authentication token required")
}

func TestClientInvalidOrgRepo(t *testing.T) {
	client, err := sync.NewAPIClient(sync.ClientConfig{ServerURL: "http://localhost:1", AuthToken: testToken})
	require.NoError(t, err)

	err = client.PushProfile(context.Background(), "not-a-repo", "prod", nil)
	assert.ErrorContains(t, err, "invalid orgRepo format")
}
