package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/shipenv/shipenv/server/middleware"
	"github.com/shipenv/shipenv/server/stores"
)

const adminToken = "admin-token"
const strangerToken = "stranger-token"

func newTestServer(t *testing.T) *Server {
	srv, _ := newTestServerWithUsers(t)
	return srv
}

func newTestServerWithUsers(t *testing.T) (*Server, *stores.MemoryUserStore) {
	t.Helper()
	validate := func(token string) (middleware.GithubUser, bool) {
		switch token {
		case adminToken:
			return middleware.GithubUser{Login: "alice", ID: 12345}, true
		case strangerToken:
			return middleware.GithubUser{Login: "mallory", ID: 99999}, true
		}
		return middleware.GithubUser{}, false
	}
	hasRole := func(token, orgRepo, role string) bool {
		return token == adminToken
	}
	userStore := stores.NewMemoryUserStore()
	srv := NewServer(stores.NewMemoryStore(), userStore, Options{
		Validate:          validate,
		UserHasRoleInRepo: hasRole,
		RateLimit:         rate.Inf,
		RateBurst:         1,
	})
	return srv, userStore
}

func doRequest(srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/projects", "", map[string]string{"orgRepo": "acme/boatapp"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/v1/projects", "bogus", map[string]string{"orgRepo": "acme/boatapp"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProject(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/projects", adminToken, map[string]string{"orgRepo": "acme/boatapp"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "acme/boatapp")

	// Duplicate registration conflicts.
	rec = doRequest(srv, http.MethodPost, "/api/v1/projects", adminToken, map[string]string{"orgRepo": "acme/boatapp"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Bad orgRepo format.
	rec = doRequest(srv, http.MethodPost, "/api/v1/projects", adminToken, map[string]string{"orgRepo": "not-a-repo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Caller without the admin role on the repo is refused.
	rec = doRequest(srv, http.MethodPost, "/api/v1/projects", strangerToken, map[string]string{"orgRepo": "acme/other"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfileLifecycle(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doRequest(srv, http.MethodPost, "/api/v1/projects", adminToken, map[string]string{"orgRepo": "acme/boatapp"}).Code)

	vars := map[string]string{
		"GCP_CREDENTIALS_JSON": `{"type":"service_account"}`,
		"SECRET_KEY":           "abc",
	}

	rec := doRequest(srv, http.MethodPut, "/api/v1/projects/acme/boatapp/profiles/prod", adminToken, vars)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/projects/acme/boatapp/profiles/prod", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, vars, got)

	rec = doRequest(srv, http.MethodGet, "/api/v1/projects/acme/boatapp/profiles", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var environments []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &environments))
	assert.Equal(t, []string{"prod"}, environments)

	rec = doRequest(srv, http.MethodDelete, "/api/v1/projects/acme/boatapp/profiles/prod", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/projects/acme/boatapp/profiles/prod", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doRequest(srv, http.MethodPost, "/api/v1/projects", adminToken, map[string]string{"orgRepo": "acme/boatapp"}).Code)

	rec := doRequest(srv, http.MethodPut, "/api/v1/projects/acme/boatapp/profiles/prod", strangerToken, map[string]string{"A": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfileUnknownProject(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodPut, "/api/v1/projects/acme/ghost/profiles/prod", adminToken, map[string]string{"A": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRegister(t *testing.T) {
	srv, userStore := newTestServerWithUsers(t)
	rec := doRequest(srv, http.MethodPost, "/api/v1/users/register", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user registered")

	// The caller's numeric GitHub ID is stored in its string form.
	user, err := userStore.GetUser(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", user.GitHubID)
	assert.Equal(t, "alice", user.Username)
}
