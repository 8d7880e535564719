package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

type contextKey string

// UserContextKey is the request context key the authenticated GithubUser is
// stored under.
const UserContextKey contextKey = "user"

// GithubUser identifies the authenticated caller.
type GithubUser struct {
	Login string `json:"login"`
	ID    int    `json:"id"`
}

// UserFromContext extracts the authenticated user from a request context.
func UserFromContext(ctx context.Context) (GithubUser, bool) {
	user, ok := ctx.Value(UserContextKey).(GithubUser)
	return user, ok
}

// TokenValidator checks a bearer token and resolves it to a user.
type TokenValidator func(token string) (GithubUser, bool)

// WithGitHubAuth wraps handlers with GitHub Bearer token validation.
func WithGitHubAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			user, valid := validate(token)
			if !valid {
				http.Error(w, "invalid GitHub token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken pulls the token out of an Authorization header.
func ExtractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// Validation results are cached briefly so every request does not hit the
// GitHub API.
type cacheEntry struct {
	user      GithubUser
	valid     bool
	expiresAt time.Time
}

var (
	cacheMu       sync.Mutex
	validateCache = make(map[string]cacheEntry)
)

func cacheGet(key string) (GithubUser, bool) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	entry, ok := validateCache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return GithubUser{}, false
	}
	return entry.user, entry.valid
}

func cacheSet(key string, user GithubUser, valid bool, ttl time.Duration) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	validateCache[key] = cacheEntry{user: user, valid: valid, expiresAt: time.Now().Add(ttl)}
}

// ValidateGitHubToken resolves a token against the GitHub API.
func ValidateGitHubToken(token string) (GithubUser, bool) {
	if token == "" {
		return GithubUser{}, false
	}
	cacheKey := token + "|validate"
	if user, valid := cacheGet(cacheKey); valid {
		return user, true
	}
	login, id, err := getUserInfo(token)
	valid := err == nil && login != ""
	user := GithubUser{Login: login, ID: id}
	cacheSet(cacheKey, user, valid, 5*time.Minute)
	return user, valid
}

func getUserInfo(token string) (string, int, error) {
	req, err := http.NewRequest("GET", "https://api.github.com/user", nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", 0, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}
	var user struct {
		Login string `json:"login"`
		ID    int    `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", 0, err
	}
	return user.Login, user.ID, nil
}
