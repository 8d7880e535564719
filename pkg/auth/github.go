package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shipenv/shipenv/pkg/oskeyring"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var ErrTokenNotFound = errors.New("authentication token not found in keyring")

// GithubProvider implements the Provider interface for GitHub authentication.
type GithubProvider struct {
	Config  Config
	keyring oskeyring.Service
}

// NewGithubProvider creates a new GithubProvider.
func NewGithubProvider(cfg Config, keyring oskeyring.Service) *GithubProvider {
	return &GithubProvider{
		Config:  cfg,
		keyring: keyring,
	}
}

func (p *GithubProvider) getOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID: p.Config.GithubClientID,
		Scopes:   []string{"repo"}, // repo scope is needed for project access checks
		Endpoint: github.Endpoint,
	}
}

// Login initiates the GitHub device flow and stores the resulting token,
// user ID and login in the keyring.
func (p *GithubProvider) Login(ctx context.Context) error {
	if p.Config.GithubClientID == "" {
		return errors.New("GitHub Client ID is required for authentication")
	}

	oauthConfig := p.getOAuthConfig()

	deviceCode, err := oauthConfig.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("failed to request device code: %w", err)
	}

	fmt.Printf("Please visit %s and enter the code: %s\n", deviceCode.VerificationURI, deviceCode.UserCode)
	fmt.Printf("Wait for the authentication to complete...\n")

	token, err := oauthConfig.DeviceAccessToken(ctx, deviceCode)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	if err := p.keyring.Set(ServiceName, GithubToken, token.AccessToken); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}

	// User info is a nicety; login has already succeeded once the token is
	// stored, so failures here only warn.
	userID, userLogin, err := fetchGitHubUserInfo(ctx, token.AccessToken)
	if err != nil {
		fmt.Printf("Warning: failed to fetch GitHub user info after login: %v\n", err)
		return nil
	}
	if err := p.keyring.Set(ServiceName, GithubUserID, userID); err != nil {
		fmt.Printf("Warning: failed to store GitHub User ID in keyring: %v\n", err)
	}
	if err := p.keyring.Set(ServiceName, GithubLogin, userLogin); err != nil {
		fmt.Printf("Warning: failed to store GitHub Login in keyring: %v\n", err)
	}

	fmt.Println("Successfully authenticated and token stored.")
	return nil
}

// fetchGitHubUserInfo retrieves the user ID and login from GitHub using the
// provided token.
func fetchGitHubUserInfo(ctx context.Context, token string) (string, string, error) {
	if token == "" {
		return "", "", errors.New("token cannot be empty")
	}
	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.github.com/user", nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to call GitHub API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var userInfo struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", "", fmt.Errorf("failed to decode GitHub user info: %w", err)
	}
	if userInfo.ID == 0 || userInfo.Login == "" {
		return "", "", fmt.Errorf("GitHub user info missing from response")
	}

	return fmt.Sprintf("%d", userInfo.ID), userInfo.Login, nil
}

// GetToken retrieves the stored GitHub token.
func (p *GithubProvider) GetToken(ctx context.Context) (string, error) {
	token, err := p.keyring.Get(ServiceName, GithubToken)
	if err != nil {
		if errors.Is(err, oskeyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get token from keyring: %w", err)
	}
	return token, nil
}

// GetUserID retrieves the stored GitHub User ID, fetching it from GitHub
// when the keyring only holds a token.
func (p *GithubProvider) GetUserID(ctx context.Context) (string, error) {
	userID, err := p.keyring.Get(ServiceName, GithubUserID)
	if err == nil && userID != "" {
		return userID, nil
	}
	if err != nil && !errors.Is(err, oskeyring.ErrNotFound) {
		return "", fmt.Errorf("failed to get UserID from keyring: %w", err)
	}
	return p.refreshUserInfo(ctx, GithubUserID)
}

// GetGithubLogin retrieves the stored GitHub login, fetching it from GitHub
// when the keyring only holds a token.
func (p *GithubProvider) GetGithubLogin(ctx context.Context) (string, error) {
	login, err := p.keyring.Get(ServiceName, GithubLogin)
	if err == nil && login != "" {
		return login, nil
	}
	if err != nil && !errors.Is(err, oskeyring.ErrNotFound) {
		return "", fmt.Errorf("failed to get Login from keyring: %w", err)
	}
	return p.refreshUserInfo(ctx, GithubLogin)
}

func (p *GithubProvider) refreshUserInfo(ctx context.Context, want string) (string, error) {
	token, err := p.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot fetch user info without token: %w", err)
	}
	userID, login, err := fetchGitHubUserInfo(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info from GitHub: %w", err)
	}
	if err := p.keyring.Set(ServiceName, GithubUserID, userID); err != nil {
		fmt.Printf("Warning: failed to store fetched UserID in keyring: %v\n", err)
	}
	if err := p.keyring.Set(ServiceName, GithubLogin, login); err != nil {
		fmt.Printf("Warning: failed to store fetched Login in keyring: %v\n", err)
	}
	if want == GithubLogin {
		return login, nil
	}
	return userID, nil
}

// Logout removes the stored token and user identifiers.
func (p *GithubProvider) Logout(ctx context.Context) error {
	if err := p.keyring.Delete(ServiceName, GithubToken); err != nil {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	_ = p.keyring.Delete(ServiceName, GithubUserID)
	_ = p.keyring.Delete(ServiceName, GithubLogin)
	return nil
}

var _ Provider = (*GithubProvider)(nil)
