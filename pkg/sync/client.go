// Package sync implements the HTTP client for the shipenv sync server,
// which shares deployment profiles within a team.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Client defines the interface for interacting with the sync server.
type Client interface {
	// CreateProject registers a new project (org/repo) on the sync server.
	CreateProject(ctx context.Context, orgRepo string) error
	// PushProfile uploads the env vars for one environment of a project.
	PushProfile(ctx context.Context, orgRepo, environment string, vars map[string]string) error
	// PullProfile fetches the env vars for one environment of a project.
	PullProfile(ctx context.Context, orgRepo, environment string) (map[string]string, error)
	// ListProfiles lists the environments a project has profiles for.
	ListProfiles(ctx context.Context, orgRepo string) ([]string, error)
	// DeleteProfile removes one environment's profile.
	DeleteProfile(ctx context.Context, orgRepo, environment string) error
}

// APIClient implements the Client interface for the sync API.
type APIClient struct {
	ServerURL  *url.URL
	AuthToken  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ClientConfig holds configuration for creating a new APIClient.
type ClientConfig struct {
	ServerURL string
	AuthToken string
	Logger    *slog.Logger
}

// NewAPIClient creates a new API client instance.
func NewAPIClient(config ClientConfig) (*APIClient, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	serverURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if config.AuthToken == "" {
		config.Logger.Warn("Auth token is empty. Authenticated operations will fail.")
	}

	return &APIClient{
		ServerURL:  serverURL,
		AuthToken:  config.AuthToken,
		HTTPClient: &http.Client{},
		Logger:     config.Logger,
	}, nil
}

func (c *APIClient) profilePath(orgRepo, environment string) (string, error) {
	parts := strings.SplitN(orgRepo, "/", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid orgRepo format: %s", orgRepo)
	}
	p := "/api/v1/projects/" + parts[0] + "/" + parts[1] + "/profiles"
	if environment != "" {
		p += "/" + environment
	}
	return p, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body any, wantStatus int) (*http.Response, error) {
	if c.AuthToken == "" {
		return nil, fmt.Errorf("authentication token required for %s %s", method, path)
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	u := c.ServerURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Logger.Debug("sync request", "method", method, "path", path)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != wantStatus {
		respBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("server error: %s: %s", resp.Status, string(respBytes))
	}
	return resp, nil
}

// CreateProject registers a new project on the sync server.
func (c *APIClient) CreateProject(ctx context.Context, orgRepo string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/projects", map[string]string{"orgRepo": orgRepo}, http.StatusCreated)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// PushProfile uploads a profile for one environment.
func (c *APIClient) PushProfile(ctx context.Context, orgRepo, environment string, vars map[string]string) error {
	path, err := c.profilePath(orgRepo, environment)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPut, path, vars, http.StatusOK)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// PullProfile fetches a profile for one environment.
func (c *APIClient) PullProfile(ctx context.Context, orgRepo, environment string) (map[string]string, error) {
	path, err := c.profilePath(orgRepo, environment)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var vars map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&vars); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return vars, nil
}

// ListProfiles lists the environments the project has profiles for.
func (c *APIClient) ListProfiles(ctx context.Context, orgRepo string) ([]string, error) {
	path, err := c.profilePath(orgRepo, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var environments []string
	if err := json.NewDecoder(resp.Body).Decode(&environments); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return environments, nil
}

// DeleteProfile removes one environment's profile.
func (c *APIClient) DeleteProfile(ctx context.Context, orgRepo, environment string) error {
	path, err := c.profilePath(orgRepo, environment)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, path, nil, http.StatusOK)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

var _ Client = (*APIClient)(nil)
