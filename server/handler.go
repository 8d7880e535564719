// Package server implements the REST API of the shipenv sync server.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shipenv/shipenv/pkg/cloudmodel"
	"github.com/shipenv/shipenv/pkg/project"
	"github.com/shipenv/shipenv/server/middleware"
	"github.com/shipenv/shipenv/server/stores"
)

// UserHasRoleInRepoFunc checks if the given GitHub token has a role in the
// given org/repo. Swappable in tests.
type UserHasRoleInRepoFunc func(token, orgRepo, role string) bool

type Handler struct {
	store             stores.ProfileStore
	userStore         stores.UserStore
	logger            *slog.Logger
	userHasRoleInRepo UserHasRoleInRepoFunc
}

func NewHandler(store stores.ProfileStore, userStore stores.UserStore, logger *slog.Logger, userHasRoleInRepo UserHasRoleInRepoFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if userHasRoleInRepo == nil {
		userHasRoleInRepo = defaultUserHasRoleInRepo
	}
	return &Handler{
		store:             store,
		userStore:         userStore,
		logger:            logger,
		userHasRoleInRepo: userHasRoleInRepo,
	}
}

// orgRepoFromRequest resolves and validates the {org}/{repo} path variables.
func orgRepoFromRequest(r *http.Request) (cloudmodel.OrgRepo, error) {
	org := r.PathValue("org")
	repo := r.PathValue("repo")
	if org == "" || repo == "" {
		return "", fmt.Errorf("missing org or repo in path")
	}
	orgRepo := org + "/" + repo
	if err := project.ValidateOrgRepo(orgRepo); err != nil {
		return "", err
	}
	return cloudmodel.OrgRepo(orgRepo), nil
}

// requireUser extracts the authenticated user set by the auth middleware.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (middleware.GithubUser, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "user info missing from context", http.StatusUnauthorized)
		return middleware.GithubUser{}, false
	}
	return user, true
}

// requireProjectAdmin checks that the project exists and that the caller
// administers it.
func (h *Handler) requireProjectAdmin(w http.ResponseWriter, r *http.Request, orgRepo cloudmodel.OrgRepo, user middleware.GithubUser) bool {
	exists, err := h.store.ProjectExists(r.Context(), orgRepo)
	if err != nil {
		h.logger.Error("failed to check project", "orgRepo", orgRepo, "error", err)
		http.Error(w, "failed to check project", http.StatusInternalServerError)
		return false
	}
	if !exists {
		http.Error(w, "project does not exist or you do not have access", http.StatusNotFound)
		return false
	}
	isAdmin, err := h.store.IsProjectAdmin(r.Context(), orgRepo, cloudmodel.UserId(fmt.Sprintf("%d", user.ID)))
	if err != nil {
		h.logger.Error("failed to check project admin", "orgRepo", orgRepo, "error", err)
		http.Error(w, "failed to check project admin", http.StatusInternalServerError)
		return false
	}
	if !isAdmin {
		http.Error(w, "only project admins may manage profiles for this project", http.StatusForbidden)
		return false
	}
	return true
}

// CreateProject handles POST /api/v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	type reqBody struct {
		OrgRepo string `json:"orgRepo"`
	}
	var req reqBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := project.ValidateOrgRepo(req.OrgRepo); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if !h.userHasRoleInRepo(middleware.ExtractBearerToken(r.Header.Get("Authorization")), req.OrgRepo, "admin") {
		http.Error(w, fmt.Sprintf("access to %s denied", req.OrgRepo), http.StatusForbidden)
		return
	}

	creatorID := fmt.Sprintf("%d", user.ID)
	if creatorID == "0" {
		h.logger.Error("could not determine creator's GitHub ID")
		http.Error(w, "could not determine creator's GitHub ID", http.StatusUnauthorized)
		return
	}
	if err := h.store.CreateProject(r.Context(), cloudmodel.OrgRepo(req.OrgRepo), cloudmodel.UserId(creatorID)); err != nil {
		if errors.Is(err, stores.ErrProjectExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("failed to create project", "orgRepo", req.OrgRepo, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "Project %s registered", req.OrgRepo)
}

// ProfilePut handles PUT /api/v1/projects/{org}/{repo}/profiles/{env}
func (h *Handler) ProfilePut(w http.ResponseWriter, r *http.Request) {
	orgRepo, err := orgRepoFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	environment := r.PathValue("env")
	if environment == "" {
		http.Error(w, "missing environment in path", http.StatusBadRequest)
		return
	}
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if !h.requireProjectAdmin(w, r, orgRepo, user) {
		return
	}
	var vars map[string]string
	if err := json.NewDecoder(r.Body).Decode(&vars); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.store.SetProfile(r.Context(), orgRepo, environment, vars); err != nil {
		h.logger.Error("failed to store profile", "orgRepo", orgRepo, "environment", environment, "error", err)
		http.Error(w, "failed to store profile: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ProfileGet handles GET /api/v1/projects/{org}/{repo}/profiles/{env}
func (h *Handler) ProfileGet(w http.ResponseWriter, r *http.Request) {
	orgRepo, err := orgRepoFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	environment := r.PathValue("env")
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if !h.requireProjectAdmin(w, r, orgRepo, user) {
		return
	}
	vars, err := h.store.GetProfile(r.Context(), orgRepo, environment)
	if err != nil {
		if errors.Is(err, stores.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get profile", "orgRepo", orgRepo, "environment", environment, "error", err)
		http.Error(w, "failed to get profile: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, vars)
}

// ProfileList handles GET /api/v1/projects/{org}/{repo}/profiles
func (h *Handler) ProfileList(w http.ResponseWriter, r *http.Request) {
	orgRepo, err := orgRepoFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if !h.requireProjectAdmin(w, r, orgRepo, user) {
		return
	}
	environments, err := h.store.ListProfiles(r.Context(), orgRepo)
	if err != nil {
		h.logger.Error("failed to list profiles", "orgRepo", orgRepo, "error", err)
		http.Error(w, "failed to list profiles: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, environments)
}

// ProfileDelete handles DELETE /api/v1/projects/{org}/{repo}/profiles/{env}
func (h *Handler) ProfileDelete(w http.ResponseWriter, r *http.Request) {
	orgRepo, err := orgRepoFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	environment := r.PathValue("env")
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if !h.requireProjectAdmin(w, r, orgRepo, user) {
		return
	}
	if err := h.store.DeleteProfile(r.Context(), orgRepo, environment); err != nil {
		if errors.Is(err, stores.ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete profile", "orgRepo", orgRepo, "environment", environment, "error", err)
		http.Error(w, "failed to delete profile: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleUserRegister handles POST /api/v1/users/register
func (h *Handler) HandleUserRegister(w http.ResponseWriter, r *http.Request) {
	ghuser, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	user := cloudmodel.User{
		GitHubID: fmt.Sprintf("%d", ghuser.ID),
		Username: ghuser.Login,
	}
	if err := h.userStore.RegisterUser(r.Context(), user); err != nil {
		h.logger.Error("failed to register user", "github_id", user.GitHubID, "error", err)
		http.Error(w, "failed to register user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("user registered"))
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// defaultUserHasRoleInRepo checks repo permissions against the GitHub API.
func defaultUserHasRoleInRepo(token, orgRepo, role string) bool {
	if token == "" || orgRepo == "" || role == "" {
		return false
	}

	req, err := http.NewRequest("GET", "https://api.github.com/repos/"+orgRepo, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Warn("repo not found", "orgRepo", orgRepo)
		return false
	}
	if resp.StatusCode == http.StatusForbidden {
		slog.Warn("access to repo denied", "orgRepo", orgRepo)
		return false
	}

	var ghResp struct {
		Permissions struct {
			Admin bool `json:"admin"`
		} `json:"permissions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return false
	}

	switch role {
	case "admin":
		return ghResp.Permissions.Admin
	case "read":
		return resp.StatusCode == http.StatusOK
	default:
		return false
	}
}
