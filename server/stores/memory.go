package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shipenv/shipenv/pkg/cloudmodel"
)

type projectMeta struct {
	admins []cloudmodel.UserId
}

// MemoryStore implements ProfileStore using in-memory maps. Fine for tests
// and single-process deployments; state is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	meta     map[cloudmodel.OrgRepo]*projectMeta
	profiles map[cloudmodel.OrgRepo]map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meta:     make(map[cloudmodel.OrgRepo]*projectMeta),
		profiles: make(map[cloudmodel.OrgRepo]map[string]map[string]string),
	}
}

func (m *MemoryStore) CreateProject(ctx context.Context, orgRepo cloudmodel.OrgRepo, adminID cloudmodel.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.meta[orgRepo]; exists {
		return fmt.Errorf("%w: %s", ErrProjectExists, orgRepo)
	}
	m.meta[orgRepo] = &projectMeta{admins: []cloudmodel.UserId{adminID}}
	m.profiles[orgRepo] = make(map[string]map[string]string)
	return nil
}

func (m *MemoryStore) ProjectExists(ctx context.Context, orgRepo cloudmodel.OrgRepo) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.meta[orgRepo]
	return exists, nil
}

func (m *MemoryStore) IsProjectAdmin(ctx context.Context, orgRepo cloudmodel.OrgRepo, userID cloudmodel.UserId) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, exists := m.meta[orgRepo]
	if !exists {
		return false, fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	for _, admin := range meta.admins {
		if admin == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) SetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string, vars map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profiles, exists := m.profiles[orgRepo]
	if !exists {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	// Deep copy to avoid races with the caller's map.
	vcopy := make(map[string]string, len(vars))
	for k, v := range vars {
		vcopy[k] = v
	}
	profiles[environment] = vcopy
	return nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profiles, exists := m.profiles[orgRepo]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	vars, exists := profiles[environment]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrProfileNotFound, orgRepo, environment)
	}
	vcopy := make(map[string]string, len(vars))
	for k, v := range vars {
		vcopy[k] = v
	}
	return vcopy, nil
}

func (m *MemoryStore) ListProfiles(ctx context.Context, orgRepo cloudmodel.OrgRepo) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profiles, exists := m.profiles[orgRepo]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	environments := make([]string, 0, len(profiles))
	for env := range profiles {
		environments = append(environments, env)
	}
	sort.Strings(environments)
	return environments, nil
}

func (m *MemoryStore) DeleteProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profiles, exists := m.profiles[orgRepo]
	if !exists {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	if _, exists := profiles[environment]; !exists {
		return fmt.Errorf("%w: %s/%s", ErrProfileNotFound, orgRepo, environment)
	}
	delete(profiles, environment)
	return nil
}

var _ ProfileStore = (*MemoryStore)(nil)

// MemoryUserStore implements UserStore in memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[cloudmodel.UserId]cloudmodel.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[cloudmodel.UserId]cloudmodel.User)}
}

func (m *MemoryUserStore) RegisterUser(ctx context.Context, user cloudmodel.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Registration is idempotent; re-registering updates the username.
	m.users[cloudmodel.UserId(user.GitHubID)] = user
	return nil
}

func (m *MemoryUserStore) GetUser(ctx context.Context, githubID cloudmodel.UserId) (*cloudmodel.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, exists := m.users[githubID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, githubID)
	}
	return &user, nil
}

func (m *MemoryUserStore) ListUsers(ctx context.Context) ([]cloudmodel.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]cloudmodel.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].GitHubID < users[j].GitHubID })
	return users, nil
}

var _ UserStore = (*MemoryUserStore)(nil)
