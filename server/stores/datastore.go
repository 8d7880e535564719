package stores

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"
	"github.com/shipenv/shipenv/pkg/cloudmodel"
	"github.com/shipenv/shipenv/pkg/credentials"
	"google.golang.org/api/option"
)

const (
	projectKind = "Project"
	profileKind = "Profile"
)

// projectEntity is the datastore representation of a project.
type projectEntity struct {
	OrgRepo cloudmodel.OrgRepo `datastore:"org_repo"`
	Admins  []string           `datastore:"admins"`
}

// DatastoreStore implements ProfileStore using Google Cloud Datastore.
type DatastoreStore struct {
	client *datastore.Client
}

// NewDatastoreStore creates a store over an existing datastore client.
func NewDatastoreStore(client *datastore.Client) *DatastoreStore {
	return &DatastoreStore{client: client}
}

// NewDatastoreStoreFromEnv builds the datastore client from the same
// GCP_CREDENTIALS_JSON convention the CLI prepares for deployed apps.
func NewDatastoreStoreFromEnv(ctx context.Context) (*DatastoreStore, error) {
	raw := os.Getenv("GCP_CREDENTIALS_JSON")
	if raw == "" {
		return nil, errors.New("GCP_CREDENTIALS_JSON is not set")
	}
	key, err := credentials.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("GCP_CREDENTIALS_JSON: %w", err)
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("GCP_CREDENTIALS_JSON: %w", err)
	}
	client, err := datastore.NewClient(ctx, key.ProjectID, option.WithCredentialsJSON([]byte(raw)))
	if err != nil {
		return nil, fmt.Errorf("creating datastore client: %w", err)
	}
	return NewDatastoreStore(client), nil
}

// Close closes the underlying datastore client.
func (s *DatastoreStore) Close() error {
	return s.client.Close()
}

func (s *DatastoreStore) projectKey(orgRepo cloudmodel.OrgRepo) *datastore.Key {
	return datastore.NameKey(projectKind, orgRepo.String(), nil)
}

func (s *DatastoreStore) profileDSKey(orgRepo cloudmodel.OrgRepo, environment string) *datastore.Key {
	// Composite name; environment names cannot contain '#'.
	name := fmt.Sprintf("%s#%s", orgRepo, environment)
	return datastore.NameKey(profileKind, name, s.projectKey(orgRepo))
}

func (s *DatastoreStore) CreateProject(ctx context.Context, orgRepo cloudmodel.OrgRepo, adminID cloudmodel.UserId) error {
	key := s.projectKey(orgRepo)
	var existing projectEntity
	err := s.client.Get(ctx, key, &existing)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrProjectExists, orgRepo)
	}
	if !errors.Is(err, datastore.ErrNoSuchEntity) {
		return err
	}
	_, err = s.client.Put(ctx, key, &projectEntity{
		OrgRepo: orgRepo,
		Admins:  []string{adminID.String()},
	})
	return err
}

func (s *DatastoreStore) ProjectExists(ctx context.Context, orgRepo cloudmodel.OrgRepo) (bool, error) {
	var existing projectEntity
	err := s.client.Get(ctx, s.projectKey(orgRepo), &existing)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DatastoreStore) IsProjectAdmin(ctx context.Context, orgRepo cloudmodel.OrgRepo, userID cloudmodel.UserId) (bool, error) {
	var existing projectEntity
	err := s.client.Get(ctx, s.projectKey(orgRepo), &existing)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return false, fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	if err != nil {
		return false, err
	}
	for _, admin := range existing.Admins {
		if admin == userID.String() {
			return true, nil
		}
	}
	return false, nil
}

func (s *DatastoreStore) SetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string, vars map[string]string) error {
	exists, err := s.ProjectExists(ctx, orgRepo)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	profile := cloudmodel.Profile{
		ProjectID:   orgRepo,
		Environment: environment,
		Vars:        cloudmodel.PairsFromMap(vars),
	}
	_, err = s.client.Put(ctx, s.profileDSKey(orgRepo, environment), &profile)
	return err
}

func (s *DatastoreStore) GetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) (map[string]string, error) {
	var profile cloudmodel.Profile
	err := s.client.Get(ctx, s.profileDSKey(orgRepo, environment), &profile)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, fmt.Errorf("%w: %s/%s", ErrProfileNotFound, orgRepo, environment)
	}
	if err != nil {
		return nil, err
	}
	return profile.VarsMap(), nil
}

func (s *DatastoreStore) ListProfiles(ctx context.Context, orgRepo cloudmodel.OrgRepo) ([]string, error) {
	exists, err := s.ProjectExists(ctx, orgRepo)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
	}
	var profiles []cloudmodel.Profile
	query := datastore.NewQuery(profileKind).Ancestor(s.projectKey(orgRepo))
	if _, err := s.client.GetAll(ctx, query, &profiles); err != nil {
		return nil, err
	}
	environments := make([]string, 0, len(profiles))
	for _, p := range profiles {
		environments = append(environments, p.Environment)
	}
	return environments, nil
}

func (s *DatastoreStore) DeleteProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) error {
	key := s.profileDSKey(orgRepo, environment)
	var profile cloudmodel.Profile
	err := s.client.Get(ctx, key, &profile)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return fmt.Errorf("%w: %s/%s", ErrProfileNotFound, orgRepo, environment)
	}
	if err != nil {
		return err
	}
	return s.client.Delete(ctx, key)
}

var _ ProfileStore = (*DatastoreStore)(nil)
