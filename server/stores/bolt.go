package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shipenv/shipenv/pkg/cloudmodel"
	"go.etcd.io/bbolt"
)

// BoltStore implements ProfileStore using bbolt.
// Bucket "projects": key org/repo, value JSON-encoded admin list.
// Bucket "profiles": key org/repo + "\x00" + environment, value JSON-encoded
// map[string]string.
type BoltStore struct {
	db *bbolt.DB
}

const projectsBucket = "projects"
const profilesBucket = "profiles"

// profileKey joins org/repo and environment with a NUL, which cannot occur
// in either part.
func profileKey(orgRepo cloudmodel.OrgRepo, environment string) []byte {
	return []byte(string(orgRepo) + "\x00" + environment)
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(projectsBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(profilesBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

func (b *BoltStore) CreateProject(ctx context.Context, orgRepo cloudmodel.OrgRepo, adminID cloudmodel.UserId) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(projectsBucket))
		if bucket.Get([]byte(orgRepo)) != nil {
			return fmt.Errorf("%w: %s", ErrProjectExists, orgRepo)
		}
		admins, err := json.Marshal([]cloudmodel.UserId{adminID})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(orgRepo), admins)
	})
}

func (b *BoltStore) ProjectExists(ctx context.Context, orgRepo cloudmodel.OrgRepo) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket([]byte(projectsBucket)).Get([]byte(orgRepo)) != nil
		return nil
	})
	return exists, err
}

func (b *BoltStore) IsProjectAdmin(ctx context.Context, orgRepo cloudmodel.OrgRepo, userID cloudmodel.UserId) (bool, error) {
	var isAdmin bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket([]byte(projectsBucket)).Get([]byte(orgRepo))
		if val == nil {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
		}
		var admins []cloudmodel.UserId
		if err := json.Unmarshal(val, &admins); err != nil {
			return err
		}
		for _, admin := range admins {
			if admin == userID {
				isAdmin = true
				break
			}
		}
		return nil
	})
	return isAdmin, err
}

func (b *BoltStore) SetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string, vars map[string]string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(projectsBucket)).Get([]byte(orgRepo)) == nil {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
		}
		val, err := json.Marshal(vars)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(profilesBucket)).Put(profileKey(orgRepo, environment), val)
	})
}

func (b *BoltStore) GetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) (map[string]string, error) {
	var vars map[string]string
	err := b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket([]byte(profilesBucket)).Get(profileKey(orgRepo, environment))
		if val == nil {
			return fmt.Errorf("%w: %s/%s", ErrProfileNotFound, orgRepo, environment)
		}
		return json.Unmarshal(val, &vars)
	})
	return vars, err
}

func (b *BoltStore) ListProfiles(ctx context.Context, orgRepo cloudmodel.OrgRepo) ([]string, error) {
	var environments []string
	prefix := string(orgRepo) + "\x00"
	err := b.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(projectsBucket)).Get([]byte(orgRepo)) == nil {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, orgRepo)
		}
		return tx.Bucket([]byte(profilesBucket)).ForEach(func(k, _ []byte) error {
			key := string(k)
			if strings.HasPrefix(key, prefix) {
				environments = append(environments, strings.TrimPrefix(key, prefix))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(environments)
	return environments, nil
}

func (b *BoltStore) DeleteProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(profilesBucket))
		key := profileKey(orgRepo, environment)
		if bucket.Get(key) == nil {
			return fmt.Errorf("%w: %s/%s", ErrProfileNotFound, orgRepo, environment)
		}
		return bucket.Delete(key)
	})
}

var _ ProfileStore = (*BoltStore)(nil)
