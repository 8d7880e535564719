// Package stores holds the sync server's profile storage backends.
package stores

import (
	"context"
	"errors"

	"github.com/shipenv/shipenv/pkg/cloudmodel"
)

var ErrProjectExists = errors.New("project already exists")
var ErrProjectNotFound = errors.New("project not found")
var ErrProfileNotFound = errors.New("profile not found")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")

// ProfileStore abstracts project and profile storage (swappable between
// memory, bbolt and Datastore).
type ProfileStore interface {
	CreateProject(ctx context.Context, orgRepo cloudmodel.OrgRepo, adminID cloudmodel.UserId) error
	ProjectExists(ctx context.Context, orgRepo cloudmodel.OrgRepo) (bool, error)
	IsProjectAdmin(ctx context.Context, orgRepo cloudmodel.OrgRepo, userID cloudmodel.UserId) (bool, error)

	SetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string, vars map[string]string) error
	GetProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) (map[string]string, error)
	ListProfiles(ctx context.Context, orgRepo cloudmodel.OrgRepo) ([]string, error)
	DeleteProfile(ctx context.Context, orgRepo cloudmodel.OrgRepo, environment string) error
}

// UserStore abstracts registered user storage.
type UserStore interface {
	RegisterUser(ctx context.Context, user cloudmodel.User) error
	GetUser(ctx context.Context, githubID cloudmodel.UserId) (*cloudmodel.User, error)
	ListUsers(ctx context.Context) ([]cloudmodel.User, error)
}
