package stores

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shipenv/shipenv/pkg/cloudmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRepo = cloudmodel.OrgRepo("acme/boatapp")
const testAdmin = cloudmodel.UserId("12345")

// runProfileStoreSuite exercises the ProfileStore contract against any
// implementation.
func runProfileStoreSuite(t *testing.T, store ProfileStore) {
	ctx := context.Background()

	t.Run("project lifecycle", func(t *testing.T) {
		exists, err := store.ProjectExists(ctx, testRepo)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, store.CreateProject(ctx, testRepo, testAdmin))

		exists, err = store.ProjectExists(ctx, testRepo)
		require.NoError(t, err)
		assert.True(t, exists)

		err = store.CreateProject(ctx, testRepo, testAdmin)
		assert.ErrorIs(t, err, ErrProjectExists)
	})

	t.Run("admin check", func(t *testing.T) {
		isAdmin, err := store.IsProjectAdmin(ctx, testRepo, testAdmin)
		require.NoError(t, err)
		assert.True(t, isAdmin)

		isAdmin, err = store.IsProjectAdmin(ctx, testRepo, "99999")
		require.NoError(t, err)
		assert.False(t, isAdmin)

		_, err = store.IsProjectAdmin(ctx, "acme/other", testAdmin)
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("profile roundtrip", func(t *testing.T) {
		vars := map[string]string{
			"GCP_CREDENTIALS_JSON": `{"type":"service_account"}`,
			"SECRET_KEY":           "abc",
		}
		require.NoError(t, store.SetProfile(ctx, testRepo, "prod", vars))

		got, err := store.GetProfile(ctx, testRepo, "prod")
		require.NoError(t, err)
		assert.Equal(t, vars, got)
	})

	t.Run("profile for unknown project", func(t *testing.T) {
		err := store.SetProfile(ctx, "acme/other", "prod", map[string]string{"A": "1"})
		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := store.GetProfile(ctx, testRepo, "staging")
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("list profiles", func(t *testing.T) {
		require.NoError(t, store.SetProfile(ctx, testRepo, "dev", map[string]string{"A": "1"}))

		environments, err := store.ListProfiles(ctx, testRepo)
		require.NoError(t, err)
		assert.Equal(t, []string{"dev", "prod"}, environments)
	})

	t.Run("delete profile", func(t *testing.T) {
		require.NoError(t, store.DeleteProfile(ctx, testRepo, "dev"))
		assert.ErrorIs(t, store.DeleteProfile(ctx, testRepo, "dev"), ErrProfileNotFound)

		environments, err := store.ListProfiles(ctx, testRepo)
		require.NoError(t, err)
		assert.Equal(t, []string{"prod"}, environments)
	})

	t.Run("overwrite replaces whole profile", func(t *testing.T) {
		require.NoError(t, store.SetProfile(ctx, testRepo, "prod", map[string]string{"ONLY": "this"}))
		got, err := store.GetProfile(ctx, testRepo, "prod")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"ONLY": "this"}, got)
	})
}

func TestMemoryStore(t *testing.T) {
	runProfileStoreSuite(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	runProfileStoreSuite(t, store)
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	_, err := store.GetUser(ctx, "1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, store.RegisterUser(ctx, cloudmodel.User{GitHubID: "1", Username: "alice"}))
	require.NoError(t, store.RegisterUser(ctx, cloudmodel.User{GitHubID: "2", Username: "bob"}))

	user, err := store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Re-registration updates the username.
	require.NoError(t, store.RegisterUser(ctx, cloudmodel.User{GitHubID: "1", Username: "alice2"}))
	user, err = store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
