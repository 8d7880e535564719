package auth

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shipenv/shipenv/pkg/oskeyring"
)

func TestGetToken(t *testing.T) {
	keyring := oskeyring.NewMemoryService()
	provider := NewGithubProvider(Config{GithubClientID: "client-id"}, keyring)
	ctx := context.Background()

	_, err := provider.GetToken(ctx)
	assert.IsError(t, err, ErrTokenNotFound)

	assert.NoError(t, keyring.Set(ServiceName, GithubToken, "tok123"))
	token, err := provider.GetToken(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "tok123", token)
}

func TestGetUserInfoFromKeyring(t *testing.T) {
	keyring := oskeyring.NewMemoryService()
	provider := NewGithubProvider(Config{}, keyring)
	ctx := context.Background()

	assert.NoError(t, keyring.Set(ServiceName, GithubUserID, "12345"))
	assert.NoError(t, keyring.Set(ServiceName, GithubLogin, "alice"))

	id, err := provider.GetUserID(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "12345", id)

	login, err := provider.GetGithubLogin(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "alice", login)
}

func TestLogout(t *testing.T) {
	keyring := oskeyring.NewMemoryService()
	provider := NewGithubProvider(Config{}, keyring)
	ctx := context.Background()

	assert.NoError(t, keyring.Set(ServiceName, GithubToken, "tok123"))
	assert.NoError(t, keyring.Set(ServiceName, GithubUserID, "12345"))

	assert.NoError(t, provider.Logout(ctx))

	_, err := provider.GetToken(ctx)
	assert.IsError(t, err, ErrTokenNotFound)
}

func TestLoginRequiresClientID(t *testing.T) {
	provider := NewGithubProvider(Config{}, oskeyring.NewMemoryService())
	assert.Error(t, provider.Login(context.Background()))
}
