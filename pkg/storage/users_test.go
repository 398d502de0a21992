package storage

import (
	"context"
	"testing"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore_CreateAndFind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Users().Create(ctx, "alice", "digest", "alice@example.com", auth.RoleUser)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	byName, err := store.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "digest", byName.PasswordHash)
	assert.Equal(t, auth.RoleUser, byName.Role)

	byID, err := store.Users().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := store.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUserStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Users().FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Users().FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStore_RejectsInvalidRole(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Users().Create(context.Background(), "bob", "digest", "bob@example.com", auth.Role("root"))
	assert.Error(t, err)
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Users().Create(ctx, "carol", "digest", "carol@example.com", auth.RoleUser)
	require.NoError(t, err)

	_, err = store.Users().Create(ctx, "carol", "digest", "carol2@example.com", auth.RoleUser)
	assert.Error(t, err)
}

func TestUserStore_ListOmitsDigests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx))

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, auth.RoleAdmin, users[0].Role)
	assert.Equal(t, "user", users[1].Username)
}
