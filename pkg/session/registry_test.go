package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(storage.Config{
		Driver:       storage.DriverSQLite,
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *storage.Store, username string) *auth.User {
	t.Helper()
	user, err := store.Users().Create(context.Background(), username, "digest", username+"@example.com", auth.RoleUser)
	require.NoError(t, err)
	return user
}

func TestRegistry_CreateAndFind(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store.DB())
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	created, err := registry.Create(ctx, user.ID, "token-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := registry.FindByToken(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.UserID)

	missing, err := registry.FindByToken(ctx, "token-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRegistry_ExpiredRowsTreatedAsAbsent(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store.DB())
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	// Insert a session that is already expired by backdating the clock
	past := time.Now().Add(-2 * time.Hour)
	registry.now = func() time.Time { return past }
	_, err := registry.Create(ctx, user.ID, "stale-token", past.Add(time.Hour))
	require.NoError(t, err)
	registry.now = time.Now

	found, err := registry.FindByToken(ctx, "stale-token")
	require.NoError(t, err)
	assert.Nil(t, found, "expired-but-unpurged rows must read as absent")
}

func TestRegistry_DeleteByToken_Idempotent(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store.DB())
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	_, err := registry.Create(ctx, user.ID, "token-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, registry.DeleteByToken(ctx, "token-1"))
	require.NoError(t, registry.DeleteByToken(ctx, "token-1"))
	require.NoError(t, registry.DeleteByToken(ctx, "never-existed"))
}

func TestRegistry_DeleteAllForUser(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store.DB())
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	// Multi-device: two concurrent sessions for alice, one for bob
	for _, token := range []string{"alice-phone", "alice-laptop"} {
		_, err := registry.Create(ctx, alice.ID, token, time.Now().Add(time.Hour))
		require.NoError(t, err)
	}
	_, err := registry.Create(ctx, bob.ID, "bob-laptop", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, registry.DeleteAllForUser(ctx, alice.ID))

	n, err := registry.CountForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = registry.CountForUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRegistry_CreateSweepsExpired(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store.DB())
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	past := time.Now().Add(-48 * time.Hour)
	registry.now = func() time.Time { return past }
	_, err := registry.Create(ctx, user.ID, "old-token", past.Add(time.Hour))
	require.NoError(t, err)
	registry.now = time.Now

	// The insert path sweeps expired rows opportunistically
	_, err = registry.Create(ctx, user.ID, "new-token", time.Now().Add(time.Hour))
	require.NoError(t, err)

	var total int64
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&total))
	assert.EqualValues(t, 1, total)
}

func TestRegistry_CleanupExpiredCount(t *testing.T) {
	store := newTestStore(t)
	registry := NewRegistry(store.DB())
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	past := time.Now().Add(-48 * time.Hour)
	registry.now = func() time.Time { return past }
	for _, token := range []string{"t1", "t2", "t3"} {
		_, err := registry.Create(ctx, user.ID, token, past.Add(time.Minute))
		require.NoError(t, err)
	}
	registry.now = time.Now

	removed, err := registry.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	removed, err = registry.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}
