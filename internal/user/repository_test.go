package user

import (
	"context"
	"testing"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/database"
	"realestate_backend/internal/platform/firestoreutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	return NewGORMRepository(db)
}

func newUser(email, first string, role string, verified bool) *User {
	u := &User{Email: email, FirstName: first, Role: role, Verified: verified, Active: true}
	u.Touch(time.Now())
	return u
}

func TestGORMRepository(t *testing.T) {
	t.Run("create and find", func(t *testing.T) { testCreateAndFind(t, newTestRepo(t)) })
	t.Run("list and stats", func(t *testing.T) { testListAndStats(t, newTestRepo(t)) })
}

func TestFirestoreRepository(t *testing.T) {
	t.Run("create and find", func(t *testing.T) {
		testCreateAndFind(t, NewFirestoreRepository(firestoreutil.NewEmulatorClient(t)))
	})
	t.Run("list and stats", func(t *testing.T) {
		testListAndStats(t, NewFirestoreRepository(firestoreutil.NewEmulatorClient(t)))
	})
}

func testCreateAndFind(t *testing.T, repo Repository) {
	ctx := context.Background()

	u := newUser("  Jane@Example.COM ", "Jane", common.RoleUser, false)
	u.SavedProperties = []string{"p1"}
	u.Preferences.Locations = []string{"Austin"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "jane@example.com", u.Email)

	got, err := repo.FindByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, []string{"p1"}, got.SavedProperties)
	assert.Equal(t, []string{"Austin"}, got.Preferences.Locations)

	dup := newUser("jane@example.com", "Other", common.RoleUser, false)
	err = repo.Create(ctx, dup)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", apiErr.Code)

	_, err = repo.FindByFirebaseUID(ctx, "nobody")
	assert.True(t, common.IsNotFound(err))
}

func testListAndStats(t *testing.T, repo Repository) {
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("a@example.com", "Alice", common.RoleAdmin, true)))
	require.NoError(t, repo.Create(ctx, newUser("b@example.com", "Bob", common.RoleUser, true)))
	require.NoError(t, repo.Create(ctx, newUser("c@example.com", "Carol", common.RoleUser, false)))

	users, total, err := repo.List(ctx, ListFilter{Search: "BOB", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Bob", users[0].FirstName)

	verified := true
	_, total, err = repo.List(ctx, ListFilter{Role: common.RoleUser, Verified: &verified, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	users, total, err = repo.List(ctx, ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 1)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 3, Verified: 2, Admins: 1, Active: 3}, *stats)

	require.NoError(t, repo.Delete(ctx, users[0].ID))
	assert.True(t, common.IsNotFound(repo.Delete(ctx, users[0].ID)))
}
