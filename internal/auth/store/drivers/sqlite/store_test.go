package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/taskgrove/taskadmin/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedAccount(t *testing.T, st *sqlite.Store, username string) int64 {
	t.Helper()

	now := time.Now()
	id, err := st.Accounts().Create(context.Background(), domain.Account{
		Username:     username,
		GivenName:    "Test",
		FamilyName:   "User",
		Email:        username + "@example.org",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Enabled:      true,
		ActivatedAt:  &now,
	})
	require.NoError(t, err)
	return id
}

func TestAccounts_CreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id := seedAccount(t, st, "jdoe")
	require.Positive(t, id)

	a, err := st.Accounts().GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.Equal(t, id, a.ID)
	require.Equal(t, "jdoe", a.Username)
	require.Equal(t, "jdoe@example.org", a.Email)
	require.True(t, a.Enabled)
	require.False(t, a.FullAdmin)
	require.NotNil(t, a.ActivatedAt)
	require.Zero(t, a.FailedLogins)
	require.Nil(t, a.LockoutEnd)
}

func TestAccounts_GetUnknownUser(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Accounts().GetByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_DuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	seedAccount(t, st, "jdoe")

	_, err := st.Accounts().Create(context.Background(), domain.Account{
		Username:     "jdoe",
		PasswordHash: "x",
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAccounts_FailedLoginCounter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedAccount(t, st, "jdoe")

	n, err := st.Accounts().IncrementFailedLogins(ctx, "jdoe")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = st.Accounts().IncrementFailedLogins(ctx, "jdoe")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	end := time.Now().Add(30 * time.Minute)
	require.NoError(t, st.Accounts().SetLockoutEnd(ctx, "jdoe", end))

	a, err := st.Accounts().GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.Equal(t, 2, a.FailedLogins)
	require.NotNil(t, a.LockoutEnd)
	require.True(t, a.Locked(time.Now()))

	require.NoError(t, st.Accounts().ResetFailedLogins(ctx, "jdoe"))

	a, err = st.Accounts().GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.Zero(t, a.FailedLogins)
	require.Nil(t, a.LockoutEnd)
}

func TestAccounts_CounterOpsOnUnknownUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Accounts().IncrementFailedLogins(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.Accounts().SetLockoutEnd(ctx, "ghost", time.Now())
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.Accounts().ResetFailedLogins(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccounts_ClearExpiredLockouts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, st, "expired")
	seedAccount(t, st, "active")

	_, err := st.Accounts().IncrementFailedLogins(ctx, "expired")
	require.NoError(t, err)
	require.NoError(t, st.Accounts().SetLockoutEnd(ctx, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, st.Accounts().SetLockoutEnd(ctx, "active", time.Now().Add(time.Hour)))

	cleared, err := st.Accounts().ClearExpiredLockouts(ctx, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, cleared)

	a, err := st.Accounts().GetByUsername(ctx, "expired")
	require.NoError(t, err)
	require.Nil(t, a.LockoutEnd)
	require.Zero(t, a.FailedLogins)

	a, err = st.Accounts().GetByUsername(ctx, "active")
	require.NoError(t, err)
	require.NotNil(t, a.LockoutEnd)
}

func TestRoleAssignments_GrantListRevoke(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedAccount(t, st, "jdoe")

	require.NoError(t, st.RoleAssignments().Grant(ctx, id, 7, "INSTRUCTOR"))
	require.NoError(t, st.RoleAssignments().Grant(ctx, id, 9, "TUTOR"))

	err := st.RoleAssignments().Grant(ctx, id, 7, "INSTRUCTOR")
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	list, err := st.RoleAssignments().ListByAccount(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(7), list[0].OrganizationalUnit)
	require.Equal(t, "INSTRUCTOR", list[0].Role)

	require.NoError(t, st.RoleAssignments().Revoke(ctx, id, 7, "INSTRUCTOR"))

	err = st.RoleAssignments().Revoke(ctx, id, 7, "INSTRUCTOR")
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err = st.RoleAssignments().ListByAccount(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRoleAssignments_UnknownAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := seedAccount(t, st, "jdoe")

	require.NoError(t, st.RoleAssignments().Grant(ctx, id, 7, "ADMIN"))

	// Unknown account id simply yields an empty list
	list, err := st.RoleAssignments().ListByAccount(ctx, id+1)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStore_Ping(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
