package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
	"github.com/taskgrove/taskadmin/internal/auth/service"
	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// fakeAccounts is an in-memory store.Accounts for guard unit tests.
type fakeAccounts struct {
	mu       sync.Mutex
	failures map[string]int
	lockouts map[string]time.Time
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		failures: map[string]int{},
		lockouts: map[string]time.Time{},
	}
}

func (f *fakeAccounts) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.failures[username]; !ok {
		return domain.Account{}, store.ErrNotFound
	}
	a := domain.Account{Username: username, FailedLogins: f.failures[username]}
	if end, ok := f.lockouts[username]; ok {
		a.LockoutEnd = &end
	}
	return a, nil
}

func (f *fakeAccounts) Create(ctx context.Context, a domain.Account) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[a.Username] = 0
	return int64(len(f.failures)), nil
}

func (f *fakeAccounts) IncrementFailedLogins(ctx context.Context, username string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.failures[username]; !ok {
		return 0, store.ErrNotFound
	}
	f.failures[username]++
	return f.failures[username], nil
}

func (f *fakeAccounts) SetLockoutEnd(ctx context.Context, username string, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.failures[username]; !ok {
		return store.ErrNotFound
	}
	f.lockouts[username] = end
	return nil
}

func (f *fakeAccounts) ResetFailedLogins(ctx context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.failures[username]; !ok {
		return store.ErrNotFound
	}
	f.failures[username] = 0
	delete(f.lockouts, username)
	return nil
}

func (f *fakeAccounts) ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for u, end := range f.lockouts {
		if !end.After(now) {
			delete(f.lockouts, u)
			f.failures[u] = 0
			n++
		}
	}
	return n, nil
}

func (f *fakeAccounts) lockoutEnd(username string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	end, ok := f.lockouts[username]
	return end, ok
}

func (f *fakeAccounts) failureCount(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[username]
}

func newGuard(accounts store.Accounts) *service.BruteForceService {
	return service.NewBruteForceService(accounts)
}

func TestGuard_AddressThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccounts()
	_, _ = accounts.Create(ctx, domain.Account{Username: "jdoe"})
	guard := newGuard(accounts)

	addr := "203.0.113.1"

	// Exactly threshold failures: still allowed
	for range guard.AddressThreshold {
		guard.LoginFailed(ctx, "jdoe", addr)
	}
	require.False(t, guard.IsBlocked(addr))

	// One more tips it over
	guard.LoginFailed(ctx, "jdoe", addr)
	require.True(t, guard.IsBlocked(addr))
}

func TestGuard_SuccessClearsOnlyThatAddress(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccounts()
	_, _ = accounts.Create(ctx, domain.Account{Username: "jdoe"})
	guard := newGuard(accounts)

	for range guard.AddressThreshold + 1 {
		guard.LoginFailed(ctx, "jdoe", "198.51.100.1")
		guard.LoginFailed(ctx, "jdoe", "198.51.100.2")
	}
	require.True(t, guard.IsBlocked("198.51.100.1"))
	require.True(t, guard.IsBlocked("198.51.100.2"))

	guard.LoginSucceeded(ctx, "jdoe", "198.51.100.1")

	require.False(t, guard.IsBlocked("198.51.100.1"))
	require.True(t, guard.IsBlocked("198.51.100.2"), "other addresses stay blocked")
	require.Zero(t, accounts.failureCount("jdoe"))
}

func TestGuard_AccountLockoutStamping(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccounts()
	_, _ = accounts.Create(ctx, domain.Account{Username: "jdoe"})
	guard := newGuard(accounts)

	for range guard.AccountThreshold - 1 {
		guard.LoginFailed(ctx, "jdoe", "203.0.113.9")
	}
	_, locked := accounts.lockoutEnd("jdoe")
	require.False(t, locked, "below threshold must not lock")

	guard.LoginFailed(ctx, "jdoe", "203.0.113.9")
	end1, locked := accounts.lockoutEnd("jdoe")
	require.True(t, locked)
	require.True(t, end1.After(time.Now()))

	// Further failures re-stamp the window forward
	time.Sleep(5 * time.Millisecond)
	guard.LoginFailed(ctx, "jdoe", "203.0.113.9")
	end2, _ := accounts.lockoutEnd("jdoe")
	require.True(t, end2.After(end1))
}

func TestGuard_UnknownUsernameStillCountsAddress(t *testing.T) {
	ctx := context.Background()
	guard := newGuard(newFakeAccounts())

	addr := "203.0.113.2"
	for range guard.AddressThreshold + 1 {
		guard.LoginFailed(ctx, "ghost", addr)
	}
	require.True(t, guard.IsBlocked(addr))
}

func TestGuard_ConcurrentFailuresAreNotLost(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeAccounts()
	_, _ = accounts.Create(ctx, domain.Account{Username: "jdoe"})
	guard := newGuard(accounts)
	guard.AddressThreshold = 19

	addr := "203.0.113.3"
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard.LoginFailed(ctx, "jdoe", addr)
		}()
	}
	wg.Wait()

	// 20 recorded failures against a threshold of 19: blocked only if no
	// read-modify-write was lost.
	require.True(t, guard.IsBlocked(addr))
	require.Equal(t, 20, accounts.failureCount("jdoe"))
}
