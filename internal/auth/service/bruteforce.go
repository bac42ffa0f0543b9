package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/taskgrove/taskadmin/pkg/slogx"

	gocache "github.com/patrickmn/go-cache"
)

// Default throttling parameters. The account counter is durable and gates
// the specific identity; the address counter is in-memory and gates the
// origin regardless of which usernames it tries.
const (
	DefaultAccountFailureThreshold = 5
	DefaultAddressFailureThreshold = 10
	DefaultLockoutDuration         = 30 * time.Minute
	DefaultAddressFailureWindow    = 4 * time.Hour
)

// BruteForceService tracks failed authentication attempts on two
// independent axes: per account (durable, survives restarts) and per client
// network address (in-memory, expiring after a quiet period).
//
// Every read-modify-write on the address cache runs under one coarse mutex.
// That serializes login attempts process-wide, which is acceptable at admin
// traffic volumes and guarantees no failed attempt is lost between
// concurrent requests from the same address.
type BruteForceService struct {
	Accounts store.Accounts

	AccountThreshold int
	AddressThreshold int
	LockoutDuration  time.Duration
	AddressWindow    time.Duration

	mu        sync.Mutex
	addresses *gocache.Cache
}

func NewBruteForceService(accounts store.Accounts) *BruteForceService {
	return &BruteForceService{
		Accounts:         accounts,
		AccountThreshold: DefaultAccountFailureThreshold,
		AddressThreshold: DefaultAddressFailureThreshold,
		LockoutDuration:  DefaultLockoutDuration,
		AddressWindow:    DefaultAddressFailureWindow,
		addresses:        gocache.New(DefaultAddressFailureWindow, 10*time.Minute),
	}
}

// IsBlocked reports whether the client address has accumulated more than
// the address threshold of failed attempts within the window. Independent
// of account lockout, which the token issuance precondition chain enforces.
func (s *BruteForceService) IsBlocked(clientAddr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addressCountLocked(clientAddr) > s.AddressThreshold
}

// LoginFailed records one failed credential check: bumps the durable
// account counter (stamping, or re-stamping, a lockout once the account
// threshold is reached) and the in-memory address counter. Re-storing the
// address entry restarts its expiry, so the window measures quiet time
// since the last failure rather than time since the first.
func (s *BruteForceService) LoginFailed(ctx context.Context, username, clientAddr string) {
	l := slogx.FromContext(ctx)

	s.mu.Lock()
	count := s.addressCountLocked(clientAddr) + 1
	s.addresses.Set(clientAddr, count, s.AddressWindow)
	s.mu.Unlock()

	if count > s.AddressThreshold {
		l.Warn("client address blocked after repeated failures",
			slog.String("client_addr", clientAddr),
			slog.Int("failures", count))
	}

	failures, err := s.Accounts.IncrementFailedLogins(ctx, username)
	if err != nil {
		// The account may have been deleted mid-flight; nothing durable to
		// throttle in that case.
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("failed to record failed login", slog.String("username", username), slog.Any("error", err))
		}
		return
	}

	if failures >= s.AccountThreshold {
		end := time.Now().Add(s.LockoutDuration)
		if err := s.Accounts.SetLockoutEnd(ctx, username, end); err != nil {
			l.Error("failed to stamp lockout", slog.String("username", username), slog.Any("error", err))
			return
		}
		l.Warn("account locked out",
			slog.String("username", username),
			slog.Int("failures", failures),
			slog.Time("lockout_end", end))
	}
}

// LoginSucceeded clears both counters: the account's durable failure count
// and lockout, and the calling address's in-memory entry. Other addresses
// are untouched.
func (s *BruteForceService) LoginSucceeded(ctx context.Context, username, clientAddr string) {
	s.mu.Lock()
	s.addresses.Delete(clientAddr)
	s.mu.Unlock()

	if err := s.Accounts.ResetFailedLogins(ctx, username); err != nil && !errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Error("failed to reset login counter",
			slog.String("username", username), slog.Any("error", err))
	}
}

func (s *BruteForceService) addressCountLocked(clientAddr string) int {
	if v, ok := s.addresses.Get(clientAddr); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}
