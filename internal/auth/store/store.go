package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Accounts() Accounts
	RoleAssignments() RoleAssignments

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Accounts interface {
	// GetByUsername resolves the durable identity used by every login and
	// token issuance.
	GetByUsername(ctx context.Context, username string) (domain.Account, error)

	// Create inserts a new account. The generated integer id is returned.
	Create(ctx context.Context, a domain.Account) (int64, error)

	// IncrementFailedLogins bumps the failure counter atomically in the
	// database and returns the new count. Deliberately no optimistic lock:
	// under-counting across racing requests is an accepted approximation
	// for a throttle.
	IncrementFailedLogins(ctx context.Context, username string) (int, error)

	// SetLockoutEnd stamps (or re-stamps) the lockout window end.
	SetLockoutEnd(ctx context.Context, username string, end time.Time) error

	// ResetFailedLogins zeroes the counter and clears any lockout.
	ResetFailedLogins(ctx context.Context, username string) error

	// ClearExpiredLockouts removes lockout stamps whose window has passed.
	// Housekeeping only; authentication checks the timestamp itself.
	ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error)
}

type RoleAssignments interface {
	// ListByAccount returns every (organizational unit, role) pair held by
	// the account, for embedding into access-token claims.
	ListByAccount(ctx context.Context, accountID int64) ([]domain.RoleAssignment, error)

	// Grant adds a role assignment. Granting an existing triple is an
	// ErrAlreadyExists.
	Grant(ctx context.Context, accountID, orgUnit int64, role string) error

	// Revoke removes a role assignment.
	Revoke(ctx context.Context, accountID, orgUnit int64, role string) error
}
