package domain

import "time"

// Account is the durable identity record resolved by username during
// authentication. The failed-login counter and lockout window live here so
// they survive restarts, unlike the per-address throttle.
type Account struct {
	ID           int64
	Username     string
	GivenName    string
	FamilyName   string
	Email        string
	PasswordHash string // argon2 encoded

	// FullAdmin bypasses all organizational-unit scoping.
	FullAdmin bool

	// Enabled gates authentication; disabled accounts keep their data.
	Enabled bool

	// ActivatedAt is nil until the account completes activation. A nil or
	// future value rejects authentication with a not-active classification.
	ActivatedAt *time.Time

	FailedLogins int
	LockoutEnd   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account lockout window is still open.
func (a Account) Locked(now time.Time) bool {
	return a.LockoutEnd != nil && a.LockoutEnd.After(now)
}

// Activated reports whether the account has a non-nil activation timestamp
// that is not in the future.
func (a Account) Activated(now time.Time) bool {
	return a.ActivatedAt != nil && !a.ActivatedAt.After(now)
}
