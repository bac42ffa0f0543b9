package service

import "errors"

// Rejection reasons surfaced by the login and refresh flows. The HTTP layer
// collapses most of these into a uniform invalid_credentials response so
// callers cannot enumerate usernames or probe account state; the distinct
// values exist for logging and for tests.
var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrAccountNotActivated = errors.New("account_not_activated")
	ErrAccountDisabled     = errors.New("account_disabled")
	ErrAccountLocked       = errors.New("account_locked")
	ErrTooManyAttempts     = errors.New("too_many_attempts")

	ErrNotRefreshToken = errors.New("not_a_refresh_token")
	ErrSubjectMismatch = errors.New("refresh_subject_mismatch")
	ErrAddressMismatch = errors.New("refresh_address_mismatch")
)
