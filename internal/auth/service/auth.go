package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/taskgrove/taskadmin/pkg/cryptox"
	"github.com/taskgrove/taskadmin/pkg/slogx"
)

// AuthService orchestrates the credential login flow: throttle gate,
// account state gates, credential check, then token issuance.
type AuthService struct {
	Store  store.Store
	Guard  *BruteForceService
	Tokens *TokenService
}

// Login authenticates a username/password pair coming from clientAddr and
// returns a token pair on success.
//
// Order matters here. The address gate runs before anything touches the
// database. Account state gates (activation, enablement, lockout) run
// before the password check so that a locked account is reported as locked
// even when the password is correct, and so that failing one of those gates
// never counts as a failed login. Counters only move when a password was
// actually checked.
func (s *AuthService) Login(ctx context.Context, username, password, clientAddr string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if s.Guard.IsBlocked(clientAddr) {
		l.Warn("login rejected, address blocked", slog.String("client_addr", clientAddr))
		return domain.TokenPair{}, ErrTooManyAttempts
	}

	account, err := s.Store.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	if err := checkAccountPreconditions(account, time.Now()); err != nil {
		l.Info("login rejected before credential check",
			slog.String("username", username),
			slog.Any("reason", err))
		return domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		s.Guard.LoginFailed(ctx, username, clientAddr)
		l.Info("login failed", slog.String("username", username))
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	s.Guard.LoginSucceeded(ctx, username, clientAddr)

	return s.Tokens.CreateToken(ctx, username, clientAddr)
}
