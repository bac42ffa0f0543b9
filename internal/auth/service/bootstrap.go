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

// BootstrapService seeds the initial full-admin account on first start so a
// fresh deployment is immediately operable. A no-op when the account
// already exists.
type BootstrapService struct {
	Store store.Store

	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

// EnsureAdmin creates the configured full-admin account if it does not
// exist yet. The account is created enabled and pre-activated.
func (s *BootstrapService) EnsureAdmin(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	if s.AdminUsername == "" || s.AdminPassword == "" {
		l.Debug("no bootstrap admin configured, skipping")
		return nil
	}

	if _, err := s.Store.Accounts().GetByUsername(ctx, s.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	passHash, err := cryptox.HashPassword(s.AdminPassword)
	if err != nil {
		l.Error("failed to hash bootstrap admin password", slog.Any("error", err))
		return err
	}

	now := time.Now()
	id, err := s.Store.Accounts().Create(ctx, domain.Account{
		Username:     s.AdminUsername,
		Email:        s.AdminEmail,
		PasswordHash: passHash,
		FullAdmin:    true,
		Enabled:      true,
		ActivatedAt:  &now,
	})
	if err != nil {
		// Lost a race against a concurrent instance; the account exists.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		l.Error("failed to create bootstrap admin", slog.Any("error", err))
		return err
	}

	l.Info("created bootstrap admin account",
		slog.String("username", s.AdminUsername),
		slog.Int64("uid", id))
	return nil
}
