package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
	"github.com/taskgrove/taskadmin/internal/auth/store"
)

type accountsRepo struct {
	db *sql.DB
}

const accountColumns = `id, username, given_name, family_name, email, password_hash,
	full_admin, enabled, activated_at, failed_logins, lockout_end, created_at, updated_at`

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a           domain.Account
		activatedAt sql.NullTime
		lockoutEnd  sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Username, &a.GivenName, &a.FamilyName, &a.Email, &a.PasswordHash,
		&a.FullAdmin, &a.Enabled, &activatedAt, &a.FailedLogins, &lockoutEnd,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.ActivatedAt = mapNullTimePtr(activatedAt)
	a.LockoutEnd = mapNullTimePtr(lockoutEnd)
	return a, nil
}

func (r *accountsRepo) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = ?`, username)
	return scanAccount(row)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (
			username, given_name, family_name, email, password_hash,
			full_admin, enabled, activated_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		a.Username, a.GivenName, a.FamilyName, a.Email, a.PasswordHash,
		a.FullAdmin, a.Enabled, mapOptionalTime(a.ActivatedAt),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *accountsRepo) IncrementFailedLogins(ctx context.Context, username string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET failed_logins = failed_logins + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE username = ?
		RETURNING failed_logins`, username)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, mapNotFound(err)
	}
	return count, nil
}

func (r *accountsRepo) SetLockoutEnd(ctx context.Context, username string, end time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET lockout_end = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE username = ?`, end.UTC(), username)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) ResetFailedLogins(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET failed_logins = 0,
		    lockout_end = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE username = ?`, username)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) ClearExpiredLockouts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET failed_logins = 0,
		    lockout_end = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE lockout_end IS NOT NULL AND lockout_end <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
