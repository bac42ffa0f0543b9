package sqlite

import (
	"context"
	"database/sql"

	"github.com/taskgrove/taskadmin/internal/auth/domain"
	"github.com/taskgrove/taskadmin/internal/auth/store"
)

type roleAssignmentsRepo struct {
	db *sql.DB
}

func (r *roleAssignmentsRepo) ListByAccount(ctx context.Context, accountID int64) ([]domain.RoleAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, org_unit, role, created_at
		FROM role_assignments
		WHERE account_id = ?
		ORDER BY org_unit, role`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoleAssignment
	for rows.Next() {
		var ra domain.RoleAssignment
		if err := rows.Scan(&ra.AccountID, &ra.OrganizationalUnit, &ra.Role, &ra.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ra)
	}
	return out, rows.Err()
}

func (r *roleAssignmentsRepo) Grant(ctx context.Context, accountID, orgUnit int64, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO role_assignments (account_id, org_unit, role, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)`, accountID, orgUnit, role)
	return mapConstraint(err)
}

func (r *roleAssignmentsRepo) Revoke(ctx context.Context, accountID, orgUnit int64, role string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM role_assignments
		WHERE account_id = ? AND org_unit = ? AND role = ?`, accountID, orgUnit, role)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
