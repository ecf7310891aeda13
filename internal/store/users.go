package store

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// CreateUser inserts a new user row (§4.11).
func (s *Store) CreateUser(ctx context.Context, q Querier, u *model.User) (int64, error) {
	var id int64
	row := q.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, must_change_password)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Username, u.PasswordHash, u.Role, u.Active, u.MustChangePassword)
	if err := row.Scan(&id); err != nil {
		return 0, classifyPQError(err, "")
	}
	return id, nil
}

// UserByUsername fetches a user for login.
func (s *Store) UserByUsername(ctx context.Context, q Querier, username string) (*model.User, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, active, must_change_password
		FROM users WHERE username = $1`, username)
	return scanUser(row.Scan)
}

// UserByID fetches a user by id.
func (s *Store) UserByID(ctx context.Context, q Querier, id int64) (*model.User, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, active, must_change_password
		FROM users WHERE id = $1`, id)
	return scanUser(row.Scan)
}

// AllUsers lists every account, admin listing only.
func (s *Store) AllUsers(ctx context.Context, q Querier) ([]*model.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, username, password_hash, role, active, must_change_password FROM users ORDER BY username`)
	if err != nil {
		return nil, apperr.Internal(err, "query users")
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LockActiveAdminIDs is the query the last-admin guard (§4.11, §5) runs
// before any mutation that could leave the system without an active
// administrator. FOR UPDATE takes row locks on every active admin, so a
// second transaction's guard blocks on this one until it commits or
// rolls back, instead of reading a stale count under READ COMMITTED.
// Must be called with q bound to the same transaction as the guarded
// mutation.
func (s *Store) LockActiveAdminIDs(ctx context.Context, q Querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM users WHERE role = 'admin' AND active FOR UPDATE`)
	if err != nil {
		return nil, apperr.Internal(err, "lock active admins")
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal(err, "scan active admin id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateUser rewrites role/active/must-change-password flags.
func (s *Store) UpdateUser(ctx context.Context, q Querier, u *model.User) error {
	res, err := q.ExecContext(ctx, `
		UPDATE users SET role=$1, active=$2, must_change_password=$3 WHERE id=$4`,
		u.Role, u.Active, u.MustChangePassword, u.ID)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("user %d not found", u.ID)
	}
	return nil
}

// SetPasswordHash updates only the password hash, used by both admin
// reset and self-service change-password.
func (s *Store) SetPasswordHash(ctx context.Context, q Querier, userID int64, hash string, mustChange bool) error {
	res, err := q.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, must_change_password = $2 WHERE id = $3`, hash, mustChange, userID)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("user %d not found", userID)
	}
	return nil
}

// DeleteUser removes an account by id.
func (s *Store) DeleteUser(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	return nil
}

func scanUser(scan func(dest ...interface{}) error) (*model.User, error) {
	u := &model.User{}
	if err := scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Active, &u.MustChangePassword); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "scan user")
	}
	return u, nil
}
