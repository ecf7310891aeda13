package admin

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// BootstrapAdmin creates the initial administrator account (§4.11:
// created(must_change_password=true)). Intended for first-run setup
// only; the caller hashes the password before calling this.
func (e *Engine) BootstrapAdmin(ctx context.Context, username, passwordHash string) (int64, error) {
	u := &model.User{
		Username:           username,
		PasswordHash:       passwordHash,
		Role:               model.RoleAdmin,
		Active:             true,
		MustChangePassword: true,
	}
	return e.store.CreateUser(ctx, e.dbQuerier(), u)
}

// CreateUser adds a new account, admin-only.
func (e *Engine) CreateUser(ctx context.Context, username, passwordHash string, role model.Role) (int64, error) {
	u := &model.User{
		Username:           username,
		PasswordHash:       passwordHash,
		Role:               role,
		Active:             true,
		MustChangePassword: true,
	}
	return e.store.CreateUser(ctx, e.dbQuerier(), u)
}

// CompleteFirstLogin clears must_change_password once the user has set
// their own password (§4.11: "first-login password change").
func (e *Engine) CompleteFirstLogin(ctx context.Context, userID int64, newPasswordHash string) error {
	return e.store.SetPasswordHash(ctx, e.dbQuerier(), userID, newPasswordHash, false)
}

// SetActive toggles a user's active flag. Disabling the last active
// admin is rejected (§4.11, §8 property 8): the count check and the
// update run in one transaction so no concurrent disable can race past
// it.
func (e *Engine) SetActive(ctx context.Context, userID int64, active bool) error {
	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		u, err := e.store.UserByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !active && u.Role == model.RoleAdmin && u.Active {
			if err := e.guardLastAdmin(ctx, tx, userID); err != nil {
				return err
			}
		}
		u.Active = active
		return e.store.UpdateUser(ctx, tx, u)
	})
}

// DeleteUser removes an account, enforcing the §4.11/§7 guards: may
// not delete self, may not delete id=1 (the initial admin), may not
// delete the last active admin.
func (e *Engine) DeleteUser(ctx context.Context, actingUserID, targetUserID int64) error {
	if actingUserID == targetUserID {
		return apperr.Integrity("a user may not delete their own account")
	}
	if targetUserID == 1 {
		return apperr.Integrity("the initial admin account may not be deleted")
	}
	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		u, err := e.store.UserByID(ctx, tx, targetUserID)
		if err != nil {
			return err
		}
		if u.Role == model.RoleAdmin && u.Active {
			if err := e.guardLastAdmin(ctx, tx, targetUserID); err != nil {
				return err
			}
		}
		return e.store.DeleteUser(ctx, tx, targetUserID)
	})
}

// guardLastAdmin fails if removing/disabling excludedID would leave
// zero active admins. Must run inside the caller's transaction:
// LockActiveAdminIDs takes FOR UPDATE row locks on every active admin,
// so a second transaction's guard blocks here until the first commits
// or rolls back — no interleaving of admin-delete/disable requests can
// both observe the pre-mutation count (§5: "user-delete must run under
// an exclusive transaction"; §8 property 8).
func (e *Engine) guardLastAdmin(ctx context.Context, tx *sql.Tx, excludedID int64) error {
	ids, err := e.store.LockActiveAdminIDs(ctx, tx)
	if err != nil {
		return err
	}
	if len(ids) <= 1 {
		return apperr.Integrity("cannot remove the last active admin")
	}
	return nil
}

// Users lists every account.
func (e *Engine) Users(ctx context.Context) ([]*model.User, error) {
	return e.store.AllUsers(ctx, e.dbQuerier())
}

// ResetPassword is the admin-initiated password reset, which leaves
// must_change_password set so the user is forced to pick their own on
// next login.
func (e *Engine) ResetPassword(ctx context.Context, userID int64, newPasswordHash string) error {
	return e.store.SetPasswordHash(ctx, e.dbQuerier(), userID, newPasswordHash, true)
}
