package store

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// CreateConstraint inserts a constraint header plus its conditions and
// codes in one transaction (spec §4.6).
func (s *Store) CreateConstraint(ctx context.Context, tx *sql.Tx, c *model.Constraint) (int64, error) {
	var id int64
	row := tx.QueryRowContext(ctx, `INSERT INTO constraints (level, mode) VALUES ($1,$2) RETURNING id`, c.Level, c.Mode)
	if err := row.Scan(&id); err != nil {
		return 0, classifyPQError(err, "")
	}
	for _, cond := range c.Conditions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO constraint_conditions (constraint_id, condition_type, target_level, value)
			VALUES ($1,$2,$3,$4)`, id, cond.ConditionType, cond.TargetLevel, cond.Value); err != nil {
			return 0, classifyPQError(err, "")
		}
	}
	for _, code := range c.Codes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO constraint_codes (constraint_id, code_type, code_value)
			VALUES ($1,$2,$3)`, id, code.CodeType, code.CodeValue); err != nil {
			return 0, classifyPQError(err, "")
		}
	}
	return id, nil
}

// DeleteConstraint removes a constraint and its child rows (cascade).
func (s *Store) DeleteConstraint(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM constraints WHERE id = $1`, id)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("constraint %d not found", id)
	}
	return nil
}

// ConstraintsAtLevel loads every constraint that governs candidates at
// the given level, fully hydrated with conditions and codes. This is
// the fetch the constraint engine (§4.6) runs once per decode/filter
// call and then evaluates in memory.
func (s *Store) ConstraintsAtLevel(ctx context.Context, q Querier, level int) ([]*model.Constraint, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, level, mode FROM constraints WHERE level = $1 ORDER BY id`, level)
	if err != nil {
		return nil, apperr.Internal(err, "query constraints")
	}
	var out []*model.Constraint
	for rows.Next() {
		c := &model.Constraint{}
		if err := rows.Scan(&c.ID, &c.Level, &c.Mode); err != nil {
			rows.Close()
			return nil, apperr.Internal(err, "scan constraint")
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		if err := s.hydrateConstraint(ctx, q, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AllConstraints loads the complete constraint set, used by admin
// listing and bulk export.
func (s *Store) AllConstraints(ctx context.Context, q Querier) ([]*model.Constraint, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, level, mode FROM constraints ORDER BY level, id`)
	if err != nil {
		return nil, apperr.Internal(err, "query all constraints")
	}
	var out []*model.Constraint
	for rows.Next() {
		c := &model.Constraint{}
		if err := rows.Scan(&c.ID, &c.Level, &c.Mode); err != nil {
			rows.Close()
			return nil, apperr.Internal(err, "scan constraint")
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		if err := s.hydrateConstraint(ctx, q, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) hydrateConstraint(ctx context.Context, q Querier, c *model.Constraint) error {
	condRows, err := q.QueryContext(ctx, `
		SELECT condition_type, target_level, value FROM constraint_conditions WHERE constraint_id = $1 ORDER BY id`, c.ID)
	if err != nil {
		return apperr.Internal(err, "query constraint conditions")
	}
	for condRows.Next() {
		var cond model.ConstraintCondition
		if err := condRows.Scan(&cond.ConditionType, &cond.TargetLevel, &cond.Value); err != nil {
			condRows.Close()
			return apperr.Internal(err, "scan constraint condition")
		}
		c.Conditions = append(c.Conditions, cond)
	}
	condRows.Close()
	if err := condRows.Err(); err != nil {
		return err
	}

	codeRows, err := q.QueryContext(ctx, `
		SELECT code_type, code_value FROM constraint_codes WHERE constraint_id = $1 ORDER BY id`, c.ID)
	if err != nil {
		return apperr.Internal(err, "query constraint codes")
	}
	for codeRows.Next() {
		var code model.ConstraintCode
		if err := codeRows.Scan(&code.CodeType, &code.CodeValue); err != nil {
			codeRows.Close()
			return apperr.Internal(err, "scan constraint code")
		}
		c.Codes = append(c.Codes, code)
	}
	codeRows.Close()
	return codeRows.Err()
}
