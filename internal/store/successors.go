package store

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// CreateSuccessor inserts one replacement edge (spec §4.10).
func (s *Store) CreateSuccessor(ctx context.Context, q Querier, succ *model.Successor) (int64, error) {
	var id int64
	row := q.QueryRowContext(ctx, `
		INSERT INTO product_successors
			(source_node_id, target_node_id, target_full_code, replacement_type, severity,
			 effective_date, show_warning, migration_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		succ.SourceNodeID, succ.TargetNodeID, succ.TargetFullCode, succ.ReplacementType, succ.Severity,
		succ.EffectiveDate, succ.ShowWarning, succ.MigrationNotes)
	if err := row.Scan(&id); err != nil {
		return 0, classifyPQError(err, "")
	}
	return id, nil
}

// DeleteSuccessor removes a successor edge by id.
func (s *Store) DeleteSuccessor(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM product_successors WHERE id = $1`, id)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("successor %d not found", id)
	}
	return nil
}

// SuccessorsFor returns every replacement edge whose source is
// sourceNodeID, ordered by severity (critical first) then id — the
// order the resolver (§4.10) picks the effective successor from.
func (s *Store) SuccessorsFor(ctx context.Context, q Querier, sourceNodeID int64) ([]*model.Successor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, source_node_id, target_node_id, target_full_code, replacement_type, severity,
		       effective_date, show_warning, migration_notes, created_at
		FROM product_successors
		WHERE source_node_id = $1
		ORDER BY CASE severity WHEN 'critical' THEN 0 WHEN 'warning' THEN 1 ELSE 2 END, id`, sourceNodeID)
	if err != nil {
		return nil, apperr.Internal(err, "query successors")
	}
	defer rows.Close()
	return scanSuccessors(rows)
}

// AllSuccessors returns the full successor table, used by admin bulk
// listing and export.
func (s *Store) AllSuccessors(ctx context.Context, q Querier) ([]*model.Successor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, source_node_id, target_node_id, target_full_code, replacement_type, severity,
		       effective_date, show_warning, migration_notes, created_at
		FROM product_successors ORDER BY source_node_id, id`)
	if err != nil {
		return nil, apperr.Internal(err, "query all successors")
	}
	defer rows.Close()
	return scanSuccessors(rows)
}

func scanSuccessors(rows *sql.Rows) ([]*model.Successor, error) {
	var out []*model.Successor
	for rows.Next() {
		succ := &model.Successor{}
		var effective sql.NullTime
		if err := rows.Scan(&succ.ID, &succ.SourceNodeID, &succ.TargetNodeID, &succ.TargetFullCode,
			&succ.ReplacementType, &succ.Severity, &effective, &succ.ShowWarning, &succ.MigrationNotes,
			&succ.CreatedAt); err != nil {
			return nil, apperr.Internal(err, "scan successor")
		}
		if effective.Valid {
			t := effective.Time
			succ.EffectiveDate = &t
		}
		out = append(out, succ)
	}
	return out, rows.Err()
}
