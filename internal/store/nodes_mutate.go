package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// CreateNode inserts a node row and its closure rows in one
// transaction (spec §4.1, §5). The caller supplies everything except
// the generated id.
func (s *Store) CreateNode(ctx context.Context, tx *sql.Tx, n *model.Node) (int64, error) {
	if err := n.Validate(); err != nil {
		return 0, apperr.Validation("%v", err)
	}
	pictures, err := json.Marshal(n.Pictures)
	if err != nil {
		return 0, apperr.Internal(err, "marshal pictures")
	}
	links, err := json.Marshal(n.Links)
	if err != nil {
		return 0, apperr.Internal(err, "marshal links")
	}
	var id int64
	row := tx.QueryRowContext(ctx, `
		INSERT INTO nodes (code, name, label, label_en, level, position, pattern,
			group_name, full_typecode, is_intermediate_code, pictures, links, parent_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id`,
		n.Code, n.Name, n.Label, n.LabelEN, n.Level, n.Position, n.Pattern,
		n.GroupName, n.FullTypeCode, n.IsIntermediateCode, pictures, links, n.ParentID)
	if err := row.Scan(&id); err != nil {
		return 0, classifyPQError(err, "")
	}
	if err := insertClosureForNode(ctx, tx, id, n.ParentID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO node_dates (node_id, created_at, updated_at) VALUES ($1, now(), now())`, id); err != nil {
		return 0, apperr.Internal(err, "insert node dates")
	}
	return id, nil
}

// UpdateNode rewrites the mutable fields of an existing node row. The
// parent relationship is immutable here; moving a node to a new
// parent goes through pathengine's move/deep-copy operation instead.
func (s *Store) UpdateNode(ctx context.Context, q Querier, n *model.Node) error {
	if err := n.Validate(); err != nil {
		return apperr.Validation("%v", err)
	}
	pictures, err := json.Marshal(n.Pictures)
	if err != nil {
		return apperr.Internal(err, "marshal pictures")
	}
	links, err := json.Marshal(n.Links)
	if err != nil {
		return apperr.Internal(err, "marshal links")
	}
	res, err := q.ExecContext(ctx, `
		UPDATE nodes SET code=$1, name=$2, label=$3, label_en=$4, position=$5, pattern=$6,
			group_name=$7, full_typecode=$8, is_intermediate_code=$9, pictures=$10, links=$11
		WHERE id=$12`,
		n.Code, n.Name, n.Label, n.LabelEN, n.Position, n.Pattern,
		n.GroupName, n.FullTypeCode, n.IsIntermediateCode, pictures, links, n.ID)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("node %d not found", n.ID)
	}
	if _, err := q.ExecContext(ctx, `UPDATE node_dates SET updated_at = now() WHERE node_id = $1`, n.ID); err != nil {
		return apperr.Internal(err, "touch node dates")
	}
	return nil
}

// DeleteNode removes a node and its entire subtree, including every
// closure row the subtree participates in.
func (s *Store) DeleteNode(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteNodeCascade(ctx, tx, id)
}

// SetParent rewires a node's parent_id column. Used only by
// pathengine's move operation, which calls RebuildClosureBelow
// afterwards rather than patching closure rows incrementally.
func (s *Store) SetParent(ctx context.Context, q Querier, id int64, parentID *int64) error {
	if _, err := q.ExecContext(ctx, `UPDATE nodes SET parent_id = $1 WHERE id = $2`, parentID, id); err != nil {
		return classifyPQError(err, "")
	}
	return nil
}

// RebuildClosureBelow drops and regenerates every closure row whose
// ancestor or descendant lies in the subtree rooted at id. Used after
// pathengine's move operation (§4.9's sibling to deep-copy) has
// rewired parent_id pointers and needs the closure table brought back
// into sync in one shot rather than via incremental insert/delete.
func (s *Store) RebuildClosureBelow(ctx context.Context, tx *sql.Tx, id int64) error {
	rows, err := tx.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT $1::BIGINT
			UNION ALL
			SELECT n.id FROM nodes n JOIN subtree s ON n.parent_id = s.id
		)
		SELECT id FROM subtree`, id)
	if err != nil {
		return apperr.Internal(err, "collect subtree for closure rebuild")
	}
	var ids []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return apperr.Internal(err, "scan subtree id")
		}
		ids = append(ids, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperr.Internal(err, "iterate subtree")
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM node_paths WHERE descendant_id = ANY($1)`, pq.Array(ids)); err != nil {
		return apperr.Internal(err, "clear stale closure rows")
	}
	for _, nid := range ids {
		var parentID sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT parent_id FROM nodes WHERE id = $1`, nid).Scan(&parentID); err != nil {
			return apperr.Internal(err, "read parent for closure rebuild")
		}
		var pid *int64
		if parentID.Valid {
			p := parentID.Int64
			pid = &p
		}
		if err := insertClosureForNode(ctx, tx, nid, pid); err != nil {
			return err
		}
	}
	return nil
}
