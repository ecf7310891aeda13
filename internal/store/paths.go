package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// BatchPathExists is the hot path of the whole engine (spec §4.4): true
// iff some (a in A, b in B) pair has a closure row in either direction
// is NOT what's asked here — callers pass the specific direction they
// want by choosing which set is the ancestor side and which is the
// descendant side.
func (s *Store) BatchPathExists(ctx context.Context, q Querier, ancestors, descendants []int64) (bool, error) {
	if len(ancestors) == 0 || len(descendants) == 0 {
		return false, nil
	}
	row := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM node_paths
			WHERE ancestor_id = ANY($1) AND descendant_id = ANY($2)
		)`, pq.Array(ancestors), pq.Array(descendants))
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, apperr.Internal(err, "batch path existence query")
	}
	return exists, nil
}

// PrunedBySet is a batched variant of BatchPathExists that, instead of
// a single boolean, returns the subset of `candidates` that has at
// least one closure row to `anchors` in the requested direction. This
// is what the compatibility engine's per-selection pruning (§4.4 step
// 3) actually needs: one query per selection, not one query per
// candidate.
func (s *Store) PrunedBySet(ctx context.Context, q Querier, anchors, candidates []int64, anchorsAreAncestors bool) (map[int64]bool, error) {
	if len(anchors) == 0 || len(candidates) == 0 {
		return map[int64]bool{}, nil
	}
	var rows *sql.Rows
	var err error
	if anchorsAreAncestors {
		// anchors are at a lower level: keep candidates reachable FROM anchors (forward).
		rows, err = q.QueryContext(ctx, `
			SELECT DISTINCT descendant_id FROM node_paths
			WHERE ancestor_id = ANY($1) AND descendant_id = ANY($2)`, pq.Array(anchors), pq.Array(candidates))
	} else {
		// anchors are at a higher level: keep candidates that are ancestors OF anchors (backward).
		rows, err = q.QueryContext(ctx, `
			SELECT DISTINCT ancestor_id FROM node_paths
			WHERE descendant_id = ANY($1) AND ancestor_id = ANY($2)`, pq.Array(anchors), pq.Array(candidates))
	}
	if err != nil {
		return nil, apperr.Internal(err, "pruned-by-set query")
	}
	defer rows.Close()
	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal(err, "scan pruned id")
		}
		out[id] = true
	}
	return out, rows.Err()
}

// MaxLevelBelow returns the max level among coded descendants of
// nodeID, or -1 when it has none.
func (s *Store) MaxLevelBelow(ctx context.Context, q Querier, nodeID int64) (int, error) {
	row := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(n.level), -1) FROM nodes n
		JOIN node_paths p ON p.descendant_id = n.id
		WHERE p.ancestor_id = $1 AND n.code IS NOT NULL`, nodeID)
	var level int
	if err := row.Scan(&level); err != nil {
		return 0, apperr.Internal(err, "max level below")
	}
	return level, nil
}

// MaxDepthBelow returns the max closure depth (including pattern
// containers) below nodeID.
func (s *Store) MaxDepthBelow(ctx context.Context, q Querier, nodeID int64) (int, error) {
	row := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(depth), 0) FROM node_paths WHERE ancestor_id = $1`, nodeID)
	var depth int
	if err := row.Scan(&depth); err != nil {
		return 0, apperr.Internal(err, "max depth below")
	}
	return depth, nil
}

// ReachableLeaves returns descendants of any of `ancestors` that are
// not themselves a parent (used by §4.7 group inference).
func (s *Store) ReachableLeaves(ctx context.Context, q Querier, ancestors []int64) ([]*model.Node, error) {
	if len(ancestors) == 0 {
		return nil, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT `+prefixColumns("n")+`
		FROM nodes n
		JOIN node_paths p ON p.descendant_id = n.id
		WHERE p.ancestor_id = ANY($1)
		  AND NOT EXISTS (SELECT 1 FROM nodes child WHERE child.parent_id = n.id)`,
		pq.Array(ancestors))
	if err != nil {
		return nil, apperr.Internal(err, "reachable leaves query")
	}
	defer rows.Close()
	return collectNodes(rows)
}

// SubtreeByDepth returns every descendant of id (id included, at
// depth 0), ordered by ascending depth, alongside a depth-within-
// subtree lookup by node id. Used by the deep-copy operation (§4.9),
// which must create parents before children.
func (s *Store) SubtreeByDepth(ctx context.Context, q Querier, id int64) ([]*model.Node, map[int64]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prefixColumns("n")+`, p.depth
		FROM nodes n
		JOIN node_paths p ON p.descendant_id = n.id
		WHERE p.ancestor_id = $1
		ORDER BY p.depth ASC, n.id ASC`, id)
	if err != nil {
		return nil, nil, apperr.Internal(err, "query subtree by depth")
	}
	defer rows.Close()

	var out []*model.Node
	depths := make(map[int64]int)
	for rows.Next() {
		var depth int
		n, err := scanNodeRow(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &depth)...)
		})
		if err != nil {
			return nil, nil, apperr.Internal(err, "scan subtree row")
		}
		out = append(out, n)
		depths[n.ID] = depth
	}
	return out, depths, rows.Err()
}

// AncestorDepths returns every ancestor of id (id included, depth 0)
// mapped to its closure depth. Used by the deep-copy operation to
// compute the depth of a copied node relative to the new parent's own
// ancestry (§4.9 step 3).
func (s *Store) AncestorDepths(ctx context.Context, q Querier, id int64) (map[int64]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT ancestor_id, depth FROM node_paths WHERE descendant_id = $1`, id)
	if err != nil {
		return nil, apperr.Internal(err, "query ancestor depths")
	}
	defer rows.Close()
	out := make(map[int64]int)
	for rows.Next() {
		var aid int64
		var depth int
		if err := rows.Scan(&aid, &depth); err != nil {
			return nil, apperr.Internal(err, "scan ancestor depth")
		}
		out[aid] = depth
	}
	return out, rows.Err()
}

// ExistsSubtreeWithGroup checks whether any descendant of the given
// roots carries the given group_name (§4.4 step 5, the group filter).
func (s *Store) ExistsSubtreeWithGroup(ctx context.Context, q Querier, roots []int64, groupName string) (bool, error) {
	if len(roots) == 0 {
		return false, nil
	}
	row := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM nodes n
			JOIN node_paths p ON p.descendant_id = n.id
			WHERE p.ancestor_id = ANY($1) AND n.group_name = $2
		)`, pq.Array(roots), groupName)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, apperr.Internal(err, "group filter existence query")
	}
	return exists, nil
}

// insertClosureForNode emits the self-reference and, if parentID is
// set, the inherited ancestor rows for a freshly inserted node. Must
// run inside the same transaction as the nodes INSERT (§4.1).
func insertClosureForNode(ctx context.Context, tx *sql.Tx, newID int64, parentID *int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO node_paths (ancestor_id, descendant_id, depth) VALUES ($1, $1, 0)`, newID); err != nil {
		return apperr.Internal(err, "insert self-reference path")
	}
	if parentID == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO node_paths (ancestor_id, descendant_id, depth)
		SELECT ancestor_id, $1, depth + 1 FROM node_paths WHERE descendant_id = $2`, newID, *parentID); err != nil {
		return apperr.Internal(err, "insert inherited ancestor paths")
	}
	return nil
}

// deleteNodeCascade removes the entire descendant set of id and every
// path row referencing any deleted node as ancestor or descendant.
func deleteNodeCascade(ctx context.Context, tx *sql.Tx, id int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT descendant_id FROM node_paths WHERE ancestor_id = $1`, id)
	if err != nil {
		return apperr.Internal(err, "collect descendant set")
	}
	var victims []int64
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return apperr.Internal(err, "scan descendant id")
		}
		victims = append(victims, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperr.Internal(err, "iterate descendant set")
	}
	if len(victims) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM node_paths WHERE ancestor_id = ANY($1) OR descendant_id = ANY($1)`, pq.Array(victims)); err != nil {
		return apperr.Internal(err, "delete closure rows for subtree")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ANY($1)`, pq.Array(victims)); err != nil {
		return classifyPQError(err, "")
	}
	return nil
}

func prefixColumns(alias string) string {
	return alias + ".id, " + alias + ".code, " + alias + ".name, " + alias + ".label, " + alias + ".label_en, " +
		alias + ".level, " + alias + ".position, " + alias + ".pattern, " + alias + ".group_name, " +
		alias + ".full_typecode, " + alias + ".is_intermediate_code, " + alias + ".pictures, " + alias + ".links, " + alias + ".parent_id"
}
