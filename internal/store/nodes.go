package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

const nodeColumns = `id, code, name, label, label_en, level, position, pattern,
	group_name, full_typecode, is_intermediate_code, pictures, links, parent_id`

type nodeRow struct {
	id                 int64
	code               sql.NullString
	name               string
	label              string
	labelEN            string
	level              int
	position           int
	pattern            sql.NullInt64
	groupName          sql.NullString
	fullTypeCode       sql.NullString
	isIntermediateCode bool
	pictures           []byte
	links              []byte
	parentID           sql.NullInt64
}

func scanNodeRow(scan func(dest ...interface{}) error) (*model.Node, error) {
	var r nodeRow
	if err := scan(&r.id, &r.code, &r.name, &r.label, &r.labelEN, &r.level, &r.position,
		&r.pattern, &r.groupName, &r.fullTypeCode, &r.isIntermediateCode, &r.pictures, &r.links, &r.parentID); err != nil {
		return nil, err
	}
	n := &model.Node{
		ID:                 r.id,
		Name:               r.name,
		Label:              r.label,
		LabelEN:            r.labelEN,
		Level:              r.level,
		Position:           r.position,
		IsIntermediateCode: r.isIntermediateCode,
	}
	if r.code.Valid {
		c := r.code.String
		n.Code = &c
	}
	if r.pattern.Valid {
		p := r.pattern.Int64
		n.Pattern = &p
	}
	if r.groupName.Valid {
		g := r.groupName.String
		n.GroupName = &g
	}
	if r.fullTypeCode.Valid {
		f := r.fullTypeCode.String
		n.FullTypeCode = &f
	}
	if r.parentID.Valid {
		p := r.parentID.Int64
		n.ParentID = &p
	}
	if len(r.pictures) > 0 {
		_ = json.Unmarshal(r.pictures, &n.Pictures)
	}
	if len(r.links) > 0 {
		_ = json.Unmarshal(r.links, &n.Links)
	}
	return n, nil
}

// GetNode fetches a single node by id.
func (s *Store) GetNode(ctx context.Context, q Querier, id int64) (*model.Node, error) {
	row := q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id)
	n, err := scanNodeRow(row.Scan)
	if err != nil {
		return nil, classifyPQError(err, "node not found")
	}
	return n, nil
}

// DescendantsAt returns all nodes with the given level reachable from
// ancestorID, ordered by (parent.pattern, position, code).
func (s *Store) DescendantsAt(ctx context.Context, q Querier, ancestorID int64, level int) ([]*model.Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT n.id, n.code, n.name, n.label, n.label_en, n.level, n.position, n.pattern,
		       n.group_name, n.full_typecode, n.is_intermediate_code, n.pictures, n.links, n.parent_id
		FROM nodes n
		JOIN node_paths p ON p.descendant_id = n.id
		LEFT JOIN nodes parent ON parent.id = n.parent_id
		WHERE p.ancestor_id = $1 AND n.level = $2
		ORDER BY parent.pattern NULLS FIRST, n.position, n.code`, ancestorID, level)
	if err != nil {
		return nil, apperr.Internal(err, "query descendants at level")
	}
	defer rows.Close()
	return collectNodes(rows)
}

// ChildrenOf returns the immediate children of parentID in display
// order (pattern containers and coded nodes alike — callers that need
// to skip pattern containers use SkipPatternChildren instead).
func (s *Store) ChildrenOf(ctx context.Context, q Querier, parentID int64) ([]*model.Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes WHERE parent_id = $1 ORDER BY position, code`, parentID)
	if err != nil {
		return nil, apperr.Internal(err, "query children")
	}
	defer rows.Close()
	return collectNodes(rows)
}

// TopLevelFamilies returns every level-0 root node (spec §3: a product
// family has parent_id IS NULL).
func (s *Store) TopLevelFamilies(ctx context.Context, q Querier) ([]*model.Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes WHERE parent_id IS NULL ORDER BY position, code`)
	if err != nil {
		return nil, apperr.Internal(err, "query top-level families")
	}
	defer rows.Close()
	return collectNodes(rows)
}

// CandidateNode is a node carrying its parent's pattern, the shape the
// compatibility engine groups and orders by (§4.4 step 1, step 7).
type CandidateNode struct {
	*model.Node
	ParentPattern *int64
}

// NodesAtLevel is the candidate fetch for the compatibility engine
// (§4.4 step 1): all coded nodes at targetLevel descending from the
// family root, joined with their parent to carry parent.pattern.
func (s *Store) NodesAtLevel(ctx context.Context, q Querier, familyID int64, level int) ([]CandidateNode, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT n.id, n.code, n.name, n.label, n.label_en, n.level, n.position, n.pattern,
		       n.group_name, n.full_typecode, n.is_intermediate_code, n.pictures, n.links, n.parent_id,
		       parent.pattern
		FROM nodes n
		JOIN node_paths p ON p.descendant_id = n.id
		LEFT JOIN nodes parent ON parent.id = n.parent_id
		WHERE p.ancestor_id = $1 AND n.level = $2 AND n.code IS NOT NULL
		ORDER BY parent.pattern NULLS FIRST, n.position, n.code`, familyID, level)
	if err != nil {
		return nil, apperr.Internal(err, "query candidate nodes")
	}
	defer rows.Close()

	var out []CandidateNode
	for rows.Next() {
		var parentPattern sql.NullInt64
		n, err := scanNodeRow(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &parentPattern)...)
		})
		if err != nil {
			return nil, apperr.Internal(err, "scan candidate node")
		}
		cn := CandidateNode{Node: n}
		if parentPattern.Valid {
			p := parentPattern.Int64
			cn.ParentPattern = &p
		}
		out = append(out, cn)
	}
	return out, rows.Err()
}

// AncestorsOf returns the path segments root->id in ascending depth,
// optionally skipping pattern containers.
func (s *Store) AncestorsOf(ctx context.Context, q Querier, id int64, skipPatterns bool) ([]*model.Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT n.id, n.code, n.name, n.label, n.label_en, n.level, n.position, n.pattern,
		       n.group_name, n.full_typecode, n.is_intermediate_code, n.pictures, n.links, n.parent_id,
		       p.depth
		FROM nodes n
		JOIN node_paths p ON p.ancestor_id = n.id
		WHERE p.descendant_id = $1
		ORDER BY p.depth ASC`, id)
	if err != nil {
		return nil, apperr.Internal(err, "query ancestors")
	}
	defer rows.Close()

	var out []*model.Node
	for rows.Next() {
		var depth int
		n, err := scanNodeRow(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &depth)...)
		})
		if err != nil {
			return nil, apperr.Internal(err, "scan ancestor row")
		}
		if skipPatterns && n.IsPatternContainer() {
			continue
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SkipPatternChildren returns the direct children of parent,
// transparently recursing through any chain of pattern containers.
func (s *Store) SkipPatternChildren(ctx context.Context, q Querier, parentID int64) ([]*model.Node, error) {
	frontier := []int64{parentID}
	var result []*model.Node
	for len(frontier) > 0 {
		rows, err := q.QueryContext(ctx, `
			SELECT `+nodeColumns+` FROM nodes WHERE parent_id = ANY($1)
			ORDER BY position, code`, pq.Array(frontier))
		if err != nil {
			return nil, apperr.Internal(err, "query children")
		}
		children, err := collectNodes(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, c := range children {
			if c.IsPatternContainer() {
				frontier = append(frontier, c.ID)
				continue
			}
			result = append(result, c)
		}
	}
	return result, nil
}

// NodesByCodeLevel returns all node ids sharing a code at a level,
// optionally constrained to descendants of a family root.
func (s *Store) NodesByCodeLevel(ctx context.Context, q Querier, code string, level int, family *int64) ([]int64, error) {
	var rows *sql.Rows
	var err error
	if family != nil {
		rows, err = q.QueryContext(ctx, `
			SELECT n.id FROM nodes n
			JOIN node_paths p ON p.descendant_id = n.id
			WHERE n.code = $1 AND n.level = $2 AND p.ancestor_id = $3`, code, level, *family)
	} else {
		rows, err = q.QueryContext(ctx, `SELECT id FROM nodes WHERE code = $1 AND level = $2`, code, level)
	}
	if err != nil {
		return nil, apperr.Internal(err, "query nodes by code/level")
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal(err, "scan node id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NodeByFullTypeCode looks up the single node with an exact full
// type-code, used by the decoder's complete-product fast path.
func (s *Store) NodeByFullTypeCode(ctx context.Context, q Querier, code string) (*model.Node, error) {
	row := q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE full_typecode = $1`, code)
	n, err := scanNodeRow(row.Scan)
	if err != nil {
		return nil, classifyPQError(err, "no node with that full type-code")
	}
	return n, nil
}

// FamilyByCode finds the level-0 node with the given code.
func (s *Store) FamilyByCode(ctx context.Context, q Querier, code string) (*model.Node, error) {
	row := q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE code = $1 AND level = 0 AND parent_id IS NULL`, code)
	n, err := scanNodeRow(row.Scan)
	if err != nil {
		return nil, classifyPQError(err, "family not found")
	}
	return n, nil
}

// NodesByCodeAnyLevel finds every node with a given code, ascending by
// (level, id) — the tie-break decided in spec §9's open question.
func (s *Store) NodesByCodeAnyLevel(ctx context.Context, q Querier, code string) ([]*model.Node, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE code = $1 ORDER BY level ASC, id ASC`, code)
	if err != nil {
		return nil, apperr.Internal(err, "query nodes by code")
	}
	defer rows.Close()
	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]*model.Node, error) {
	var out []*model.Node
	for rows.Next() {
		n, err := scanNodeRow(rows.Scan)
		if err != nil {
			return nil, apperr.Internal(err, "scan node row")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
