// Package admin implements the mutating operations exposed to
// administrators: node/family CRUD, bulk update, deep-copy, pattern
// filters, and the user lifecycle state machine (spec §4.8, §4.9,
// §4.11).
package admin

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/pathengine"
	"github.com/tmkeil/variantconf/internal/store"
)

// Engine performs admin mutations over a Store.
type Engine struct {
	store *store.Store
	paths *pathengine.Engine
}

func New(s *store.Store, paths *pathengine.Engine) *Engine {
	return &Engine{store: s, paths: paths}
}

// CreateNode inserts a non-family node under an existing parent.
func (e *Engine) CreateNode(ctx context.Context, n *model.Node) (int64, error) {
	if n.ParentID == nil {
		return 0, apperr.Validation("node requires a parent_id; use CreateFamily for level-0 nodes")
	}
	var id int64
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = e.store.CreateNode(ctx, tx, n)
		return err
	})
	return id, err
}

// CreateFamily inserts a new level-0 root.
func (e *Engine) CreateFamily(ctx context.Context, n *model.Node) (int64, error) {
	if n.ParentID != nil {
		return 0, apperr.Validation("a family is a root node and must not carry a parent_id")
	}
	n.Level = 0
	if n.Code == nil {
		return 0, apperr.Validation("family requires a code")
	}
	var id int64
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = e.store.CreateNode(ctx, tx, n)
		return err
	})
	return id, err
}

// UpdateNode rewrites a node's mutable fields. Renaming `code` is
// rejected: per spec §7, changing a code in place is an integrity
// violation (every full_typecode and label segment keyed on it would
// silently desync). Callers that need a different code create a new
// node and migrate successors instead.
func (e *Engine) UpdateNode(ctx context.Context, n *model.Node) error {
	existing, err := e.store.GetNode(ctx, e.dbQuerier(), n.ID)
	if err != nil {
		return err
	}
	if !sameCode(existing.Code, n.Code) {
		return apperr.Integrity("node code is immutable once created")
	}
	return e.store.UpdateNode(ctx, e.dbQuerier(), n)
}

// DeleteNode removes a node and its subtree. Deleting a level-0 node
// through this generic endpoint is rejected (§7); use DeleteFamily.
func (e *Engine) DeleteNode(ctx context.Context, id int64) error {
	n, err := e.store.GetNode(ctx, e.dbQuerier(), id)
	if err != nil {
		return err
	}
	if n.Level == 0 {
		return apperr.Integrity("use the family-delete operation to remove a level-0 node")
	}
	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		return e.store.DeleteNode(ctx, tx, id)
	})
}

// DeleteFamily removes a level-0 node and its entire tree.
func (e *Engine) DeleteFamily(ctx context.Context, id int64) error {
	n, err := e.store.GetNode(ctx, e.dbQuerier(), id)
	if err != nil {
		return err
	}
	if n.Level != 0 {
		return apperr.Validation("node %d is not a family root", id)
	}
	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		return e.store.DeleteNode(ctx, tx, id)
	})
}

// BulkUpdateMode is whether a bulk update overwrites or appends a
// field's value.
type BulkUpdateMode string

const (
	BulkSet    BulkUpdateMode = "set"
	BulkAppend BulkUpdateMode = "append"
)

// BulkField names the node fields bulk-update may touch (§6: "set or
// append to name, label, label_en, group_name").
type BulkField string

const (
	FieldName      BulkField = "name"
	FieldLabel     BulkField = "label"
	FieldLabelEN   BulkField = "label_en"
	FieldGroupName BulkField = "group_name"
)

// BulkUpdate applies one field mutation across every id, inside a
// single transaction.
func (e *Engine) BulkUpdate(ctx context.Context, ids []int64, field BulkField, mode BulkUpdateMode, value string) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("bulk update requires at least one id")
	}
	count := 0
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			n, err := e.store.GetNode(ctx, tx, id)
			if err != nil {
				return err
			}
			applyBulkField(n, field, mode, value)
			if err := e.store.UpdateNode(ctx, tx, n); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func applyBulkField(n *model.Node, field BulkField, mode BulkUpdateMode, value string) {
	switch field {
	case FieldName:
		n.Name = combine(n.Name, value, mode)
	case FieldLabel:
		n.Label = combine(n.Label, value, mode)
	case FieldLabelEN:
		n.LabelEN = combine(n.LabelEN, value, mode)
	case FieldGroupName:
		current := ""
		if n.GroupName != nil {
			current = *n.GroupName
		}
		combined := combine(current, value, mode)
		n.GroupName = &combined
	}
}

func combine(current, value string, mode BulkUpdateMode) string {
	if mode == BulkSet || current == "" {
		return value
	}
	return current + value
}

// SubtreeInfo reports size and depth of the subtree rooted at id,
// supporting the admin UI's subtree inspector (§6).
type SubtreeInfo struct {
	NodeCount int
	MaxLevel  int
	MaxDepth  int
}

func (e *Engine) SubtreeInfo(ctx context.Context, id int64) (SubtreeInfo, error) {
	nodes, _, err := e.store.SubtreeByDepth(ctx, e.dbQuerier(), id)
	if err != nil {
		return SubtreeInfo{}, err
	}
	maxLevel, err := e.paths.MaxLevelBelow(ctx, e.dbQuerier(), id)
	if err != nil {
		return SubtreeInfo{}, err
	}
	maxDepth, err := e.paths.MaxDepthBelow(ctx, e.dbQuerier(), id)
	if err != nil {
		return SubtreeInfo{}, err
	}
	return SubtreeInfo{NodeCount: len(nodes), MaxLevel: maxLevel, MaxDepth: maxDepth}, nil
}

// DeepCopy copies source and its subtree under newParentID.
func (e *Engine) DeepCopy(ctx context.Context, sourceID int64, newParentID *int64) (int64, map[int64]int64, error) {
	return e.paths.DeepCopySubtree(ctx, sourceID, newParentID)
}

// MoveNode reparents nodeID (and its whole subtree) under newParentID
// in place, unlike DeepCopy which duplicates rather than relocates.
func (e *Engine) MoveNode(ctx context.Context, nodeID int64, newParentID *int64) error {
	return e.paths.MoveSubtree(ctx, nodeID, newParentID)
}

func sameCode(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// dbQuerier exposes the Store's pool for reads outside a transaction.
// Declared here (rather than stored on Engine) because Store keeps its
// *sql.DB private; this indirection lets admin run standalone GetNode
// calls the same way every other package does, through the Querier
// interface.
func (e *Engine) dbQuerier() store.Querier {
	return e.store.DB()
}
