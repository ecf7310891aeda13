// Package pathengine provides the computed views over closure paths
// that every other engine reads from instead of re-deriving
// ancestry/depth logic of their own (spec §4.2), plus the deep-copy
// subtree operation (§4.9) and the move subtree operation.
package pathengine

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// Engine exposes the path-engine operations over a Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// MaxLevelBelow returns the max level among coded descendants of id.
func (e *Engine) MaxLevelBelow(ctx context.Context, q store.Querier, id int64) (int, error) {
	return e.store.MaxLevelBelow(ctx, q, id)
}

// MaxDepthBelow returns the max closure depth below id.
func (e *Engine) MaxDepthBelow(ctx context.Context, q store.Querier, id int64) (int, error) {
	return e.store.MaxDepthBelow(ctx, q, id)
}

// ReachableLeaves returns descendants of the given ancestors that are
// not themselves a parent (§4.7 group inference).
func (e *Engine) ReachableLeaves(ctx context.Context, q store.Querier, ancestors []int64) ([]*model.Node, error) {
	return e.store.ReachableLeaves(ctx, q, ancestors)
}

// DeepCopySubtree clones source and its entire subtree under
// newParentID, preserving labels and returning the new root id plus
// the full old-id -> new-id mapping (§4.9). Closure rows for every
// copied node are emitted by Store.CreateNode's own insert-closure
// step, which inherits the ancestry of whatever parent_id the copy is
// given — that is what makes this wholesale regeneration correct
// without hand-computing remapped depths: the root copy inherits
// newParentID's ancestors, and every other copy inherits its own
// already-created copied parent's ancestors, which in turn already
// include newParentID's.
func (e *Engine) DeepCopySubtree(ctx context.Context, sourceID int64, newParentID *int64) (int64, map[int64]int64, error) {
	var newRootID int64
	mapping := make(map[int64]int64)

	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if newParentID != nil {
			// Pasting source under one of its own descendants would
			// make the copy a cycle once node_paths is regenerated; the
			// hot-path existence primitive (§4.1/§4.4) is exactly the
			// check needed here: is *newParentID reachable from sourceID?
			isDescendant, err := e.store.BatchPathExists(ctx, tx, []int64{sourceID}, []int64{*newParentID})
			if err != nil {
				return err
			}
			if isDescendant {
				return apperr.Validation("new parent cannot be inside the subtree being copied")
			}
		}

		subtree, _, err := e.store.SubtreeByDepth(ctx, tx, sourceID)
		if err != nil {
			return err
		}
		if len(subtree) == 0 {
			return apperr.NotFound("node %d not found", sourceID)
		}

		for _, n := range subtree {
			clone := *n
			clone.ID = 0
			if n.ID == sourceID {
				clone.ParentID = newParentID
			} else if n.ParentID != nil {
				newParent, ok := mapping[*n.ParentID]
				if !ok {
					return apperr.Internal(nil, "deep copy: parent %d not yet copied for node %d", *n.ParentID, n.ID)
				}
				clone.ParentID = &newParent
			}

			newID, err := e.store.CreateNode(ctx, tx, &clone)
			if err != nil {
				return err
			}
			mapping[n.ID] = newID

			de, en, err := e.store.RawLabel(ctx, tx, n.ID)
			if err != nil {
				return err
			}
			if de != "" || en != "" {
				if err := e.store.PutRawLabel(ctx, tx, newID, de, en); err != nil {
					return err
				}
			}
			segs, err := e.store.SegmentsFor(ctx, tx, n.ID)
			if err != nil {
				return err
			}
			if len(segs) > 0 {
				for i := range segs {
					segs[i].NodeID = newID
				}
				if err := e.store.ReplaceSegments(ctx, tx, newID, segs); err != nil {
					return err
				}
			}

			if n.ID == sourceID {
				newRootID = newID
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return newRootID, mapping, nil
}

// MoveSubtree reparents nodeID to newParentID in place, then
// regenerates the closure rows for the moved subtree in one shot
// rather than patching them incrementally — the CTE-based move shape
// the closure-table reference implementations use (§4.9's sibling
// operation to deep-copy: same cycle hazard, no node duplication).
func (e *Engine) MoveSubtree(ctx context.Context, nodeID int64, newParentID *int64) error {
	return e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if newParentID != nil {
			isDescendant, err := e.store.BatchPathExists(ctx, tx, []int64{nodeID}, []int64{*newParentID})
			if err != nil {
				return err
			}
			if isDescendant {
				return apperr.Validation("new parent cannot be inside the node's own subtree")
			}
		}
		if err := e.store.SetParent(ctx, tx, nodeID, newParentID); err != nil {
			return err
		}
		return e.store.RebuildClosureBelow(ctx, tx, nodeID)
	})
}
