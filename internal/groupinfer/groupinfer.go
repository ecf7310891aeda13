// Package groupinfer implements derived group name inference (spec
// §4.7): given a partial configuration, report the single product
// attribute ("group_name") that every still-reachable leaf agrees on,
// if any, so the UI can preview it before the user finishes selecting.
package groupinfer

import (
	"context"
	"sort"

	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// Engine infers derived group names over a Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Result is the §4.7 output.
type Result struct {
	Candidates []string
	IsUnique   bool
}

// DerivedGroup computes the reachable-leaf set under familyID
// consistent with every usable selection, then reports the set of
// distinct non-empty group names those leaves carry.
func (e *Engine) DerivedGroup(ctx context.Context, q store.Querier, familyID int64, selections []model.Selection) (Result, error) {
	leaves, err := e.store.ReachableLeaves(ctx, q, []int64{familyID})
	if err != nil {
		return Result{}, err
	}
	leafIDs := make([]int64, 0, len(leaves))
	byID := make(map[int64]*model.Node, len(leaves))
	for _, n := range leaves {
		leafIDs = append(leafIDs, n.ID)
		byID[n.ID] = n
	}

	allowed := make(map[int64]bool, len(leafIDs))
	for _, id := range leafIDs {
		allowed[id] = true
	}

	for _, sel := range selections {
		if sel.Level == 0 || !sel.Usable() {
			continue
		}
		anchors := sel.IDSlice()
		forward, err := e.store.PrunedBySet(ctx, q, anchors, leafIDs, true)
		if err != nil {
			return Result{}, err
		}
		backward, err := e.store.PrunedBySet(ctx, q, anchors, leafIDs, false)
		if err != nil {
			return Result{}, err
		}
		for id := range allowed {
			if !forward[id] && !backward[id] {
				delete(allowed, id)
			}
		}
	}

	names := make(map[string]bool)
	for id := range allowed {
		n := byID[id]
		if n.GroupName != nil && *n.GroupName != "" {
			names[*n.GroupName] = true
		}
	}

	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return Result{Candidates: out, IsUnique: len(out) == 1}, nil
}
