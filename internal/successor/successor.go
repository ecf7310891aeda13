// Package successor implements lifecycle/replacement resolution and
// bulk successor creation (spec §4.10).
package successor

import (
	"context"
	"fmt"
	"time"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// Engine resolves and creates successor edges over a Store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// Resolve returns the effective successor for a node, if any.
func (e *Engine) Resolve(ctx context.Context, q store.Querier, nodeID int64) (*model.Successor, bool, error) {
	candidates, err := e.store.SuccessorsFor(ctx, q, nodeID)
	if err != nil {
		return nil, false, err
	}
	now := e.now()
	var best *model.Successor
	for _, c := range candidates {
		if !c.ShowWarning || !c.IsEffective(now) {
			continue
		}
		if best == nil || c.Severity.Rank() > best.Severity.Rank() ||
			(c.Severity.Rank() == best.Severity.Rank() && c.CreatedAt.After(best.CreatedAt)) {
			best = c
		}
	}
	return best, best != nil, nil
}

// ResolveForPath pools the effective successor candidates for every
// node in path and returns the single most-severe one (ties broken by
// most recent), used for a configured-product's lifecycle lookup over
// its full selection set (§4.10: "order by severity descending ...
// return the first" applied across the whole path, not node-by-node —
// a critical successor on a later path node must win over an info
// successor on an earlier one).
func (e *Engine) ResolveForPath(ctx context.Context, q store.Querier, path []int64) (*model.Successor, bool, error) {
	var best *model.Successor
	for _, id := range path {
		succ, has, err := e.Resolve(ctx, q, id)
		if err != nil {
			return nil, false, err
		}
		if !has {
			continue
		}
		if best == nil || succ.Severity.Rank() > best.Severity.Rank() ||
			(succ.Severity.Rank() == best.Severity.Rank() && succ.CreatedAt.After(best.CreatedAt)) {
			best = succ
		}
	}
	return best, best != nil, nil
}

// BulkCreateResult summarises a bulk successor-creation request.
type BulkCreateResult struct {
	Created int
	Skipped int
}

// BulkCreate implements the §4.10 bulk creation rule: a 1:1 pairing
// when source and target sets are the same size and every node has a
// full type-code; otherwise a cartesian product of info-severity
// hints carrying the count annotation. Pairs that already exist are
// skipped.
func (e *Engine) BulkCreate(ctx context.Context, q store.Querier, sources, targets []*model.Node) (BulkCreateResult, error) {
	if len(sources) == 0 || len(targets) == 0 {
		return BulkCreateResult{}, apperr.Validation("both source and target sets must be non-empty")
	}

	existing, err := existingPairs(ctx, e.store, q, sources)
	if err != nil {
		return BulkCreateResult{}, err
	}

	pairs := pairingFor(sources, targets)
	result := BulkCreateResult{}
	for _, p := range pairs {
		key := pairKey(p.source.ID, derefID(p.targetID), p.target)
		if existing[key] {
			result.Skipped++
			continue
		}
		targetCode := p.target
		succ := &model.Successor{
			SourceNodeID:    p.source.ID,
			TargetNodeID:    p.targetID,
			TargetFullCode:  &targetCode,
			ReplacementType: p.replacementType,
			Severity:        p.severity,
			ShowWarning:     true,
			MigrationNotes:  p.notes,
		}
		if _, err := e.store.CreateSuccessor(ctx, q, succ); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Created++
	}
	return result, nil
}

type pairing struct {
	source          *model.Node
	targetID        *int64
	target          string
	replacementType string
	severity        model.Severity
	notes           string
}

func pairingFor(sources, targets []*model.Node) []pairing {
	if len(sources) == len(targets) && allHaveFullCode(sources) && allHaveFullCode(targets) {
		out := make([]pairing, len(sources))
		for i := range sources {
			out[i] = pairing{
				source:          sources[i],
				targetID:        &targets[i].ID,
				target:          *targets[i].FullTypeCode,
				replacementType: "direct",
				severity:        model.SeverityWarning,
			}
		}
		return out
	}

	total := len(sources) * len(targets)
	out := make([]pairing, 0, total)
	for _, src := range sources {
		for _, tgt := range targets {
			target := ""
			if tgt.FullTypeCode != nil {
				target = *tgt.FullTypeCode
			}
			out = append(out, pairing{
				source:          src,
				targetID:        &tgt.ID,
				target:          target,
				replacementType: "candidate",
				severity:        model.SeverityInfo,
				notes:           fmt.Sprintf("1 of %d possible replacements", len(targets)),
			})
		}
	}
	return out
}

func allHaveFullCode(nodes []*model.Node) bool {
	for _, n := range nodes {
		if n.FullTypeCode == nil {
			return false
		}
	}
	return true
}

func existingPairs(ctx context.Context, s *store.Store, q store.Querier, sources []*model.Node) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, src := range sources {
		existing, err := s.SuccessorsFor(ctx, q, src.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			targetCode := ""
			if e.TargetFullCode != nil {
				targetCode = *e.TargetFullCode
			}
			out[pairKey(e.SourceNodeID, derefID(e.TargetNodeID), targetCode)] = true
		}
	}
	return out, nil
}

func pairKey(sourceID int64, targetIDStr, targetCode string) string {
	return fmt.Sprintf("%d|%s|%s", sourceID, targetIDStr, targetCode)
}

func derefID(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
