// Package compat implements the options resolver (spec §4.4): given a
// partial configuration and a target level, it returns every code
// available at that level with a compatibility flag, so the UI can
// grey out options that the current selections rule out.
package compat

import (
	"context"
	"sort"
	"strings"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// Engine resolves compatible options over a Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

type group struct {
	code          string
	origIDs       []int64
	candidates    map[int64]store.CandidateNode
	firstPattern  *int64
	firstPosition int
}

// ResolveOptions implements §4.4 steps 1-7. groupFilter is nil when
// unspecified.
func (e *Engine) ResolveOptions(ctx context.Context, q store.Querier, targetLevel int, selections []model.Selection, groupFilter *string) ([]model.AvailableOption, error) {
	familySel, ok := familySelection(selections)
	if !ok {
		return nil, apperr.Validation("exactly one selection at level 0 (the product family) is required")
	}
	familyIDs := familySel.IDSlice()
	if len(familyIDs) == 0 {
		return nil, apperr.Validation("family selection carries no ids")
	}

	candidates, err := e.store.NodesAtLevel(ctx, q, familyIDs[0], targetLevel)
	if err != nil {
		return nil, err
	}

	groups := groupByCode(candidates)
	allCandidateIDs := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		allCandidateIDs = append(allCandidateIDs, c.ID)
	}

	pruned := make(map[int64]bool, len(allCandidateIDs))
	for _, id := range allCandidateIDs {
		pruned[id] = true
	}

	for _, sel := range selections {
		if sel.Level == targetLevel || !sel.Usable() {
			continue
		}
		anchors := sel.IDSlice()
		var allowed map[int64]bool
		var err error
		if sel.Level < targetLevel {
			allowed, err = e.store.PrunedBySet(ctx, q, anchors, allCandidateIDs, true)
		} else {
			allowed, err = e.store.PrunedBySet(ctx, q, anchors, allCandidateIDs, false)
		}
		if err != nil {
			return nil, err
		}
		for id := range pruned {
			if !allowed[id] {
				delete(pruned, id)
			}
		}
	}

	var out []model.AvailableOption
	for _, g := range groups {
		var finalIDs []int64
		for _, id := range g.origIDs {
			if pruned[id] {
				finalIDs = append(finalIDs, id)
			}
		}
		isCompatible := len(finalIDs) > 0
		displayIDs := finalIDs
		if !isCompatible {
			displayIDs = g.origIDs
		}

		if isCompatible && groupFilter != nil {
			exists, err := e.store.ExistsSubtreeWithGroup(ctx, q, displayIDs, *groupFilter)
			if err != nil {
				return nil, err
			}
			isCompatible = exists
		}

		opt := buildOption(g, displayIDs, isCompatible, targetLevel)
		out = append(out, opt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out, nil
}

// SearchOptions is the §4.4b variant: resolve, then filter by code
// prefix, code length, and case-insensitive label substring in either
// language.
func (e *Engine) SearchOptions(ctx context.Context, q store.Querier, targetLevel int, selections []model.Selection, groupFilter *string, codePrefix string, codeLength int, labelSubstr string) ([]model.AvailableOption, error) {
	opts, err := e.ResolveOptions(ctx, q, targetLevel, selections, groupFilter)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(labelSubstr)
	var out []model.AvailableOption
	for _, o := range opts {
		if codePrefix != "" && !strings.HasPrefix(o.Code, codePrefix) {
			continue
		}
		if codeLength > 0 && len(o.Code) != codeLength {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.Label), needle) &&
			!strings.Contains(strings.ToLower(o.LabelEN), needle) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func familySelection(selections []model.Selection) (model.Selection, bool) {
	found := false
	var fam model.Selection
	for _, s := range selections {
		if s.Level == 0 {
			if found {
				return model.Selection{}, false
			}
			fam = s
			found = true
		}
	}
	return fam, found
}

func groupByCode(candidates []store.CandidateNode) []*group {
	index := make(map[string]*group)
	var ordered []*group
	for _, c := range candidates {
		if c.Code == nil {
			continue
		}
		g, ok := index[*c.Code]
		if !ok {
			g = &group{code: *c.Code, candidates: make(map[int64]store.CandidateNode), firstPattern: c.ParentPattern, firstPosition: c.Position}
			index[*c.Code] = g
			ordered = append(ordered, g)
		}
		g.origIDs = append(g.origIDs, c.ID)
		g.candidates[c.ID] = c
	}
	return ordered
}

func buildOption(g *group, ids []int64, isCompatible bool, level int) model.AvailableOption {
	opt := model.AvailableOption{
		Code:          g.code,
		Level:         level,
		Position:      g.firstPosition,
		ParentPattern: g.firstPattern,
		IsCompatible:  isCompatible,
		IDs:           ids,
	}
	if len(ids) > 0 {
		opt.RepresentativeID = ids[0]
	}
	if len(ids) == 1 {
		n := g.candidates[ids[0]].Node
		opt.Label = n.Label
		opt.LabelEN = n.LabelEN
		opt.Name = n.Name
		if n.GroupName != nil {
			opt.GroupName = *n.GroupName
		}
		opt.Pictures = n.Pictures
		opt.Links = n.Links
		return opt
	}

	var labels, labelsEN, names, groupNames []string
	seenPic := make(map[string]bool)
	seenLink := make(map[string]bool)
	for _, id := range ids {
		n := g.candidates[id].Node
		if n.Label != "" {
			labels = append(labels, n.Label)
		}
		if n.LabelEN != "" {
			labelsEN = append(labelsEN, n.LabelEN)
		}
		if n.Name != "" {
			names = append(names, n.Name)
		}
		if n.GroupName != nil && *n.GroupName != "" {
			groupNames = append(groupNames, *n.GroupName)
		}
		for _, pic := range n.Pictures {
			if !seenPic[pic.URL] {
				seenPic[pic.URL] = true
				opt.Pictures = append(opt.Pictures, pic)
			}
		}
		for _, l := range n.Links {
			if !seenLink[l.URL] {
				seenLink[l.URL] = true
				opt.Links = append(opt.Links, l)
			}
		}
	}
	sort.Strings(labels)
	sort.Strings(labelsEN)
	opt.Label = strings.Join(labels, "\n---\n")
	opt.LabelEN = strings.Join(labelsEN, "\n---\n")
	opt.Name = strings.Join(dedupe(names), ", ")
	opt.GroupName = strings.Join(dedupe(groupNames), ", ")
	return opt
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// less implements the §4.4 step 7 ordering: (parent_pattern,
// ¬is_compatible, position, code).
func less(a, b model.AvailableOption) bool {
	ap, bp := patternKey(a.ParentPattern), patternKey(b.ParentPattern)
	if ap != bp {
		return ap < bp
	}
	if a.IsCompatible != b.IsCompatible {
		return a.IsCompatible
	}
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.Code < b.Code
}

func patternKey(p *int64) int64 {
	if p == nil {
		return -1 << 62
	}
	return *p
}
