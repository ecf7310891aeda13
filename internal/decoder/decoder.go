// Package decoder implements type-code decoding (spec §4.5): turning a
// raw, loosely-formatted string into a structured path through the
// variant forest, including the wildcard search branch.
package decoder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tmkeil/variantconf/internal/codenorm"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

const wildcardSampleLimit = 10

// Engine decodes type-codes over a Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Decode implements §4.5 steps 1-5 plus the wildcard branch.
func (e *Engine) Decode(ctx context.Context, q store.Querier, raw string) (model.DecodeResult, error) {
	tokens := codenorm.Split(raw)
	if len(tokens) == 0 {
		return model.DecodeResult{ProductType: model.ProductUnknown}, nil
	}

	normalized := codenorm.Reconstruct(tokens)

	for _, t := range tokens {
		if codenorm.IsWildcard(t) {
			return e.decodeWildcard(ctx, q, tokens, normalized)
		}
	}

	if len(tokens) == 1 {
		return e.decodeSingleToken(ctx, q, tokens[0], normalized)
	}
	return e.decodeMultiToken(ctx, q, tokens, normalized)
}

func (e *Engine) decodeSingleToken(ctx context.Context, q store.Querier, token, normalized string) (model.DecodeResult, error) {
	if fam, err := e.store.FamilyByCode(ctx, q, token); err == nil {
		seg := segmentFor(fam, 1, len(token))
		return model.DecodeResult{
			Exists:         true,
			NormalizedCode: normalized,
			ProductType:    model.ProductFamily,
			PathSegments:   []model.CodePathSegment{seg},
			Families:       []string{token},
			GroupName:      seg.GroupName,
		}, nil
	}

	nodes, err := e.store.NodesByCodeAnyLevel(ctx, q, token)
	if err != nil {
		return model.DecodeResult{}, err
	}
	if len(nodes) == 0 {
		return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
	}
	// NodesByCodeAnyLevel already orders ascending (level, id) — the
	// tie-break spec §9 asks implementations to make explicit.
	chosen := nodes[0]
	seg := segmentFor(chosen, 1, len(token))

	families := make(map[string]bool)
	for _, n := range nodes {
		ancestors, err := e.store.AncestorsOf(ctx, q, n.ID, false)
		if err != nil {
			return model.DecodeResult{}, err
		}
		if len(ancestors) > 0 {
			root := ancestors[0]
			if root.Code != nil {
				families[*root.Code] = true
			}
		} else if n.Code != nil {
			families[*n.Code] = true
		}
	}
	famList := make([]string, 0, len(families))
	for f := range families {
		famList = append(famList, f)
	}
	sort.Strings(famList)

	return model.DecodeResult{
		Exists:         true,
		NormalizedCode: normalized,
		ProductType:    model.ProductLevelCode,
		PathSegments:   []model.CodePathSegment{seg},
		Families:       famList,
		GroupName:      seg.GroupName,
	}, nil
}

func (e *Engine) decodeMultiToken(ctx context.Context, q store.Querier, tokens []string, normalized string) (model.DecodeResult, error) {
	if complete, err := e.store.NodeByFullTypeCode(ctx, q, normalized); err == nil {
		ancestors, err := e.store.AncestorsOf(ctx, q, complete.ID, true)
		if err != nil {
			return model.DecodeResult{}, err
		}
		segs := segmentsForChain(ancestors, tokens)
		return model.DecodeResult{
			Exists:            true,
			NormalizedCode:    normalized,
			IsCompleteProduct: true,
			ProductType:       model.ProductComplete,
			PathSegments:      segs,
			Families:          []string{tokens[0]},
			GroupName:         lastGroupName(segs),
		}, nil
	}

	family, err := e.store.FamilyByCode(ctx, q, tokens[0])
	if err != nil {
		return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
	}

	var resolved []*model.Node
	resolved = append(resolved, family)
	var segs []model.CodePathSegment
	segs = append(segs, segmentFor(family, 1, len(tokens[0])))
	pos := len(tokens[0]) + 2

	for i := 1; i < len(tokens); i++ {
		ids, err := e.store.NodesByCodeLevel(ctx, q, tokens[i], i, &family.ID)
		if err != nil {
			return model.DecodeResult{}, err
		}
		if len(ids) == 0 {
			return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
		}
		group := make([]*model.Node, 0, len(ids))
		for _, id := range ids {
			n, err := e.store.GetNode(ctx, q, id)
			if err != nil {
				return model.DecodeResult{}, err
			}
			group = append(group, n)
		}
		seg := unionSegment(group, tokens[i], pos, pos+len(tokens[i])-1)
		segs = append(segs, seg)
		resolved = append(resolved, group[0])
		pos += len(tokens[i]) + 1
	}

	return model.DecodeResult{
		Exists:         true,
		NormalizedCode: normalized,
		ProductType:    model.ProductPartial,
		PathSegments:   segs,
		Families:       []string{tokens[0]},
		GroupName:      lastGroupName(segs),
	}, nil
}

// decodeWildcard implements the §4.5 wildcard branch.
func (e *Engine) decodeWildcard(ctx context.Context, q store.Querier, tokens []string, normalized string) (model.DecodeResult, error) {
	if codenorm.IsWildcard(tokens[0]) {
		return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
	}
	family, err := e.store.FamilyByCode(ctx, q, tokens[0])
	if err != nil {
		return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
	}

	segs := []model.CodePathSegment{segmentFor(family, 1, len(tokens[0]))}
	pos := len(tokens[0]) + 2
	frontier := []int64{family.ID}

	for i := 1; i < len(tokens); i++ {
		if codenorm.IsWildcard(tokens[i]) {
			children, err := childrenAtLevel(ctx, e.store, q, frontier, i)
			if err != nil {
				return model.DecodeResult{}, err
			}
			if len(children) == 0 {
				return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
			}
			seg, newFrontier := wildcardSegment(children, pos)
			segs = append(segs, seg)
			frontier = newFrontier
			pos += len(seg.Code) + 1
			continue
		}

		ids, err := candidatesAmongFrontier(ctx, e.store, q, frontier, tokens[i], i)
		if err != nil {
			return model.DecodeResult{}, err
		}
		if len(ids) == 0 {
			return model.DecodeResult{ProductType: model.ProductUnknown, NormalizedCode: normalized}, nil
		}
		group := make([]*model.Node, 0, len(ids))
		for _, id := range ids {
			n, err := e.store.GetNode(ctx, q, id)
			if err != nil {
				return model.DecodeResult{}, err
			}
			group = append(group, n)
		}
		seg := unionSegment(group, tokens[i], pos, pos+len(tokens[i])-1)
		segs = append(segs, seg)
		frontier = ids
		pos += len(tokens[i]) + 1
	}

	return model.DecodeResult{
		Exists:         true,
		NormalizedCode: normalized,
		ProductType:    model.ProductWildcard,
		PathSegments:   segs,
		Families:       []string{tokens[0]},
		GroupName:      lastGroupName(segs),
	}, nil
}

// childrenAtLevel gathers every coded descendant at the given level
// reachable from any id in frontier, crossing pattern containers
// transparently via the closure table.
func childrenAtLevel(ctx context.Context, s *store.Store, q store.Querier, frontier []int64, level int) ([]*model.Node, error) {
	seen := make(map[int64]*model.Node)
	for _, anchor := range frontier {
		nodes, err := s.DescendantsAt(ctx, q, anchor, level)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			seen[n.ID] = n
		}
	}
	out := make([]*model.Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func candidatesAmongFrontier(ctx context.Context, s *store.Store, q store.Querier, frontier []int64, code string, level int) ([]int64, error) {
	children, err := childrenAtLevel(ctx, s, q, frontier, level)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, n := range children {
		if n.Code != nil && *n.Code == code {
			ids = append(ids, n.ID)
		}
	}
	return ids, nil
}

func wildcardSegment(children []*model.Node, posStart int) (model.CodePathSegment, []int64) {
	codes := make([]string, 0, len(children))
	ids := make([]int64, 0, len(children))
	distinct := make(map[string]bool)
	for _, n := range children {
		ids = append(ids, n.ID)
		if n.Code != nil && !distinct[*n.Code] {
			distinct[*n.Code] = true
			codes = append(codes, *n.Code)
		}
	}
	sort.Strings(codes)
	label := strings.Join(limitCodes(codes, wildcardSampleLimit), ", ")
	if len(codes) > wildcardSampleLimit {
		label = fmt.Sprintf("%s +%d more", label, len(codes)-wildcardSampleLimit)
	}
	seg := model.CodePathSegment{
		Code:          "*",
		Name:          label,
		Label:         label,
		LabelEN:       label,
		PositionStart: posStart,
		PositionEnd:   posStart,
	}
	return seg, ids
}

func limitCodes(codes []string, n int) []string {
	if len(codes) <= n {
		return codes
	}
	return codes[:n]
}

func segmentFor(n *model.Node, start, end int) model.CodePathSegment {
	seg := model.CodePathSegment{
		Name:          n.Name,
		Label:         n.Label,
		LabelEN:       n.LabelEN,
		PositionStart: start,
		PositionEnd:   end,
		Pictures:      n.Pictures,
		Links:         n.Links,
	}
	if n.Code != nil {
		seg.Code = *n.Code
	}
	if n.GroupName != nil {
		seg.GroupName = *n.GroupName
	}
	return seg
}

// unionSegment builds one segment out of several nodes sharing a code,
// unioning their display fields (§4.4 step 6, reused by the decoder).
func unionSegment(nodes []*model.Node, code string, start, end int) model.CodePathSegment {
	if len(nodes) == 1 {
		seg := segmentFor(nodes[0], start, end)
		seg.Code = code
		return seg
	}

	var labels, labelsEN, names, groups []string
	seenPic := make(map[string]bool)
	seenLink := make(map[string]bool)
	seg := model.CodePathSegment{Code: code, PositionStart: start, PositionEnd: end}
	for _, n := range nodes {
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
			groups = append(groups, *n.GroupName)
		}
		for _, p := range n.Pictures {
			if !seenPic[p.URL] {
				seenPic[p.URL] = true
				seg.Pictures = append(seg.Pictures, p)
			}
		}
		for _, l := range n.Links {
			if !seenLink[l.URL] {
				seenLink[l.URL] = true
				seg.Links = append(seg.Links, l)
			}
		}
	}
	sort.Strings(labels)
	sort.Strings(labelsEN)
	seg.Label = strings.Join(labels, "\n---\n")
	seg.LabelEN = strings.Join(labelsEN, "\n---\n")
	seg.Name = strings.Join(dedupe(names), ", ")
	seg.GroupName = strings.Join(dedupe(groups), ", ")
	return seg
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

// segmentsForChain builds positional segments for a complete product's
// ancestor chain (root to leaf), matching token lengths one-for-one.
func segmentsForChain(chain []*model.Node, tokens []string) []model.CodePathSegment {
	segs := make([]model.CodePathSegment, 0, len(chain))
	pos := 1
	for i, n := range chain {
		tokLen := len(tokens[0])
		if i < len(tokens) {
			tokLen = len(tokens[i])
		}
		seg := segmentFor(n, pos, pos+tokLen-1)
		segs = append(segs, seg)
		pos += tokLen + 1
	}
	return segs
}

func lastGroupName(segs []model.CodePathSegment) string {
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1].GroupName
}
