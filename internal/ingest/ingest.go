// Package ingest loads a hierarchical JSON product tree into the
// store (spec "Supplemented features": bulk ingest from the original
// variantenbaum.json document), and parses each node's raw label text
// into structured segments as it goes.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// rawNode mirrors one JSON tree node. label-en and label_en are both
// accepted since both spellings appear across exported documents.
type rawNode struct {
	Code               *string         `json:"code"`
	Name               string          `json:"name"`
	Label              string          `json:"label"`
	LabelENHyphen      string          `json:"label-en"`
	LabelENUnderscore  string          `json:"label_en"`
	Position           *int            `json:"position"`
	Pattern            *int64          `json:"pattern"`
	FullTypeCode       *string         `json:"full_typecode"`
	IsIntermediateCode bool            `json:"is_intermediate_code"`
	GroupName          *string         `json:"group"`
	Pictures           []model.Picture `json:"pictures"`
	Links              []model.Link    `json:"links"`
	Children           []rawNode       `json:"children"`
}

func (r rawNode) labelEN() string {
	if r.LabelENHyphen != "" {
		return r.LabelENHyphen
	}
	return r.LabelENUnderscore
}

// Stats tallies what an Import run did, mirroring the original
// importer's progress counters.
type Stats struct {
	NodesImported       int
	ProductFamilies     int
	PatternContainers   int
	CodeNodes           int
	LeafProducts        int
	IntermediateProducts int
}

// Importer loads documents into a Store.
type Importer struct {
	store *store.Store
}

func New(s *store.Store) *Importer {
	return &Importer{store: s}
}

// Import parses data as either a bare array of product families or an
// object of the form {"children": [...]}, and inserts every node in
// one transaction.
func (imp *Importer) Import(ctx context.Context, data []byte) (Stats, error) {
	families, err := decodeFamilies(data)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	err = imp.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, fam := range families {
			if _, err := imp.importNode(ctx, tx, &stats, fam, nil, -1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func decodeFamilies(data []byte) ([]rawNode, error) {
	var wrapped struct {
		Children []rawNode `json:"children"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Children != nil {
		return wrapped.Children, nil
	}
	var bare []rawNode
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, apperr.Validation("unrecognised import document shape: %v", err)
	}
	return bare, nil
}

// importNode recursively inserts node and its children, returning the
// new node's id. parentLevel is -1 for a top-level family so its own
// level comes out to 0; a pattern container never increments level
// (spec §3: pattern containers are "skipped in level counts").
func (imp *Importer) importNode(ctx context.Context, tx *sql.Tx, stats *Stats, node rawNode, parentID *int64, parentLevel int) (int64, error) {
	isPatternContainer := node.Pattern != nil && node.Code == nil

	level := parentLevel
	if !isPatternContainer {
		level = parentLevel + 1
	}

	n := &model.Node{
		Code:               node.Code,
		Name:               node.Name,
		Label:              node.Label,
		LabelEN:            node.labelEN(),
		Level:              level,
		Pattern:            node.Pattern,
		GroupName:          node.GroupName,
		FullTypeCode:       node.FullTypeCode,
		IsIntermediateCode: node.IsIntermediateCode,
		Pictures:           node.Pictures,
		Links:              node.Links,
		ParentID:           parentID,
	}
	if node.Position != nil {
		n.Position = *node.Position
	}

	id, err := imp.store.CreateNode(ctx, tx, n)
	if err != nil {
		return 0, err
	}
	stats.NodesImported++

	if node.Label != "" || node.labelEN() != "" {
		fullCode := ""
		if node.Code != nil {
			fullCode = *node.Code
		} else if node.FullTypeCode != nil {
			fullCode = *node.FullTypeCode
		}
		segs := mergeLabelSegments(ParseLabel(node.Label, fullCode), ParseLabel(node.labelEN(), fullCode))
		if err := imp.store.ReplaceSegments(ctx, tx, id, segs); err != nil {
			return 0, err
		}
		if err := imp.store.PutRawLabel(ctx, tx, id, node.Label, node.labelEN()); err != nil {
			return 0, err
		}
	}

	switch {
	case parentID == nil:
		stats.ProductFamilies++
	case isPatternContainer:
		stats.PatternContainers++
	case node.Code != nil:
		stats.CodeNodes++
		if node.FullTypeCode != nil {
			if node.IsIntermediateCode {
				stats.IntermediateProducts++
			} else {
				stats.LeafProducts++
			}
		}
	}

	for _, child := range node.Children {
		if _, err := imp.importNode(ctx, tx, stats, child, &id, level); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// mergeLabelSegments combines a German and an English parse of the
// same label text: each English segment is folded into the German
// segment sharing its (code_segment, position_start, position_end)
// key, same as the original importer's row-reuse rule, or appended as
// an English-only segment when no such row exists.
func mergeLabelSegments(de, en []model.LabelSegment) []model.LabelSegment {
	out := make([]model.LabelSegment, len(de))
	copy(out, de)

	index := make(map[segmentKey]int, len(out))
	for i, seg := range out {
		index[keyOf(seg)] = i
	}

	for _, seg := range en {
		k := keyOf(seg)
		if i, ok := index[k]; ok {
			out[i].LabelEN = seg.LabelDE
			continue
		}
		seg.LabelEN = seg.LabelDE
		seg.LabelDE = ""
		out = append(out, seg)
		index[k] = len(out) - 1
	}
	return out
}

type segmentKey struct {
	code  string
	start int
	end   int
}

func keyOf(seg model.LabelSegment) segmentKey {
	var k segmentKey
	if seg.CodeSegment != nil {
		k.code = *seg.CodeSegment
	}
	if seg.PositionStart != nil {
		k.start = *seg.PositionStart
	}
	if seg.PositionEnd != nil {
		k.end = *seg.PositionEnd
	}
	return k
}
