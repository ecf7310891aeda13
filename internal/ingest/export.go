package ingest

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// Exporter walks the stored forest back into the hierarchical document
// shape Import accepts, so a round trip through Export then Import (or
// through MergeTrees) never changes a family's structure.
type Exporter struct {
	store *store.Store
}

func NewExporter(s *store.Store) *Exporter {
	return &Exporter{store: s}
}

// Export renders every product family as a {"children": [...]} document.
func (ex *Exporter) Export(ctx context.Context) ([]byte, error) {
	families, err := ex.store.TopLevelFamilies(ctx, ex.store.DB())
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(families))
	for _, fam := range families {
		node, err := ex.exportNode(ctx, fam)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	doc := map[string]interface{}{"children": out}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(err, "marshal exported document")
	}
	return data, nil
}

func (ex *Exporter) exportNode(ctx context.Context, n *model.Node) (map[string]interface{}, error) {
	node := map[string]interface{}{}

	if n.Pattern != nil && n.Code == nil {
		node["pattern"] = *n.Pattern
		node["position"] = n.Position
		node["name"] = n.Name
	} else {
		if n.Code != nil {
			node["code"] = *n.Code
		}
		node["name"] = n.Name

		labelDE, labelEN, err := ex.reconstructLabels(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		if labelDE == "" && labelEN == "" {
			labelDE, labelEN = n.Label, n.LabelEN
		}
		node["label"] = labelDE
		node["label-en"] = labelEN
		node["position"] = n.Position

		if n.Code != nil {
			node["is_intermediate_code"] = n.IsIntermediateCode
		}
		if n.FullTypeCode != nil {
			node["full_typecode"] = *n.FullTypeCode
		}
		if n.GroupName != nil {
			node["group"] = *n.GroupName
		}
		if len(n.Pictures) > 0 {
			node["pictures"] = n.Pictures
		}
		if len(n.Links) > 0 {
			node["links"] = n.Links
		}
	}

	children, err := ex.store.ChildrenOf(ctx, ex.store.DB(), n.ID)
	if err != nil {
		return nil, err
	}
	childDocs := make([]map[string]interface{}, 0, len(children))
	for _, c := range children {
		cd, err := ex.exportNode(ctx, c)
		if err != nil {
			return nil, err
		}
		childDocs = append(childDocs, cd)
	}
	node["children"] = childDocs
	return node, nil
}

// reconstructLabels rebuilds the "Title: CODE = text" label text from
// parsed segments, grouped by title and ordered by display_order, the
// inverse of ParseLabel. Falls back to letting the caller use the raw
// label columns when there are no parsed segments.
func (ex *Exporter) reconstructLabels(ctx context.Context, nodeID int64) (de, en string, err error) {
	segs, err := ex.store.SegmentsFor(ctx, ex.store.DB(), nodeID)
	if err != nil {
		return "", "", err
	}
	if len(segs) == 0 {
		return "", "", nil
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].DisplayOrder < segs[j].DisplayOrder })
	return reconstructLabel(segs, false), reconstructLabel(segs, true)
}

func reconstructLabel(segs []model.LabelSegment, useEN bool) string {
	var blocks []string
	var curTitle string
	var curLines []string
	first := true
	flush := func() {
		if len(curLines) > 0 {
			blocks = append(blocks, joinLines(curLines))
		}
		curLines = nil
	}

	for _, seg := range segs {
		text := seg.LabelDE
		if useEN {
			text = seg.LabelEN
		}
		if text == "" {
			continue
		}
		line := text
		if seg.CodeSegment != nil {
			line = *seg.CodeSegment + " = " + text
		}
		if first || seg.Title != curTitle {
			if !first {
				flush()
			}
			curTitle = seg.Title
			first = false
			if curTitle != "" {
				line = curTitle + ": " + line
			}
		}
		curLines = append(curLines, line)
	}
	flush()
	return joinBlocks(blocks)
}

func joinLines(lines []string) string {
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

func joinBlocks(blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}
	out := blocks[0]
	for _, b := range blocks[1:] {
		out += "\n\n" + b
	}
	return out
}
