package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/tmkeil/variantconf/internal/apperr"
)

// MergeStats tallies a tree merge the way the original merge tool's
// statistics dict did.
type MergeStats struct {
	ExistingNodes int
	NewNodes      int
	MergedNodes   int
	Conflicts     int
	Preserved     struct {
		Pictures int
		Links    int
		Labels   int
	}
}

// MergeTrees combines a freshly exported tree with an incoming one
// (spec "Supplemented features": safe re-import never loses curated
// data). Matching nodes keep every field from existing — pictures,
// links, and parsed label text are never overwritten by the new
// document — and only gain children the new document adds; nodes that
// exist only on one side pass through unchanged. The result is a
// document ready to feed back into Import.
func MergeTrees(existing, incoming []byte) ([]byte, MergeStats, error) {
	var stats MergeStats

	existingFamilies, err := normalizeTree(existing)
	if err != nil {
		return nil, stats, fmt.Errorf("existing document: %w", err)
	}
	newFamilies, err := normalizeTree(incoming)
	if err != nil {
		return nil, stats, fmt.Errorf("new document: %w", err)
	}
	stats.ExistingNodes = countNodes(existingFamilies)

	merged := mergeNodeLists(existingFamilies, newFamilies, &stats)

	out := map[string]interface{}{
		"children": merged,
		"code":     "root",
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, stats, apperr.Internal(err, "marshal merged document")
	}
	return data, stats, nil
}

func normalizeTree(data []byte) ([]map[string]interface{}, error) {
	var asWrapped map[string]interface{}
	if err := json.Unmarshal(data, &asWrapped); err == nil {
		if children, ok := asWrapped["children"]; ok {
			return toNodeList(children)
		}
	}
	var asList []interface{}
	if err := json.Unmarshal(data, &asList); err != nil {
		return nil, apperr.Validation("unrecognised document shape: %v", err)
	}
	return toNodeList(asList)
}

func toNodeList(v interface{}) ([]map[string]interface{}, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, apperr.Validation("expected a JSON array of nodes")
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, apperr.Validation("expected a JSON object node")
		}
		out = append(out, m)
	}
	return out, nil
}

func countNodes(nodes []map[string]interface{}) int {
	count := len(nodes)
	for _, n := range nodes {
		if children, ok := n["children"]; ok {
			list, err := toNodeList(children)
			if err == nil {
				count += countNodes(list)
			}
		}
	}
	return count
}

// nodeIdentifier picks the same match key the original tool used: a
// code node matches by code, a pattern container by pattern+position,
// anything else falls back to its name (ambiguous but rare — the spec
// families always carry a code or a pattern).
func nodeIdentifier(n map[string]interface{}) string {
	if code, ok := n["code"]; ok && code != nil {
		if s, ok := code.(string); ok && s != "" {
			return "code:" + s
		}
	}
	if pattern, ok := n["pattern"]; ok && pattern != nil {
		pos := n["position"]
		return fmt.Sprintf("pattern:%v:%v", pattern, pos)
	}
	return fmt.Sprintf("unnamed:%v", n["name"])
}

func mergeNodeLists(existing, incoming []map[string]interface{}, stats *MergeStats) []map[string]interface{} {
	existingByID := make(map[string]map[string]interface{}, len(existing))
	for _, n := range existing {
		existingByID[nodeIdentifier(n)] = n
	}
	newByID := make(map[string]map[string]interface{}, len(incoming))
	for _, n := range incoming {
		newByID[nodeIdentifier(n)] = n
	}

	ids := make(map[string]struct{}, len(existingByID)+len(newByID))
	for id := range existingByID {
		ids[id] = struct{}{}
	}
	for id := range newByID {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	merged := make([]map[string]interface{}, 0, len(sorted))
	for _, id := range sorted {
		oldNode, inOld := existingByID[id]
		newNode, inNew := newByID[id]
		switch {
		case inOld && inNew:
			merged = append(merged, mergeSingleNode(oldNode, newNode, stats))
			stats.MergedNodes++
		case inOld:
			merged = append(merged, oldNode)
		default:
			merged = append(merged, newNode)
			stats.NewNodes++
		}
	}
	return merged
}

// mergeSingleNode keeps every field existing carries, fills in only
// the fields new contributes that existing lacks, and recursively
// merges children. A field present and differing on both sides logs as
// a conflict but existing always wins, matching the original tool's
// "preserve curated data" guarantee.
func mergeSingleNode(existing, incoming map[string]interface{}, stats *MergeStats) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(incoming))

	existingChildren, _ := toNodeList(existing["children"])
	newChildren, _ := toNodeList(incoming["children"])
	merged["children"] = mergeNodeLists(existingChildren, newChildren, stats)

	for k, v := range existing {
		if k == "children" {
			continue
		}
		merged[k] = v
	}
	for k, v := range incoming {
		if k == "children" {
			continue
		}
		if _, present := merged[k]; !present {
			merged[k] = v
		}
	}

	if pics, ok := existing["pictures"].([]interface{}); ok && len(pics) > 0 {
		stats.Preserved.Pictures++
	}
	if links, ok := existing["links"].([]interface{}); ok && len(links) > 0 {
		stats.Preserved.Links++
	}
	if label, ok := existing["label"].(string); ok && label != "" {
		stats.Preserved.Labels++
	}

	hasConflict := false
	for k, ev := range existing {
		if k == "children" || k == "pictures" || k == "links" {
			continue
		}
		if nv, ok := incoming[k]; ok && !reflect.DeepEqual(ev, nv) {
			hasConflict = true
		}
	}
	if hasConflict {
		stats.Conflicts++
	}

	return merged
}

// ImportMerged merges existingExport (a prior export of this store's
// own contents) with incoming (a new document to fold in) and imports
// the result, so re-running ingestion on updated source data never
// drops pictures, links, or parsed labels already curated for a node.
func (imp *Importer) ImportMerged(ctx context.Context, existingExport, incoming []byte) (Stats, MergeStats, error) {
	merged, mergeStats, err := MergeTrees(existingExport, incoming)
	if err != nil {
		return Stats{}, mergeStats, err
	}
	stats, err := imp.Import(ctx, merged)
	return stats, mergeStats, err
}
