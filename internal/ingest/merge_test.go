package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIdentifierPrefersCode(t *testing.T) {
	n := map[string]interface{}{"code": "GS", "pattern": float64(3)}
	assert.Equal(t, "code:GS", nodeIdentifier(n))
}

func TestNodeIdentifierFallsBackToPattern(t *testing.T) {
	n := map[string]interface{}{"pattern": float64(3), "position": float64(1)}
	assert.Equal(t, "pattern:3:1", nodeIdentifier(n))
}

func TestNodeIdentifierFallsBackToName(t *testing.T) {
	n := map[string]interface{}{"name": "Root"}
	assert.Equal(t, "unnamed:Root", nodeIdentifier(n))
}

func TestMergeTreesPreservesExistingPicturesOnConflict(t *testing.T) {
	existing := []byte(`{"children":[
		{"code":"GS","name":"Leather (old)","label":"Ledersitze","pictures":[{"url":"p1.jpg"}]}
	]}`)
	incoming := []byte(`{"children":[
		{"code":"GS","name":"Leather (new)","label":"New label"}
	]}`)

	merged, stats, err := MergeTrees(existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExistingNodes)
	assert.Equal(t, 1, stats.MergedNodes)
	assert.Equal(t, 1, stats.Conflicts)
	assert.Equal(t, 1, stats.Preserved.Pictures)
	assert.Equal(t, 1, stats.Preserved.Labels)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &doc))
	children := doc["children"].([]interface{})
	require.Len(t, children, 1)
	node := children[0].(map[string]interface{})
	assert.Equal(t, "Leather (old)", node["name"])
	assert.Equal(t, "Ledersitze", node["label"])
}

func TestMergeTreesAddsNewNodesAndKeepsExistingOnly(t *testing.T) {
	existing := []byte(`{"children":[{"code":"GS","name":"Leather"}]}`)
	incoming := []byte(`{"children":[{"code":"M3","name":"Metallic"}]}`)

	_, stats, err := MergeTrees(existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NewNodes)
	assert.Equal(t, 0, stats.MergedNodes)
}

func TestMergeTreesMergesChildrenRecursively(t *testing.T) {
	existing := []byte(`{"children":[
		{"code":"BCC","name":"Family","children":[{"code":"GS","name":"Leather"}]}
	]}`)
	incoming := []byte(`{"children":[
		{"code":"BCC","name":"Family","children":[{"code":"M3","name":"Metallic"}]}
	]}`)

	merged, stats, err := MergeTrees(existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NewNodes)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &doc))
	fam := doc["children"].([]interface{})[0].(map[string]interface{})
	children := fam["children"].([]interface{})
	assert.Len(t, children, 2)
}

func TestMergeTreesRejectsGarbageInput(t *testing.T) {
	_, _, err := MergeTrees([]byte(`not json`), []byte(`{"children":[]}`))
	assert.Error(t, err)
}
