package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func TestFamilySelectionFindsLevelZero(t *testing.T) {
	sels := []model.Selection{{Level: 1, Code: "GS"}, {Level: 0, Code: "BCC"}}
	fam, ok := familySelection(sels)
	require.True(t, ok)
	assert.Equal(t, "BCC", fam.Code)
}

func TestFamilySelectionAbsent(t *testing.T) {
	_, ok := familySelection([]model.Selection{{Level: 1, Code: "GS"}})
	assert.False(t, ok)
}

func TestFamilySelectionAmbiguousReturnsFalse(t *testing.T) {
	sels := []model.Selection{{Level: 0, Code: "BCC"}, {Level: 0, Code: "DEF"}}
	_, ok := familySelection(sels)
	assert.False(t, ok)
}

func TestGroupByCodeSkipsPatternContainers(t *testing.T) {
	candidates := []store.CandidateNode{
		{Node: &model.Node{ID: 1, Code: strPtr("GS"), Position: 1}},
		{Node: &model.Node{ID: 2, Code: nil, Position: 2}},
		{Node: &model.Node{ID: 3, Code: strPtr("GS"), Position: 1}},
	}
	groups := groupByCode(candidates)
	require.Len(t, groups, 1)
	assert.Equal(t, "GS", groups[0].code)
	assert.ElementsMatch(t, []int64{1, 3}, groups[0].origIDs)
}

func TestBuildOptionSingleCandidateCopiesFields(t *testing.T) {
	n := &model.Node{ID: 1, Code: strPtr("GS"), Label: "Ledersitze", Name: "Leather"}
	g := &group{code: "GS", candidates: map[int64]store.CandidateNode{1: {Node: n}}}
	opt := buildOption(g, []int64{1}, true, 2)
	assert.Equal(t, "GS", opt.Code)
	assert.Equal(t, "Ledersitze", opt.Label)
	assert.True(t, opt.IsCompatible)
	assert.Equal(t, int64(1), opt.RepresentativeID)
}

func TestBuildOptionMergesMultipleCandidates(t *testing.T) {
	n1 := &model.Node{ID: 1, Code: strPtr("GS"), Label: "A", GroupName: strPtr("Seats")}
	n2 := &model.Node{ID: 2, Code: strPtr("GS"), Label: "B", GroupName: strPtr("Seats")}
	g := &group{code: "GS", candidates: map[int64]store.CandidateNode{1: {Node: n1}, 2: {Node: n2}}}
	opt := buildOption(g, []int64{1, 2}, false, 2)
	assert.Equal(t, "A\n---\nB", opt.Label)
	assert.Equal(t, "Seats", opt.GroupName)
	assert.False(t, opt.IsCompatible)
}

func TestLessOrdersByPatternThenCompatibleThenPositionThenCode(t *testing.T) {
	a := model.AvailableOption{ParentPattern: nil, IsCompatible: true, Position: 1, Code: "A"}
	b := model.AvailableOption{ParentPattern: i64Ptr(1), IsCompatible: true, Position: 1, Code: "A"}
	assert.True(t, less(a, b))

	c := model.AvailableOption{ParentPattern: nil, IsCompatible: true, Position: 2, Code: "A"}
	d := model.AvailableOption{ParentPattern: nil, IsCompatible: false, Position: 1, Code: "Z"}
	assert.True(t, less(c, d))
}

func TestPatternKeyNilSortsFirst(t *testing.T) {
	assert.Less(t, patternKey(nil), patternKey(i64Ptr(0)))
}
