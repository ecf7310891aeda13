package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmkeil/variantconf/internal/model"
)

func strPtr(s string) *string { return &s }

func TestDedupePreservesFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, dedupe([]string{"A", "B", "A", "C", "B"}))
	assert.Nil(t, dedupe(nil))
}

func TestLimitCodes(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, limitCodes([]string{"A", "B", "C"}, 2))
	assert.Equal(t, []string{"A", "B"}, limitCodes([]string{"A", "B"}, 5))
}

func TestLastGroupNameEmpty(t *testing.T) {
	assert.Equal(t, "", lastGroupName(nil))
}

func TestLastGroupNameReturnsFinalSegment(t *testing.T) {
	segs := []model.CodePathSegment{{GroupName: "Seats"}, {GroupName: "Color"}}
	assert.Equal(t, "Color", lastGroupName(segs))
}

func TestWildcardSegmentDedupesAndSorts(t *testing.T) {
	children := []*model.Node{
		{ID: 1, Code: strPtr("M313")},
		{ID: 2, Code: strPtr("GS")},
		{ID: 3, Code: strPtr("GS")},
	}
	seg, ids := wildcardSegment(children, 5)
	require.Equal(t, "*", seg.Code)
	assert.Equal(t, "GS, M313", seg.Label)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, 5, seg.PositionStart)
	assert.Equal(t, 5, seg.PositionEnd)
}

func TestSegmentForCopiesFields(t *testing.T) {
	n := &model.Node{Name: "Metallic", Label: "Lackierung", LabelEN: "Paint", Code: strPtr("M313")}
	seg := segmentFor(n, 1, 4)
	assert.Equal(t, "M313", seg.Code)
	assert.Equal(t, "Metallic", seg.Name)
	assert.Equal(t, 1, seg.PositionStart)
	assert.Equal(t, 4, seg.PositionEnd)
}

func TestUnionSegmentSingleNodeKeepsCode(t *testing.T) {
	n := &model.Node{Name: "Metallic", Code: strPtr("M313")}
	seg := unionSegment([]*model.Node{n}, "M313", 1, 4)
	assert.Equal(t, "M313", seg.Code)
	assert.Equal(t, "Metallic", seg.Name)
}

func TestUnionSegmentMultipleNodesMergesFields(t *testing.T) {
	nodes := []*model.Node{
		{Name: "Metallic", Label: "Lack A", GroupName: strPtr("Paint")},
		{Name: "Metallic", Label: "Lack B", GroupName: strPtr("Paint")},
	}
	seg := unionSegment(nodes, "M313", 1, 4)
	assert.Equal(t, "M313", seg.Code)
	assert.Equal(t, "Metallic", seg.Name)
	assert.Equal(t, "Paint", seg.GroupName)
	assert.Equal(t, "Lack A\n---\nLack B", seg.Label)
}
