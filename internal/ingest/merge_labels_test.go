package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmkeil/variantconf/internal/model"
)

func intPtr(n int) *int          { return &n }
func strPtrIngest(s string) *string { return &s }

func TestMergeLabelSegmentsFoldsMatchingKey(t *testing.T) {
	de := []model.LabelSegment{
		{CodeSegment: strPtrIngest("GS"), PositionStart: intPtr(1), PositionEnd: intPtr(2), LabelDE: "Ledersitze"},
	}
	en := []model.LabelSegment{
		{CodeSegment: strPtrIngest("GS"), PositionStart: intPtr(1), PositionEnd: intPtr(2), LabelDE: "Leather seats"},
	}
	merged := mergeLabelSegments(de, en)
	assert.Len(t, merged, 1)
	assert.Equal(t, "Ledersitze", merged[0].LabelDE)
	assert.Equal(t, "Leather seats", merged[0].LabelEN)
}

func TestMergeLabelSegmentsAppendsUnmatchedEnglish(t *testing.T) {
	de := []model.LabelSegment{
		{CodeSegment: strPtrIngest("GS"), PositionStart: intPtr(1), PositionEnd: intPtr(2), LabelDE: "Ledersitze"},
	}
	en := []model.LabelSegment{
		{CodeSegment: strPtrIngest("M3"), PositionStart: intPtr(3), PositionEnd: intPtr(4), LabelDE: "Metallic"},
	}
	merged := mergeLabelSegments(de, en)
	assert.Len(t, merged, 2)
	assert.Equal(t, "", merged[1].LabelDE)
	assert.Equal(t, "Metallic", merged[1].LabelEN)
}

func TestKeyOfTreatsNilFieldsAsZeroValue(t *testing.T) {
	seg := model.LabelSegment{}
	assert.Equal(t, segmentKey{}, keyOf(seg))
}

func TestDecodeFamiliesAcceptsWrappedAndBareShapes(t *testing.T) {
	wrapped, err := decodeFamilies([]byte(`{"children":[{"name":"Family A"}]}`))
	assert.NoError(t, err)
	assert.Len(t, wrapped, 1)
	assert.Equal(t, "Family A", wrapped[0].Name)

	bare, err := decodeFamilies([]byte(`[{"name":"Family B"}]`))
	assert.NoError(t, err)
	assert.Len(t, bare, 1)
	assert.Equal(t, "Family B", bare[0].Name)
}

func TestDecodeFamiliesRejectsGarbage(t *testing.T) {
	_, err := decodeFamilies([]byte(`not json`))
	assert.Error(t, err)
}

func TestRawNodeLabelENPrefersHyphenSpelling(t *testing.T) {
	r := rawNode{LabelENHyphen: "Leather", LabelENUnderscore: "fallback"}
	assert.Equal(t, "Leather", r.labelEN())

	r2 := rawNode{LabelENUnderscore: "fallback"}
	assert.Equal(t, "fallback", r2.labelEN())
}
