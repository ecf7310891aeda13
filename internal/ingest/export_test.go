package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmkeil/variantconf/internal/model"
)

func TestReconstructLabelSingleTitleBlock(t *testing.T) {
	segs := []model.LabelSegment{
		{Title: "Ausstattung", CodeSegment: strPtrIngest("GS"), LabelDE: "Ledersitze", LabelEN: "Leather seats", DisplayOrder: 0},
		{Title: "Ausstattung", CodeSegment: strPtrIngest("M3"), LabelDE: "Metallic", LabelEN: "Metallic paint", DisplayOrder: 1},
	}
	de := reconstructLabel(segs, false)
	assert.Equal(t, "Ausstattung: GS = Ledersitze\nM3 = Metallic", de)

	en := reconstructLabel(segs, true)
	assert.Equal(t, "Ausstattung: GS = Leather seats\nM3 = Metallic paint", en)
}

func TestReconstructLabelFlushesOnTitleChange(t *testing.T) {
	segs := []model.LabelSegment{
		{Title: "Farbe", LabelDE: "Schwarz", DisplayOrder: 0},
		{Title: "Sitze", LabelDE: "Leder", DisplayOrder: 1},
	}
	de := reconstructLabel(segs, false)
	assert.Equal(t, "Farbe: Schwarz\n\nSitze: Leder", de)
}

func TestReconstructLabelSkipsEmptyText(t *testing.T) {
	segs := []model.LabelSegment{
		{Title: "Farbe", LabelDE: "Schwarz", LabelEN: "", DisplayOrder: 0},
	}
	assert.Equal(t, "", reconstructLabel(segs, true))
}

func TestReconstructLabelEmptyInput(t *testing.T) {
	assert.Equal(t, "", reconstructLabel(nil, false))
}

func TestJoinLinesAndBlocks(t *testing.T) {
	assert.Equal(t, "a\nb", joinLines([]string{"a", "b"}))
	assert.Equal(t, "", joinBlocks(nil))
	assert.Equal(t, "a\n\nb", joinBlocks([]string{"a", "b"}))
}
