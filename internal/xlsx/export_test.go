package xlsx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmkeil/variantconf/internal/model"
)

func TestSheetNameTruncatesTo31Chars(t *testing.T) {
	long := strings.Repeat("x", 40)
	assert.Len(t, sheetName(long), 31)
	assert.Equal(t, "short", sheetName("short"))
}

func TestDistinctGroupsDedupesAndSorts(t *testing.T) {
	opts := []model.AvailableOption{
		{GroupName: "Seats"},
		{GroupName: "Color"},
		{GroupName: "Seats"},
		{GroupName: ""},
	}
	assert.Equal(t, []string{"Color", "Seats"}, distinctGroups(opts))
}

func TestJoinComma(t *testing.T) {
	assert.Equal(t, "", joinComma(nil))
	assert.Equal(t, "A, B", joinComma([]string{"A", "B"}))
}

func TestBuildOptionsWorkbookSharesCodeAcrossGroups(t *testing.T) {
	opts := []model.AvailableOption{
		{Code: "GS", Name: "Leather", GroupName: "Seats", IsCompatible: true},
		{Code: "GS", Name: "Leather", GroupName: "Trim", IsCompatible: true},
		{Code: "M3", Name: "Metallic", GroupName: "Paint", IsCompatible: false},
	}
	wb := BuildOptionsWorkbook(opts)

	var names []string
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Übersicht")
	assert.Contains(t, names, "Gemeinsame Codes")
	assert.Contains(t, names, "Seats")
	assert.Contains(t, names, "Trim")
	assert.Contains(t, names, "Paint")

	var shared Sheet
	for _, s := range wb.Sheets {
		if s.Name == "Gemeinsame Codes" {
			shared = s
		}
	}
	require.Len(t, shared.Rows, 2)
	assert.Equal(t, []string{"GS", "Seats, Trim"}, shared.Rows[1])
}

func TestBuildOptionsWorkbookOmitsSharedSheetWhenNoCodeRecurs(t *testing.T) {
	opts := []model.AvailableOption{
		{Code: "GS", Name: "Leather", GroupName: "Seats"},
		{Code: "M3", Name: "Metallic", GroupName: "Paint"},
	}
	wb := BuildOptionsWorkbook(opts)
	for _, s := range wb.Sheets {
		assert.NotEqual(t, "Gemeinsame Codes", s.Name)
	}
}
