package xlsx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A1", cellRef(0, 0))
	assert.Equal(t, "Z1", cellRef(25, 0))
	assert.Equal(t, "AA1", cellRef(26, 0))
	assert.Equal(t, "B3", cellRef(1, 2))
}

func TestXMLEscape(t *testing.T) {
	assert.Equal(t, "A &amp; B &lt;tag&gt;", xmlEscape("A & B <tag>"))
}

func TestBuildRejectsEmptyWorkbook(t *testing.T) {
	_, err := Workbook{}.Build()
	assert.Error(t, err)
}

func TestBuildProducesValidZipWithExpectedParts(t *testing.T) {
	wb := Workbook{Sheets: []Sheet{
		{Name: "Übersicht", Rows: [][]string{{"Code", "Name"}, {"GS", "Leather"}}},
	}}
	data, err := wb.Build()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["_rels/.rels"])
	assert.True(t, names["xl/workbook.xml"])
	assert.True(t, names["xl/_rels/workbook.xml.rels"])
	assert.True(t, names["xl/worksheets/sheet1.xml"])
}

func TestBuildEmitsOneSheetFilePerSheet(t *testing.T) {
	wb := Workbook{Sheets: []Sheet{
		{Name: "A", Rows: [][]string{{"x"}}},
		{Name: "B", Rows: [][]string{{"y"}}},
	}}
	data, err := wb.Build()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var sheetFiles int
	for _, f := range zr.File {
		if f.Name == "xl/worksheets/sheet1.xml" || f.Name == "xl/worksheets/sheet2.xml" {
			sheetFiles++
		}
	}
	assert.Equal(t, 2, sheetFiles)
}
