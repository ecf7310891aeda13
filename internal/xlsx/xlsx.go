// Package xlsx writes a minimal, valid .xlsx workbook using only the
// standard library. No spreadsheet library appears anywhere in the
// example pack (DESIGN.md), so this builds the OOXML zip/XML package
// by hand: a workbook is just a zip archive of well-known XML parts.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tmkeil/variantconf/internal/apperr"
)

// Sheet is one worksheet: a name and a grid of string cells. Every row
// must carry the same semantic meaning as the header row's columns,
// but rows may differ in length — short rows render with blank cells.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is an ordered list of sheets, rendered in order (spec
// "Supplemented features": Excel export — Sheet 1 overview, Sheet 2
// shared codes when present, Sheet 3+ one per group).
type Workbook struct {
	Sheets []Sheet
}

// Build renders wb as a complete .xlsx file.
func (wb Workbook) Build() ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, apperr.Validation("workbook must have at least one sheet")
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	write := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write([]byte(content))
		return err
	}

	if err := write("[Content_Types].xml", contentTypesXML(len(wb.Sheets))); err != nil {
		return nil, apperr.Internal(err, "write content types")
	}
	if err := write("_rels/.rels", rootRelsXML); err != nil {
		return nil, apperr.Internal(err, "write root rels")
	}
	if err := write("xl/workbook.xml", workbookXML(wb.Sheets)); err != nil {
		return nil, apperr.Internal(err, "write workbook xml")
	}
	if err := write("xl/_rels/workbook.xml.rels", workbookRelsXML(len(wb.Sheets))); err != nil {
		return nil, apperr.Internal(err, "write workbook rels")
	}
	for i, sheet := range wb.Sheets {
		name := fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		if err := write(name, sheetXML(sheet)); err != nil {
			return nil, apperr.Internal(err, "write sheet xml")
		}
	}
	if err := zw.Close(); err != nil {
		return nil, apperr.Internal(err, "close xlsx archive")
	}
	return buf.Bytes(), nil
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

func contentTypesXML(sheetCount int) string {
	var overrides strings.Builder
	for i := 1; i <= sheetCount; i++ {
		fmt.Fprintf(&overrides, `<Override PartName="/xl/worksheets/sheet%d.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>`, i)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
` + overrides.String() + `
</Types>`
}

func workbookXML(sheets []Sheet) string {
	var entries strings.Builder
	for i, s := range sheets {
		fmt.Fprintf(&entries, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, xmlEscape(s.Name), i+1, i+1)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>` + entries.String() + `</sheets>
</workbook>`
}

func workbookRelsXML(sheetCount int) string {
	var rels strings.Builder
	for i := 1; i <= sheetCount; i++ {
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet%d.xml"/>`, i, i)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + rels.String() + `</Relationships>`
}

func sheetXML(s Sheet) string {
	var rows strings.Builder
	for r, row := range s.Rows {
		fmt.Fprintf(&rows, `<row r="%d">`, r+1)
		for c, val := range row {
			ref := cellRef(c, r)
			fmt.Fprintf(&rows, `<c r="%s" t="inlineStr"><is><t xml:space="preserve">%s</t></is></c>`, ref, xmlEscape(val))
		}
		rows.WriteString(`</row>`)
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>` + rows.String() + `</sheetData>
</worksheet>`
}

// cellRef renders the A1-style reference for column col (0-based) and
// row (0-based), e.g. (0,0) -> "A1", (26,0) -> "AA1".
func cellRef(col, row int) string {
	name := ""
	col++
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return fmt.Sprintf("%s%d", name, row+1)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}
