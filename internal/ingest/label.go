package ingest

import (
	"regexp"
	"strings"

	"github.com/tmkeil/variantconf/internal/model"
)

var (
	titleLine = regexp.MustCompile(`^([^:]+):\s*(.*)$`)
	codeLine  = regexp.MustCompile(`(?i)^([A-Z0-9]+)\s*=\s*(.+)$`)
)

// ParseLabel parses a raw label string into ordered LabelSegment
// records. Blocks are separated by a blank line; each block may open
// with a "Title: ..." line that applies to every following line in
// the block, and at most one line per block contributes a
// code_segment — subsequent lines in the same block are label-only
// even if they match the "CODE = text" shape.
func ParseLabel(labelText, fullCode string) []model.LabelSegment {
	if strings.TrimSpace(labelText) == "" {
		return nil
	}

	var out []model.LabelSegment
	displayOrder := 0
	blocks := strings.Split(labelText, "\n\n")

	for _, block := range blocks {
		lines := nonEmptyLines(block)
		if len(lines) == 0 {
			continue
		}

		var title string
		rest := lines
		if m := titleLine.FindStringSubmatch(lines[0]); m != nil {
			title = strings.TrimSpace(m[1])
			rest = lines[1:]
			if content := strings.TrimSpace(m[2]); content != "" {
				rest = append([]string{content}, rest...)
			}
		}

		foundCodeInBlock := false
		for _, line := range rest {
			seg := parseContentLine(line, fullCode, !foundCodeInBlock)
			seg.Title = title
			seg.DisplayOrder = displayOrder
			displayOrder++
			if seg.CodeSegment != nil {
				foundCodeInBlock = true
			}
			out = append(out, seg)
		}
	}
	return out
}

func parseContentLine(line, fullCode string, allowCodeSegment bool) model.LabelSegment {
	if allowCodeSegment {
		if m := codeLine.FindStringSubmatch(line); m != nil {
			codeSeg := m[1]
			label := strings.TrimSpace(m[2])
			seg := model.LabelSegment{CodeSegment: &codeSeg, LabelDE: label}
			if fullCode != "" {
				if idx := strings.Index(fullCode, codeSeg); idx >= 0 {
					start := idx + 1
					end := start + len(codeSeg) - 1
					seg.PositionStart = &start
					seg.PositionEnd = &end
				}
			}
			return seg
		}
	}
	return model.LabelSegment{LabelDE: strings.TrimSpace(line)}
}

func nonEmptyLines(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
