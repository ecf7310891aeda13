package xlsx

import (
	"fmt"
	"sort"

	"github.com/tmkeil/variantconf/internal/model"
)

// BuildOptionsWorkbook renders a compat.ResolveOptions result the way
// the original Excel export did: an overview sheet, a "shared codes"
// sheet for codes that recur across more than one group, then one
// sheet per group listing every option in it.
func BuildOptionsWorkbook(options []model.AvailableOption) Workbook {
	overview := Sheet{
		Name: "Übersicht",
		Rows: [][]string{{"Code", "Name", "Label", "Group", "Compatible", "Level", "Position"}},
	}
	byCode := map[string][]model.AvailableOption{}
	byGroup := map[string][]model.AvailableOption{}

	for _, o := range options {
		overview.Rows = append(overview.Rows, optionRow(o))
		byCode[o.Code] = append(byCode[o.Code], o)
		if o.GroupName != "" {
			byGroup[o.GroupName] = append(byGroup[o.GroupName], o)
		}
	}

	sheets := []Sheet{overview}

	shared := Sheet{Name: "Gemeinsame Codes", Rows: [][]string{{"Code", "Groups"}}}
	sharedCodes := make([]string, 0)
	for code, opts := range byCode {
		groups := distinctGroups(opts)
		if len(groups) > 1 {
			sharedCodes = append(sharedCodes, code)
		}
	}
	sort.Strings(sharedCodes)
	for _, code := range sharedCodes {
		groups := distinctGroups(byCode[code])
		shared.Rows = append(shared.Rows, []string{code, joinComma(groups)})
	}
	if len(shared.Rows) > 1 {
		sheets = append(sheets, shared)
	}

	groupNames := make([]string, 0, len(byGroup))
	for name := range byGroup {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	for _, name := range groupNames {
		opts := byGroup[name]
		sort.Slice(opts, func(i, j int) bool { return opts[i].Code < opts[j].Code })
		sheet := Sheet{Name: sheetName(name), Rows: [][]string{{"Code", "Name", "Label", "Level", "Position"}}}
		seen := map[string]bool{}
		for _, o := range opts {
			if seen[o.Code] {
				continue
			}
			seen[o.Code] = true
			sheet.Rows = append(sheet.Rows, []string{o.Code, o.Name, o.Label, fmt.Sprintf("%d", o.Level), fmt.Sprintf("%d", o.Position)})
		}
		sheets = append(sheets, sheet)
	}

	return Workbook{Sheets: sheets}
}

func optionRow(o model.AvailableOption) []string {
	compatible := "no"
	if o.IsCompatible {
		compatible = "yes"
	}
	return []string{o.Code, o.Name, o.Label, o.GroupName, compatible, fmt.Sprintf("%d", o.Level), fmt.Sprintf("%d", o.Position)}
}

func distinctGroups(opts []model.AvailableOption) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range opts {
		if o.GroupName == "" || seen[o.GroupName] {
			continue
		}
		seen[o.GroupName] = true
		out = append(out, o.GroupName)
	}
	sort.Strings(out)
	return out
}

func joinComma(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}

// sheetName truncates to Excel's 31-character sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
