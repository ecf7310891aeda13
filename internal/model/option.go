package model

// AvailableOption is one entry in the compatibility engine's output
// (spec §4.4): a code group at the requested level, with its fields
// unioned across every id sharing that code, and a compatibility flag
// against the selections supplied by the caller.
type AvailableOption struct {
	RepresentativeID int64
	IDs              []int64
	Code             string
	Label            string
	LabelEN          string
	Name             string
	GroupName        string
	Level            int
	Position         int
	ParentPattern    *int64
	IsCompatible     bool
	Pictures         []Picture
	Links            []Link
}
