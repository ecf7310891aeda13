package model

// KmatReference binds a label to an exact configured path. Uniqueness
// is on (FamilyID, PathNodeIDs).
type KmatReference struct {
	ID            int64
	FamilyID      int64
	PathNodeIDs   []int64
	FullTypeCode  string
	KmatReference string
}
