package model

// LabelSegment is a structured sub-part of a node's label, parsed once
// at import time (internal/ingest) and stored for reuse by export and
// deep copy.
type LabelSegment struct {
	ID            int64
	NodeID        int64
	Title         string
	CodeSegment   *string
	PositionStart *int
	PositionEnd   *int
	LabelDE       string
	LabelEN       string
	DisplayOrder  int
}
