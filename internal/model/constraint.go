package model

// ConstraintMode is whether a constraint allows or denies matching codes.
type ConstraintMode string

const (
	ModeAllow ConstraintMode = "allow"
	ModeDeny  ConstraintMode = "deny"
)

// ConditionType is the kind of test a ConstraintCondition performs
// against the selection at its TargetLevel.
type ConditionType string

const (
	ConditionPattern   ConditionType = "pattern"
	ConditionPrefix    ConditionType = "prefix"
	ConditionExactCode ConditionType = "exact_code"
)

// ConstraintCondition is one test in a constraint's conjunction.
type ConstraintCondition struct {
	ConditionType ConditionType
	TargetLevel   int
	Value         string
}

// CodeEntryType distinguishes a literal code from a range expression.
type CodeEntryType string

const (
	CodeSingle CodeEntryType = "single"
	CodeRange  CodeEntryType = "range"
)

// ConstraintCode is one entry of a constraint's code list.
type ConstraintCode struct {
	CodeType  CodeEntryType
	CodeValue string
}

// Constraint is a per-level rule: it fires when every condition in
// Conditions matches the selection, and then either allows or denies
// the candidate code depending on Mode and whether the code is in the
// expansion of Codes.
type Constraint struct {
	ID         int64
	Level      int
	Mode       ConstraintMode
	Conditions []ConstraintCondition
	Codes      []ConstraintCode
}
