// Package constraint implements per-level rule evaluation (spec
// §4.6): given a partial selection and the constraints registered at
// a level, decide whether a candidate code is allowed.
package constraint

import (
	"context"
	"strconv"
	"strings"

	"github.com/tmkeil/variantconf/internal/model"
	"github.com/tmkeil/variantconf/internal/store"
)

// Engine evaluates constraints over a Store.
type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Result is the §4.6 output.
type Result struct {
	IsValid  bool
	Violated []*model.Constraint
	Message  string
}

// Validate checks code against every constraint registered at level,
// given the rest of the partial selection sel (level -> code).
func (e *Engine) Validate(ctx context.Context, q store.Querier, level int, code string, sel map[int]string) (Result, error) {
	constraints, err := e.store.ConstraintsAtLevel(ctx, q, level)
	if err != nil {
		return Result{}, err
	}

	var violated []*model.Constraint
	for _, c := range constraints {
		if !fires(c, sel) {
			continue
		}
		inSet := expandedContains(c.Codes, code)
		isViolation := (c.Mode == model.ModeAllow && !inSet) || (c.Mode == model.ModeDeny && inSet)
		if isViolation {
			violated = append(violated, c)
		}
	}

	result := Result{IsValid: len(violated) == 0, Violated: violated}
	if !result.IsValid {
		result.Message = violationMessage(code, violated)
	}
	return result, nil
}

func fires(c *model.Constraint, sel map[int]string) bool {
	for _, cond := range c.Conditions {
		value, ok := sel[cond.TargetLevel]
		if !ok {
			return false
		}
		if !conditionHolds(cond, value) {
			return false
		}
	}
	return len(c.Conditions) > 0
}

func conditionHolds(cond model.ConstraintCondition, value string) bool {
	switch cond.ConditionType {
	case model.ConditionExactCode:
		return value == cond.Value
	case model.ConditionPrefix:
		return strings.HasPrefix(value, cond.Value)
	case model.ConditionPattern:
		return lengthMatches(len(value), cond.Value)
	default:
		return false
	}
}

func lengthMatches(n int, spec string) bool {
	if lo, hi, ok := splitRange(spec); ok {
		loN, err1 := strconv.Atoi(lo)
		hiN, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return false
		}
		return n >= loN && n <= hiN
	}
	exact, err := strconv.Atoi(spec)
	if err != nil {
		return false
	}
	return n == exact
}

func expandedContains(codes []model.ConstraintCode, code string) bool {
	for _, entry := range codes {
		if entry.CodeType == model.CodeSingle {
			if entry.CodeValue == code {
				return true
			}
			continue
		}
		for _, expanded := range ExpandRange(entry.CodeValue) {
			if expanded == code {
				return true
			}
		}
	}
	return false
}

func violationMessage(code string, violated []*model.Constraint) string {
	var b strings.Builder
	b.WriteString("code ")
	b.WriteString(code)
	b.WriteString(" violates ")
	for i, c := range violated {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(c.Mode))
		b.WriteString(" constraint at level ")
		b.WriteString(strconv.Itoa(c.Level))
	}
	return b.String()
}
