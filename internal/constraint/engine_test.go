package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmkeil/variantconf/internal/model"
)

func TestFiresRequiresEveryConditionToMatch(t *testing.T) {
	c := &model.Constraint{
		Conditions: []model.ConstraintCondition{
			{ConditionType: model.ConditionExactCode, TargetLevel: 1, Value: "BCC"},
			{ConditionType: model.ConditionPrefix, TargetLevel: 2, Value: "M3"},
		},
	}
	assert.True(t, fires(c, map[int]string{1: "BCC", 2: "M313"}))
	assert.False(t, fires(c, map[int]string{1: "BCC", 2: "X313"}))
}

func TestFiresFalseWhenSelectionMissingTargetLevel(t *testing.T) {
	c := &model.Constraint{
		Conditions: []model.ConstraintCondition{
			{ConditionType: model.ConditionExactCode, TargetLevel: 1, Value: "BCC"},
		},
	}
	assert.False(t, fires(c, map[int]string{2: "M313"}))
}

func TestFiresFalseWithNoConditions(t *testing.T) {
	assert.False(t, fires(&model.Constraint{}, map[int]string{1: "BCC"}))
}

func TestConditionHoldsPattern(t *testing.T) {
	cond := model.ConstraintCondition{ConditionType: model.ConditionPattern, Value: "2-4"}
	assert.True(t, conditionHolds(cond, "OP12"))
	assert.False(t, conditionHolds(cond, "OP12345"))
}

func TestExpandedContainsSingleAndRange(t *testing.T) {
	codes := []model.ConstraintCode{
		{CodeType: model.CodeSingle, CodeValue: "GS"},
		{CodeType: model.CodeRange, CodeValue: "PS001-PS003"},
	}
	assert.True(t, expandedContains(codes, "GS"))
	assert.True(t, expandedContains(codes, "PS002"))
	assert.False(t, expandedContains(codes, "PS004"))
}

func TestViolationMessageListsEveryConstraint(t *testing.T) {
	violated := []*model.Constraint{
		{Mode: model.ModeDeny, Level: 3},
		{Mode: model.ModeAllow, Level: 4},
	}
	msg := violationMessage("PS004", violated)
	assert.Contains(t, msg, "PS004")
	assert.Contains(t, msg, "deny constraint at level 3")
	assert.Contains(t, msg, "allow constraint at level 4")
}
