package admin

import (
	"context"
	"strings"

	"github.com/tmkeil/variantconf/internal/model"
)

// CodeClass classifies a code substring for the allowed_pattern filter
// (§4.8): special characters are ignored from the classification.
type CodeClass string

const (
	ClassAlphabetic   CodeClass = "alphabetic"
	ClassNumeric      CodeClass = "numeric"
	ClassAlphanumeric CodeClass = "alphanumeric"
)

// LengthSpec is the dict-only form of a code-length predicate that
// spec §9's open question resolves implementations to: {min, max} is an
// inclusive range, and an exact length is expressed as min == max.
type LengthSpec struct {
	Min int
	Max int
}

func (l LengthSpec) matches(n int) bool {
	return n >= l.Min && n <= l.Max
}

// AllowedPatternFilter checks that code[From:To] belongs to Class,
// ignoring non-alphanumeric characters from the classification.
type AllowedPatternFilter struct {
	From  int
	To    int
	Class CodeClass
}

func (f AllowedPatternFilter) matches(code string) bool {
	if f.From < 0 || f.To > len(code) || f.From >= f.To {
		return false
	}
	slice := code[f.From:f.To]
	hasLetter, hasDigit := false, false
	for _, r := range slice {
		switch {
		case r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	switch f.Class {
	case ClassAlphabetic:
		return hasLetter && !hasDigit
	case ClassNumeric:
		return hasDigit && !hasLetter
	case ClassAlphanumeric:
		return hasLetter || hasDigit
	default:
		return false
	}
}

// ParentLevelPattern applies a LengthSpec to the ancestor at Level.
type ParentLevelPattern struct {
	Level  int
	Length LengthSpec
}

// ParentLevelOption lists accepted codes (exact or "PREFIX*") for the
// ancestor at Level.
type ParentLevelOption struct {
	Level int
	Codes []string
}

func (o ParentLevelOption) matches(code string) bool {
	for _, want := range o.Codes {
		if strings.HasSuffix(want, "*") {
			if strings.HasPrefix(code, strings.TrimSuffix(want, "*")) {
				return true
			}
			continue
		}
		if code == want {
			return true
		}
	}
	return false
}

// FilterQuery bundles the §4.8 bulk admin filter predicates. Zero
// values mean "no constraint of that kind".
type FilterQuery struct {
	Pattern             *LengthSpec
	AllowedPattern      *AllowedPatternFilter
	ParentLevelPatterns []ParentLevelPattern
	ParentLevelOptions  []ParentLevelOption
}

// FilterNodes applies q to candidates, fetching each node's ancestor
// chain only when a parent-level predicate is present.
func (e *Engine) FilterNodes(ctx context.Context, candidates []*model.Node, q FilterQuery) ([]*model.Node, error) {
	needsAncestors := len(q.ParentLevelPatterns) > 0 || len(q.ParentLevelOptions) > 0

	var out []*model.Node
	for _, n := range candidates {
		if n.Code == nil {
			continue
		}
		if q.Pattern != nil && !q.Pattern.matches(len(*n.Code)) {
			continue
		}
		if q.AllowedPattern != nil && !q.AllowedPattern.matches(*n.Code) {
			continue
		}
		if needsAncestors {
			ancestors, err := e.store.AncestorsOf(ctx, e.dbQuerier(), n.ID, false)
			if err != nil {
				return nil, err
			}
			byLevel := make(map[int]*model.Node, len(ancestors))
			for _, a := range ancestors {
				byLevel[a.Level] = a
			}
			if !satisfiesParentConstraints(byLevel, q) {
				continue
			}
		}
		out = append(out, n)
	}
	return out, nil
}

// satisfiesParentConstraints requires at least one ancestor chain to
// satisfy every parent-level condition (§4.8: "at least one ancestor
// chain must satisfy all conditions" — a node has exactly one ancestor
// chain, so this reduces to evaluating every condition against it).
func satisfiesParentConstraints(byLevel map[int]*model.Node, q FilterQuery) bool {
	for _, p := range q.ParentLevelPatterns {
		anc, ok := byLevel[p.Level]
		if !ok || anc.Code == nil || !p.Length.matches(len(*anc.Code)) {
			return false
		}
	}
	for _, o := range q.ParentLevelOptions {
		anc, ok := byLevel[o.Level]
		if !ok || anc.Code == nil || !o.matches(*anc.Code) {
			return false
		}
	}
	return true
}
