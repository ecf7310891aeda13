package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandRangeNumericSuffix(t *testing.T) {
	got := ExpandRange("PS001-PS005")
	assert.Equal(t, []string{"PS001", "PS002", "PS003", "PS004", "PS005"}, got)
}

func TestExpandRangeAlphabetic(t *testing.T) {
	got := ExpandRange("A-E")
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got)
}

func TestExpandRangeSingleCharAlphanumeric(t *testing.T) {
	got := ExpandRange("8-C")
	assert.Equal(t, []string{"8", "9", "A", "B", "C"}, got)
}

func TestExpandRangeTwoChar(t *testing.T) {
	got := ExpandRange("AA-AC")
	assert.Equal(t, []string{"AA", "AB", "AC"}, got)
}

func TestExpandRangeTwoCharCapCollapsesToBounds(t *testing.T) {
	got := ExpandRange("00-ZZ")
	assert.Equal(t, []string{"00", "ZZ"}, got)
}

func TestExpandRangeUnrecognisedFormReturnsVerbatim(t *testing.T) {
	assert.Equal(t, []string{"GS"}, ExpandRange("GS"))
	assert.Equal(t, []string{"PS001-GS"}, ExpandRange("PS001-GS"))
}

func TestExpandRangeDescendingBoundsRejected(t *testing.T) {
	got := ExpandRange("PS005-PS001")
	assert.Equal(t, []string{"PS005-PS001"}, got)
}

func TestLengthMatchesExact(t *testing.T) {
	assert.True(t, lengthMatches(3, "3"))
	assert.False(t, lengthMatches(4, "3"))
}

func TestLengthMatchesRange(t *testing.T) {
	assert.True(t, lengthMatches(2, "1-3"))
	assert.True(t, lengthMatches(3, "1-3"))
	assert.False(t, lengthMatches(4, "1-3"))
}

func TestLengthMatchesInvalidSpec(t *testing.T) {
	assert.False(t, lengthMatches(3, "abc"))
}
