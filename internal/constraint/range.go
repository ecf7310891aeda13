package constraint

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const alphanumAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// maxTwoCharCombinations is the §4.6 documented cap: beyond this many
// emitted codes, a two-character range collapses to just its bounds.
const maxTwoCharCombinations = 1000

var numericSuffixRange = regexp.MustCompile(`^([A-Za-z]*)(\d+)$`)

// ExpandRange expands a "lo-hi" range expression per spec §4.6. Values
// that don't parse as any recognised range form are returned verbatim
// as a single-element set, so callers can feed any code_value through
// uniformly.
func ExpandRange(value string) []string {
	lo, hi, ok := splitRange(value)
	if !ok {
		return []string{value}
	}

	if codes, ok := expandNumericSuffix(lo, hi); ok {
		return codes
	}
	if codes, ok := expandAlphabetic(lo, hi); ok {
		return codes
	}
	if codes, ok := expandSingleCharAlphanumeric(lo, hi); ok {
		return codes
	}
	if codes, ok := expandTwoCharCombinations(lo, hi); ok {
		return codes
	}
	return []string{value}
}

func splitRange(value string) (lo, hi string, ok bool) {
	idx := strings.IndexByte(value, '-')
	if idx <= 0 || idx == len(value)-1 {
		return "", "", false
	}
	return value[:idx], value[idx+1:], true
}

// expandNumericSuffix handles "PS001-PS999": same alphabetic prefix,
// numeric suffix of equal width, zero-padding preserved.
func expandNumericSuffix(lo, hi string) ([]string, bool) {
	loM := numericSuffixRange.FindStringSubmatch(lo)
	hiM := numericSuffixRange.FindStringSubmatch(hi)
	if loM == nil || hiM == nil {
		return nil, false
	}
	if loM[1] != hiM[1] {
		return nil, false
	}
	prefix := loM[1]
	if len(loM[2]) != len(hiM[2]) {
		return nil, false
	}
	width := len(loM[2])
	start, err1 := strconv.Atoi(loM[2])
	end, err2 := strconv.Atoi(hiM[2])
	if err1 != nil || err2 != nil || start > end {
		return nil, false
	}
	out := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, fmt.Sprintf("%s%0*d", prefix, width, n))
	}
	return out, true
}

// expandAlphabetic handles "A-Z": single uppercase letters only.
func expandAlphabetic(lo, hi string) ([]string, bool) {
	if len(lo) != 1 || len(hi) != 1 {
		return nil, false
	}
	l, h := lo[0], hi[0]
	if !isUpperLetter(l) || !isUpperLetter(h) || l > h {
		return nil, false
	}
	out := make([]string, 0, int(h-l)+1)
	for c := l; c <= h; c++ {
		out = append(out, string(rune(c)))
	}
	return out, true
}

// expandSingleCharAlphanumeric handles a single-char range over the
// combined alphabet "0-9A-Z" (digits ordered before letters).
func expandSingleCharAlphanumeric(lo, hi string) ([]string, bool) {
	if len(lo) != 1 || len(hi) != 1 {
		return nil, false
	}
	li := strings.IndexByte(alphanumAlphabet, toUpperByte(lo[0]))
	hi2 := strings.IndexByte(alphanumAlphabet, toUpperByte(hi[0]))
	if li < 0 || hi2 < 0 || li > hi2 {
		return nil, false
	}
	out := make([]string, 0, hi2-li+1)
	for i := li; i <= hi2; i++ {
		out = append(out, string(alphanumAlphabet[i]))
	}
	return out, true
}

// expandTwoCharCombinations handles two-character codes drawn from the
// combined alphabet, capped at maxTwoCharCombinations emitted codes.
func expandTwoCharCombinations(lo, hi string) ([]string, bool) {
	if len(lo) != 2 || len(hi) != 2 {
		return nil, false
	}
	loRank, ok1 := twoCharRank(lo)
	hiRank, ok2 := twoCharRank(hi)
	if !ok1 || !ok2 || loRank > hiRank {
		return nil, false
	}
	count := hiRank - loRank + 1
	if count > maxTwoCharCombinations {
		return []string{lo, hi}, true
	}
	out := make([]string, 0, count)
	for r := loRank; r <= hiRank; r++ {
		out = append(out, rankToTwoChar(r))
	}
	sort.Strings(out)
	return out, true
}

func twoCharRank(s string) (int, bool) {
	a := strings.IndexByte(alphanumAlphabet, toUpperByte(s[0]))
	b := strings.IndexByte(alphanumAlphabet, toUpperByte(s[1]))
	if a < 0 || b < 0 {
		return 0, false
	}
	return a*len(alphanumAlphabet) + b, true
}

func rankToTwoChar(r int) string {
	n := len(alphanumAlphabet)
	a := r / n
	b := r % n
	return string(alphanumAlphabet[a]) + string(alphanumAlphabet[b])
}

func isUpperLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func toUpperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
