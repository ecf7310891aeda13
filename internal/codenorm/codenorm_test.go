package codenorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"hyphen separated", "bcc-m313-gs-op123", []string{"BCC", "M313", "GS", "OP123"}},
		{"whitespace separated", "BCC M313 GS OP123", []string{"BCC", "M313", "GS", "OP123"}},
		{"mixed separators", "bcc_m313-gs op123", []string{"BCC", "M313", "GS", "OP123"}},
		{"double underscore run", "bcc__m313", []string{"BCC", "M313"}},
		{"chained single underscores", "tok1_tok2_tok3", []string{"TOK1", "TOK2", "TOK3"}},
		{"leading underscore kept literal", "_abc def", []string{"_ABC", "DEF"}},
		{"wildcard preserved", "BCC M313 * OP123", []string{"BCC", "M313", "*", "OP123"}},
		{"empty tokens dropped", "bcc---m313", []string{"BCC", "M313"}},
		{"empty string", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.in)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReconstruct(t *testing.T) {
	assert.Equal(t, "BCC", Reconstruct([]string{"BCC"}))
	assert.Equal(t, "BCC M313-GS-OP123", Reconstruct([]string{"BCC", "M313", "GS", "OP123"}))
	assert.Equal(t, "", Reconstruct(nil))
}

func TestNormalizeIdempotence(t *testing.T) {
	inputs := []string{
		"bcc m313-gs-op123",
		"BCC_M313_GS_OP123",
		"  bcc   m313   gs   op123 ",
		"A",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		require.Equal(t, once, twice, "normalization must be idempotent for %q", in)
	}
}
