package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "SELECT a FROM t", "SELECT a FROM t"},
		{"line comment", "SELECT a -- note\nFROM t", "SELECT a FROM t"},
		{"block comment across lines", "SELECT a FROM /* x\n y */ t", "SELECT a FROM t"},
		{"block comment joins nothing", "SELECT a/**/FROM t", "SELECT a FROM t"},
		{"whitespace runs", "  SELECT\ta,\n\n  b   FROM t  ", "SELECT a, b FROM t"},
		{"only comments", "-- nothing here\n/* or here */", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	toks := tokenize("SELECT 'it''s', [col], a[1] FROM t WHERE x = $1 AND y::int >= :lim")

	var kinds []tokenKind
	var texts []string
	for _, tok := range toks {
		kinds = append(kinds, tok.kind)
		texts = append(texts, tok.text)
	}

	assert.Equal(t, []string{
		"SELECT", "it's", ",", "col", ",", "a", "[", "1", "]", "FROM", "t",
		"WHERE", "x", "=", "$1", "AND", "y", "::", "int", ">=", ":lim",
	}, texts)
	assert.Equal(t, tokString, kinds[1])
	assert.Equal(t, tokQuoted, kinds[3])
	assert.Equal(t, tokOperator, kinds[6])
	assert.Equal(t, tokParam, kinds[14])
	assert.Equal(t, tokParam, kinds[20])
}

func TestTokenize_Depth(t *testing.T) {
	toks := tokenize("SELECT f(a, (b)) FROM t")
	require.Len(t, toks, 11)

	depths := make([]int, len(toks))
	for i, tok := range toks {
		depths[i] = tok.depth
	}
	// SELECT f ( a , ( b ) ) FROM t
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 2, 1, 0, 0, 0}, depths)
}

func TestTokenize_Unterminated(t *testing.T) {
	toks := tokenize("SELECT 'open")
	require.Len(t, toks, 2)
	assert.Equal(t, "open", toks[1].text)

	toks = tokenize(`SELECT "open`)
	require.Len(t, toks, 2)
	assert.Equal(t, tokQuoted, toks[1].kind)

	toks = tokenize("SELECT ))) a")
	for _, tok := range toks {
		assert.GreaterOrEqual(t, tok.depth, 0)
	}
}

func TestTokenize_BracketAfterKeyword(t *testing.T) {
	toks := tokenize("SELECT x FROM [dbo].[users]")
	require.Len(t, toks, 6)
	assert.Equal(t, tokQuoted, toks[3].kind)
	assert.Equal(t, "dbo", toks[3].text)
	assert.Equal(t, tokQuoted, toks[5].kind)
	assert.Equal(t, "users", toks[5].text)
}
