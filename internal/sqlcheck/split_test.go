package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "single without terminator",
			script: "SELECT id FROM users",
			want:   []string{"SELECT id FROM users"},
		},
		{
			name:   "two statements",
			script: "SELECT id FROM users;\nSELECT total FROM orders;\n",
			want:   []string{"SELECT id FROM users", "SELECT total FROM orders"},
		},
		{
			name:   "semicolon in string literal",
			script: "SELECT id FROM users WHERE name = 'a;b'; SELECT 1",
			want:   []string{"SELECT id FROM users WHERE name = 'a;b'", "SELECT 1"},
		},
		{
			name:   "escaped quote in literal",
			script: "SELECT 'it''s; fine' FROM t; SELECT 2",
			want:   []string{"SELECT 'it''s; fine' FROM t", "SELECT 2"},
		},
		{
			name:   "semicolon in quoted identifier",
			script: `SELECT "a;b" FROM t; SELECT ` + "`c;d`" + ` FROM u`,
			want:   []string{`SELECT "a;b" FROM t`, "SELECT `c;d` FROM u"},
		},
		{
			name:   "semicolons in comments",
			script: "SELECT id -- trailing; note\nFROM users; /* a; b */ SELECT 2;",
			want:   []string{"SELECT id -- trailing; note\nFROM users", "/* a; b */ SELECT 2"},
		},
		{
			name:   "comment-only and empty statements dropped",
			script: ";; -- nothing here\n; /* nor here */ ;",
			want:   nil,
		},
		{
			name:   "empty script",
			script: "   ",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}
