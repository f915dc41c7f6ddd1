package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

func TestStatementBuffer(t *testing.T) {
	var buf statementBuffer
	assert.True(t, buf.empty())

	_, complete := buf.add("SELECT a -- pick")
	assert.False(t, complete)
	assert.False(t, buf.empty())

	script, complete := buf.add("FROM users WHERE bogus = 1;")
	require.True(t, complete)
	assert.True(t, buf.empty())

	statements := sqlcheck.SplitStatements(script)
	require.Len(t, statements, 1)

	tables, columns := sqlcheck.Extract(statements[0])
	assert.ElementsMatch(t, []string{"users"}, tables.Sorted())
	assert.ElementsMatch(t, []string{"a", "bogus"}, columns.Sorted())
}

func TestStatementBuffer_Reset(t *testing.T) {
	var buf statementBuffer
	buf.add("SELECT broken")
	buf.reset()

	script, complete := buf.add("SELECT id FROM users;")
	require.True(t, complete)
	assert.Equal(t, "SELECT id FROM users;", script)
}
