package sqlcheck

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Check(t *testing.T) {
	c := NewChecker(Catalog{"users": {"id", "name"}}, Options{}, nil)

	rep := c.Check("SELECT id, nickname FROM users")

	assert.Equal(t, "SELECT id, nickname FROM users", rep.Query)
	assert.False(t, rep.Valid)
	assert.False(t, rep.Passed)
	assert.Equal(t, []string{"nickname"}, rep.InvalidColumns.Sorted())
	assert.Equal(t, []string{"users"}, rep.Tables.Sorted())
}

func TestChecker_UnknownTablesFailWhenFlagged(t *testing.T) {
	catalog := Catalog{"users": {"id"}}

	lenient := NewChecker(catalog, Options{}, nil).Check("SELECT * FROM ghosts")
	assert.True(t, lenient.Passed)

	strict := NewChecker(catalog, Options{FlagUnknownTables: true}, nil).Check("SELECT * FROM ghosts")
	assert.True(t, strict.Valid)
	assert.False(t, strict.Passed)
	assert.Equal(t, []string{"ghosts"}, strict.UnknownTables.Sorted())
}

func TestChecker_SetCatalog(t *testing.T) {
	c := NewChecker(nil, Options{}, nil)
	assert.False(t, c.Check("SELECT id FROM users").Passed)

	c.SetCatalog(Catalog{"users": {"id"}})
	assert.True(t, c.Check("SELECT id FROM users").Passed)
	assert.Equal(t, []string{"users"}, c.Catalog().Tables())
}

func TestChecker_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewChecker(Catalog{}, Options{}, logger).Check("SELECT a FROM b")

	assert.Contains(t, buf.String(), "query checked")
	assert.Contains(t, buf.String(), "passed=false")
}

func TestChecker_Concurrent(t *testing.T) {
	c := NewChecker(Catalog{"users": {"id", "name"}}, Options{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				c.SetCatalog(Catalog{"users": {"id", "name"}})
				return
			}
			rep := c.Check("SELECT id, name FROM users")
			assert.True(t, rep.Passed)
		}(i)
	}
	wg.Wait()
}

func TestReport_JSON(t *testing.T) {
	c := NewChecker(Catalog{"users": {"id"}}, Options{}, nil)
	rep := c.Check("SELECT id, email FROM users")

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, []any{"users"}, decoded["tables"])
	assert.Equal(t, []any{"email", "id"}, decoded["columns"])
	assert.Equal(t, []any{"email"}, decoded["invalid_columns"])
	assert.Equal(t, false, decoded["passed"])
}
