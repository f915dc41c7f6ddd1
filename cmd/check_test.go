package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

func TestReadQueries(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(script, []byte("SELECT id FROM users;\nSELECT total FROM orders;\n"), 0644))

	tests := []struct {
		name    string
		stdin   string
		args    []string
		file    string
		want    []string
		wantErr bool
	}{
		{name: "args joined", args: []string{"SELECT id", "FROM users;"}, want: []string{"SELECT id FROM users"}},
		{name: "file split", file: script, want: []string{"SELECT id FROM users", "SELECT total FROM orders"}},
		{name: "stdin", file: "-", stdin: "SELECT 1; SELECT 2", want: []string{"SELECT 1", "SELECT 2"}},
		{name: "nothing", wantErr: true},
		{name: "blank stdin", file: "-", stdin: "  -- only a comment\n", wantErr: true},
		{name: "args and file", args: []string{"SELECT 1"}, file: script, wantErr: true},
		{name: "missing file", file: filepath.Join(dir, "nope.sql"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readQueries(strings.NewReader(tt.stdin), tt.args, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sampleResults() []checkResult {
	checker := sqlcheck.NewChecker(sqlcheck.Catalog{"users": {"id", "name"}}, sqlcheck.Options{}, nil)
	return []checkResult{
		{
			Report: checker.Check("SELECT id, name FROM users"),
			Rows: &database.Rows{
				Columns:  []string{"id", "name"},
				Values:   [][]string{{"1", "Ada"}},
				Duration: 2 * time.Millisecond,
			},
		},
		{Report: checker.Check("SELECT nickname FROM users")},
	}
}

func TestRenderResultsText(t *testing.T) {
	var buf bytes.Buffer
	renderResultsText(&buf, "catalog.yaml", sampleResults())
	out := buf.String()

	assert.Contains(t, out, "Catalog: catalog.yaml")
	assert.Contains(t, out, "PASS  SELECT id, name FROM users")
	assert.Contains(t, out, "FAIL  SELECT nickname FROM users")
	assert.Contains(t, out, "invalid columns: nickname")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "(1 rows")
}

func TestRenderResultsTable(t *testing.T) {
	var buf bytes.Buffer
	renderResultsTable(&buf, "catalog.yaml", sampleResults())
	out := buf.String()

	assert.Contains(t, out, "nickname")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "#1")
}

func TestRenderResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResultsJSON(&buf, sampleResults()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, true, decoded[0]["passed"])
	assert.Equal(t, []any{"users"}, decoded[0]["tables"])
	rows := decoded[0]["rows"].(map[string]any)
	assert.Equal(t, []any{"id", "name"}, rows["columns"])

	assert.Equal(t, false, decoded[1]["passed"])
	assert.Equal(t, []any{"nickname"}, decoded[1]["invalid_columns"])
	assert.NotContains(t, decoded[1], "rows")
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SQLGUARD_CONFIG_DIR", dir)

	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte("users: [id, name]\n"), 0644))

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"check", "--catalog", catalogPath, "--output", "json"}, args...))
		err := rootCmd.Execute()
		return out.String(), err
	}

	out, err := run("SELECT id, name FROM users")
	require.NoError(t, err)
	assert.Contains(t, out, `"passed": true`)

	out, err = run("SELECT nickname FROM users")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, `"nickname"`)

	saved, err := config.Load()
	require.NoError(t, err)
	require.Len(t, saved.CheckHistory, 2)
	assert.False(t, saved.CheckHistory[0].Passed, "newest first")
	assert.True(t, saved.CheckHistory[1].Passed)

	_, err = os.Stat(filepath.Join(dir, "feedback.csv"))
	assert.NoError(t, err, "feedback log written")
}
