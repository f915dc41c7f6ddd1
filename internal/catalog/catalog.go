// Package catalog loads, saves and derives the table -> columns catalogs
// that queries are validated against.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// Load reads a catalog file. YAML and JSON are both accepted:
//
//	users: [id, name, email]
//	orders:
//	  - id
//	  - user_id
func Load(path string) (sqlcheck.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes catalog file contents
func Parse(data []byte) (sqlcheck.Catalog, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	cat := make(sqlcheck.Catalog, len(raw))
	for table, cols := range raw {
		table = strings.TrimSpace(table)
		if table == "" {
			return nil, fmt.Errorf("invalid catalog: empty table name")
		}
		cat[table] = appendUnique(cat[table], cols...)
	}
	return cat, nil
}

// Save writes the catalog as YAML with tables in lexical order
func Save(path string, cat sqlcheck.Catalog) error {
	data, err := Marshal(cat)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders the catalog as YAML
func Marshal(cat sqlcheck.Catalog) ([]byte, error) {
	if cat == nil {
		cat = sqlcheck.Catalog{}
	}
	// yaml.v3 sorts map keys
	return yaml.Marshal(map[string][]string(cat))
}

// FromSchemaCache derives a catalog from a harvested schema. Tables and
// views are keyed by bare name; objects of the same name in different
// schemas share one entry with the union of their columns.
func FromSchemaCache(cache *config.SchemaCache) sqlcheck.Catalog {
	cat := make(sqlcheck.Catalog)
	if cache == nil {
		return cat
	}

	for _, t := range cache.Tables {
		cat[t.Name] = appendUnique(cat[t.Name], columnNames(t.Columns)...)
	}
	for _, v := range cache.Views {
		cat[v.Name] = appendUnique(cat[v.Name], columnNames(v.Columns)...)
	}
	return cat
}

// Merge combines catalogs; columns of tables present in several are unioned
func Merge(catalogs ...sqlcheck.Catalog) sqlcheck.Catalog {
	out := make(sqlcheck.Catalog)
	for _, c := range catalogs {
		for table, cols := range c {
			out[table] = appendUnique(out[table], cols...)
		}
	}
	return out
}

func columnNames(cols []config.ColumnInfo) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

func appendUnique(dst []string, names ...string) []string {
	if dst == nil {
		dst = []string{}
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if existing == n {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, n)
		}
	}
	return dst
}
