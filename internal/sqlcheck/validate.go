package sqlcheck

import (
	"sort"
	"strings"
)

// Catalog maps a table name to the column names it exposes.
type Catalog map[string][]string

// Tables returns the table names in lexical order
func (c Catalog) Tables() []string {
	out := make([]string, 0, len(c))
	for t := range c {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ColumnCount returns the total number of columns across all tables
func (c Catalog) ColumnCount() int {
	total := 0
	for _, cols := range c {
		total += len(cols)
	}
	return total
}

// Result is the outcome of validating extracted names against a catalog.
type Result struct {
	Valid          bool          `json:"valid"`
	InvalidColumns IdentifierSet `json:"invalid_columns"`
	// UnknownTables is only filled when Options.FlagUnknownTables is set.
	UnknownTables IdentifierSet `json:"unknown_tables"`
}

// Validate reports every column that no referenced catalog table exposes.
// Tables missing from the catalog contribute no columns. A Star column
// is always accepted.
func Validate(tables, columns IdentifierSet, catalog Catalog) Result {
	return ValidateWith(tables, columns, catalog, Options{})
}

// ValidateWith is Validate with explicit options.
func ValidateWith(tables, columns IdentifierSet, catalog Catalog, opts Options) Result {
	key := func(s string) string {
		if opts.FoldCase {
			return strings.ToLower(s)
		}
		return s
	}

	lookup := make(map[string][]string, len(catalog))
	for table, cols := range catalog {
		k := key(table)
		lookup[k] = append(lookup[k], cols...)
	}

	res := Result{
		InvalidColumns: make(IdentifierSet),
		UnknownTables:  make(IdentifierSet),
	}

	permitted := make(IdentifierSet)
	for table := range tables {
		cols, ok := lookup[key(table)]
		if !ok {
			if opts.FlagUnknownTables {
				res.UnknownTables.Add(table)
			}
			continue
		}
		for _, c := range cols {
			permitted.Add(key(c))
		}
	}

	for col := range columns {
		if col == Star {
			continue
		}
		if !permitted.Has(key(col)) {
			res.InvalidColumns.Add(col)
		}
	}

	res.Valid = res.InvalidColumns.Len() == 0
	return res
}
