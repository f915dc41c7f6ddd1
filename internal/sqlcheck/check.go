package sqlcheck

import (
	"log/slog"
	"sync"
)

// Report is the full outcome of checking one query.
type Report struct {
	Query string `json:"query"`
	Extraction
	Result
	// Passed is Valid, further requiring no unknown tables when
	// FlagUnknownTables is set.
	Passed bool `json:"passed"`
}

// Checker runs extraction and validation against a replaceable catalog.
// It is safe for concurrent use.
type Checker struct {
	mu      sync.RWMutex
	catalog Catalog
	opts    Options
	logger  *slog.Logger
}

// NewChecker creates a checker. A nil logger discards all output.
func NewChecker(catalog Catalog, opts Options, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if catalog == nil {
		catalog = Catalog{}
	}
	return &Checker{catalog: catalog, opts: opts, logger: logger}
}

// SetCatalog swaps the catalog used by subsequent checks
func (c *Checker) SetCatalog(catalog Catalog) {
	if catalog == nil {
		catalog = Catalog{}
	}
	c.mu.Lock()
	c.catalog = catalog
	c.mu.Unlock()
	c.logger.Debug("catalog replaced", "tables", len(catalog))
}

// Catalog returns the current catalog
func (c *Checker) Catalog() Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

// Options returns the options the checker was built with
func (c *Checker) Options() Options {
	return c.opts
}

// Check extracts the references of query and validates them.
func (c *Checker) Check(query string) *Report {
	catalog := c.Catalog()

	ex := ExtractWith(query, c.opts)
	res := ValidateWith(ex.Tables, ex.Columns, catalog, c.opts)

	passed := res.Valid
	if c.opts.FlagUnknownTables && res.UnknownTables.Len() > 0 {
		passed = false
	}

	c.logger.Debug("query checked",
		"tables", ex.Tables.String(),
		"columns", ex.Columns.String(),
		"invalid", res.InvalidColumns.String(),
		"unknown_tables", res.UnknownTables.String(),
		"passed", passed,
	)

	return &Report{
		Query:      query,
		Extraction: ex,
		Result:     res,
		Passed:     passed,
	}
}
