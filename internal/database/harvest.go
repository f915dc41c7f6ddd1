package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
)

// Querier is the subset of *sql.DB the harvester and executor need
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ProgressCallback is called with progress updates during schema harvesting
type ProgressCallback func(current, total int, message string)

// dialect holds the catalog queries of one driver. tables and views return
// (schema, name) rows; columns returns (name, type, nullable, primary key).
type dialect struct {
	version    string
	tables     string
	views      string
	columns    string
	columnArgs func(schema, table string) []any
}

var dialects = map[string]dialect{
	DriverPostgres: {
		version: `SELECT version()`,
		tables: `
			SELECT table_schema, table_name
			FROM information_schema.tables
			WHERE table_type = 'BASE TABLE'
			  AND table_schema NOT IN ('pg_catalog', 'information_schema')
			ORDER BY table_schema, table_name`,
		views: `
			SELECT table_schema, table_name
			FROM information_schema.views
			WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
			ORDER BY table_schema, table_name`,
		columns: `
			SELECT
				c.column_name,
				c.data_type,
				c.is_nullable = 'YES' AS is_nullable,
				COALESCE(tc.constraint_type = 'PRIMARY KEY', false) AS is_pk
			FROM information_schema.columns c
			LEFT JOIN information_schema.key_column_usage kcu
				ON c.table_schema = kcu.table_schema
				AND c.table_name = kcu.table_name
				AND c.column_name = kcu.column_name
			LEFT JOIN information_schema.table_constraints tc
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
			WHERE c.table_schema = $1 AND c.table_name = $2
			ORDER BY c.ordinal_position`,
		columnArgs: func(schema, table string) []any { return []any{schema, table} },
	},
	DriverMySQL: {
		version: `SELECT VERSION()`,
		tables: `
			SELECT table_schema, table_name
			FROM information_schema.tables
			WHERE table_type = 'BASE TABLE' AND table_schema = DATABASE()
			ORDER BY table_name`,
		views: `
			SELECT table_schema, table_name
			FROM information_schema.views
			WHERE table_schema = DATABASE()
			ORDER BY table_name`,
		columns: `
			SELECT column_name, data_type, is_nullable = 'YES', column_key = 'PRI'
			FROM information_schema.columns
			WHERE table_schema = ? AND table_name = ?
			ORDER BY ordinal_position`,
		columnArgs: func(schema, table string) []any { return []any{schema, table} },
	},
	DriverSQLite: {
		version: `SELECT sqlite_version()`,
		tables: `
			SELECT 'main', name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		views: `
			SELECT 'main', name FROM sqlite_master
			WHERE type = 'view'
			ORDER BY name`,
		columns: `
			SELECT name, type, "notnull" = 0, pk > 0
			FROM pragma_table_info(?)
			ORDER BY cid`,
		columnArgs: func(_, table string) []any { return []any{table} },
	},
}

// Harvester reads table and column metadata from a live database
type Harvester struct {
	db       Querier
	driver   string
	dialect  dialect
	progress ProgressCallback
	logger   *slog.Logger
}

// NewHarvester creates a harvester for the given driver. A nil logger
// discards output.
func NewHarvester(db Querier, driver string, logger *slog.Logger) (*Harvester, error) {
	d, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Harvester{db: db, driver: d, dialect: dialects[d], logger: logger}, nil
}

// SetProgressCallback sets a callback function for progress updates
func (h *Harvester) SetProgressCallback(cb ProgressCallback) {
	h.progress = cb
}

func (h *Harvester) reportProgress(current, total int, message string) {
	if h.progress != nil {
		h.progress(current, total, message)
	}
}

type objectRef struct {
	schema, name string
}

// Harvest harvests every user table and view with its columns
func (h *Harvester) Harvest(ctx context.Context, serviceName string) (*config.SchemaCache, error) {
	start := time.Now()
	cache := &config.SchemaCache{
		ServiceName: serviceName,
		Driver:      h.driver,
		Tables:      []config.TableInfo{},
		Views:       []config.ViewInfo{},
		CachedAt:    start,
	}

	h.reportProgress(0, 1, "Reading server version...")
	if err := h.db.QueryRowContext(ctx, h.dialect.version).Scan(&cache.Version); err != nil {
		h.logger.Warn("could not read server version", "error", err)
	}

	h.reportProgress(0, 1, "Listing tables and views...")
	tables, err := h.listObjects(ctx, h.dialect.tables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	views, err := h.listObjects(ctx, h.dialect.views)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}

	total := len(tables) + len(views)
	current := 0

	for _, ref := range tables {
		columns, err := h.harvestColumns(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("columns of %s.%s: %w", ref.schema, ref.name, err)
		}
		cache.Tables = append(cache.Tables, config.TableInfo{Schema: ref.schema, Name: ref.name, Columns: columns})
		current++
		h.reportProgress(current, total, "Table: "+ref.schema+"."+ref.name)
	}

	for _, ref := range views {
		columns, err := h.harvestColumns(ctx, ref)
		if err != nil {
			// Views referencing dropped objects cannot be described
			h.logger.Warn("skipping view columns", "view", ref.name, "error", err)
			columns = []config.ColumnInfo{}
		}
		cache.Views = append(cache.Views, config.ViewInfo{Schema: ref.schema, Name: ref.name, Columns: columns})
		current++
		h.reportProgress(current, total, "View: "+ref.schema+"."+ref.name)
	}

	h.reportProgress(total, total, "Schema harvesting complete!")
	h.logger.Info("schema harvested",
		"service", serviceName,
		"driver", h.driver,
		"tables", len(cache.Tables),
		"views", len(cache.Views),
		"duration", time.Since(start),
	)

	return cache, nil
}

func (h *Harvester) listObjects(ctx context.Context, query string) ([]objectRef, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []objectRef
	for rows.Next() {
		var ref objectRef
		if err := rows.Scan(&ref.schema, &ref.name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (h *Harvester) harvestColumns(ctx context.Context, ref objectRef) ([]config.ColumnInfo, error) {
	rows, err := h.db.QueryContext(ctx, h.dialect.columns, h.dialect.columnArgs(ref.schema, ref.name)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []config.ColumnInfo{}
	seen := make(map[string]bool)

	for rows.Next() {
		var col config.ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.IsPrimaryKey); err != nil {
			return nil, err
		}

		// A column in several constraints appears once per constraint
		if seen[col.Name] {
			if col.IsPrimaryKey {
				for i := range columns {
					if columns[i].Name == col.Name {
						columns[i].IsPrimaryKey = true
					}
				}
			}
			continue
		}
		seen[col.Name] = true

		columns = append(columns, col)
	}

	return columns, rows.Err()
}
