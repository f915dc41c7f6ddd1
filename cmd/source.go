package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kartoza/kartoza-sql-guard/internal/catalog"
	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// catalogFlags selects where a command's catalog comes from
type catalogFlags struct {
	path    string
	service string
	refresh bool
}

// catalogSource describes a resolved catalog
type catalogSource struct {
	catalog sqlcheck.Catalog
	label   string
	// service is set when the catalog was derived from a database
	service string
	// file is set when the catalog was loaded from disk
	file string
}

var errNoCatalog = errors.New("no catalog: pass --catalog, --service, or set catalog_path")

// resolveCatalog picks a catalog in order: --catalog file, --service
// (cached schema, harvested when missing or stale), catalog_path setting,
// then the active service.
func resolveCatalog(ctx context.Context, f catalogFlags) (*catalogSource, error) {
	switch {
	case f.path != "":
		return loadCatalogFile(f.path)
	case f.service != "":
		return serviceCatalog(ctx, f.service, f.refresh)
	case cfg.Settings.CatalogPath != "":
		return loadCatalogFile(cfg.Settings.CatalogPath)
	case cfg.ActiveService != "":
		return serviceCatalog(ctx, cfg.ActiveService, f.refresh)
	}
	return nil, errNoCatalog
}

func loadCatalogFile(path string) (*catalogSource, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Debug("catalog file loaded", "path", path, "tables", len(cat))
	return &catalogSource{catalog: cat, label: path, file: path}, nil
}

func serviceCatalog(ctx context.Context, service string, refresh bool) (*catalogSource, error) {
	if !refresh && cfg.IsSchemaCacheValid(service) {
		cache := cfg.CachedSchemas[service]
		logger.Debug("using cached schema", "service", service, "cached_at", cache.CachedAt)
		return &catalogSource{
			catalog: catalog.FromSchemaCache(cache),
			label:   service + " (cached)",
			service: service,
		}, nil
	}

	entry, err := database.LookupService(service)
	if err != nil {
		return nil, err
	}
	cache, err := harvestSource(ctx, entry.Source(), nil)
	if err != nil {
		return nil, err
	}
	return &catalogSource{
		catalog: catalog.FromSchemaCache(cache),
		label:   service,
		service: service,
	}, nil
}

// harvestSource harvests src and records the result in the schema cache
func harvestSource(ctx context.Context, src database.Source, progress database.ProgressCallback) (*config.SchemaCache, error) {
	logger.Info("harvesting schema", "source", src.Describe())

	db, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	h, err := database.NewHarvester(db, src.Driver, logger)
	if err != nil {
		return nil, err
	}
	h.SetProgressCallback(progress)

	cache, err := h.Harvest(ctx, src.Name)
	if err != nil {
		return nil, err
	}

	cfg.CachedSchemas[src.Name] = cache
	if err := saveState(); err != nil {
		logger.Warn("failed to save schema cache", "error", err)
	}
	return cache, nil
}

// openSource returns the named pg_service entry, or an ad-hoc source when
// a driver and DSN are given.
func openSource(service, driver, dsn string) (database.Source, error) {
	if driver != "" || dsn != "" {
		if driver == "" || dsn == "" {
			return database.Source{}, errors.New("--driver and --dsn must be used together")
		}
		return database.NewSource(service, driver, dsn)
	}
	if service == "" {
		service = cfg.ActiveService
	}
	if service == "" {
		return database.Source{}, errors.New("no database: pass --service or --driver with --dsn")
	}
	entry, err := database.LookupService(service)
	if err != nil {
		return database.Source{}, err
	}
	return entry.Source(), nil
}

// saveState persists history, cached schemas and the active service
func saveState() error {
	return cfg.SaveState()
}
