package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show application status",
	Long:  `Show the current application status including the active service, cached schemas and check settings.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		path, _ := config.ConfigPath()

		_, _ = fmt.Fprintf(out, "Kartoza SQL Guard Status\n")
		_, _ = fmt.Fprintf(out, "========================\n")
		_, _ = fmt.Fprintf(out, "Config File: %s\n", path)
		_, _ = fmt.Fprintf(out, "Active Service: %s\n", valueOr(cfg.ActiveService, "(none)"))
		_, _ = fmt.Fprintf(out, "pg_service.conf: %s\n", found(database.PGServiceFileExists()))
		_, _ = fmt.Fprintf(out, "Catalog File: %s\n", valueOr(cfg.Settings.CatalogPath, "(none)"))
		_, _ = fmt.Fprintf(out, "Feedback Log: %s\n", cfg.Settings.FeedbackLogPath)
		_, _ = fmt.Fprintf(out, "Check History: %d checks\n", len(cfg.CheckHistory))

		opts := cfg.Settings.CheckOptions()
		_, _ = fmt.Fprintf(out, "Options: fold_case=%t flag_unknown_tables=%t ignore_function_names=%t\n",
			opts.FoldCase, opts.FlagUnknownTables, opts.IgnoreFunctionNames)

		_, _ = fmt.Fprintf(out, "Cached Schemas: %d\n", len(cfg.CachedSchemas))
		names := make([]string, 0, len(cfg.CachedSchemas))
		for name := range cfg.CachedSchemas {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cache := cfg.CachedSchemas[name]
			stale := ""
			if !cfg.IsSchemaCacheValid(name) {
				stale = ", stale"
			}
			_, _ = fmt.Fprintf(out, "  - %s (%s): %d tables, %d views, cached %s%s\n",
				name, cache.Driver, len(cache.Tables), len(cache.Views),
				cache.CachedAt.Format("2006-01-02 15:04"), stale)
		}
	},
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func found(ok bool) string {
	if ok {
		return "found"
	}
	return "not found"
}
