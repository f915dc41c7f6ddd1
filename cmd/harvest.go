package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-sql-guard/internal/catalog"
)

var harvestOpts struct {
	service  string
	driver   string
	dsn      string
	out      string
	activate bool
	quiet    bool
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest a database schema into the cache or a catalog file",
	Long: `Read every table and view with its columns from a database and cache the
result under the source name. With --out the schema is also written as a
catalog file that check and repl accept through --catalog.`,
	Example: `  kartoza-sql-guard harvest --service prod --activate
  kartoza-sql-guard harvest --driver sqlite --dsn ./app.db --service app --out catalog.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(harvestOpts.service, harvestOpts.driver, harvestOpts.dsn)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		progress := func(current, total int, message string) {
			if harvestOpts.quiet {
				return
			}
			if total > 1 {
				_, _ = fmt.Fprintf(out, "[%d/%d] %s\n", current, total, message)
				return
			}
			_, _ = fmt.Fprintln(out, message)
		}

		cache, err := harvestSource(cmd.Context(), src, progress)
		if err != nil {
			return err
		}

		if harvestOpts.activate {
			cfg.ActiveService = src.Name
			if err := saveState(); err != nil {
				return err
			}
		}

		cat := catalog.FromSchemaCache(cache)
		if harvestOpts.out != "" {
			if err := catalog.Save(harvestOpts.out, cat); err != nil {
				return fmt.Errorf("failed to write catalog: %w", err)
			}
		}

		_, _ = fmt.Fprintf(out, "Harvested %s: %d tables, %d views, %d columns\n",
			src.Describe(), len(cache.Tables), len(cache.Views), cat.ColumnCount())
		if harvestOpts.out != "" {
			_, _ = fmt.Fprintf(out, "Catalog written to %s\n", harvestOpts.out)
		}
		return nil
	},
}

func init() {
	f := harvestCmd.Flags()
	f.StringVarP(&harvestOpts.service, "service", "s", "", "pg_service.conf service, or the cache name for --dsn")
	f.StringVar(&harvestOpts.driver, "driver", "", "Driver for an ad-hoc DSN (postgres, mysql, sqlite)")
	f.StringVar(&harvestOpts.dsn, "dsn", "", "Connection string or URL")
	f.StringVarP(&harvestOpts.out, "out", "o", "", "Also write the schema as a catalog file")
	f.BoolVar(&harvestOpts.activate, "activate", false, "Make this source the active service")
	f.BoolVarP(&harvestOpts.quiet, "quiet", "q", false, "Hide progress output")
}
