package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/dberr"
	"github.com/kartoza/kartoza-sql-guard/internal/feedback"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// errCheckFailed makes the process exit non-zero without an error message;
// the report has already said what is wrong.
var errCheckFailed = errors.New("check failed")

var checkOpts struct {
	catalog   catalogFlags
	file      string
	exec      bool
	driver    string
	dsn       string
	output    string
	verdict   string
	noHistory bool
}

var checkCmd = &cobra.Command{
	Use:   "check [SQL...]",
	Short: "Check queries against a schema catalog",
	Long: `Check one or more SQL queries for tables and columns that do not exist.

The query is taken from the arguments, or from --file (use - for stdin),
where several statements may be separated by semicolons. The catalog comes
from --catalog, --service, the catalog_path setting or the active service.

With --exec, queries that pass are run against the database and the first
rows are shown. The command exits non-zero when any query fails the check.`,
	Example: `  kartoza-sql-guard check --catalog catalog.yaml "SELECT id, name FROM users"
  kartoza-sql-guard check --service prod --file generated.sql --output json
  echo "SELECT * FROM orders" | kartoza-sql-guard check -s prod -f - --exec`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVarP(&checkOpts.catalog.path, "catalog", "c", "", "Catalog file (YAML or JSON)")
	f.StringVarP(&checkOpts.catalog.service, "service", "s", "", "pg_service.conf service or harvested source name")
	f.BoolVar(&checkOpts.catalog.refresh, "refresh", false, "Re-harvest the service schema even when cached")
	f.StringVarP(&checkOpts.file, "file", "f", "", "Read queries from a file (- for stdin)")
	f.BoolVar(&checkOpts.exec, "exec", false, "Run queries that pass and show their rows")
	f.StringVar(&checkOpts.driver, "driver", "", "Driver for --exec against an ad-hoc DSN (postgres, mysql, sqlite)")
	f.StringVar(&checkOpts.dsn, "dsn", "", "Connection string for --exec")
	f.StringVarP(&checkOpts.output, "output", "o", "text", "Output format (text, table, json)")
	f.StringVar(&checkOpts.verdict, "feedback", "", "Record a verdict in the feedback log (up, down)")
	f.BoolVar(&checkOpts.noHistory, "no-history", false, "Do not record checks in history")
}

// checkResult is one checked query with its optional execution outcome
type checkResult struct {
	*sqlcheck.Report
	Rows  *database.Rows `json:"-"`
	Error string         `json:"error,omitempty"`
	Tips  []string       `json:"tips,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch checkOpts.output {
	case "text", "table", "json":
	default:
		return fmt.Errorf("invalid --output %q (want text, table or json)", checkOpts.output)
	}

	verdict := feedback.Verdict(checkOpts.verdict)
	switch verdict {
	case feedback.VerdictNone, feedback.VerdictUp, feedback.VerdictDown:
	default:
		return fmt.Errorf("invalid --feedback %q (want up or down)", checkOpts.verdict)
	}

	queries, err := readQueries(cmd.InOrStdin(), args, checkOpts.file)
	if err != nil {
		return err
	}

	src, err := resolveCatalog(ctx, checkOpts.catalog)
	if err != nil {
		return err
	}
	checker := sqlcheck.NewChecker(src.catalog, cfg.Settings.CheckOptions(), logger)

	var db *sql.DB
	if checkOpts.exec {
		service := checkOpts.catalog.service
		if service == "" {
			service = src.service
		}
		source, err := openSource(service, checkOpts.driver, checkOpts.dsn)
		if err != nil {
			return err
		}
		db, err = source.Open(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	fbLog := feedback.Open(cfg.Settings.FeedbackLogPath)

	results := make([]checkResult, 0, len(queries))
	failed := false
	for _, q := range queries {
		res := checkResult{Report: checker.Check(q)}
		entry := config.NewCheckHistoryEntry(res.Report, src.service)

		if !res.Passed {
			failed = true
		} else if db != nil {
			execute(ctx, db, &res, &entry)
			failed = failed || res.Error != ""
		}

		if !checkOpts.noHistory {
			cfg.AddCheckToHistory(entry)
		}
		if err := fbLog.Append(feedback.EntryFromReport(res.Report, verdict)); err != nil {
			logger.Warn("failed to write feedback log", "path", fbLog.Path(), "error", err)
		}
		results = append(results, res)
	}

	if !checkOpts.noHistory {
		if err := saveState(); err != nil {
			logger.Warn("failed to save history", "error", err)
		}
	}

	out := cmd.OutOrStdout()
	switch checkOpts.output {
	case "json":
		err = renderResultsJSON(out, results)
	case "table":
		renderResultsTable(out, src.label, results)
	default:
		renderResultsText(out, src.label, results)
	}
	if err != nil {
		return err
	}

	if failed {
		return errCheckFailed
	}
	return nil
}

func execute(ctx context.Context, db *sql.DB, res *checkResult, entry *config.CheckHistoryEntry) {
	rows, err := database.Execute(ctx, db, res.Query, cfg.Settings.ExecRowLimit)
	entry.Executed = true
	if err != nil {
		msg, kind := dberr.Classify(err)
		logger.Debug("query execution failed", "kind", kind, "error", err)
		res.Error = fmt.Sprintf("%s (%v)", msg, err)
		res.Tips = dberr.Tips(kind)
		entry.ErrorMessage = res.Error
		return
	}
	res.Rows = rows
	entry.RowsReturned = len(rows.Values)
	entry.ExecutionTime = float64(rows.Duration.Microseconds()) / 1000
}

// readQueries collects queries from args or a file. Arguments form one
// query; files may hold several statements.
func readQueries(stdin io.Reader, args []string, file string) ([]string, error) {
	if file != "" && len(args) > 0 {
		return nil, errors.New("pass queries as arguments or --file, not both")
	}

	var text string
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}

	var queries []string
	if file != "" {
		queries = sqlcheck.SplitStatements(text)
	} else if q := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";")); q != "" {
		queries = []string{q}
	}
	if len(queries) == 0 {
		return nil, errors.New("no query given")
	}
	return queries, nil
}
