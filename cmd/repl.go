package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-sql-guard/internal/catalog"
	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/feedback"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

const (
	replPrompt     = "sqlguard> "
	replContPrompt = "     ...> "
)

var replOpts struct {
	catalog catalogFlags
	noWatch bool
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Check queries interactively",
	Long: `Start a line-based prompt that checks each query as it is entered.

Statements end with a semicolon and may span several lines. A catalog file
given with --catalog is watched and reloaded when it changes.`,
	RunE: runREPL,
}

func init() {
	f := replCmd.Flags()
	f.StringVarP(&replOpts.catalog.path, "catalog", "c", "", "Catalog file (YAML or JSON)")
	f.StringVarP(&replOpts.catalog.service, "service", "s", "", "pg_service.conf service or harvested source name")
	f.BoolVar(&replOpts.catalog.refresh, "refresh", false, "Re-harvest the service schema even when cached")
	f.BoolVar(&replOpts.noWatch, "no-watch", false, "Do not reload the catalog file when it changes")
}

// replSession is the state shared by the prompt loop and dot-commands
type replSession struct {
	src     *catalogSource
	checker *sqlcheck.Checker
	store   *catalog.Store
	fbLog   *feedback.Log
	last    *sqlcheck.Report
	out     io.Writer
	errOut  io.Writer
}

func runREPL(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	src, err := resolveCatalog(ctx, replOpts.catalog)
	if err != nil {
		return err
	}

	s := &replSession{
		src:     src,
		checker: sqlcheck.NewChecker(src.catalog, cfg.Settings.CheckOptions(), logger),
		fbLog:   feedback.Open(cfg.Settings.FeedbackLogPath),
	}

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil && os.MkdirAll(dir, 0755) == nil {
		historyFile = filepath.Join(dir, "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCatalogCompleter(src.catalog),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Writes through readline keep the prompt intact when the watcher
	// prints from its own goroutine
	s.out = rl.Stdout()
	s.errOut = rl.Stderr()

	if src.file != "" {
		s.store, err = catalog.NewStore(src.file, logger)
		if err != nil {
			return err
		}
		if !replOpts.noWatch {
			go func() {
				err := s.store.Watch(ctx, func(cat sqlcheck.Catalog, err error) {
					if err != nil {
						_, _ = fmt.Fprintf(s.errOut, "Catalog reload failed: %v\n", err)
						return
					}
					s.checker.SetCatalog(cat)
					_, _ = fmt.Fprintf(s.out, "Catalog reloaded (%d tables)\n", len(cat))
				})
				if err != nil {
					logger.Warn("catalog watch stopped", "error", err)
				}
			}()
		}
	}

	_, _ = fmt.Fprintf(s.out, "Kartoza SQL Guard REPL (catalog: %s, %d tables)\n", src.label, len(src.catalog))
	_, _ = fmt.Fprintln(s.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	var buf statementBuffer
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.empty() && strings.HasPrefix(line, ".") {
			if quit := s.dotCommand(ctx, line); quit {
				break
			}
			continue
		}

		script, complete := buf.add(line)
		if !complete {
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		for _, q := range sqlcheck.SplitStatements(script) {
			s.check(q)
		}
	}

	if err := saveState(); err != nil {
		logger.Warn("failed to save history", "error", err)
	}
	return nil
}

// statementBuffer gathers input lines until one ends with a semicolon.
// Lines are joined with newlines so a -- comment ends with its own line.
type statementBuffer struct {
	b strings.Builder
}

func (sb *statementBuffer) add(line string) (script string, complete bool) {
	if sb.b.Len() > 0 {
		sb.b.WriteString("\n")
	}
	sb.b.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		return "", false
	}
	script = sb.b.String()
	sb.b.Reset()
	return script, true
}

func (sb *statementBuffer) empty() bool {
	return sb.b.Len() == 0
}

func (sb *statementBuffer) reset() {
	sb.b.Reset()
}

func (s *replSession) check(query string) {
	rep := s.checker.Check(query)
	s.last = rep
	cfg.AddCheckToHistory(config.NewCheckHistoryEntry(rep, s.src.service))

	renderResultsText(s.out, s.src.label, []checkResult{{Report: rep}})
	_, _ = fmt.Fprintln(s.out)
}

// dotCommand handles a REPL command and reports whether to exit
func (s *replSession) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".tables":
		for _, t := range s.checker.Catalog().Tables() {
			_, _ = fmt.Fprintln(s.out, t)
		}

	case ".columns":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .columns <table>")
			break
		}
		cols, ok := s.checker.Catalog()[parts[1]]
		if !ok {
			_, _ = fmt.Fprintf(s.errOut, "Table %q is not in the catalog\n", parts[1])
			break
		}
		_, _ = fmt.Fprintln(s.out, strings.Join(cols, ", "))

	case ".reload":
		s.reload(ctx)

	case ".options":
		opts := s.checker.Options()
		_, _ = fmt.Fprintf(s.out, "fold_case=%t flag_unknown_tables=%t ignore_function_names=%t\n",
			opts.FoldCase, opts.FlagUnknownTables, opts.IgnoreFunctionNames)

	case ".up", ".down":
		if s.last == nil {
			_, _ = fmt.Fprintln(s.errOut, "Nothing checked yet")
			break
		}
		verdict := feedback.Verdict(strings.TrimPrefix(command, "."))
		if err := s.fbLog.Append(feedback.EntryFromReport(s.last, verdict)); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			break
		}
		_, _ = fmt.Fprintf(s.out, "Feedback recorded in %s\n", s.fbLog.Path())

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) reload(ctx context.Context) {
	if s.store != nil {
		if err := s.store.Reload(); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		s.checker.SetCatalog(s.store.Get())
	} else {
		src, err := serviceCatalog(ctx, s.src.service, true)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return
		}
		s.src = src
		s.checker.SetCatalog(src.catalog)
	}
	_, _ = fmt.Fprintf(s.out, "Catalog reloaded (%d tables)\n", len(s.checker.Catalog()))
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .tables           List catalog tables
  .columns <table>  List the columns of a table
  .reload           Reload the catalog file or re-harvest the service
  .options          Show the active check options
  .up / .down       Record feedback on the last check
  .quit / .exit     Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newCatalogCompleter completes dot-commands and table names
func newCatalogCompleter(cat sqlcheck.Catalog) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	for _, t := range cat.Tables() {
		tables = append(tables, readline.PcItem(t))
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".columns", tables...),
		readline.PcItem(".reload"),
		readline.PcItem(".options"),
		readline.PcItem(".up"),
		readline.PcItem(".down"),
		readline.PcItem(".quit"),
	}
	items = append(items, tables...)
	return readline.NewPrefixCompleter(items...)
}
