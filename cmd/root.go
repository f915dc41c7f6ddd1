package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/tui"
)

var (
	appVersion = "dev"
	logLevel   string

	logger = slog.New(slog.DiscardHandler)
	cfg    *config.Config
)

// SetVersion sets the application version
func SetVersion(v string) {
	appVersion = v
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kartoza-sql-guard",
	Short: "Catch hallucinated columns in generated SQL",
	Long: `Kartoza SQL Guard - checks SQL queries, typically produced by a language
model, against a database schema before they are run.

This tool allows you to:
  - Extract the tables and columns a query references
  - Validate them against a harvested schema or a catalog file
  - Harvest schemas from PostgreSQL, MySQL and SQLite
  - Keep a history of checks and a feedback log
  - Work interactively in a TUI or a line-based REPL

Built with love by Kartoza.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tui.RunApp(cfg, logger); err != nil {
			return fmt.Errorf("error running application: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errCheckFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	// Setting overrides; names mirror the config keys
	pf.Bool("fold-case", false, "Compare identifiers case-insensitively")
	pf.Bool("flag-unknown-tables", false, "Fail checks that reference tables missing from the catalog")
	pf.Bool("ignore-function-names", false, "Do not report function calls as columns")
	pf.Int("exec-row-limit", 0, "Maximum rows fetched by --exec")
	pf.Int("max-history-size", 0, "Number of checks kept in history")
	pf.String("feedback-log-path", "", "CSV file for the feedback log")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(historyCmd)
}

// setup loads .env, builds the logger and loads the configuration with
// environment and flag overrides applied.
func setup(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", logLevel)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.ApplyOverrides(cmd.Flags()); err != nil {
		return err
	}
	if loaded.Settings.FeedbackLogPath == "" {
		if path, err := config.DefaultFeedbackLogPath(); err == nil {
			loaded.Settings.FeedbackLogPath = path
		}
	}
	cfg = loaded

	logger.Debug("configuration loaded",
		"active_service", cfg.ActiveService,
		"cached_schemas", len(cfg.CachedSchemas),
		"options", cfg.Settings.CheckOptions())
	return nil
}
