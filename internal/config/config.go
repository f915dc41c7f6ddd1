package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// EnvPrefix prefixes environment variables that override settings
const EnvPrefix = "SQLGUARD_"

// Config represents the application configuration
type Config struct {
	ActiveService string                  `json:"active_service"`
	CachedSchemas map[string]*SchemaCache `json:"cached_schemas"`
	CheckHistory  []CheckHistoryEntry     `json:"check_history"`
	Settings      Settings                `json:"settings"`
}

// Settings contains user preferences
type Settings struct {
	MaxHistorySize      int    `json:"max_history_size"`
	ExecRowLimit        int    `json:"exec_row_limit"`
	SchemaCacheTTLMin   int    `json:"schema_cache_ttl_min"`
	FoldCase            bool   `json:"fold_case"`
	FlagUnknownTables   bool   `json:"flag_unknown_tables"`
	IgnoreFunctionNames bool   `json:"ignore_function_names"`
	VimModeEnabled      bool   `json:"vim_mode_enabled"`
	FeedbackLogPath     string `json:"feedback_log_path"`
	CatalogPath         string `json:"catalog_path"`
}

// CheckOptions returns the checker options selected by the settings
func (s Settings) CheckOptions() sqlcheck.Options {
	return sqlcheck.Options{
		FoldCase:            s.FoldCase,
		FlagUnknownTables:   s.FlagUnknownTables,
		IgnoreFunctionNames: s.IgnoreFunctionNames,
	}
}

// SchemaCache represents cached database schema
type SchemaCache struct {
	ServiceName string      `json:"service_name"`
	Driver      string      `json:"driver"`
	Tables      []TableInfo `json:"tables"`
	Views       []ViewInfo  `json:"views"`
	CachedAt    time.Time   `json:"cached_at"`
	Version     string      `json:"version"`
}

// TableInfo represents a database table
type TableInfo struct {
	Schema  string       `json:"schema"`
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
	Comment string       `json:"comment,omitempty"`
}

// ViewInfo represents a database view
type ViewInfo struct {
	Schema  string       `json:"schema"`
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo represents a table column
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// CheckHistoryEntry represents a checked query in history
type CheckHistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Query          string    `json:"query"`
	ServiceName    string    `json:"service_name,omitempty"`
	Tables         []string  `json:"tables"`
	Columns        []string  `json:"columns"`
	InvalidColumns []string  `json:"invalid_columns,omitempty"`
	UnknownTables  []string  `json:"unknown_tables,omitempty"`
	Passed         bool      `json:"passed"`
	Executed       bool      `json:"executed,omitempty"`
	RowsReturned   int       `json:"rows_returned,omitempty"`
	ExecutionTime  float64   `json:"execution_time_ms,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// NewCheckHistoryEntry records the outcome of a checker report
func NewCheckHistoryEntry(rep *sqlcheck.Report, serviceName string) CheckHistoryEntry {
	return CheckHistoryEntry{
		Timestamp:      time.Now(),
		Query:          rep.Query,
		ServiceName:    serviceName,
		Tables:         rep.Tables.Sorted(),
		Columns:        rep.Columns.Sorted(),
		InvalidColumns: rep.InvalidColumns.Sorted(),
		UnknownTables:  rep.UnknownTables.Sorted(),
		Passed:         rep.Passed,
	}
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		ActiveService: "",
		CachedSchemas: make(map[string]*SchemaCache),
		CheckHistory:  []CheckHistoryEntry{},
		Settings: Settings{
			MaxHistorySize:    100,
			ExecRowLimit:      50,
			SchemaCacheTTLMin: 0, // never expires, refresh manually
			VimModeEnabled:    true,
		},
	}
}

// ConfigDir returns the configuration directory path.
// SQLGUARD_CONFIG_DIR replaces the default location.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kartoza-sql-guard"), nil
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultFeedbackLogPath returns where the feedback CSV lives unless configured
func DefaultFeedbackLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "feedback.csv"), nil
}

// Load loads the configuration from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Ensure maps are initialized
	if cfg.CachedSchemas == nil {
		cfg.CachedSchemas = make(map[string]*SchemaCache)
	}

	return &cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SaveState persists history, cached schemas and the active service while
// leaving the settings stored on disk untouched, so flag and environment
// overrides in c are never written back.
func (c *Config) SaveState() error {
	onDisk, err := Load()
	if err != nil {
		return err
	}
	onDisk.ActiveService = c.ActiveService
	onDisk.CachedSchemas = c.CachedSchemas
	onDisk.CheckHistory = c.CheckHistory
	return onDisk.Save()
}

// ApplyOverrides layers SQLGUARD_* environment variables and explicitly set
// flags over the persisted settings. Flag names are the setting keys in
// kebab-case (--fold-case, --exec-row-limit). Precedence: flags > env > file.
func (c *Config) ApplyOverrides(flags *pflag.FlagSet) error {
	k := koanf.New(".")

	base, err := settingsMap(c.Settings)
	if err != nil {
		return err
	}
	if err := k.Load(confmap.Provider(base, "."), nil); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := base[key]; !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return fmt.Errorf("unable to decode settings: %w", err)
	}
	if s.MaxHistorySize < 0 {
		return fmt.Errorf("max_history_size must not be negative, got %d", s.MaxHistorySize)
	}
	c.Settings = s
	return nil
}

func settingsMap(s Settings) (map[string]interface{}, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// AddCheckToHistory adds a checked query to the history
func (c *Config) AddCheckToHistory(entry CheckHistoryEntry) {
	c.CheckHistory = append([]CheckHistoryEntry{entry}, c.CheckHistory...)

	// Trim to max size
	limit := max(0, c.Settings.MaxHistorySize)
	if len(c.CheckHistory) > limit {
		c.CheckHistory = c.CheckHistory[:limit]
	}
}

// IsSchemaCacheValid checks if the cached schema exists and, when a TTL is
// configured, is younger than it
func (c *Config) IsSchemaCacheValid(serviceName string) bool {
	cache, exists := c.CachedSchemas[serviceName]
	if !exists || cache == nil {
		return false
	}
	if c.Settings.SchemaCacheTTLMin <= 0 {
		return true
	}
	ttl := time.Duration(c.Settings.SchemaCacheTTLMin) * time.Minute
	return time.Since(cache.CachedAt) < ttl
}
