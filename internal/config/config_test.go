package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.ActiveService != "" {
		t.Errorf("expected empty ActiveService, got %s", cfg.ActiveService)
	}

	if cfg.CachedSchemas == nil {
		t.Error("CachedSchemas should be initialized")
	}

	if cfg.CheckHistory == nil {
		t.Error("CheckHistory should be initialized")
	}

	if cfg.Settings.MaxHistorySize != 100 {
		t.Errorf("expected MaxHistorySize 100, got %d", cfg.Settings.MaxHistorySize)
	}

	if cfg.Settings.ExecRowLimit != 50 {
		t.Errorf("expected ExecRowLimit 50, got %d", cfg.Settings.ExecRowLimit)
	}

	if cfg.Settings.FoldCase || cfg.Settings.FlagUnknownTables {
		t.Error("expected case-sensitive, column-only checking by default")
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SQLGUARD_CONFIG_DIR", tmpDir)

	// Create and save config
	cfg := DefaultConfig()
	cfg.ActiveService = "test-service"
	cfg.Settings.MaxHistorySize = 200

	if err := cfg.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// Load config
	loaded, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.ActiveService != "test-service" {
		t.Errorf("expected ActiveService 'test-service', got '%s'", loaded.ActiveService)
	}

	if loaded.Settings.MaxHistorySize != 200 {
		t.Errorf("expected MaxHistorySize 200, got %d", loaded.Settings.MaxHistorySize)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("SQLGUARD_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Settings.MaxHistorySize != 100 {
		t.Errorf("expected defaults, got MaxHistorySize %d", cfg.Settings.MaxHistorySize)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SQLGUARD_CONFIG_DIR", dir)

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected error for corrupt config")
	}
}

func TestAddCheckToHistory(t *testing.T) {
	cfg := DefaultConfig()

	checker := sqlcheck.NewChecker(sqlcheck.Catalog{"users": {"id"}}, sqlcheck.Options{}, nil)
	entry := NewCheckHistoryEntry(checker.Check("SELECT id, nickname FROM users"), "test")

	cfg.AddCheckToHistory(entry)

	if len(cfg.CheckHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(cfg.CheckHistory))
	}

	got := cfg.CheckHistory[0]
	if got.Passed {
		t.Error("expected failed check to be recorded as not passed")
	}
	if strings.Join(got.InvalidColumns, ",") != "nickname" {
		t.Errorf("unexpected invalid columns: %v", got.InvalidColumns)
	}
	if got.ServiceName != "test" {
		t.Errorf("unexpected service: %s", got.ServiceName)
	}
}

func TestHistoryTrimming(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.MaxHistorySize = 5

	// Add more entries than max
	for i := 0; i < 10; i++ {
		cfg.AddCheckToHistory(CheckHistoryEntry{
			Timestamp: time.Now(),
			Query:     "Query " + string(rune('A'+i)),
			Passed:    true,
		})
	}

	if len(cfg.CheckHistory) != 5 {
		t.Errorf("expected 5 history entries, got %d", len(cfg.CheckHistory))
	}

	// Most recent should be first
	if cfg.CheckHistory[0].Query != "Query J" {
		t.Errorf("expected most recent query first, got: %s", cfg.CheckHistory[0].Query)
	}
}

func TestHistoryNegativeMaxSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.MaxHistorySize = -1

	cfg.AddCheckToHistory(CheckHistoryEntry{Timestamp: time.Now(), Query: "SELECT 1"})

	if len(cfg.CheckHistory) != 0 {
		t.Errorf("expected no history kept, got %d entries", len(cfg.CheckHistory))
	}
}

func TestApplyOverridesRejectsNegativeHistorySize(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("SQLGUARD_MAX_HISTORY_SIZE", "-1")

	if err := cfg.ApplyOverrides(nil); err == nil {
		t.Fatal("expected an error for a negative history size")
	}
	if cfg.Settings.MaxHistorySize != 100 {
		t.Errorf("expected settings to stay untouched, got %d", cfg.Settings.MaxHistorySize)
	}
}

func TestIsSchemaCacheValid(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IsSchemaCacheValid("nonexistent") {
		t.Error("expected false for nonexistent cache")
	}

	cfg.CachedSchemas["old"] = &SchemaCache{
		ServiceName: "old",
		CachedAt:    time.Now().Add(-2 * time.Hour),
	}

	// Without a TTL caches never expire
	if !cfg.IsSchemaCacheValid("old") {
		t.Error("expected cache to be valid without a TTL")
	}

	cfg.Settings.SchemaCacheTTLMin = 60
	cfg.CachedSchemas["fresh"] = &SchemaCache{
		ServiceName: "fresh",
		CachedAt:    time.Now(),
	}

	if !cfg.IsSchemaCacheValid("fresh") {
		t.Error("expected fresh cache to be valid")
	}

	if cfg.IsSchemaCacheValid("old") {
		t.Error("expected old cache to be invalid")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.CatalogPath = "from-file.yaml"

	t.Setenv("SQLGUARD_FOLD_CASE", "true")
	t.Setenv("SQLGUARD_EXEC_ROW_LIMIT", "500")
	t.Setenv("SQLGUARD_CATALOG_PATH", "from-env.yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("flag-unknown-tables", false, "")
	flags.String("catalog-path", "", "")
	flags.Int("exec-row-limit", 10, "")
	flags.String("output", "text", "")
	if err := flags.Parse([]string{"--flag-unknown-tables", "--catalog-path", "from-flag.yaml"}); err != nil {
		t.Fatal(err)
	}

	if err := cfg.ApplyOverrides(flags); err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}

	s := cfg.Settings
	if !s.FoldCase {
		t.Error("expected FoldCase from env")
	}
	if !s.FlagUnknownTables {
		t.Error("expected FlagUnknownTables from flag")
	}
	if s.ExecRowLimit != 500 {
		t.Errorf("expected unchanged flag to leave env value 500, got %d", s.ExecRowLimit)
	}
	if s.CatalogPath != "from-flag.yaml" {
		t.Errorf("expected flag to win over env, got %s", s.CatalogPath)
	}
	if s.MaxHistorySize != 100 {
		t.Errorf("expected file value to survive, got %d", s.MaxHistorySize)
	}

	opts := s.CheckOptions()
	if !opts.FoldCase || !opts.FlagUnknownTables || opts.IgnoreFunctionNames {
		t.Errorf("unexpected check options: %+v", opts)
	}
}

func TestConfigPath(t *testing.T) {
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath failed: %v", err)
	}

	if !filepath.IsAbs(path) && os.Getenv("SQLGUARD_CONFIG_DIR") == "" {
		t.Error("expected absolute path")
	}

	if !strings.Contains(path, "config.json") {
		t.Error("path should contain 'config.json'")
	}
}

func TestSaveStateKeepsStoredSettings(t *testing.T) {
	t.Setenv("SQLGUARD_CONFIG_DIR", t.TempDir())

	stored := DefaultConfig()
	stored.Settings.ExecRowLimit = 25
	if err := stored.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	live := DefaultConfig()
	live.Settings.ExecRowLimit = 9999
	live.ActiveService = "warehouse"
	live.AddCheckToHistory(CheckHistoryEntry{Query: "SELECT 1", Passed: true})

	if err := live.SaveState(); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Settings.ExecRowLimit != 25 {
		t.Errorf("expected stored row limit 25, got %d", loaded.Settings.ExecRowLimit)
	}
	if loaded.ActiveService != "warehouse" {
		t.Errorf("expected active service to be saved, got %q", loaded.ActiveService)
	}
	if len(loaded.CheckHistory) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(loaded.CheckHistory))
	}
}
