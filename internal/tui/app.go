package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kartoza/kartoza-sql-guard/internal/catalog"
	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// Screen represents the current screen being displayed
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenCheck
	ScreenDatabase
	ScreenHistory
	ScreenSettings
	ScreenHarvest
)

// AppModel is the main application model
type AppModel struct {
	screen   Screen
	width    int
	height   int
	menu     *MenuModel
	database *DatabaseModel
	check    *CheckModel
	harvest  *HarvestModel
	history  *HistoryModel
	settings *SettingsModel

	cfg    *config.Config
	logger *slog.Logger

	// catalog state
	checker      *sqlcheck.Checker
	catalogLabel string
	activeSource *database.Source
	pendingQuery string
}

// blinkTickMsg for status bar blinking
type blinkTickMsg time.Time

// goToMenuMsg indicates request to return to menu screen
type goToMenuMsg struct{}

// catalogLoadedMsg carries a catalog found at startup
type catalogLoadedMsg struct {
	catalog sqlcheck.Catalog
	label   string
	source  *database.Source
	err     error
}

// NewAppModel creates a new application model
func NewAppModel(cfg *config.Config, logger *slog.Logger) *AppModel {
	logger = orDiscard(logger)
	GlobalAppState.CheckCount, GlobalAppState.FailedCount = historyCounts(cfg.CheckHistory)

	return &AppModel{
		screen:   ScreenMenu,
		menu:     NewMenuModel(),
		database: NewDatabaseModel(cfg),
		cfg:      cfg,
		logger:   logger,
	}
}

// Init initializes the application
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.menu.Init(),
		m.startBlinkTicker(),
		m.loadInitialState(),
	)
}

func (m *AppModel) startBlinkTicker() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return blinkTickMsg(t)
	})
}

// loadInitialState picks up the configured catalog file, or the cached
// schema of the active service. Nothing is harvested without the user
// choosing a service.
func (m *AppModel) loadInitialState() tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		if path := cfg.Settings.CatalogPath; path != "" {
			cat, err := catalog.Load(path)
			return catalogLoadedMsg{catalog: cat, label: path, err: err}
		}
		if name := cfg.ActiveService; name != "" && cfg.IsSchemaCacheValid(name) {
			msg := catalogLoadedMsg{
				catalog: catalog.FromSchemaCache(cfg.CachedSchemas[name]),
				label:   name + " (cached)",
			}
			if entry, err := database.LookupService(name); err == nil {
				source := entry.Source()
				msg.source = &source
			}
			return msg
		}
		return nil
	}
}

// useCatalog installs cat as the catalog of the check screen
func (m *AppModel) useCatalog(cat sqlcheck.Catalog, label string, source *database.Source) {
	m.checker = sqlcheck.NewChecker(cat, m.cfg.Settings.CheckOptions(), m.logger)
	m.catalogLabel = label
	m.activeSource = source

	if m.check != nil {
		m.check.Close()
		m.check = nil
	}

	GlobalAppState.CatalogLoaded = true
	GlobalAppState.CatalogLabel = label
	GlobalAppState.TablesCount = len(cat)
	GlobalAppState.IsConnected = source != nil
	GlobalAppState.ActiveService = ""
	GlobalAppState.Status = "Ready"
	if source != nil {
		GlobalAppState.ActiveService = source.Name
		GlobalAppState.Status = "Connected"
	}
}

func (m *AppModel) openCheck() tea.Cmd {
	if m.check == nil {
		m.check = NewCheckModel(m.checker, m.catalogLabel, m.activeSource, m.cfg, m.logger)
	}
	if m.pendingQuery != "" {
		m.check.SetInitialQuery(m.pendingQuery)
		m.pendingQuery = ""
	}
	m.check.width = m.width
	m.check.height = m.height
	m.screen = ScreenCheck
	return m.check.Init()
}

func (m *AppModel) openDatabase() tea.Cmd {
	m.database = NewDatabaseModel(m.cfg)
	m.database.width = m.width
	m.database.height = m.height
	m.screen = ScreenDatabase
	return m.database.Init()
}

// Update handles all messages for the application
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.menu.width = msg.Width
		m.menu.height = msg.Height
		m.database.width = msg.Width
		m.database.height = msg.Height

	case blinkTickMsg:
		GlobalAppState.BlinkOn = !GlobalAppState.BlinkOn
		return m, m.startBlinkTicker()

	case catalogLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("failed to load catalog", "error", msg.err)
			GlobalAppState.Status = "Catalog error"
			return m, nil
		}
		m.useCatalog(msg.catalog, msg.label, msg.source)
		return m, nil

	case menuActionMsg:
		switch msg.action {
		case MenuCheck:
			if m.checker == nil {
				return m, m.openDatabase()
			}
			return m, m.openCheck()

		case MenuDatabases:
			return m, m.openDatabase()

		case MenuHistory:
			m.history = NewHistoryModel(m.cfg, m.logger)
			m.history.width = m.width
			m.history.height = m.height
			m.screen = ScreenHistory
			return m, m.history.Init()

		case MenuSettings:
			m.settings = NewSettingsModel(m.cfg, m.logger)
			m.settings.width = m.width
			m.settings.height = m.height
			m.screen = ScreenSettings
			return m, m.settings.Init()
		}

	case serviceSelectedMsg:
		source := msg.source
		m.cfg.ActiveService = source.Name
		if err := m.cfg.SaveState(); err != nil {
			m.logger.Warn("failed to save active service", "error", err)
		}

		if !msg.reharvest && m.cfg.IsSchemaCacheValid(source.Name) {
			cache := m.cfg.CachedSchemas[source.Name]
			m.useCatalog(catalog.FromSchemaCache(cache), source.Name, &source)
			return m, m.openCheck()
		}

		GlobalAppState.Status = "Harvesting"
		m.harvest = NewHarvestModel(source, m.logger)
		m.harvest.width = m.width
		m.harvest.height = m.height
		m.screen = ScreenHarvest
		return m, m.harvest.Init()

	case schemaLoadedMsg:
		m.harvest = nil
		if msg.err != nil {
			m.logger.Warn("schema harvest failed", "source", msg.source.Describe(), "error", msg.err)
			cmd := m.openDatabase()
			m.database.error = "Harvest failed: " + msg.err.Error()
			return m, cmd
		}

		m.cfg.CachedSchemas[msg.source.Name] = msg.schema
		if err := m.cfg.SaveState(); err != nil {
			m.logger.Warn("failed to save schema cache", "error", err)
		}

		source := msg.source
		m.useCatalog(catalog.FromSchemaCache(msg.schema), source.Name, &source)
		return m, m.openCheck()

	case harvestCancelledMsg:
		m.harvest = nil
		GlobalAppState.Status = "Ready"
		return m, m.openDatabase()

	case settingsChangedMsg:
		// new options and editor mode apply from the next check screen on
		if m.checker != nil {
			m.useCatalog(m.checker.Catalog(), m.catalogLabel, m.activeSource)
		}

	case rerunQueryMsg:
		if m.checker == nil {
			m.pendingQuery = msg.query
			return m, m.openDatabase()
		}
		m.pendingQuery = msg.query
		if m.check != nil {
			// a fresh screen starts with the query in an empty editor
			m.check.Close()
			m.check = nil
		}
		return m, m.openCheck()

	case goToMenuMsg:
		m.screen = ScreenMenu
		return m, nil
	}

	var cmd tea.Cmd
	switch m.screen {
	case ScreenMenu:
		m.menu, cmd = m.menu.Update(msg)
	case ScreenDatabase:
		m.database, cmd = m.database.Update(msg)
	case ScreenCheck:
		if m.check != nil {
			m.check, cmd = m.check.Update(msg)
		}
	case ScreenHarvest:
		if m.harvest != nil {
			m.harvest, cmd = m.harvest.Update(msg)
		}
	case ScreenHistory:
		if m.history != nil {
			m.history, cmd = m.history.Update(msg)
		}
	case ScreenSettings:
		if m.settings != nil {
			m.settings, cmd = m.settings.Update(msg)
		}
	}

	return m, cmd
}

// View renders the application
func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	switch m.screen {
	case ScreenDatabase:
		return m.database.View()
	case ScreenCheck:
		if m.check != nil {
			return m.check.View()
		}
	case ScreenHarvest:
		if m.harvest != nil {
			return m.harvest.View()
		}
	case ScreenHistory:
		if m.history != nil {
			return m.history.View()
		}
	case ScreenSettings:
		if m.settings != nil {
			return m.settings.View()
		}
	}
	return m.menu.View()
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// RunApp runs the main TUI application
func RunApp(cfg *config.Config, logger *slog.Logger) error {
	app := NewAppModel(cfg, logger)
	defer func() {
		if app.check != nil {
			app.check.Close()
		}
	}()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
