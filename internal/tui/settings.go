package tui

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
)

// SettingItem represents a single setting. Items with Set are toggles,
// the rest are read-only.
type SettingItem struct {
	Name        string
	Description string
	Enabled     func(config.Settings) bool
	Set         func(*config.Settings, bool)
	Display     func(*config.Config) string
}

// SettingsModel represents the settings screen
type SettingsModel struct {
	width        int
	height       int
	cfg          *config.Config
	logger       *slog.Logger
	selectedItem int
	items        []SettingItem
	error        string
}

// settingsChangedMsg indicates a toggle changed checker or editor behavior
type settingsChangedMsg struct{}

// NewSettingsModel creates a new settings model
func NewSettingsModel(cfg *config.Config, logger *slog.Logger) *SettingsModel {
	items := []SettingItem{
		{
			Name:        "Fold Case",
			Description: "Compare identifiers case-insensitively",
			Enabled:     func(s config.Settings) bool { return s.FoldCase },
			Set:         func(s *config.Settings, v bool) { s.FoldCase = v },
		},
		{
			Name:        "Flag Unknown Tables",
			Description: "Fail checks that reference tables outside the catalog",
			Enabled:     func(s config.Settings) bool { return s.FlagUnknownTables },
			Set:         func(s *config.Settings, v bool) { s.FlagUnknownTables = v },
		},
		{
			Name:        "Ignore Function Names",
			Description: "Skip names followed by ( such as count(...)",
			Enabled:     func(s config.Settings) bool { return s.IgnoreFunctionNames },
			Set:         func(s *config.Settings, v bool) { s.IgnoreFunctionNames = v },
		},
		{
			Name:        "Vim Mode",
			Description: "Use vim-style keybindings in the query editor",
			Enabled:     func(s config.Settings) bool { return s.VimModeEnabled },
			Set:         func(s *config.Settings, v bool) { s.VimModeEnabled = v },
		},
		{
			Name:        "Exec Row Limit",
			Description: "Rows fetched when a passed query is executed",
			Display: func(c *config.Config) string {
				return fmt.Sprintf("%d", c.Settings.ExecRowLimit)
			},
		},
		{
			Name:        "Max History Size",
			Description: "Maximum number of checks kept in history",
			Display: func(c *config.Config) string {
				return fmt.Sprintf("%d", c.Settings.MaxHistorySize)
			},
		},
		{
			Name:        "Schema Cache TTL",
			Description: "Harvested schemas older than this are refreshed",
			Display: func(c *config.Config) string {
				if c.Settings.SchemaCacheTTLMin <= 0 {
					return "Persistent"
				}
				return fmt.Sprintf("%d min", c.Settings.SchemaCacheTTLMin)
			},
		},
		{
			Name:        "Catalog File",
			Description: "YAML catalog used instead of a database",
			Display: func(c *config.Config) string {
				return valueOr(c.Settings.CatalogPath, "none")
			},
		},
		{
			Name:        "Feedback Log",
			Description: "CSV file receiving check verdicts",
			Display: func(c *config.Config) string {
				return valueOr(c.Settings.FeedbackLogPath, "disabled")
			},
		},
	}

	return &SettingsModel{
		cfg:    cfg,
		logger: orDiscard(logger),
		items:  items,
	}
}

// Init initializes the settings model
func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the settings model
func (m *SettingsModel) Update(msg tea.Msg) (*SettingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			return m, func() tea.Msg {
				return goToMenuMsg{}
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))):
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			m.selectedItem--
			if m.selectedItem < 0 {
				m.selectedItem = len(m.items) - 1
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			m.selectedItem++
			if m.selectedItem >= len(m.items) {
				m.selectedItem = 0
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter", " "))):
			item := m.items[m.selectedItem]
			if item.Set == nil {
				return m, nil
			}
			m.toggle(item)
			return m, func() tea.Msg {
				return settingsChangedMsg{}
			}
		}
	}

	return m, nil
}

// toggle flips item in the live settings and writes the same value to the
// stored settings, leaving other overridden values on disk as they were.
func (m *SettingsModel) toggle(item SettingItem) {
	value := !item.Enabled(m.cfg.Settings)
	item.Set(&m.cfg.Settings, value)

	m.error = ""
	onDisk, err := config.Load()
	if err == nil {
		item.Set(&onDisk.Settings, value)
		err = onDisk.Save()
	}
	if err != nil {
		m.error = "Failed to save settings: " + err.Error()
		m.logger.Warn("failed to save settings", "error", err)
	}
}

func (m *SettingsModel) value(item SettingItem) string {
	if item.Enabled != nil {
		if item.Enabled(m.cfg.Settings) {
			return "Enabled"
		}
		return "Disabled"
	}
	return item.Display(m.cfg)
}

// View renders the settings screen
func (m *SettingsModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := RenderHeader("Settings")
	content := m.renderContent()
	helpText := "↑/k: up • ↓/j: down • enter/space: toggle • esc: back • ctrl+c: quit"
	footer := RenderHelpFooter(helpText, m.width)

	return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
}

func (m *SettingsModel) renderContent() string {
	subtitleStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Align(lipgloss.Center)

	sections := []string{
		subtitleStyle.Render("Configure checking and editor preferences"),
		"",
	}
	if m.error != "" {
		sections = append(sections, ErrorStyle.Render(m.error), "")
	}

	table := newBoxTable([]string{"Setting", "Value", "Description"}, []int{22, 15, 52})
	for i, item := range m.items {
		isSelected := i == m.selectedItem

		icon, iconColor := "○", ColorGray
		if item.Set != nil {
			icon, iconColor = "◉", ColorBlue
		}

		nameStyle := lipgloss.NewStyle().Foreground(ColorWhite)
		if isSelected {
			nameStyle = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
		}

		value := m.value(item)
		var valueStyle lipgloss.Style
		switch value {
		case "Enabled":
			valueStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
		case "Disabled":
			valueStyle = lipgloss.NewStyle().Foreground(ColorRed)
		default:
			valueStyle = lipgloss.NewStyle().Foreground(ColorCyan)
		}

		table.addRow(
			rowMarker(isSelected, icon, iconColor),
			[]string{item.Name, value, item.Description},
			[]lipgloss.Style{nameStyle, valueStyle, lipgloss.NewStyle().Foreground(ColorGray)},
		)
	}

	legendStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Align(lipgloss.Center)
	sections = append(sections, table.render(), "", legendStyle.Render("◉ toggleable  ○ read-only"))

	return lipgloss.JoinVertical(lipgloss.Center, sections...)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
