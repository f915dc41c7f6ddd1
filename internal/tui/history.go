package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
)

const historyVisible = 15

// HistoryModel represents the check history screen
type HistoryModel struct {
	width        int
	height       int
	entries      []config.CheckHistoryEntry
	selectedItem int
	failedOnly   bool
	cfg          *config.Config
	logger       *slog.Logger
}

// rerunQueryMsg loads a query from history into the check editor
type rerunQueryMsg struct {
	query string
}

// NewHistoryModel creates a new history model over the shared config
func NewHistoryModel(cfg *config.Config, logger *slog.Logger) *HistoryModel {
	m := &HistoryModel{cfg: cfg, logger: orDiscard(logger)}
	m.filter()
	return m
}

// filter rebuilds the visible entries from the config history
func (m *HistoryModel) filter() {
	m.entries = nil
	if m.cfg == nil {
		return
	}
	for _, entry := range m.cfg.CheckHistory {
		if m.failedOnly && entry.Passed {
			continue
		}
		m.entries = append(m.entries, entry)
	}
	if m.selectedItem >= len(m.entries) {
		m.selectedItem = max(0, len(m.entries)-1)
	}
}

// Init initializes the history model
func (m *HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history model
func (m *HistoryModel) Update(msg tea.Msg) (*HistoryModel, tea.Cmd) {
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
			if len(m.entries) > 0 {
				m.selectedItem--
				if m.selectedItem < 0 {
					m.selectedItem = len(m.entries) - 1
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if len(m.entries) > 0 {
				m.selectedItem++
				if m.selectedItem >= len(m.entries) {
					m.selectedItem = 0
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("f"))):
			m.failedOnly = !m.failedOnly
			m.selectedItem = 0
			m.filter()
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter", " "))):
			if m.selectedItem < len(m.entries) {
				entry := m.entries[m.selectedItem]
				return m, func() tea.Msg {
					return rerunQueryMsg{query: entry.Query}
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("d"))):
			if m.selectedItem < len(m.entries) {
				m.deleteEntry(m.entries[m.selectedItem])
			}
			return m, nil
		}
	}

	return m, nil
}

func (m *HistoryModel) deleteEntry(entry config.CheckHistoryEntry) {
	for i, e := range m.cfg.CheckHistory {
		if e.Timestamp.Equal(entry.Timestamp) && e.Query == entry.Query {
			m.cfg.CheckHistory = append(m.cfg.CheckHistory[:i], m.cfg.CheckHistory[i+1:]...)
			break
		}
	}
	if err := m.cfg.SaveState(); err != nil {
		m.logger.Warn("failed to save history", "error", err)
	}
	m.filter()
	GlobalAppState.CheckCount, GlobalAppState.FailedCount = historyCounts(m.cfg.CheckHistory)
}

// historyCounts returns the number of checks and failed checks
func historyCounts(entries []config.CheckHistoryEntry) (checks, failed int) {
	for _, e := range entries {
		if !e.Passed {
			failed++
		}
	}
	return len(entries), failed
}

// View renders the history screen
func (m *HistoryModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	title := "Check History"
	if m.failedOnly {
		title += " (failed)"
	}
	header := RenderHeader(title)
	content := m.renderContent()
	helpText := "↑/k: up • ↓/j: down • enter: recheck • f: failed only • d: delete • esc: back"
	footer := RenderHelpFooter(helpText, m.width)

	return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
}

func (m *HistoryModel) renderContent() string {
	if len(m.entries) == 0 {
		return lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true).
			Render("No checks recorded yet")
	}

	table := newBoxTable([]string{"Time", "Query", "Invalid"}, []int{13, 45, 20})

	// keep the selection inside the visible window
	start := 0
	if m.selectedItem >= historyVisible {
		start = m.selectedItem - historyVisible + 1
	}
	end := min(len(m.entries), start+historyVisible)

	for i := start; i < end; i++ {
		entry := m.entries[i]
		isSelected := i == m.selectedItem

		icon, iconColor := "●", ColorGreen
		if !entry.Passed {
			icon, iconColor = "○", ColorRed
		}

		queryStyle := lipgloss.NewStyle().Foreground(ColorWhite)
		if isSelected {
			queryStyle = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
		}

		table.addRow(
			rowMarker(isSelected, icon, iconColor),
			[]string{
				entry.Timestamp.Format("01-02 15:04"),
				singleLine(entry.Query),
				strings.Join(entry.InvalidColumns, ", "),
			},
			[]lipgloss.Style{
				lipgloss.NewStyle().Foreground(ColorGray),
				queryStyle,
				lipgloss.NewStyle().Foreground(ColorRed),
			},
		)
	}
	if rest := len(m.entries) - end; rest > 0 {
		table.addNote(lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true).
			Render(fmt.Sprintf("... and %d more entries", rest)))
	}

	rows := []string{table.render(), ""}
	legendStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Align(lipgloss.Center)
	rows = append(rows, legendStyle.Render("● passed  ○ failed"))

	if m.selectedItem < len(m.entries) {
		rows = append(rows, "", m.renderDetails(m.entries[m.selectedItem]))
	}

	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}

func (m *HistoryModel) renderDetails(entry config.CheckHistoryEntry) string {
	labelStyle := lipgloss.NewStyle().Foreground(ColorGray)

	lines := []string{
		labelStyle.Render("Query:"),
		SQLStyle.Render(entry.Query),
		"",
		labelStyle.Render("Tables:  ") + joinOrDash(entry.Tables),
		labelStyle.Render("Columns: ") + joinOrDash(entry.Columns),
	}
	if len(entry.InvalidColumns) > 0 {
		lines = append(lines, labelStyle.Render("Invalid: ")+ErrorStyle.Render(strings.Join(entry.InvalidColumns, ", ")))
	}
	if len(entry.UnknownTables) > 0 {
		lines = append(lines, labelStyle.Render("Unknown tables: ")+strings.Join(entry.UnknownTables, ", "))
	}
	if entry.ServiceName != "" {
		lines = append(lines, labelStyle.Render("Service: ")+entry.ServiceName)
	}
	if entry.Executed {
		lines = append(lines, "", labelStyle.Render(fmt.Sprintf("Executed: %d rows in %.2fms", entry.RowsReturned, entry.ExecutionTime)))
	}
	if entry.ErrorMessage != "" {
		lines = append(lines, "", ErrorStyle.Render("Error: "+entry.ErrorMessage))
	}

	return BoxStyle.
		BorderForeground(ColorBlue).
		Width(min(80, m.width-10)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
