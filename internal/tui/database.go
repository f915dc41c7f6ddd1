package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/dberr"
)

const connectTimeout = 10 * time.Second

// DatabaseModel represents the database connection screen
type DatabaseModel struct {
	services       []database.ServiceEntry
	selectedItem   int
	width          int
	height         int
	loading        bool
	spinner        spinner.Model
	error          string
	tip            string
	testingService string
	reharvest      bool
	cfg            *config.Config
}

type servicesLoadedMsg struct {
	services []database.ServiceEntry
	err      error
}

type serviceTestedMsg struct {
	serviceName string
	err         error
}

// serviceSelectedMsg is sent once a service connection has been verified
type serviceSelectedMsg struct {
	source database.Source
	// reharvest ignores any cached schema
	reharvest bool
}

// NewDatabaseModel creates a new database connection model
func NewDatabaseModel(cfg *config.Config) *DatabaseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorOrange)

	return &DatabaseModel{
		services: []database.ServiceEntry{},
		spinner:  s,
		loading:  true,
		cfg:      cfg,
	}
}

// Init initializes the database model
func (m *DatabaseModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadServices(),
	)
}

func (m *DatabaseModel) loadServices() tea.Cmd {
	return func() tea.Msg {
		services, err := database.ParsePGServiceFile()
		return servicesLoadedMsg{services: services, err: err}
	}
}

func (m *DatabaseModel) testService(service database.ServiceEntry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		db, err := service.Source().Open(ctx)
		if err == nil {
			db.Close()
		}
		return serviceTestedMsg{serviceName: service.Name, err: err}
	}
}

// Update handles messages for the database model
func (m *DatabaseModel) Update(msg tea.Msg) (*DatabaseModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case servicesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if !database.PGServiceFileExists() {
				m.error = "No pg_service.conf found"
				m.tip = "Create ~/.pg_service.conf, or use the harvest command with --driver and --dsn"
			} else {
				m.error = msg.err.Error()
			}
			return m, nil
		}
		m.services = msg.services
		if m.selectedItem >= len(m.services) {
			m.selectedItem = 0
		}
		return m, nil

	case serviceTestedMsg:
		m.testingService = ""
		if msg.err != nil {
			text, kind := dberr.Classify(msg.err)
			m.error = fmt.Sprintf("Connection to '%s' failed: %s", msg.serviceName, text)
			if tips := dberr.Tips(kind); len(tips) > 0 {
				m.tip = tips[0]
			}
			return m, nil
		}
		for _, s := range m.services {
			if s.Name == msg.serviceName {
				source := s.Source()
				reharvest := m.reharvest
				m.reharvest = false
				return m, func() tea.Msg {
					return serviceSelectedMsg{source: source, reharvest: reharvest}
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.error != "" && msg.String() != "enter" && msg.String() != " " {
			m.error = ""
			m.tip = ""
		}

		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			return m, func() tea.Msg {
				return goToMenuMsg{}
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))):
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if len(m.services) > 0 {
				m.selectedItem--
				if m.selectedItem < 0 {
					m.selectedItem = len(m.services) - 1
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if len(m.services) > 0 {
				m.selectedItem++
				if m.selectedItem >= len(m.services) {
					m.selectedItem = 0
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter", " "))):
			return m, m.connectSelected(false)

		case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
			m.loading = true
			m.error = ""
			return m, tea.Batch(
				m.spinner.Tick,
				m.loadServices(),
			)

		case key.Matches(msg, key.NewBinding(key.WithKeys("R"))):
			return m, m.connectSelected(true)
		}
	}

	return m, nil
}

func (m *DatabaseModel) connectSelected(reharvest bool) tea.Cmd {
	if len(m.services) == 0 || m.selectedItem >= len(m.services) || m.testingService != "" {
		return nil
	}
	service := m.services[m.selectedItem]
	m.testingService = service.Name
	m.reharvest = reharvest
	m.error = ""
	m.tip = ""
	return tea.Batch(
		m.spinner.Tick,
		m.testService(service),
	)
}

// View renders the database connection screen
func (m *DatabaseModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := RenderHeader("Database Connections")
	content := m.renderContent()
	helpText := "↑/k: up • ↓/j: down • enter: connect • r: refresh • R: reharvest • esc: back"
	footer := RenderHelpFooter(helpText, m.width)

	return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
}

func (m *DatabaseModel) renderContent() string {
	var sections []string

	subtitleStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Align(lipgloss.Center)
	sections = append(sections, subtitleStyle.Render("Select a database service from pg_service.conf"))
	sections = append(sections, "")

	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Foreground(ColorOrange).
			Align(lipgloss.Center)
		sections = append(sections, loadingStyle.Render(m.spinner.View()+" Loading pg_service.conf..."))
		return lipgloss.JoinVertical(lipgloss.Center, sections...)
	}

	if m.error != "" {
		errorBox := BoxStyle.
			BorderForeground(ColorRed).
			Width(60).
			Align(lipgloss.Center)
		body := ErrorStyle.Render("Error: " + m.error)
		if m.tip != "" {
			body += "\n\n" + lipgloss.NewStyle().Foreground(ColorGray).Render("Tip: "+m.tip)
		}
		sections = append(sections, errorBox.Render(body))
		sections = append(sections, "")
	}

	if m.testingService != "" {
		testingStyle := lipgloss.NewStyle().
			Foreground(ColorOrange).
			Align(lipgloss.Center)
		sections = append(sections, testingStyle.Render(m.spinner.View()+" Testing connection to '"+m.testingService+"'..."))
		sections = append(sections, "")
	}

	if len(m.services) == 0 {
		sections = append(sections, subtitleStyle.Render("No services found in pg_service.conf"))
	} else {
		sections = append(sections, m.renderServicesList())
	}

	sections = append(sections, "")
	legendStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Align(lipgloss.Center)
	sections = append(sections, legendStyle.Render("● cached schema  ○ not harvested"))

	return lipgloss.JoinVertical(lipgloss.Center, sections...)
}

func (m *DatabaseModel) renderServicesList() string {
	table := newBoxTable([]string{"Service", "Host", "Database"}, []int{20, 25, 15})

	for i, service := range m.services {
		isSelected := i == m.selectedItem

		icon, iconColor := "○", ColorGray
		if m.cfg != nil && m.cfg.IsSchemaCacheValid(service.Name) {
			icon, iconColor = "●", ColorGreen
		}

		nameStyle := lipgloss.NewStyle().Foreground(ColorBlue)
		if isSelected {
			nameStyle = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
		}
		plain := lipgloss.NewStyle().Foreground(ColorWhite)

		table.addRow(
			rowMarker(isSelected, icon, iconColor),
			[]string{service.Name, service.Host, service.DBName},
			[]lipgloss.Style{nameStyle, plain, plain},
		)
	}

	return table.render()
}
