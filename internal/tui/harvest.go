package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
)

// harvestProgressMsg is sent during schema harvesting
type harvestProgressMsg struct {
	Current    int
	Total      int
	Message    string
	SchemaName string
	EntityType string
	EntityName string
}

// schemaLoadedMsg carries the outcome of a harvest
type schemaLoadedMsg struct {
	source database.Source
	schema *config.SchemaCache
	err    error
}

// harvestCancelledMsg indicates user cancelled harvesting
type harvestCancelledMsg struct{}

// HarvestModel is the model for the harvest screen
type HarvestModel struct {
	width       int
	height      int
	progress    progress.Model
	current     int
	total       int
	message     string
	schemaName  string
	entityType  string
	entityName  string
	source      database.Source
	logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	harvestChan chan harvestProgressMsg
}

// NewHarvestModel creates a new harvest model
func NewHarvestModel(source database.Source, logger *slog.Logger) *HarvestModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)
	prog.FullColor = string(ColorOrange)
	prog.EmptyColor = string(ColorDarkGray)

	ctx, cancel := context.WithCancel(context.Background())

	return &HarvestModel{
		progress:    prog,
		source:      source,
		logger:      orDiscard(logger),
		message:     "Connecting...",
		ctx:         ctx,
		cancel:      cancel,
		harvestChan: make(chan harvestProgressMsg, 100),
	}
}

// Init initializes the harvest model
func (m *HarvestModel) Init() tea.Cmd {
	return tea.Batch(
		m.startHarvest(),
		m.listenForProgress(),
	)
}

// listenForProgress waits for the next progress update from the harvest goroutine
func (m *HarvestModel) listenForProgress() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.harvestChan
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *HarvestModel) startHarvest() tea.Cmd {
	return func() tea.Msg {
		defer close(m.harvestChan)

		schema, err := m.harvest()
		if m.ctx.Err() != nil {
			// the screen is gone; nobody is waiting for the result
			return nil
		}
		return schemaLoadedMsg{source: m.source, schema: schema, err: err}
	}
}

func (m *HarvestModel) harvest() (*config.SchemaCache, error) {
	db, err := m.source.Open(m.ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	harvester, err := database.NewHarvester(db, m.source.Driver, m.logger)
	if err != nil {
		return nil, err
	}

	harvester.SetProgressCallback(func(current, total int, message string) {
		update := harvestProgressMsg{
			Current: current,
			Total:   total,
			Message: message,
		}
		// "Table: schema.name" or "View: schema.name"
		if kind, name, ok := strings.Cut(message, ": "); ok && (kind == "Table" || kind == "View") {
			update.EntityType = kind
			update.SchemaName, update.EntityName = parseSchemaEntity(name)
		} else {
			update.EntityName = message
		}

		select {
		case m.harvestChan <- update:
		default:
			// channel full, drop this update
		}
	})

	return harvester.Harvest(m.ctx, m.source.Name)
}

// parseSchemaEntity parses "schema.entity" into separate parts
func parseSchemaEntity(fullName string) (schema, entity string) {
	if schema, entity, ok := strings.Cut(fullName, "."); ok {
		return schema, entity
	}
	return "", fullName
}

// Update handles messages for the harvest model
func (m *HarvestModel) Update(msg tea.Msg) (*HarvestModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(50, msg.Width-20)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEscape {
			m.cancel()
			return m, func() tea.Msg {
				return harvestCancelledMsg{}
			}
		}

	case harvestProgressMsg:
		m.current = msg.Current
		m.total = msg.Total
		m.message = msg.Message
		m.schemaName = msg.SchemaName
		m.entityType = msg.EntityType
		m.entityName = msg.EntityName
		return m, m.listenForProgress()

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View renders the harvest screen
func (m *HarvestModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := RenderHeader("Schema Harvesting")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}

	center := lipgloss.NewStyle().
		Width(60).
		Align(lipgloss.Center)

	counter := lipgloss.NewStyle().
		Foreground(ColorWhite).
		Render(fmt.Sprintf("%d / %d objects", m.current, m.total))

	lines := []string{
		"",
		center.Render(lipgloss.NewStyle().Foreground(ColorBlue).Render(m.source.Describe())),
		"",
		center.Render(m.progress.ViewAs(percent)),
		"",
		center.Render(counter),
		"",
	}

	valueStyle := lipgloss.NewStyle().
		Foreground(ColorOrange).
		Bold(true)

	if m.schemaName != "" {
		lines = append(lines, center.Render(
			lipgloss.NewStyle().Foreground(ColorBlue).Bold(true).Render("Schema: "+m.schemaName)))
	}
	switch {
	case m.entityType != "" && m.entityName != "":
		label := lipgloss.NewStyle().Foreground(ColorGray).Render(m.entityType + ": ")
		lines = append(lines, center.Render(label+valueStyle.Render(m.entityName)))
	case m.message != "":
		lines = append(lines, center.Render(valueStyle.Render(m.message)))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)

	helpText := "ctrl+c/esc: cancel • Please wait while the schema is being harvested..."
	footer := RenderHelpFooter(helpText, m.width)

	return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
}
