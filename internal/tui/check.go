package tui

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kujtimiihoxha/vimtea"

	"github.com/kartoza/kartoza-sql-guard/internal/config"
	"github.com/kartoza/kartoza-sql-guard/internal/database"
	"github.com/kartoza/kartoza-sql-guard/internal/dberr"
	"github.com/kartoza/kartoza-sql-guard/internal/feedback"
	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

const (
	editorHeight = 5
	execTimeout  = 30 * time.Second
)

// ConversationScrollState tracks scroll position in the results view
type ConversationScrollState struct {
	scrollOffset int // lines scrolled up from the bottom
	totalLines   int
	visibleLines int
}

// checkEntry is one checked statement in the results view
type checkEntry struct {
	report   *sqlcheck.Report
	rows     *database.Rows
	execErr  string
	tips     []string
	verdict  feedback.Verdict
	expanded bool
}

// CheckModel is the query checking screen: an editor on the bottom and the
// reports for every checked statement above it.
type CheckModel struct {
	width     int
	height    int
	vimEditor vimtea.Editor
	textArea  textarea.Model
	vimMode   bool
	spinner   spinner.Model
	executing bool

	checker *sqlcheck.Checker
	label   string
	source  *database.Source // nil when checking against a catalog file
	db      *sql.DB
	cfg     *config.Config
	fbLog   *feedback.Log
	logger  *slog.Logger

	entries       []*checkEntry
	selectedEntry int
	focusEditor   bool
	convScroll    ConversationScrollState
	visibleRows   int
	error         string
	notice        string
}

type dbConnectedMsg struct {
	db  *sql.DB
	err error
}

type queryExecutedMsg struct {
	entry *checkEntry
	rows  *database.Rows
	err   error
}

// NewCheckModel creates a check screen over checker. source is optional and
// enables executing passed queries.
func NewCheckModel(checker *sqlcheck.Checker, label string, source *database.Source, cfg *config.Config, logger *slog.Logger) *CheckModel {
	lineNumStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		PaddingRight(1)

	currentLineNumStyle := lipgloss.NewStyle().
		Foreground(ColorOrange).
		Bold(true).
		PaddingRight(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(ColorOrange).
		Background(lipgloss.Color("#1a1a1a")).
		Padding(0, 1)

	cursorStyle := lipgloss.NewStyle().
		Background(ColorOrange).
		Foreground(lipgloss.Color("#000000"))

	vimEditor := vimtea.NewEditor(
		vimtea.WithLineNumberStyle(lineNumStyle),
		vimtea.WithCurrentLineNumberStyle(currentLineNumStyle),
		vimtea.WithTextStyle(lipgloss.NewStyle().Foreground(ColorWhite)),
		vimtea.WithStatusStyle(statusStyle),
		vimtea.WithCursorStyle(cursorStyle),
		vimtea.WithRelativeNumbers(false),
		vimtea.WithEnableStatusBar(false),
	)

	ta := textarea.New()
	ta.Placeholder = "SELECT ... ;"
	ta.ShowLineNumbers = false
	ta.SetHeight(editorHeight)
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorOrange)
	ta.BlurredStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorGray)
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorOrange)

	return &CheckModel{
		vimEditor:     vimEditor,
		textArea:      ta,
		vimMode:       cfg.Settings.VimModeEnabled,
		spinner:       s,
		checker:       checker,
		label:         label,
		source:        source,
		cfg:           cfg,
		fbLog:         feedback.Open(cfg.Settings.FeedbackLogPath),
		logger:        orDiscard(logger),
		selectedEntry: -1,
		focusEditor:   true,
		visibleRows:   10,
	}
}

// Init initializes the check model
func (m *CheckModel) Init() tea.Cmd {
	var cmds []tea.Cmd

	if m.width > 0 {
		cmds = append(cmds, m.resizeEditor())
	}

	if m.vimMode {
		cmds = append(cmds, m.vimEditor.Init(), m.vimEditor.SetMode(vimtea.ModeInsert))
	} else {
		cmds = append(cmds, textarea.Blink)
	}

	if m.source != nil && m.db == nil {
		cmds = append(cmds, m.connect())
	}
	return tea.Batch(cmds...)
}

// Close releases the database connection
func (m *CheckModel) Close() {
	if m.db != nil {
		m.db.Close()
		m.db = nil
	}
}

func (m *CheckModel) connect() tea.Cmd {
	source := *m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		db, err := source.Open(ctx)
		return dbConnectedMsg{db: db, err: err}
	}
}

func (m *CheckModel) editorWidth() int {
	return max(40, m.width-10)
}

func (m *CheckModel) resizeEditor() tea.Cmd {
	if !m.vimMode {
		m.textArea.SetWidth(m.editorWidth())
		m.textArea.SetHeight(editorHeight)
		return nil
	}
	updated, cmd := m.vimEditor.SetSize(m.editorWidth(), editorHeight)
	m.vimEditor = updated.(vimtea.Editor)
	return cmd
}

func (m *CheckModel) getEditorText() string {
	if m.vimMode {
		return m.vimEditor.GetBuffer().Text()
	}
	return m.textArea.Value()
}

// SetInitialQuery sets the initial text in the editor
func (m *CheckModel) SetInitialQuery(query string) {
	if m.vimMode {
		m.vimEditor.GetBuffer().InsertAt(0, 0, query)
	} else {
		m.textArea.SetValue(query)
	}
}

func (m *CheckModel) clearEditor() tea.Cmd {
	if m.vimMode {
		m.vimEditor = vimtea.NewEditor(
			vimtea.WithRelativeNumbers(false),
			vimtea.WithEnableStatusBar(false),
		)
		return tea.Batch(m.vimEditor.Init(), m.resizeEditor(), m.vimEditor.SetMode(vimtea.ModeInsert))
	}
	m.textArea.Reset()
	m.textArea.Focus()
	return nil
}

func (m *CheckModel) selected() *checkEntry {
	if m.selectedEntry < 0 || m.selectedEntry >= len(m.entries) {
		return nil
	}
	return m.entries[m.selectedEntry]
}

// runChecks checks every statement in the editor and records the results
func (m *CheckModel) runChecks(script string) {
	statements := sqlcheck.SplitStatements(script)
	if len(statements) == 0 {
		m.error = "Nothing to check"
		return
	}

	for _, stmt := range statements {
		rep := m.checker.Check(stmt)
		m.entries = append(m.entries, &checkEntry{report: rep})

		service := ""
		if m.source != nil {
			service = m.source.Name
		}
		m.cfg.AddCheckToHistory(config.NewCheckHistoryEntry(rep, service))
	}
	m.saveHistory()

	m.selectedEntry = len(m.entries) - 1
	m.entries[m.selectedEntry].expanded = true
	m.convScroll.scrollOffset = 0
	m.error = ""
	m.notice = ""
}

func (m *CheckModel) saveHistory() {
	if err := m.cfg.SaveState(); err != nil {
		m.logger.Warn("failed to save check history", "error", err)
	}
	GlobalAppState.CheckCount, GlobalAppState.FailedCount = historyCounts(m.cfg.CheckHistory)
}

func (m *CheckModel) execute(entry *checkEntry) tea.Cmd {
	db := m.db
	limit := m.cfg.Settings.ExecRowLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
		defer cancel()
		rows, err := database.Execute(ctx, db, entry.report.Query, limit)
		return queryExecutedMsg{entry: entry, rows: rows, err: err}
	}
}

// recordExecution copies an execution outcome into the matching history entry
func (m *CheckModel) recordExecution(entry *checkEntry) {
	for i := range m.cfg.CheckHistory {
		h := &m.cfg.CheckHistory[i]
		if h.Query != entry.report.Query {
			continue
		}
		h.Executed = true
		h.ErrorMessage = entry.execErr
		if entry.rows != nil {
			h.RowsReturned = len(entry.rows.Values)
			h.ExecutionTime = float64(entry.rows.Duration.Microseconds()) / 1000
		}
		break
	}
	m.saveHistory()
}

func (m *CheckModel) recordFeedback(entry *checkEntry, verdict feedback.Verdict) {
	if m.fbLog.Path() == "" {
		m.error = "Feedback log is disabled"
		return
	}
	if err := m.fbLog.Append(feedback.EntryFromReport(entry.report, verdict)); err != nil {
		m.error = "Failed to record feedback: " + err.Error()
		return
	}
	entry.verdict = verdict
	m.notice = "Feedback recorded in " + m.fbLog.Path()
}

// Update handles messages for the check model
func (m *CheckModel) Update(msg tea.Msg) (*CheckModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.resizeEditor()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case dbConnectedMsg:
		if msg.err != nil {
			text, _ := dberr.Classify(msg.err)
			m.error = "Connection failed: " + text
			return m, nil
		}
		m.db = msg.db
		return m, nil

	case queryExecutedMsg:
		m.executing = false
		if msg.err != nil {
			text, kind := dberr.Classify(msg.err)
			m.logger.Debug("query execution failed", "kind", kind, "error", msg.err)
			msg.entry.execErr = fmt.Sprintf("%s (%v)", text, msg.err)
			msg.entry.tips = dberr.Tips(kind)
		} else {
			msg.entry.rows = msg.rows
			msg.entry.execErr = ""
			msg.entry.tips = nil
		}
		msg.entry.expanded = true
		m.recordExecution(msg.entry)
		return m, nil

	case tea.MouseMsg:
		if len(m.entries) > 0 {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.scrollBy(3)
				return m, nil
			case tea.MouseButtonWheelDown:
				m.scrollBy(-3)
				return m, nil
			}
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if msg.Type == tea.KeyF1 {
			return m, func() tea.Msg {
				return goToMenuMsg{}
			}
		}

		if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+l"))) {
			m.entries = nil
			m.selectedEntry = -1
			m.convScroll = ConversationScrollState{}
			m.error = ""
			m.notice = ""
			return m, nil
		}

		if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+s"))) {
			if content := strings.TrimSpace(m.getEditorText()); content != "" {
				m.runChecks(content)
				if m.error == "" {
					return m, m.clearEditor()
				}
			}
			return m, nil
		}

		if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+e"))) {
			return m, m.executeSelected()
		}

		if msg.Type == tea.KeyEscape && m.focusEditor {
			// vim uses escape to leave insert mode first
			if !m.vimMode || m.vimEditor.GetMode().String() == "NORMAL" {
				m.focusEditor = false
				if len(m.entries) > 0 && m.selectedEntry < 0 {
					m.selectedEntry = len(m.entries) - 1
				}
				return m, nil
			}
		}

		if !m.focusEditor {
			return m, m.handleResultsKey(msg)
		}

		if m.error != "" {
			m.error = ""
		}
	}

	if m.focusEditor {
		if m.vimMode {
			updated, cmd := m.vimEditor.Update(msg)
			m.vimEditor = updated.(vimtea.Editor)
			cmds = append(cmds, cmd)
		} else {
			var cmd tea.Cmd
			m.textArea, cmd = m.textArea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleResultsKey handles keys while the results view has focus
func (m *CheckModel) handleResultsKey(msg tea.KeyMsg) tea.Cmd {
	m.notice = ""
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("i", "enter"))):
		m.focusEditor = true
		if m.vimMode {
			return m.vimEditor.SetMode(vimtea.ModeInsert)
		}
		m.textArea.Focus()

	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		return func() tea.Msg {
			return goToMenuMsg{}
		}

	case msg.Type == tea.KeyTab && len(m.entries) > 0:
		m.selectedEntry = (m.selectedEntry + 1) % len(m.entries)

	case msg.Type == tea.KeyShiftTab && len(m.entries) > 0:
		m.selectedEntry--
		if m.selectedEntry < 0 {
			m.selectedEntry = len(m.entries) - 1
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+g", "o"))):
		if e := m.selected(); e != nil {
			e.expanded = !e.expanded
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("+"))):
		if e := m.selected(); e != nil {
			m.recordFeedback(e, feedback.VerdictUp)
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("-"))):
		if e := m.selected(); e != nil {
			m.recordFeedback(e, feedback.VerdictDown)
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("x"))):
		return m.executeSelected()

	case key.Matches(msg, key.NewBinding(key.WithKeys("pgup", "k", "up"))):
		step := 1
		if msg.String() == "pgup" {
			step = m.convScroll.visibleLines
		}
		m.scrollBy(step)

	case key.Matches(msg, key.NewBinding(key.WithKeys("pgdown", "j", "down"))):
		step := 1
		if msg.String() == "pgdown" {
			step = m.convScroll.visibleLines
		}
		m.scrollBy(-step)

	case key.Matches(msg, key.NewBinding(key.WithKeys("home", "g"))):
		m.convScroll.scrollOffset = m.maxScroll()

	case key.Matches(msg, key.NewBinding(key.WithKeys("end", "G"))):
		m.convScroll.scrollOffset = 0
	}
	return nil
}

func (m *CheckModel) executeSelected() tea.Cmd {
	e := m.selected()
	switch {
	case e == nil || m.executing:
		return nil
	case m.source == nil:
		m.error = "No database: connect to a service to execute queries"
		return nil
	case m.db == nil:
		m.error = "Still connecting to " + m.source.Name
		return nil
	case !e.report.Passed:
		m.error = "Only queries that pass the check are executed"
		return nil
	}
	m.executing = true
	m.error = ""
	return tea.Batch(m.spinner.Tick, m.execute(e))
}

func (m *CheckModel) maxScroll() int {
	return max(0, m.convScroll.totalLines-m.convScroll.visibleLines)
}

func (m *CheckModel) scrollBy(n int) {
	m.convScroll.scrollOffset = min(max(0, m.convScroll.scrollOffset+n), m.maxScroll())
}

// View renders the check screen
func (m *CheckModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := RenderHeader("Check Queries")
	content := m.renderContent()
	var helpText string
	if m.focusEditor {
		helpText = "ctrl+s: check • ctrl+e: execute • esc: browse results • ctrl+l: clear • F1: menu"
	} else {
		helpText = "i/enter: edit • tab: select • o: details • x: execute • +/-: feedback • j/k: scroll • esc: menu"
	}
	footer := RenderHelpFooter(helpText, m.width)

	return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
}

func (m *CheckModel) renderContent() string {
	var sections []string

	resultsHeight := max(10, m.height-20)

	switch {
	case len(m.entries) > 0:
		height := resultsHeight
		if m.executing {
			height -= 2
		}
		sections = append(sections, m.renderResults(height))
	default:
		sections = append(sections, m.renderWelcome(resultsHeight))
	}

	if m.executing {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(ColorOrange).
			Render(m.spinner.View()+" Executing query..."))
	}
	if m.error != "" {
		sections = append(sections, ErrorStyle.Render(m.error))
	}
	if m.notice != "" {
		sections = append(sections, SuccessStyle.Render(m.notice))
	}

	sections = append(sections, "")
	promptText := "SQL to check against " + m.label
	if m.focusEditor {
		sections = append(sections, PromptStyle.Render(promptText+" (editing):"))
	} else {
		sections = append(sections, lipgloss.NewStyle().Foreground(ColorGray).Render(promptText+" (press i to edit):"))
	}

	borderColor := ColorGray
	if m.focusEditor {
		borderColor = ColorOrange
	}

	if m.vimMode {
		editorBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Width(m.width - 6).
			Padding(0, 1)
		sections = append(sections, editorBox.Render(m.vimEditor.View()), m.renderVimStatusBar())
	} else {
		m.textArea.SetWidth(m.editorWidth())
		if m.focusEditor {
			m.textArea.Focus()
		} else {
			m.textArea.Blur()
		}
		sections = append(sections, m.textArea.View())
	}

	return lipgloss.JoinVertical(lipgloss.Center, sections...)
}

// renderResults renders every report, scrolled so the newest is visible
func (m *CheckModel) renderResults(height int) string {
	var lines []string

	labelStyle := lipgloss.NewStyle().Foreground(ColorGray)
	hintStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	invalidStyle := lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	validStyle := lipgloss.NewStyle().Foreground(ColorBlue)

	for i, e := range m.entries {
		rep := e.report
		isSelected := i == m.selectedEntry

		if i > 0 {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(ColorDarkGray).
				Render(strings.Repeat("─", min(60, m.width-20))))
		}

		prefix := "  "
		if isSelected {
			prefix = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true).Render("▶ ")
		}
		verdict := SuccessStyle.Render("PASS")
		if !rep.Passed {
			verdict = ErrorStyle.Render("FAIL")
		}
		lines = append(lines, prefix+verdict+"  "+SQLStyle.Render(truncateStr(singleLine(rep.Query), m.width-20)))

		if !e.expanded {
			if isSelected {
				lines = append(lines, hintStyle.Render("  [o: show details]"))
			}
			continue
		}

		lines = append(lines, "    "+labelStyle.Render("tables:  ")+joinOrDash(rep.Tables.Sorted()))

		// invalid columns are highlighted within the column list
		var cols []string
		for _, c := range rep.Columns.Sorted() {
			if rep.InvalidColumns.Has(c) {
				cols = append(cols, invalidStyle.Render(c))
			} else {
				cols = append(cols, validStyle.Render(c))
			}
		}
		lines = append(lines, "    "+labelStyle.Render("columns: ")+joinOrDash(cols))

		if rep.InvalidColumns.Len() > 0 {
			lines = append(lines, "    "+labelStyle.Render("invalid: ")+invalidStyle.Render(strings.Join(rep.InvalidColumns.Sorted(), ", ")))
		}
		if rep.UnknownTables.Len() > 0 {
			lines = append(lines, "    "+labelStyle.Render("unknown tables: ")+strings.Join(rep.UnknownTables.Sorted(), ", "))
		}
		if e.verdict != feedback.VerdictNone {
			lines = append(lines, "    "+labelStyle.Render("feedback: ")+string(e.verdict))
		}

		if e.execErr != "" {
			lines = append(lines, "", "    "+ErrorStyle.Render("Error: "+e.execErr))
			for _, tip := range e.tips {
				lines = append(lines, "    "+hintStyle.Render("• "+tip))
			}
		}
		if e.rows != nil {
			lines = append(lines, "")
			lines = append(lines, m.renderRows(e.rows, i == len(m.entries)-1)...)
		}
	}

	m.convScroll.totalLines = len(lines)
	m.convScroll.visibleLines = height

	start := max(0, len(lines)-height-m.convScroll.scrollOffset)
	end := min(len(lines), start+height)
	visible := strings.Join(lines[start:end], "\n")

	if len(lines) > height {
		visible += "\n" + hintStyle.Render(fmt.Sprintf(" ↑↓ scroll • Showing lines %d-%d of %d", start+1, end, len(lines)))
	}

	return lipgloss.NewStyle().Width(m.width - 10).Render(visible)
}

// renderRows renders an execution result as a compact table
func (m *CheckModel) renderRows(rows *database.Rows, isLatest bool) []string {
	statsStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	stats := fmt.Sprintf("    %d rows • %.2fms", len(rows.Values), float64(rows.Duration.Microseconds())/1000)
	if rows.Truncated {
		stats += " • truncated"
	}

	if len(rows.Columns) == 0 || len(rows.Values) == 0 {
		return []string{statsStyle.Render("    No rows returned"), statsStyle.Render(stats)}
	}

	const maxColWidth = 25
	widths := make([]int, len(rows.Columns))
	for i, col := range rows.Columns {
		widths[i] = min(maxColWidth, lipgloss.Width(col))
	}
	for _, row := range rows.Values {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = min(maxColWidth, max(widths[i], lipgloss.Width(cell)))
			}
		}
	}

	cells := func(values []string) string {
		out := make([]string, len(widths))
		for i, w := range widths {
			v := ""
			if i < len(values) {
				v = truncateStr(values[i], w)
			}
			out[i] = padRight(v, w)
		}
		return strings.Join(out, " │ ")
	}

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}

	lines := []string{
		"    " + lipgloss.NewStyle().Bold(true).Foreground(ColorOrange).Render(cells(rows.Columns)),
		"    " + lipgloss.NewStyle().Foreground(ColorGray).Render(strings.Join(sep, "─┼─")),
	}

	maxRows := 5
	if isLatest {
		maxRows = m.visibleRows
	}
	shown := min(len(rows.Values), maxRows)
	rowStyle := lipgloss.NewStyle().Foreground(ColorWhite)
	for _, row := range rows.Values[:shown] {
		lines = append(lines, "    "+rowStyle.Render(cells(row)))
	}
	if len(rows.Values) > shown {
		lines = append(lines, statsStyle.Render(fmt.Sprintf("    ... and %d more rows", len(rows.Values)-shown)))
	}

	return append(lines, statsStyle.Render(stats))
}

func (m *CheckModel) renderVimStatusBar() string {
	mode := m.vimEditor.GetMode().String()

	modeColor := ColorGray
	switch mode {
	case "NORMAL":
		modeColor = ColorBlue
	case "INSERT":
		modeColor = ColorGreen
	case "VISUAL":
		modeColor = ColorOrange
	case "COMMAND":
		modeColor = ColorCyan
	}

	modeSection := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000000")).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(mode)

	info := fmt.Sprintf("%d lines  i:insert  esc:normal  ctrl+s:check", m.vimEditor.GetBuffer().LineCount())
	infoSection := lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorDarkGray).
		Padding(0, 1).
		Render(info)

	padding := max(0, m.width-8-lipgloss.Width(modeSection)-lipgloss.Width(infoSection))
	fill := lipgloss.NewStyle().Background(ColorDarkGray).Render(strings.Repeat(" ", padding))

	return modeSection + fill + infoSection
}

func (m *CheckModel) renderWelcome(height int) string {
	catalog := m.checker.Catalog()

	examples := []string{
		"Write or paste SQL below and press ctrl+s.",
		"Several statements separated by ; are checked one by one.",
		"Columns missing from every referenced table are reported.",
	}
	if m.source != nil {
		examples = append(examples, "Passed queries can be executed with ctrl+e.")
	}

	box := BoxStyle.
		BorderForeground(ColorGray).
		Width(64).
		Render(lipgloss.NewStyle().Foreground(ColorGray).Render(strings.Join(examples, "\n")))

	opts := m.checker.Options()
	optsLine := fmt.Sprintf("fold case: %t • unknown tables: %t • ignore functions: %t",
		opts.FoldCase, opts.FlagUnknownTables, opts.IgnoreFunctionNames)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.NewStyle().Foreground(ColorOrange).Bold(true).Render("Check generated SQL against "+m.label),
		"",
		lipgloss.NewStyle().Foreground(ColorBlue).Render(fmt.Sprintf("Tables: %d • Columns: %d", len(catalog), catalog.ColumnCount())),
		lipgloss.NewStyle().Foreground(ColorGray).Italic(true).Render(optsLine),
		"",
		box,
	)

	return lipgloss.NewStyle().
		Width(m.width - 10).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
