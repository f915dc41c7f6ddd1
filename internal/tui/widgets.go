package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ========================================
// Brand Colors - Kartoza standard palette
// ========================================

var (
	ColorOrange   = lipgloss.Color("#DDA036") // Primary/Active
	ColorBlue     = lipgloss.Color("#569FC6") // Secondary/Links
	ColorGray     = lipgloss.Color("#9A9EA0") // Inactive/Subtle
	ColorWhite    = lipgloss.Color("#FFFFFF") // Text
	ColorDarkGray = lipgloss.Color("#3A3A3A") // Background
	ColorRed      = lipgloss.Color("#E95420") // Error/Invalid
	ColorGreen    = lipgloss.Color("#4CAF50") // Success
	ColorCyan     = lipgloss.Color("#00BCD4") // Info/SQL
)

// HeaderWidth is the standard width for the header
const HeaderWidth = 64

// AppState contains the state shown in every header
type AppState struct {
	IsConnected   bool
	ActiveService string
	CatalogLoaded bool
	CatalogLabel  string
	TablesCount   int
	CheckCount    int
	FailedCount   int
	Status        string // e.g. "Ready", "Checking", "Connected"
	BlinkOn       bool
}

// GlobalAppState is updated by the main app model
var GlobalAppState = &AppState{
	Status:  "Ready",
	BlinkOn: true,
}

// RenderHeader renders the standard application header for all pages.
//
//	Kartoza SQL Guard - Page Title
//	Schema Checks for Generated SQL
//	────────────────────────────────────────────────────────────────
//	DB: myservice | Tables: 42 | Checks: 7 | Failed: 2
//	────────────────────────────────────────────────────────────────
func RenderHeader(pageTitle string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	mottoStyle := lipgloss.NewStyle().
		Italic(true).
		Foreground(ColorGray).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	dividerStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	statusStyle := lipgloss.NewStyle().
		Foreground(ColorWhite).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	title := titleStyle.Render(fmt.Sprintf("Kartoza SQL Guard - %s", pageTitle))
	motto := mottoStyle.Render("Schema Checks for Generated SQL")
	divider := dividerStyle.Render(strings.Repeat("─", HeaderWidth))

	source := "No catalog"
	sourceColor := ColorGray
	switch {
	case GlobalAppState.IsConnected:
		source = GlobalAppState.ActiveService
		sourceColor = ColorGreen
	case GlobalAppState.CatalogLoaded:
		source = GlobalAppState.CatalogLabel
		sourceColor = ColorBlue
	}
	sourceStyled := lipgloss.NewStyle().
		Foreground(sourceColor).
		Bold(GlobalAppState.IsConnected).
		Render(truncateStr(source, 24))

	tables := "-"
	if GlobalAppState.CatalogLoaded {
		tables = fmt.Sprintf("%d", GlobalAppState.TablesCount)
	}

	failedColor := ColorGray
	if GlobalAppState.FailedCount > 0 {
		failedColor = ColorRed
	}
	failedStyled := lipgloss.NewStyle().
		Foreground(failedColor).
		Render(fmt.Sprintf("%d", GlobalAppState.FailedCount))

	statusLine := fmt.Sprintf("DB: %s | Tables: %s | Checks: %d | Failed: %s",
		sourceStyled,
		tables,
		GlobalAppState.CheckCount,
		failedStyled,
	)
	status := statusStyle.Render(statusLine)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		motto,
		divider,
		status,
		divider,
	)
}

// RenderHelpFooter renders the standard help footer at the bottom of the screen
func RenderHelpFooter(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	footerStyle := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center)

	return footerStyle.Render(helpStyle.Render(helpText))
}

// LayoutWithHeaderFooter creates a standard layout with header at top and footer at bottom
func LayoutWithHeaderFooter(header, content, footer string, width, height int) string {
	centeredHeader := lipgloss.PlaceHorizontal(width, lipgloss.Center, header)
	centeredContent := lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
	centeredFooter := lipgloss.PlaceHorizontal(width, lipgloss.Center, footer)

	headerHeight := lipgloss.Height(centeredHeader)
	footerHeight := lipgloss.Height(centeredFooter)
	contentAreaHeight := height - headerHeight - footerHeight - 2 // 2 for spacing
	if contentAreaHeight < 1 {
		contentAreaHeight = 1
	}

	// Content is top-aligned within its area
	contentArea := lipgloss.Place(
		width,
		contentAreaHeight,
		lipgloss.Center,
		lipgloss.Top,
		centeredContent,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		centeredHeader,
		"",
		contentArea,
		centeredFooter,
	)
}

// ========================================
// Box-drawn tables
// ========================================

// boxTable draws fixed-width tables in the brand border color. The first
// column is a 3-cell marker column (selector + status icon).
type boxTable struct {
	widths []int
	rows   []string
	border lipgloss.Style
	header lipgloss.Style
}

func newBoxTable(titles []string, widths []int) *boxTable {
	t := &boxTable{
		widths: append([]int{3}, widths...),
		border: lipgloss.NewStyle().Foreground(ColorOrange),
		header: lipgloss.NewStyle().Foreground(ColorOrange).Bold(true),
	}

	t.rows = append(t.rows, t.rule("┌", "┬", "┐"))
	cells := []string{t.header.Render("   ")}
	for i, title := range titles {
		cells = append(cells, t.header.Render(padRight(" "+title, widths[i])))
	}
	t.rows = append(t.rows, t.join(cells))
	t.rows = append(t.rows, t.rule("├", "┼", "┤"))
	return t
}

func (t *boxTable) rule(left, mid, right string) string {
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		parts[i] = strings.Repeat("─", w)
	}
	return t.border.Render(left + strings.Join(parts, mid) + right)
}

func (t *boxTable) join(cells []string) string {
	bar := t.border.Render("│")
	return bar + strings.Join(cells, bar) + bar
}

// addRow appends a row; marker is the pre-rendered 3-cell first column and
// styles apply to the remaining cells in order.
func (t *boxTable) addRow(marker string, values []string, styles []lipgloss.Style) {
	cells := []string{marker}
	for i, v := range values {
		w := t.widths[i+1]
		cells = append(cells, styles[i].Render(padRight(" "+truncateStr(v, w-2), w)))
	}
	t.rows = append(t.rows, t.join(cells))
}

// addNote appends an unboxed line, e.g. "... and 3 more"
func (t *boxTable) addNote(note string) {
	t.rows = append(t.rows, note)
}

func (t *boxTable) render() string {
	rows := append(append([]string{}, t.rows...), t.rule("└", "┴", "┘"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// rowMarker renders the selector and status icon cell
func rowMarker(selected bool, icon string, iconColor lipgloss.Color) string {
	selector := " "
	if selected {
		selector = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true).Render("▶")
	}
	return selector + lipgloss.NewStyle().Foreground(iconColor).Render(icon) + " "
}

// ========================================
// Common Styles
// ========================================

// BoxStyle is used for content areas
var BoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorOrange).
	Padding(1, 2)

// ErrorStyle is used for error messages
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// SuccessStyle is used for success messages
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Bold(true)

// SQLStyle is used for SQL text
var SQLStyle = lipgloss.NewStyle().
	Foreground(ColorCyan)

// PromptStyle is used for input prompts
var PromptStyle = lipgloss.NewStyle().
	Foreground(ColorOrange).
	Bold(true)

func padRight(s string, length int) string {
	w := lipgloss.Width(s)
	if w >= length {
		return truncateRunes(s, length)
	}
	return s + strings.Repeat(" ", length-w)
}

func truncateStr(s string, maxLen int) string {
	if lipgloss.Width(s) > maxLen && maxLen > 2 {
		return truncateRunes(s, maxLen-2) + ".."
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// singleLine collapses a query onto one line for list views
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
