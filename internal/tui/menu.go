package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MenuItem represents a menu option
type MenuItem int

const (
	MenuCheck MenuItem = iota
	MenuDatabases
	MenuHistory
	MenuSettings
	MenuQuit
)

type menuItem struct {
	label  string
	action MenuItem
	icon   string
}

// MenuModel represents the main menu screen
type MenuModel struct {
	selectedItem int
	menuItems    []menuItem
	width        int
	height       int
}

// menuActionMsg is sent when a menu item is selected
type menuActionMsg struct {
	action MenuItem
}

// NewMenuModel creates a new menu model
func NewMenuModel() *MenuModel {
	return &MenuModel{
		menuItems: []menuItem{
			{label: "Check Queries", action: MenuCheck, icon: "󰄬"},
			{label: "Database Connections", action: MenuDatabases, icon: "󰒋"},
			{label: "Check History", action: MenuHistory, icon: "󰋚"},
			{label: "Settings", action: MenuSettings, icon: "󰒓"},
			{label: "Quit", action: MenuQuit, icon: "󰗼"},
		},
	}
}

// Init initializes the menu
func (m *MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu
func (m *MenuModel) Update(msg tea.Msg) (*MenuModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c", "q"))):
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			m.selectedItem--
			if m.selectedItem < 0 {
				m.selectedItem = len(m.menuItems) - 1
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			m.selectedItem++
			if m.selectedItem >= len(m.menuItems) {
				m.selectedItem = 0
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter", " "))):
			return m, m.handleSelection(m.SelectedAction())
		}
	}

	return m, nil
}

func (m *MenuModel) handleSelection(action MenuItem) tea.Cmd {
	if action == MenuQuit {
		return tea.Quit
	}
	return func() tea.Msg {
		return menuActionMsg{action: action}
	}
}

// SelectedAction returns the currently selected action
func (m *MenuModel) SelectedAction() MenuItem {
	if m.selectedItem >= 0 && m.selectedItem < len(m.menuItems) {
		return m.menuItems[m.selectedItem].action
	}
	return MenuCheck
}

// View renders the menu
func (m *MenuModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := RenderHeader("Main Menu")
	menu := m.renderMenuItems()
	helpText := "↑/k: up • ↓/j: down • enter/space: select • q: quit"
	footer := RenderHelpFooter(helpText, m.width)

	return LayoutWithHeaderFooter(header, menu, footer, m.width, m.height)
}

func (m *MenuModel) renderMenuItems() string {
	normalStyle := lipgloss.NewStyle().
		Foreground(ColorBlue).
		Padding(0, 2)

	selectedStyle := lipgloss.NewStyle().
		Foreground(ColorOrange).
		Bold(true).
		Padding(0, 2)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Align(lipgloss.Center)

	items := []string{
		subtitleStyle.Render("Select an option from the menu below"),
		"",
	}

	for i, item := range m.menuItems {
		prefix := "  "
		style := normalStyle
		if i == m.selectedItem {
			prefix = "▶ "
			style = selectedStyle
		}
		items = append(items, style.Render(prefix+item.icon+" "+item.label))
	}

	if !GlobalAppState.CatalogLoaded {
		items = append(items, "",
			subtitleStyle.Render("No catalog loaded: connect to a database or set catalog_path"))
	}

	return lipgloss.JoinVertical(lipgloss.Center, items...)
}
