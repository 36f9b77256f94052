package components

import (
	"strings"

	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tab indexes.
const (
	TabDashboard = iota
	TabTransactions
	TabAdd
	TabReceipts
	TabSettings
)

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Dashboard", Key: 'd', KeyPos: 0},
	{Name: "Transactions", Key: 't', KeyPos: 0},
	{Name: "Add", Key: 'a', KeyPos: 0},
	{Name: "Receipts", Key: 'r', KeyPos: 0},
	{Name: "Settings", Key: 's', KeyPos: 0},
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active

	if active {
		return lipgloss.NewStyle().
			Foreground(t.TextPrimary).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Name)
	}

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)

	if tab.KeyPos < 0 || tab.KeyPos >= len(tab.Name) {
		return base.Render(" "+tab.Name) + key.Render("["+string(tab.Key)+"]") + base.Render(" ")
	}
	return base.Render(" "+tab.Name[:tab.KeyPos]) +
		key.Render(string(tab.Name[tab.KeyPos])) +
		base.Render(tab.Name[tab.KeyPos+1:]+" ")
}

// TabVisualWidth is the rendered width of tab. Mouse hit testing uses it
// so click targets match what RenderTabBar draws.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")
	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(width).
		Render(strings.Join(parts, sep))
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
