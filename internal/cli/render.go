package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme colors (Dolla dark)
var (
	ColorBorder    = lipgloss.Color("#1B4332")
	ColorTextDim   = lipgloss.Color("#52796F")
	ColorTextMuted = lipgloss.Color("#84A98C")
	ColorText      = lipgloss.Color("#ECEDEE")
	ColorAccent    = lipgloss.Color("#2D6A4F")
	ColorGreen     = lipgloss.Color("#40916C")
	ColorGold      = lipgloss.Color("#C9A227")
	ColorRed       = lipgloss.Color("#FF6B6B")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	moneyStyle = lipgloss.NewStyle().
			Foreground(ColorGold)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	footerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGold)
)

// Table is a bordered text table for CLI output. Footer, when set, is
// rendered as a highlighted last row for totals.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderMoney styles a formatted amount.
func RenderMoney(s string) string {
	return moneyStyle.Render(s)
}

// RenderMuted styles secondary text.
func RenderMuted(s string) string {
	return mutedStyle.Render(s)
}

// RenderError styles an error line.
func RenderError(s string) string {
	return errorStyle.Render(s)
}

// RenderSwatch prefixes label with a colored block.
func RenderSwatch(label, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■") + " " + label
}

// RenderTable renders t with rounded borders. The first column is
// left-aligned and the rest are right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	rows := slices.Clip(t.Rows)
	footerRow := -2
	if len(t.Footer) > 0 {
		footerRow = len(rows)
		rows = append(rows, t.Footer)
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch row {
			case table.HeaderRow:
				s = headerStyle
			case footerRow:
				s = footerStyle
			default:
				s = valueStyle
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s.Padding(0, 1)
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderShareBar renders a 0-1 share as a fixed-width bar with its percentage.
func RenderShareBar(share float64, width int) string {
	if width <= 0 {
		return ""
	}
	share = min(max(share, 0), 1)
	filled := int(share * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", mutedStyle.Render(bar), FormatPercent(share))
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		b.WriteRune(blocks[idx])
	}

	return b.String()
}
