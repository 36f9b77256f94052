package components

import (
	"fmt"

	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// LegendRow is one line of the category legend.
type LegendRow struct {
	Label  string
	Amount string
	Share  float64 // 0..1
	Color  string
	Active bool
}

// RenderLegendRow draws a swatch, the label, a share bar in the slice color,
// the percentage, and the amount. The active row is highlighted.
func RenderLegendRow(r LegendRow, labelW, barW int) string {
	t := theme.Active

	bg := t.Surface
	marker := "  "
	if r.Active {
		bg = t.SurfaceHover
		marker = "▸ "
	}

	share := min(max(r.Share, 0), 1)
	bar := progress.New(
		progress.WithSolidFill(r.Color),
		progress.WithWidth(max(barW, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.Border)

	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Color)).Background(bg).Render("■ ")
	markerStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(bg).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg).Bold(r.Active)
	pctStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(bg)
	amountStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(bg)
	space := lipgloss.NewStyle().Background(bg)

	label := r.Label
	if len([]rune(label)) > labelW {
		label = string([]rune(label)[:max(labelW-1, 0)]) + "…"
	}

	return markerStyle.Render(marker) +
		swatch +
		labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		space.Render(" ") +
		bar.ViewAs(share) +
		space.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%4.0f%%", share*100)) +
		space.Render("  ") +
		amountStyle.Render(r.Amount)
}

// ProgressBar renders a plain share bar with percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = min(max(pct, 0), 1)

	bar := progress.New(
		progress.WithSolidFill(string(t.Secondary)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.Border)

	pctStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)
	return bar.ViewAs(pct) + pctStyle.Render(fmt.Sprintf(" %.0f%%", pct*100))
}
