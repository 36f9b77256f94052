package components

import (
	"math"
	"strings"

	"github.com/theirongolddev/dolla/internal/chart"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Slices narrower than this share get no on-ring label.
const minLabelShare = 0.06

// DonutView rasterizes a donut onto a grid of terminal cells. Cells are
// treated as twice as tall as they are wide.
type DonutView struct {
	Donut *chart.Donut
	Cols  int
	Rows  int
}

// cellSize returns the width of one cell in chart units. The expanded
// radius always fits the grid.
func (v DonutView) cellSize() float64 {
	cfg := v.Donut.Config()
	span := 2 * cfg.BaseRadius * cfg.ExpandFactor * 1.04
	cols := math.Max(float64(v.Cols), 1)
	rows := math.Max(float64(v.Rows), 1)
	return math.Max(span/cols, span/(2*rows))
}

// CellPoint maps the center of cell (col, row) to chart coordinates.
func (v DonutView) CellPoint(col, row int) chart.Point {
	c := v.Donut.Config().Center
	w := v.cellSize()
	return chart.Point{
		X: c.X + (float64(col)+0.5-float64(v.Cols)/2)*w,
		Y: c.Y + (float64(row)+0.5-float64(v.Rows)/2)*2*w,
	}
}

// pointCell is the inverse of CellPoint, rounded to the nearest cell.
func (v DonutView) pointCell(p chart.Point) (col, row int) {
	c := v.Donut.Config().Center
	w := v.cellSize()
	col = int(math.Floor((p.X-c.X)/w + float64(v.Cols)/2))
	row = int(math.Floor((p.Y-c.Y)/(2*w) + float64(v.Rows)/2))
	return col, row
}

// Click applies a mouse click at (col, row) relative to the grid's top-left
// corner. A click outside every slice clears the selection.
func (v DonutView) Click(col, row int) (int, bool) {
	if col < 0 || row < 0 || col >= v.Cols || row >= v.Rows {
		v.Donut.ClearSelection()
		return -1, false
	}
	return v.Donut.SelectAt(v.CellPoint(col, row))
}

type cell struct {
	ch    rune
	style lipgloss.Style
}

// Render draws the ring, the slice labels, and the center lines (total and
// caption) inside the mask.
func (v DonutView) Render(center []string) string {
	t := theme.Active
	if v.Cols <= 0 || v.Rows <= 0 {
		return ""
	}

	blank := lipgloss.NewStyle().Background(t.Surface)
	grid := make([][]cell, v.Rows)
	slices := v.Donut.Slices()
	for row := range grid {
		grid[row] = make([]cell, v.Cols)
		for col := range grid[row] {
			grid[row][col] = cell{ch: ' ', style: blank}
			i, ok := v.Donut.HitTest(v.CellPoint(col, row))
			if !ok {
				continue
			}
			st := lipgloss.NewStyle().Foreground(lipgloss.Color(slices[i].Color)).Background(t.Surface)
			ch := '█'
			if !slices[i].Active {
				if _, selected := v.Donut.ActiveIndex(); selected {
					ch = '▓'
				}
			}
			grid[row][col] = cell{ch: ch, style: st}
		}
	}

	for i, s := range slices {
		if s.Percentage < minLabelShare && !s.Active {
			continue
		}
		label, ok := v.Donut.Label(i)
		if !ok {
			continue
		}
		st := lipgloss.NewStyle().
			Foreground(t.Background).
			Background(lipgloss.Color(s.Color)).
			Bold(s.Active)
		for j, p := range label.LinePositions(v.Donut.Config().LineHeight) {
			v.overlay(grid, p, label.Lines[j], st)
		}
	}

	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	top := v.Rows/2 - len(center)/2
	for j, line := range center {
		st := textStyle
		if j > 0 {
			st = mutedStyle
		}
		v.overlayRow(grid, top+j, v.Cols/2, line, st)
	}

	var b strings.Builder
	for row, cells := range grid {
		for _, c := range cells {
			b.WriteString(c.style.Render(string(c.ch)))
		}
		if row < len(grid)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (v DonutView) overlay(grid [][]cell, p chart.Point, text string, st lipgloss.Style) {
	col, row := v.pointCell(p)
	v.overlayRow(grid, row, col, text, st)
}

// overlayRow writes text centered on column mid. Text that would run off
// the grid is clipped.
func (v DonutView) overlayRow(grid [][]cell, row, mid int, text string, st lipgloss.Style) {
	if row < 0 || row >= len(grid) {
		return
	}
	runes := []rune(text)
	start := mid - len(runes)/2
	for k, r := range runes {
		col := start + k
		if col < 0 || col >= len(grid[row]) {
			continue
		}
		grid[row][col] = cell{ch: r, style: st}
	}
}
