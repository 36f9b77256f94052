package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one column of a SpendBars chart.
type Bar struct {
	Label     string // x-axis label; empty labels are skipped
	Value     float64
	Highlight bool
}

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SpendBars draws bars oldest-left with a money y axis prefixed by sym.
// When there are more bars than columns, neighbours are summed into
// buckets so the chart still shows total spend per column.
func SpendBars(bars []Bar, sym string, width, height int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active
	height = max(height, 3)

	peak := 0.0
	for _, b := range bars {
		peak = max(peak, b.Value)
	}
	step := niceStep(peak, max(height/2, 2))
	ceiling := step * math.Max(1, math.Ceil(peak/step))
	ticks := int(math.Round(ceiling / step))

	axisW := max(len(moneyTick(ceiling, sym)), 3)
	plotW := max(width-axisW-1, 4)

	const barW, gap = 2, 1
	if fit := (plotW + gap) / (barW + gap); len(bars) > fit {
		bars = bucketBars(bars, max(fit, 1))
	}

	bg := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	normal := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var out strings.Builder
	for row := height; row >= 1; row-- {
		top := ceiling * float64(row) / float64(height)
		bottom := ceiling * float64(row-1) / float64(height)

		label := ""
		// Label the row where each tick boundary lands.
		for i := 1; i <= ticks; i++ {
			if int(math.Round(float64(i)*float64(height)/float64(ticks))) == row {
				label = moneyTick(step*float64(i), sym)
			}
		}
		out.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))

		for i, b := range bars {
			if i > 0 {
				out.WriteString(bg.Render(strings.Repeat(" ", gap)))
			}
			style := normal
			if b.Highlight {
				style = accent
			}
			cell := " "
			switch {
			case b.Value >= top:
				cell = "█"
			case b.Value > bottom:
				idx := int((b.Value - bottom) / (top - bottom) * 8)
				cell = string(eighths[min(max(idx, 1), 8)])
			}
			out.WriteString(style.Render(strings.Repeat(cell, barW)))
		}
		out.WriteString("\n")
	}

	span := len(bars)*barW + (len(bars)-1)*gap
	out.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, sym+"0", strings.Repeat("─", span))))

	labels := []rune(strings.Repeat(" ", span))
	next := 0
	for i, b := range bars {
		pos := i * (barW + gap)
		lbl := []rune(b.Label)
		if len(lbl) == 0 || pos < next || pos+len(lbl) > span {
			continue
		}
		copy(labels[pos:], lbl)
		next = pos + len(lbl) + 1
	}
	if trimmed := strings.TrimRight(string(labels), " "); trimmed != "" {
		out.WriteString("\n")
		out.WriteString(bg.Render(strings.Repeat(" ", axisW+1)))
		out.WriteString(axis.Render(trimmed))
	}
	return out.String()
}

// bucketBars sums consecutive bars into n buckets. A bucket keeps the
// label of its first bar and is highlighted if any member was.
func bucketBars(bars []Bar, n int) []Bar {
	out := make([]Bar, n)
	for i, b := range bars {
		k := i * n / len(bars)
		if out[k].Label == "" {
			out[k].Label = b.Label
		}
		out[k].Value += b.Value
		out[k].Highlight = out[k].Highlight || b.Highlight
	}
	return out
}

// niceStep picks a 1/2/5×10^k tick step giving at most maxTicks ticks.
func niceStep(peak float64, maxTicks int) float64 {
	if peak <= 0 {
		return 1
	}
	base := math.Pow(10, math.Floor(math.Log10(peak/float64(maxTicks))))
	for _, m := range []float64{1, 2, 5, 10, 20} {
		if step := m * base; math.Ceil(peak/step) <= float64(maxTicks) {
			return step
		}
	}
	return 50 * base
}

func moneyTick(v float64, sym string) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%s%gM", sym, math.Round(v/1e5)/10)
	case v >= 1e3:
		return fmt.Sprintf("%s%gk", sym, math.Round(v/1e2)/10)
	case v >= 1 || v == 0:
		return fmt.Sprintf("%s%.0f", sym, v)
	}
	return fmt.Sprintf("%s%.2f", sym, v)
}
