package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/chart"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/tui/theme"
)

func twoSliceDonut() *chart.Donut {
	d := chart.New(chart.DefaultConfig())
	d.Build([]model.AggregatedSlice{
		{Category: "food", Amount: decimal.NewFromInt(60), Percentage: 0.6, Color: "#40916C"},
		{Category: "transport", Amount: decimal.NewFromInt(40), Percentage: 0.4, Color: "#C9A227"},
	})
	return d
}

func TestDonutViewCenterCellIsMask(t *testing.T) {
	v := DonutView{Donut: twoSliceDonut(), Cols: 40, Rows: 20}
	p := v.CellPoint(20, 10)
	if !v.Donut.CenterMask().Contains(p) {
		t.Fatalf("center cell %v should fall inside the mask", p)
	}
	if _, ok := v.Donut.HitTest(p); ok {
		t.Fatal("center cell should not hit a slice")
	}
}

func TestDonutViewClickSelectsAndClears(t *testing.T) {
	v := DonutView{Donut: twoSliceDonut(), Cols: 40, Rows: 20}

	// Just right of center on the ring: food spans 12 o'clock to ~7 o'clock clockwise.
	col := 20 + 16
	i, ok := v.Click(col, 10)
	if !ok || i != 0 {
		t.Fatalf("Click on the right of the ring = (%d, %v), want (0, true)", i, ok)
	}

	if _, ok := v.Click(col, 10); ok {
		t.Fatal("second click on the same slice should clear the selection")
	}

	v.Click(col, 10)
	if _, ok := v.Click(0, 0); ok {
		t.Fatal("click in the corner should clear the selection")
	}
	if _, ok := v.Donut.ActiveIndex(); ok {
		t.Fatal("selection should be cleared")
	}
}

func TestDonutViewRenderSize(t *testing.T) {
	theme.SetActive("dolla-dark")
	v := DonutView{Donut: twoSliceDonut(), Cols: 40, Rows: 20}
	out := v.Render([]string{"$100.00", "total"})

	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("rendered %d rows, want 20", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 40 {
			t.Fatalf("row %d width = %d, want 40", i, w)
		}
	}
	if !strings.Contains(out, "$") || !strings.Contains(out, "food") {
		t.Fatal("center total and slice label should be drawn")
	}
}

func TestTabVisualWidthMatchesBar(t *testing.T) {
	theme.SetActive("dolla-dark")
	sum := 0
	for i, tab := range Tabs {
		sum += TabVisualWidth(tab, i == TabAdd)
	}
	sum += len(Tabs) - 1 // separators

	bar := RenderTabBar(TabAdd, 0)
	if got := lipgloss.Width(bar); got < sum {
		t.Fatalf("tab bar width = %d, want at least %d", got, sum)
	}
	if TabIdxByKey('t') != TabTransactions {
		t.Fatal("t should map to Transactions")
	}
}
