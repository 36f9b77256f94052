package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const (
	metricRowHeight = 5 // border + label + value + delta + border
	cardChromeRows  = 3 // border top + title + border bottom
	minDonutRows    = 8
	maxDonutRows    = 18
)

// dashboardLayout records where the donut grid sits relative to the top-left
// corner of the content area. Rendering and mouse hit testing share it.
type dashboardLayout struct {
	donutCardW  int
	legendCardW int
	donutCols   int
	donutRows   int
	donutX      int
	donutY      int
}

func (a App) layoutDashboard(cw, contentH int) dashboardLayout {
	l := dashboardLayout{
		donutX: 2, // border + padding
		donutY: metricRowHeight + 2,
	}
	if a.isCompactLayout() {
		l.donutCardW = cw
		l.legendCardW = cw
	} else {
		l.donutCardW = max(cw*2/5, 44)
		l.legendCardW = cw - l.donutCardW
	}
	l.donutCols = components.CardInnerWidth(l.donutCardW)
	l.donutRows = min(max(contentH-metricRowHeight-cardChromeRows, minDonutRows), maxDonutRows)
	return l
}

func (a App) donutView(l dashboardLayout) components.DonutView {
	return components.DonutView{Donut: a.donut, Cols: l.donutCols, Rows: l.donutRows}
}

// clickDonut applies a left click at screen position (x, y) to the donut.
func (a App) clickDonut(x, y int) {
	contentH := max(a.height-2, minContentHeight) // tab bar + status bar
	l := a.layoutDashboard(a.contentWidth(), contentH)
	col := x - a.contentOffsetX() - l.donutX
	row := y - 1 - l.donutY
	a.donutView(l).Click(col, row)
}

func (a App) updateDashboardKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.donut.Next(1)
		return a, nil, true
	case "k", "up":
		a.donut.Next(-1)
		return a, nil, true
	case "esc":
		a.donut.ClearSelection()
		return a, nil, true
	case "enter":
		s, ok := a.donut.Active()
		if !ok {
			return a, nil, true
		}
		a.txState.category = s.Category
		a.txState.cursor = 0
		a.txState.offset = 0
		m, cmd := a.switchTab(components.TabTransactions)
		return m, cmd, true
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
		a.donut.Select(n - 1)
		return a, nil, true
	}
	return a, nil, false
}

func (a App) renderDashboardTab(cw, contentH int) string {
	sym := a.cfg.General.CurrencySymbol
	sum := a.summary
	now := a.now()
	l := a.layoutDashboard(cw, contentH)

	var b strings.Builder

	// Row 1: balance summary
	since := "no expenses yet"
	if !sum.FirstDate.IsZero() {
		since = "since " + cli.FormatDate(sum.FirstDate, now)
	}
	largest, largestAt := "-", "no expenses yet"
	if sum.Largest != nil {
		largest = cli.FormatMoney(sum.Largest.Amount, sym)
		largestAt = truncStr(sum.Largest.Merchant, 24)
	}
	metrics := []components.Metric{
		{Label: "Total Spent", Value: cli.FormatMoney(sum.TotalSpent, sym), Delta: since},
		{Label: "This Month", Value: cli.FormatMoney(sum.MonthSpent, sym), Delta: now.Format("January 2006")},
		{Label: "Transactions", Value: cli.FormatNumber(int64(sum.Records)), Delta: "avg " + cli.FormatMoney(sum.AveragePerItem, sym)},
		{Label: "Largest", Value: largest, Delta: largestAt},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: donut + legend
	donutCard := components.ContentCard("Spending by Category", a.renderDonut(l), l.donutCardW)
	legendCard := components.ContentCard("Categories", a.renderLegend(components.CardInnerWidth(l.legendCardW)), l.legendCardW)
	if a.isCompactLayout() {
		b.WriteString(donutCard)
		b.WriteString("\n")
		b.WriteString(legendCard)
	} else {
		b.WriteString(components.CardRow([]string{donutCard, legendCard}))
	}
	b.WriteString("\n")

	// Row 3: daily spend + recent transactions
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		halves = []int{cw, cw}
	}

	bars, dayTotal := dailyBars(a.daily)
	dailyCard := components.ContentCard(
		fmt.Sprintf("Last %d Days (%s)", chartDays, cli.FormatMoneyShort(dayTotal, sym)),
		components.SpendBars(bars, sym, components.CardInnerWidth(halves[0]), 6),
		halves[0],
	)
	recentCard := components.ContentCard("Recent Transactions", a.renderRecent(components.CardInnerWidth(halves[1])), halves[1])

	if a.isCompactLayout() {
		b.WriteString(recentCard)
		b.WriteString("\n")
		b.WriteString(dailyCard)
	} else {
		b.WriteString(components.CardRow([]string{dailyCard, recentCard}))
	}

	return b.String()
}

func (a App) renderDonut(l dashboardLayout) string {
	t := theme.Active

	if a.donut.Len() == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		msg := muted.Render("No spending yet. Press [a] to add an expense.")
		return lipgloss.Place(l.donutCols, l.donutRows, lipgloss.Center, lipgloss.Center, msg,
			lipgloss.WithWhitespaceBackground(t.Surface))
	}

	value, caption := a.donut.CenterLabel(a.cfg.General.CurrencySymbol)
	return a.donutView(l).Render([]string{value, caption})
}

func (a App) renderLegend(innerW int) string {
	t := theme.Active
	sym := a.cfg.General.CurrencySymbol
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	slices := a.donut.Slices()
	if len(slices) == 0 {
		return muted.Render("Categories appear here once you record spending.")
	}

	amountW := 0
	for _, s := range slices {
		amountW = max(amountW, len(cli.FormatMoney(s.Amount, sym)))
	}
	labelW := min(max(innerW/5, 10), 16)
	// marker(2) + swatch(2) + label + gaps(1+1+2) + pct(4)
	barW := max(innerW-labelW-amountW-12, 4)

	var b strings.Builder
	for i, s := range slices {
		label := s.Category
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, s.Category)
		}
		b.WriteString(components.RenderLegendRow(components.LegendRow{
			Label:  label,
			Amount: fmt.Sprintf("%*s", amountW, cli.FormatMoney(s.Amount, sym)),
			Share:  s.Percentage,
			Color:  s.Color,
			Active: s.Active,
		}, labelW, barW))
		b.WriteString("\n")
	}

	if s, ok := a.donut.Active(); ok {
		count := 0
		for _, agg := range a.slices {
			if agg.Category == s.Category {
				count = agg.Count
			}
		}
		detail := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface).Bold(true)
		b.WriteString("\n")
		b.WriteString(detail.Render(s.Category))
		b.WriteString(muted.Render(fmt.Sprintf("  %d expenses · %s of total · [enter] list",
			count, cli.FormatPercent(s.Percentage))))
	} else {
		b.WriteString("\n")
		b.WriteString(muted.Render("[j/k] or click a slice to highlight it"))
	}

	return b.String()
}

func (a App) renderRecent(innerW int) string {
	t := theme.Active
	sym := a.cfg.General.CurrencySymbol
	now := a.now()

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	money := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface)

	if len(a.recent) == 0 {
		return muted.Render("No transactions yet.")
	}

	dateW := 10
	amountW := 0
	for _, r := range a.recent {
		amountW = max(amountW, len(cli.FormatMoney(r.Amount, sym)))
	}
	merchantW := max(innerW-dateW-amountW-2, 8)

	var b strings.Builder
	for i, r := range a.recent {
		merchant := truncStr(r.Merchant, merchantW-len(r.Category)-3)
		line := fmt.Sprintf("%s%s",
			merchant,
			muted.Render(" · "+r.Category))
		b.WriteString(muted.Render(fmt.Sprintf("%-*s ", dateW, cli.FormatRelativeDay(r.Date, now))))
		b.WriteString(text.Render(line))
		if gap := merchantW - lipgloss.Width(line); gap > 0 {
			b.WriteString(text.Render(strings.Repeat(" ", gap)))
		}
		b.WriteString(money.Render(fmt.Sprintf(" %*s", amountW, cli.FormatMoney(r.Amount, sym))))
		if i < len(a.recent)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// dailyBars turns days (newest first) into chart bars oldest-left. The
// first day and each month start are labelled "Jan 2"; Mondays get the day
// number. Today is highlighted.
func dailyBars(days []model.DailySpend) ([]components.Bar, decimal.Decimal) {
	bars := make([]components.Bar, len(days))
	total := decimal.Zero
	prevMonth := time.Month(0)
	for i := range days {
		d := days[len(days)-1-i]
		total = total.Add(d.Amount)

		var label string
		switch {
		case i == 0 || d.Date.Month() != prevMonth:
			label = d.Date.Format("Jan 2")
		case d.Date.Weekday() == time.Monday:
			label = strconv.Itoa(d.Date.Day())
		}
		prevMonth = d.Date.Month()

		bars[i] = components.Bar{
			Label:     label,
			Value:     d.Amount.InexactFloat64(),
			Highlight: i == len(days)-1,
		}
	}
	return bars, total
}
