package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// transactionsState tracks the transactions list.
type transactionsState struct {
	cursor      int
	offset      int // scroll offset for the list
	searching   bool
	searchInput textinput.Model
	searchQuery string
	category    string // "" = all categories
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "merchant, note or category"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "/ "
	return ti
}

// visibleTransactions returns every record newest first, narrowed by the
// category filter and the search query.
func (a App) visibleTransactions() []model.ExpenseRecord {
	out := pipeline.Recent(a.records, -1)
	if a.txState.category != "" {
		out = pipeline.FilterByCategory(out, a.txState.category)
	}
	if a.txState.searchQuery != "" {
		out = pipeline.Search(out, a.txState.searchQuery)
	}
	return out
}

// txVisibleRows is the number of list rows that fit: card chrome, the
// column header, and the search line when open.
func (a App) txVisibleRows(contentH int) int {
	visible := max(contentH-cardChromeRows-2, 5)
	if a.txState.searching {
		visible--
	}
	if a.isCompactLayout() {
		visible = max(visible/2, 4)
	}
	return visible
}

// scrollOffset keeps cursor inside a window of visible rows starting at offset.
func scrollOffset(cursor, offset, visible int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visible {
		return cursor - visible + 1
	}
	return offset
}

func (a App) updateTransactionsKey(key string) (tea.Model, tea.Cmd, bool) {
	m, cmd, handled := a.handleTransactionsKey(key)
	if app, ok := m.(App); ok {
		visible := app.txVisibleRows(max(app.height-2, minContentHeight))
		app.txState.offset = scrollOffset(app.txState.cursor, app.txState.offset, visible)
		m = app
	}
	return m, cmd, handled
}

func (a App) handleTransactionsKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.visibleTransactions())

	switch key {
	case "/":
		a.txState.searching = true
		a.txState.searchInput = newSearchInput()
		a.txState.searchInput.SetValue(a.txState.searchQuery)
		return a, a.txState.searchInput.Focus(), true
	case "j", "down":
		if a.txState.cursor < n-1 {
			a.txState.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.txState.cursor > 0 {
			a.txState.cursor--
		}
		return a, nil, true
	case "g", "home":
		a.txState.cursor = 0
		a.txState.offset = 0
		return a, nil, true
	case "G", "end":
		a.txState.cursor = max(n-1, 0)
		return a, nil, true
	case "f":
		a.txState.category = nextCategoryFilter(a.slices, a.txState.category)
		a.txState.cursor = 0
		a.txState.offset = 0
		return a, nil, true
	case "esc":
		if a.txState.category == "" && a.txState.searchQuery == "" {
			return a, nil, false
		}
		a.txState.category = ""
		a.txState.searchQuery = ""
		a.txState.cursor = 0
		a.txState.offset = 0
		return a, nil, true
	}
	return a, nil, false
}

// nextCategoryFilter cycles all → each category with spending → all.
func nextCategoryFilter(slices []model.AggregatedSlice, current string) string {
	if len(slices) == 0 {
		return ""
	}
	if current == "" {
		return slices[0].Category
	}
	for i, s := range slices {
		if s.Category == current {
			if i+1 < len(slices) {
				return slices[i+1].Category
			}
			return ""
		}
	}
	return ""
}

func (a App) updateTransactionsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.txState.searching = false
		a.txState.searchQuery = strings.TrimSpace(a.txState.searchInput.Value())
		a.txState.cursor = 0
		a.txState.offset = 0
		return a, nil
	case "esc":
		a.txState.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.txState.searchInput, cmd = a.txState.searchInput.Update(msg)
	// Filter live as the user types.
	a.txState.searchQuery = strings.TrimSpace(a.txState.searchInput.Value())
	a.txState.cursor = 0
	a.txState.offset = 0
	return a, cmd
}

func (a App) renderTransactionsTab(cw, contentH int) string {
	t := theme.Active
	sym := a.cfg.General.CurrencySymbol
	now := a.now()

	rows := a.visibleTransactions()

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	moneyStyle := lipgloss.NewStyle().Foreground(t.Secondary).Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	// Title reflects the active filters.
	title := fmt.Sprintf("Transactions [%d]", len(rows))
	if a.txState.category != "" {
		title += " · " + a.txState.category
	}
	if a.txState.searchQuery != "" {
		title += fmt.Sprintf(" · %q", a.txState.searchQuery)
	}

	var listW, detailW int
	if a.isCompactLayout() {
		listW, detailW = cw, cw
	} else {
		listW = cw * 3 / 5
		detailW = cw - listW
	}
	innerW := components.CardInnerWidth(listW)

	visible := a.txVisibleRows(contentH)
	cursor := min(a.txState.cursor, max(len(rows)-1, 0))
	offset := scrollOffset(cursor, a.txState.offset, visible)

	dateW := 10
	amountW := 10
	catW := min(14, max(innerW/6, 8))
	merchantW := max(innerW-dateW-amountW-catW-3, 8)

	var list strings.Builder
	if a.txState.searching {
		list.WriteString(a.txState.searchInput.View())
		list.WriteString("\n")
	}
	list.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %*s",
		dateW, "Date", merchantW, "Merchant", catW, "Category", amountW, "Amount")))
	list.WriteString("\n")

	if len(rows) == 0 {
		list.WriteString(mutedStyle.Render("No matching transactions."))
	}

	end := min(offset+visible, len(rows))
	for i := offset; i < end; i++ {
		r := rows[i]
		line := fmt.Sprintf("%-*s %-*s %-*s",
			dateW, truncStr(cli.FormatRelativeDay(r.Date, now), dateW),
			merchantW, truncStr(r.Merchant, merchantW),
			catW, truncStr(r.Category, catW))

		if i == cursor {
			line += " " + fmt.Sprintf("%*s", amountW, cli.FormatMoney(r.Amount, sym))
			list.WriteString(selectedStyle.Render(line))
			if pad := innerW - lipgloss.Width(line); pad > 0 {
				list.WriteString(selectedStyle.Render(strings.Repeat(" ", pad)))
			}
		} else {
			list.WriteString(rowStyle.Render(line + " "))
			list.WriteString(moneyStyle.Render(fmt.Sprintf("%*s", amountW, cli.FormatMoney(r.Amount, sym))))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	if len(rows) > visible {
		list.WriteString("\n")
		list.WriteString(mutedStyle.Render(fmt.Sprintf("%d-%d of %d", offset+1, end, len(rows))))
	}

	listCard := components.ContentCard(title, list.String(), listW)

	// Detail pane for the selected record.
	var detail strings.Builder
	if len(rows) > 0 {
		r := rows[cursor]
		field := func(label, value string) {
			detail.WriteString(labelStyle.Render(fmt.Sprintf("%-10s ", label)))
			detail.WriteString(valueStyle.Render(value))
			detail.WriteString("\n")
		}
		detail.WriteString(moneyStyle.Bold(true).Render(cli.FormatMoney(r.Amount, sym)))
		detail.WriteString("\n\n")
		field("Merchant", r.Merchant)
		field("Category", r.Category)
		field("Date", r.Date.Format("Mon Jan 2 2006"))
		field("Payment", string(r.PaymentMethod))
		field("Source", string(r.Type))
		if r.Note != "" {
			field("Note", r.Note)
		}

		total := pipeline.Total(rows)
		if !total.IsZero() {
			share, _ := r.Amount.Div(total).Float64()
			detail.WriteString("\n")
			detail.WriteString(labelStyle.Render("Share of listed spending"))
			detail.WriteString("\n")
			detail.WriteString(components.ProgressBar(share, max(components.CardInnerWidth(detailW)-6, 8)))
		}
	} else {
		detail.WriteString(mutedStyle.Render("Nothing selected."))
	}
	detail.WriteString("\n\n")
	detail.WriteString(mutedStyle.Render("[/] search  [f] category  [esc] clear"))

	detailCard := components.ContentCard("Details", detail.String(), detailW)

	if a.isCompactLayout() {
		return listCard + "\n" + detailCard
	}
	return components.CardRow([]string{listCard, detailCard})
}
