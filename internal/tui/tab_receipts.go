package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/tui/components"
	"github.com/theirongolddev/dolla/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (a App) updateReceiptsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "enter", "s":
		_, err := a.form.ScanReceipt(context.Background())
		if err != nil {
			a.log.Debug("receipt scan requested", "error", err)
			return a, a.setStatus("Receipt scanning is not available yet. Use [a] to add manually.", components.StatusError), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (a App) renderReceiptsTab(cw int) string {
	t := theme.Active
	sym := a.cfg.General.CurrencySymbol
	now := a.now()

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var scanned []model.ExpenseRecord
	for _, r := range a.records {
		if r.Type == model.RecordTypeScanned {
			scanned = append(scanned, r)
		}
	}

	var b strings.Builder
	b.WriteString(accentStyle.Render("Scan a receipt"))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Photograph a receipt to fill in the amount, merchant and date."))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Scanning needs a camera and is not available in the terminal."))
	b.WriteString("\n\n")
	b.WriteString(valueStyle.Render("[enter] scan    [a] add manually"))

	var list strings.Builder
	if len(scanned) == 0 {
		list.WriteString(mutedStyle.Render("No scanned receipts."))
	}
	for i, r := range scanned {
		list.WriteString(valueStyle.Render(fmt.Sprintf("%-10s %-24s %s",
			cli.FormatRelativeDay(r.Date, now), truncStr(r.Merchant, 24), cli.FormatMoney(r.Amount, sym))))
		if i < len(scanned)-1 {
			list.WriteString("\n")
		}
	}

	return components.ContentCard("Receipts", b.String(), cw) + "\n" +
		components.ContentCard(fmt.Sprintf("Scanned [%d]", len(scanned)), list.String(), cw)
}
