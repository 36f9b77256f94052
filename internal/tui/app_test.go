package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/category"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/entry"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/store"
	"github.com/theirongolddev/dolla/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

var testNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadedApp returns an App that has received its data, backed by mem.
func loadedApp(t *testing.T, mem *store.Memory, records []model.ExpenseRecord) App {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DefaultConfig()

	a := NewApp(Options{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Logger:     log,
		Now:        func() time.Time { return testNow },
	})

	var m tea.Model = a
	m, _ = m.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	m, _ = m.Update(dataLoadedMsg{
		store:    mem,
		ledger:   ledger.New(mem, ledger.WithLogger(log)),
		registry: category.New(cfg.Categories, category.WithLogger(log)),
		records:  records,
	})
	return m.(App)
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", next)
	}
	return app, cmd
}

// fillAndSubmit opens the Add tab, types an expense and runs the submit
// command synchronously.
func fillAndSubmit(t *testing.T, a App) App {
	t.Helper()
	a, _ = update(t, a, key("a"))
	if a.activeTab != components.TabAdd {
		t.Fatalf("activeTab = %d, want Add", a.activeTab)
	}
	a, _ = update(t, a, key("12.50"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a, _ = update(t, a, key("Blue Bottle"))

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("ctrl+s should return the submit command")
	}
	if !a.add.submitting {
		t.Fatal("form should be marked submitting")
	}
	msg, ok := cmd().(submittedMsg)
	if !ok {
		t.Fatal("submit command should produce submittedMsg")
	}
	if msg.err != nil {
		t.Fatalf("submit: %v", msg.err)
	}
	a, _ = update(t, a, msg)
	return a
}

func TestSubmitShowsConfirmationThenNavigates(t *testing.T) {
	mem := store.NewMemory()
	a := loadedApp(t, mem, nil)
	a = fillAndSubmit(t, a)

	if a.add.confirmed == "" {
		t.Fatal("confirmation should be shown after submit")
	}
	if a.activeTab != components.TabAdd {
		t.Fatal("navigation must wait for the confirmation delay")
	}
	if got := a.form.Confirmation().Phase(); got != entry.PhaseConfirmationShown {
		t.Fatalf("phase = %v, want confirmation-shown", got)
	}
	if mem.Writes() != 1 {
		t.Fatalf("store writes = %d, want 1", mem.Writes())
	}

	rec := a.form.Confirmation().Record()
	payload, err := ledger.EncodePayload(rec)
	if err != nil {
		t.Fatal(err)
	}

	// First Show on a fresh form issues token 1.
	a, cmd := update(t, a, NavigateMsg{Token: 1, Payload: payload})
	if a.activeTab != components.TabDashboard {
		t.Fatalf("activeTab = %d, want Dashboard after navigation", a.activeTab)
	}
	if cmd == nil {
		t.Fatal("navigation should merge the payload")
	}
	a, _ = update(t, a, cmd())

	if len(a.records) != 1 || a.records[0].Merchant != "Blue Bottle" {
		t.Fatalf("records = %+v, want the submitted expense", a.records)
	}
	if !a.records[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("amount = %s, want 12.5", a.records[0].Amount)
	}
	if a.donut.Len() != 1 {
		t.Fatalf("donut slices = %d, want 1", a.donut.Len())
	}
	if a.form.Amount != "" || a.add.inputs[addFieldAmount].Value() != "" {
		t.Fatal("form should be reset for the next entry")
	}
}

func TestLeavingAddCancelsNavigation(t *testing.T) {
	mem := store.NewMemory()
	a := loadedApp(t, mem, nil)
	a = fillAndSubmit(t, a)

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.activeTab != components.TabDashboard {
		t.Fatalf("esc should leave Add, activeTab = %d", a.activeTab)
	}
	if cmd == nil {
		t.Fatal("leaving with a saved record should reload the ledger")
	}

	a, _ = update(t, a, key("t"))
	a, cmd = update(t, a, NavigateMsg{Token: 1})
	if cmd != nil {
		t.Fatal("cancelled navigation should not merge")
	}
	if a.activeTab != components.TabTransactions {
		t.Fatalf("stale navigation moved to tab %d", a.activeTab)
	}

	recs, err := ledger.New(mem).Read(context.Background())
	if err != nil || len(recs) != 1 {
		t.Fatalf("ledger = %d records, %v; the record must survive cancellation", len(recs), err)
	}
}

func TestLeavingAddWhileSavingNeverNavigates(t *testing.T) {
	mem := store.NewMemory()
	a := loadedApp(t, mem, nil)
	a, _ = update(t, a, key("a"))
	a, _ = update(t, a, key("9"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a, _ = update(t, a, key("Deli"))
	a, write := update(t, a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if write == nil || !a.add.submitting {
		t.Fatal("ctrl+s should start the write")
	}
	if got := a.form.Confirmation().Phase(); got != entry.PhaseSubmitted {
		t.Fatalf("phase = %v before the write returns, want submitted", got)
	}

	// esc lands while the write is still running.
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.activeTab != components.TabDashboard {
		t.Fatalf("esc should leave Add, activeTab = %d", a.activeTab)
	}
	if a.add.inputs[addFieldMerchant].Value() != "" {
		t.Fatal("leaving a submitted form should clear it")
	}
	a, _ = update(t, a, key("t"))

	a, cmd := update(t, a, write())
	if cmd == nil {
		t.Fatal("a late write result should reload the ledger")
	}
	if a.add.confirmed != "" {
		t.Fatal("no confirmation after the user left")
	}
	a, cmd = update(t, a, NavigateMsg{Token: 1})
	if cmd != nil || a.activeTab != components.TabTransactions {
		t.Fatalf("navigation fired after cancel, activeTab = %d", a.activeTab)
	}
	if got := a.form.Confirmation().Phase(); got != entry.PhaseEditing {
		t.Fatalf("phase = %v, want editing", got)
	}
	if mem.Writes() != 1 {
		t.Fatalf("store writes = %d, want 1", mem.Writes())
	}
}

func TestSubmitOverUnreadableLedgerKeepsInputs(t *testing.T) {
	mem := store.NewMemory()
	a := loadedApp(t, mem, nil)
	mem.ReadErr = errors.New("disk busy")

	a, _ = update(t, a, key("a"))
	a, _ = update(t, a, key("4"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	a, _ = update(t, a, key("Bus"))
	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyCtrlS})
	a, _ = update(t, a, cmd())

	if a.add.confirmed != "" || a.add.submitting {
		t.Fatal("an unsaved record must not be confirmed")
	}
	if a.add.inputs[addFieldMerchant].Value() != "Bus" {
		t.Fatal("inputs should survive for a retry")
	}
	if mem.Writes() != 0 {
		t.Fatalf("store writes = %d, want 0", mem.Writes())
	}

	mem.ReadErr = nil
	a, cmd = update(t, a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("retry should start a new write")
	}
	a, _ = update(t, a, cmd())
	if a.add.confirmed == "" || mem.Writes() != 1 {
		t.Fatalf("retry: confirmed=%q writes=%d", a.add.confirmed, mem.Writes())
	}
}

func TestSubmitEmptyFormReportsFieldErrors(t *testing.T) {
	a := loadedApp(t, store.NewMemory(), nil)
	a, _ = update(t, a, key("a"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyCtrlS})

	if a.add.submitting {
		t.Fatal("invalid form must not submit")
	}
	if _, ok := a.add.errs.For(model.FieldAmount); !ok {
		t.Fatal("missing amount should be reported")
	}
	if _, ok := a.add.errs.For(model.FieldMerchant); !ok {
		t.Fatal("missing merchant should be reported")
	}
}

func TestDashboardKeysToggleSelection(t *testing.T) {
	records := []model.ExpenseRecord{
		{ID: "1", Amount: decimal.NewFromInt(60), Merchant: "Market", Category: "food", Date: testNow},
		{ID: "2", Amount: decimal.NewFromInt(40), Merchant: "Metro", Category: "transport", Date: testNow},
	}
	a := loadedApp(t, store.NewMemory(), records)

	a, _ = update(t, a, key("2"))
	if i, ok := a.donut.ActiveIndex(); !ok || i != 1 {
		t.Fatalf("active = (%d, %v), want (1, true)", i, ok)
	}
	a, _ = update(t, a, key("2"))
	if _, ok := a.donut.ActiveIndex(); ok {
		t.Fatal("selecting the active slice again should clear it")
	}

	a, _ = update(t, a, key("1"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.activeTab != components.TabTransactions || a.txState.category != "food" {
		t.Fatalf("enter should open food transactions, got tab %d filter %q", a.activeTab, a.txState.category)
	}
	if n := len(a.visibleTransactions()); n != 1 {
		t.Fatalf("visible = %d, want 1", n)
	}
}

func TestTransactionsSearchFilters(t *testing.T) {
	records := []model.ExpenseRecord{
		{ID: "1", Amount: decimal.NewFromInt(5), Merchant: "Blue Bottle", Category: "food", Date: testNow},
		{ID: "2", Amount: decimal.NewFromInt(9), Merchant: "Metro", Category: "transport", Date: testNow},
	}
	a := loadedApp(t, store.NewMemory(), records)
	a, _ = update(t, a, key("t"))
	a, _ = update(t, a, key("/"))
	if !a.txState.searching {
		t.Fatal("/ should open search")
	}
	a, _ = update(t, a, key("bottle"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	got := a.visibleTransactions()
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("search results = %+v", got)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	records := []model.ExpenseRecord{
		{ID: "1", Amount: decimal.NewFromInt(5), Merchant: "Cafe", Category: "food", Date: testNow},
	}
	a := loadedApp(t, store.NewMemory(), records)
	for i := range components.Tabs {
		a.activeTab = i
		if a.View() == "" {
			t.Fatalf("tab %d rendered nothing", i)
		}
	}
}
