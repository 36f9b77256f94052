package daemon

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/store"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

func newTestService(t *testing.T, cfg Config) (*Service, *store.Memory, *ledger.Ledger) {
	t.Helper()
	mem := store.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.New(mem, ledger.WithLogger(log))
	cfg.Logger = log
	cfg.Now = func() time.Time { return testNow }
	return New(cfg, mem, l), mem, l
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Expenses: 10, Spent: decimal.RequireFromString("100.50")}
	curr := Snapshot{Expenses: 12, Spent: decimal.RequireFromString("113.10")}

	delta := diffSnapshots(prev, curr)
	if delta.Expenses != 2 {
		t.Fatalf("Expenses delta = %d, want 2", delta.Expenses)
	}
	if !delta.Spent.Equal(decimal.RequireFromString("12.60")) {
		t.Fatalf("Spent delta = %s, want 12.60", delta.Spent)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !(Delta{}).isZero() {
		t.Fatal("empty delta should be zero")
	}
}

func TestNextEvent(t *testing.T) {
	snap := Snapshot{Expenses: 1, Spent: decimal.NewFromInt(5)}

	ev, ok := nextEvent(Snapshot{}, snap, false, 0, testNow)
	if !ok || ev.Type != EventSnapshot {
		t.Fatalf("unseeded poll = %+v %v, want a snapshot event", ev, ok)
	}
	if _, ok := nextEvent(snap, snap, true, 0, testNow); ok {
		t.Fatal("unchanged snapshot should not publish")
	}
	ev, ok = nextEvent(snap, snap, true, 3, testNow)
	if !ok || ev.Type != EventSpendingDelta || ev.Delta.Imported != 3 {
		t.Fatalf("import-only change = %+v %v", ev, ok)
	}
}

func TestPollOnceImportsInboxAndPublishesDeltas(t *testing.T) {
	ctx := context.Background()
	inbox := t.TempDir()
	s, _, l := newTestService(t, Config{
		Inbox: []string{inbox},
		Days:  30,
		Prepare: func(recs []model.ExpenseRecord) {
			for i := range recs {
				if recs[i].Category == "" {
					recs[i].Category = "food"
				}
			}
		},
	})

	s.PollOnce(ctx)
	if st := s.Status(); st.EventCount != 1 || st.Summary.Expenses != 0 {
		t.Fatalf("first poll: events=%d expenses=%d, want a single empty snapshot", st.EventCount, st.Summary.Expenses)
	}

	line := `{"id":"a","amount":12.5,"merchant":"Cafe","date":"2026-03-14"}` + "\n"
	if err := os.WriteFile(filepath.Join(inbox, "drop.jsonl"), []byte(line), 0o600); err != nil {
		t.Fatal(err)
	}
	s.PollOnce(ctx)

	st := s.Status()
	if st.Imported != 1 || st.Summary.Expenses != 1 {
		t.Fatalf("after drop: imported=%d expenses=%d, want 1/1", st.Imported, st.Summary.Expenses)
	}
	if len(st.Summary.Categories) != 1 || st.Summary.Categories[0].Category != "food" {
		t.Fatalf("categories = %+v, want food from Prepare", st.Summary.Categories)
	}
	if st.EventCount != 2 {
		t.Fatalf("events = %d, want a spending_delta", st.EventCount)
	}

	// An unchanged inbox and ledger publish nothing.
	s.PollOnce(ctx)
	if got := s.Status().EventCount; got != 2 {
		t.Fatalf("events = %d after idle poll, want 2", got)
	}

	recs, err := l.Read(ctx)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ledger = %d records, %v", len(recs), err)
	}
}

func TestPollOnceReportsReadErrors(t *testing.T) {
	s, mem, _ := newTestService(t, Config{})
	mem.ReadErr = io.ErrUnexpectedEOF

	s.PollOnce(context.Background())
	st := s.Status()
	if st.LastError == "" || st.PollCount != 1 {
		t.Fatalf("status = %+v, want the read error recorded", st)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, _, l := newTestService(t, Config{})
	_, err := l.Append(context.Background(), model.ExpenseRecord{
		ID: "x", Amount: decimal.NewFromInt(9), Merchant: "Deli", Category: "food", Date: testNow,
	})
	if err != nil {
		t.Fatal(err)
	}
	s.PollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Summary.Expenses != 1 || !st.Summary.Spent.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("summary = %+v", st.Summary)
	}
}
