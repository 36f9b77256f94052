// Package daemon provides the long-running ledger watcher: it imports
// files dropped into inbox folders and serves spending snapshots over a
// local HTTP API with server-sent events.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theirongolddev/dolla/internal/ledger"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/pipeline"
	"github.com/theirongolddev/dolla/internal/store"
	"golang.org/x/sync/errgroup"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Inbox        []string // files or folders to import from on every poll
	Days         int      // snapshot window; 0 means all time
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger

	// Prepare fills in defaults on freshly parsed records before they are
	// merged, e.g. fallback category and payment method.
	Prepare func([]model.ExpenseRecord)

	Now func() time.Time
}

// CategoryShare is one category's part of a snapshot.
type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// Snapshot is a compact spending state for status/event payloads.
type Snapshot struct {
	At         time.Time       `json:"at"`
	Expenses   int             `json:"expenses"`
	Spent      decimal.Decimal `json:"spent"`
	MonthSpent decimal.Decimal `json:"month_spent"`
	PerDay     decimal.Decimal `json:"per_day"`
	Categories []CategoryShare `json:"categories"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Expenses int             `json:"expenses"`
	Spent    decimal.Decimal `json:"spent"`
	Imported int             `json:"imported"`
}

func (d Delta) isZero() bool {
	return d.Expenses == 0 && d.Spent.IsZero() && d.Imported == 0
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventSpendingDelta = "spending_delta"
)

// Event is emitted whenever the spending snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Inbox           []string  `json:"inbox,omitempty"`
	Days            int       `json:"days"`
	Imported        int       `json:"imported"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service polls the inbox and ledger and serves what it sees.
type Service struct {
	cfg    Config
	db     store.BlobStore
	ledger *ledger.Ledger
	log    *slog.Logger
	hub    *hub

	mu         sync.RWMutex
	startedAt  time.Time
	lastPollAt time.Time
	polls      int64
	imported   int
	lastError  string
	seeded     bool
	snapshot   Snapshot
}

// New returns a daemon over the ledger stored in db.
func New(cfg Config, db store.BlobStore, l *ledger.Ledger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		cfg:       cfg,
		db:        db,
		ledger:    l,
		log:       cfg.Logger.With("component", "daemon"),
		hub:       newHub(cfg.EventsBuffer),
		startedAt: cfg.Now(),
	}
}

// Run serves the HTTP API and polls every interval until ctx is canceled
// or the listener fails.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		stop, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(stop)
	})
	g.Go(func() error {
		s.PollOnce(ctx)
		tick := time.NewTicker(s.cfg.Interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				s.PollOnce(ctx)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	return g.Wait()
}

// PollOnce imports changed inbox files, re-reads the ledger and publishes
// an event if spending moved. The first successful poll always publishes a
// snapshot event.
func (s *Service) PollOnce(ctx context.Context) {
	now := s.cfg.Now()
	added, importErr := s.importInbox(ctx)
	records, readErr := s.ledger.Read(ctx)
	err := errors.Join(readErr, importErr)

	s.mu.Lock()
	s.polls++
	s.lastPollAt = now
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	if readErr != nil {
		s.mu.Unlock()
		s.log.Error("poll failed", "err", err)
		return
	}
	snap := snapshotFromRecords(records, s.cfg.Days, now)
	prev, seeded := s.snapshot, s.seeded
	s.snapshot, s.seeded = snap, true
	s.imported += added
	s.mu.Unlock()

	if importErr != nil {
		s.log.Warn("inbox import failed", "err", importErr)
	}
	if ev, ok := nextEvent(prev, snap, seeded, added, now); ok {
		ev = s.hub.publish(ev)
		s.log.Debug("event", "id", ev.ID, "type", ev.Type, "expenses", snap.Expenses, "imported", added)
	}
}

func nextEvent(prev, curr Snapshot, seeded bool, imported int, now time.Time) (Event, bool) {
	if !seeded {
		return Event{Type: EventSnapshot, Timestamp: now, Snapshot: curr, Delta: Delta{Imported: imported}}, true
	}
	d := diffSnapshots(prev, curr)
	d.Imported = imported
	if d.isZero() {
		return Event{}, false
	}
	return Event{Type: EventSpendingDelta, Timestamp: now, Snapshot: curr, Delta: d}, true
}

// importInbox merges new or changed inbox files into the ledger and
// returns how many records were added.
func (s *Service) importInbox(ctx context.Context) (int, error) {
	if len(s.cfg.Inbox) == 0 {
		return 0, nil
	}

	tracker, err := pipeline.LoadImportTracker(ctx, s.db, store.KeyImports)
	if err != nil {
		return 0, err
	}
	res, err := pipeline.LoadImportsWithTracker(s.cfg.Inbox, tracker, nil)
	if err != nil {
		return 0, err
	}
	for _, p := range res.Problems {
		s.log.Warn("inbox file skipped", "err", p)
	}
	if len(res.Files) == 0 {
		return 0, nil
	}

	if s.cfg.Prepare != nil {
		s.cfg.Prepare(res.Records)
	}
	added := 0
	if len(res.Records) > 0 {
		if _, added, err = s.ledger.Merge(ctx, res.Records...); err != nil {
			return 0, fmt.Errorf("merging inbox: %w", err)
		}
	}

	for _, f := range res.Files {
		tracker.Mark(f.DiscoveredFile, f.Records)
	}
	if err := tracker.Save(ctx, s.db, store.KeyImports); err != nil {
		return added, fmt.Errorf("saving import history: %w", err)
	}
	if added > 0 {
		s.log.Info("inbox imported", "files", len(res.Files), "added", added)
	}
	return added, nil
}

func snapshotFromRecords(records []model.ExpenseRecord, days int, now time.Time) Snapshot {
	if days > 0 {
		since := model.DateOnly(now).AddDate(0, 0, -(days - 1))
		records = pipeline.FilterByTime(records, since, now)
	}
	sum := pipeline.Summarize(records, now)

	snap := Snapshot{
		At:         now,
		Expenses:   sum.Records,
		Spent:      sum.TotalSpent,
		MonthSpent: sum.MonthSpent,
		Categories: []CategoryShare{},
	}
	if days > 0 {
		snap.PerDay = sum.TotalSpent.Div(decimal.NewFromInt(int64(days))).Round(2)
	}
	for _, sl := range pipeline.Aggregate(records, nil, nil) {
		snap.Categories = append(snap.Categories, CategoryShare{
			Category:   sl.Category,
			Amount:     sl.Amount,
			Percentage: sl.Percentage,
		})
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Expenses: curr.Expenses - prev.Expenses,
		Spent:    curr.Spent.Sub(prev.Spent),
	}
}

// Status returns the current daemon status.
func (s *Service) Status() Status {
	events, subs := s.hub.counts()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.polls,
		Inbox:           s.cfg.Inbox,
		Days:            s.cfg.Days,
		Imported:        s.imported,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      events,
		SubscriberCount: subs,
	}
}
