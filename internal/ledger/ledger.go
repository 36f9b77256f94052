// Package ledger persists the ordered list of expense records as a single
// blob and provides idempotent, most-recent-first appends.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/store"
)

// ErrMissingID is returned when a record without an id is appended.
var ErrMissingID = errors.New("ledger: record has no id")

// Ledger reads and writes expense records through a BlobStore.
//
// There is no locking: every mutation is a read, modify, and one full
// write of the blob. Concurrent writers in separate processes can lose
// updates.
type Ledger struct {
	store store.BlobStore
	key   string
	log   *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithKey stores the ledger under a key other than store.KeyExpenses.
func WithKey(key string) Option {
	return func(l *Ledger) { l.key = key }
}

// WithLogger sets the logger used to report masked failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// New creates a Ledger on top of s.
func New(s store.BlobStore, opts ...Option) *Ledger {
	l := &Ledger{
		store: s,
		key:   store.KeyExpenses,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("component", "ledger", "key", l.key)
	return l
}

// Load returns the persisted records, most recent first. A missing key
// yields an empty ledger; read or decode failures are logged and also
// yield an empty ledger.
func (l *Ledger) Load(ctx context.Context) []model.ExpenseRecord {
	recs, err := l.read(ctx)
	if err != nil {
		l.log.Warn("ledger unreadable, treating as empty", "error", err)
		return []model.ExpenseRecord{}
	}
	return recs
}

// Read is Load without the masking: absence is still an empty ledger, but
// read and decode failures are returned as a *model.PersistenceError.
func (l *Ledger) Read(ctx context.Context) ([]model.ExpenseRecord, error) {
	return l.read(ctx)
}

func (l *Ledger) read(ctx context.Context) ([]model.ExpenseRecord, error) {
	data, err := l.store.Get(ctx, l.key)
	if errors.Is(err, store.ErrNotFound) {
		return []model.ExpenseRecord{}, nil
	}
	if err != nil {
		return nil, &model.PersistenceError{Op: model.OpRead, Key: l.key, Err: err}
	}
	if len(data) == 0 {
		return []model.ExpenseRecord{}, nil
	}
	recs, err := Decode(data)
	if err != nil {
		return nil, &model.PersistenceError{Op: model.OpRead, Key: l.key, Err: err}
	}
	return recs, nil
}

// Save replaces the persisted ledger with records in one write.
func (l *Ledger) Save(ctx context.Context, records []model.ExpenseRecord) error {
	data, err := Encode(records)
	if err != nil {
		return &model.PersistenceError{Op: model.OpWrite, Key: l.key, Err: err}
	}
	if err := l.store.Put(ctx, l.key, data); err != nil {
		l.log.Error("ledger write failed", "error", err, "records", len(records))
		return &model.PersistenceError{Op: model.OpWrite, Key: l.key, Err: err}
	}
	l.log.Debug("ledger saved", "records", len(records))
	return nil
}

// Append inserts rec at the front of the ledger unless a record with the
// same id already exists, in which case nothing is written and the stored
// sequence is returned unchanged.
//
// If the stored ledger exists but cannot be read, nothing is written and
// the read error is returned. If the write fails the error is returned
// together with the sequence that includes rec; callers may keep showing it.
func (l *Ledger) Append(ctx context.Context, rec model.ExpenseRecord) ([]model.ExpenseRecord, error) {
	if rec.ID == "" {
		return nil, ErrMissingID
	}
	existing, err := l.read(ctx)
	if err != nil {
		l.log.Error("append refused, ledger unreadable", "id", rec.ID, "error", err)
		return nil, err
	}
	for _, r := range existing {
		if r.ID == rec.ID {
			l.log.Debug("duplicate append ignored", "id", rec.ID)
			return existing, nil
		}
	}

	next := make([]model.ExpenseRecord, 0, len(existing)+1)
	next = append(next, rec)
	next = append(next, existing...)

	if err := l.Save(ctx, next); err != nil {
		return next, err
	}
	l.log.Info("expense recorded", "id", rec.ID, "category", rec.Category, "amount", rec.Amount.String())
	return next, nil
}

// Merge prepends every incoming record whose id is not yet stored, keeping
// the incoming order, and writes at most once. It returns the resulting
// sequence and how many records were added. Like Append, it never writes
// over a ledger it could not read.
func (l *Ledger) Merge(ctx context.Context, incoming ...model.ExpenseRecord) ([]model.ExpenseRecord, int, error) {
	existing, err := l.read(ctx)
	if err != nil {
		l.log.Error("merge refused, ledger unreadable", "incoming", len(incoming), "error", err)
		return nil, 0, err
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.ID] = struct{}{}
	}

	var fresh []model.ExpenseRecord
	for _, r := range incoming {
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return existing, 0, nil
	}

	next := make([]model.ExpenseRecord, 0, len(existing)+len(fresh))
	next = append(next, fresh...)
	next = append(next, existing...)

	if err := l.Save(ctx, next); err != nil {
		return next, len(fresh), err
	}
	return next, len(fresh), nil
}
