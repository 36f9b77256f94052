package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rec(id, amount, category string) model.ExpenseRecord {
	return model.ExpenseRecord{
		ID:            id,
		Amount:        decimal.RequireFromString(amount),
		Merchant:      "Merchant " + id,
		Category:      category,
		CategoryIcon:  "cart.fill",
		PaymentMethod: model.PaymentCash,
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local),
		Type:          model.RecordTypeManual,
	}
}

func ids(recs []model.ExpenseRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestLoadEmpty(t *testing.T) {
	l := New(store.NewMemory(), WithLogger(quietLogger()))
	got := l.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadMasksReadFailure(t *testing.T) {
	m := store.NewMemory()
	m.ReadErr = errors.New("io error")
	l := New(m, WithLogger(quietLogger()))

	assert.Empty(t, l.Load(context.Background()))

	_, err := l.Read(context.Background())
	var pe *model.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, model.OpRead, pe.Op)
}

func TestLoadMasksCorruptBlob(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.Put(ctx, store.KeyExpenses, []byte("not json")))

	l := New(m, WithLogger(quietLogger()))
	assert.Empty(t, l.Load(ctx))
}

func TestAppendPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	l := New(m, WithLogger(quietLogger()))

	_, err := l.Append(ctx, rec("a", "10", "food"))
	require.NoError(t, err)
	got, err := l.Append(ctx, rec("b", "20", "bills"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, ids(got))
	assert.Equal(t, []string{"b", "a"}, ids(l.Load(ctx)))
	assert.Equal(t, 2, m.Writes())
}

func TestAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	l := New(m, WithLogger(quietLogger()))

	first, err := l.Append(ctx, rec("a", "10", "food"))
	require.NoError(t, err)

	dup := rec("a", "999", "bills")
	second, err := l.Append(ctx, dup)
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	assert.True(t, second[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, m.Writes(), "duplicate append must not write")
}

func TestAppendWriteFailureKeepsOptimisticState(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	l := New(m, WithLogger(quietLogger()))
	_, err := l.Append(ctx, rec("a", "10", "food"))
	require.NoError(t, err)

	m.WriteErr = errors.New("quota exceeded")
	got, err := l.Append(ctx, rec("b", "5", "food"))

	var pe *model.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, model.OpWrite, pe.Op)
	assert.Equal(t, []string{"b", "a"}, ids(got))

	m.WriteErr = nil
	assert.Equal(t, []string{"a"}, ids(l.Load(ctx)))
}

func TestWritesRefuseUnreadableLedger(t *testing.T) {
	newer := []byte(`{"version":2,"records":[{"id":"a","amount":1,"merchant":"A","date":"2026-03-01"},{"id":"b","amount":2,"merchant":"B","date":"2026-03-02"}]}`)
	legacy := []byte(`[{"id":"a","amount":1,"merchant":"A","date":"2026-03-01"}]`)

	tests := []struct {
		name    string
		stored  []byte
		readErr error
	}{
		{"newer format version", newer, nil},
		{"store read error", legacy, errors.New("disk busy")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := store.NewMemory()
			require.NoError(t, m.Put(ctx, store.KeyExpenses, tt.stored))
			m.ReadErr = tt.readErr
			l := New(m, WithLogger(quietLogger()))

			got, err := l.Append(ctx, rec("new", "3", "food"))
			var pe *model.PersistenceError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, model.OpRead, pe.Op)
			assert.Nil(t, got)

			_, added, err := l.Merge(ctx, rec("new", "3", "food"))
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, model.OpRead, pe.Op)
			assert.Zero(t, added)

			assert.Equal(t, 1, m.Writes(), "only the seeding write may happen")
			m.ReadErr = nil
			data, err := m.Get(ctx, store.KeyExpenses)
			require.NoError(t, err)
			assert.Equal(t, string(tt.stored), string(data))
		})
	}
}

func TestAppendRequiresID(t *testing.T) {
	l := New(store.NewMemory(), WithLogger(quietLogger()))
	_, err := l.Append(context.Background(), rec("", "1", "food"))
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestMergeWritesOnceAndDedups(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	l := New(m, WithLogger(quietLogger()))
	_, err := l.Append(ctx, rec("a", "1", "food"))
	require.NoError(t, err)

	got, added, err := l.Merge(ctx, rec("b", "2", "food"), rec("a", "3", "food"), rec("c", "4", "food"), rec("b", "5", "food"))
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"b", "c", "a"}, ids(got))
	assert.Equal(t, 2, m.Writes())

	_, added, err = l.Merge(ctx, rec("a", "1", "food"))
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 2, m.Writes())
}

func TestSaveRoundTripsFields(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory(), WithLogger(quietLogger()))

	in := rec("x", "12.34", "transport")
	in.Note = "airport"
	in.PaymentMethod = model.PaymentVenmo
	in.Type = model.RecordTypeScanned
	require.NoError(t, l.Save(ctx, []model.ExpenseRecord{in}))

	out := l.Load(ctx)
	require.Len(t, out, 1)
	got := out[0]
	assert.Equal(t, in.ID, got.ID)
	assert.True(t, in.Amount.Equal(got.Amount))
	assert.Equal(t, in.Merchant, got.Merchant)
	assert.Equal(t, in.Note, got.Note)
	assert.Equal(t, in.Category, got.Category)
	assert.Equal(t, in.CategoryIcon, got.CategoryIcon)
	assert.Equal(t, in.PaymentMethod, got.PaymentMethod)
	assert.True(t, in.Date.Equal(got.Date))
	assert.Equal(t, in.Type, got.Type)
}

func TestWithKeyIsolatesLedgers(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	a := New(m, WithKey("a"), WithLogger(quietLogger()))
	b := New(m, WithKey("b"), WithLogger(quietLogger()))

	_, err := a.Append(ctx, rec("1", "1", "food"))
	require.NoError(t, err)
	assert.Len(t, a.Load(ctx), 1)
	assert.Empty(t, b.Load(ctx))
}
