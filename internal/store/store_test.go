package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "dolla.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Get(ctx, KeyExpenses)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put(ctx, KeyExpenses, []byte(`{"version":1}`)))
	require.NoError(t, db.Put(ctx, KeyExpenses, []byte(`{"version":1,"records":[]}`)))

	got, err := db.Get(ctx, KeyExpenses)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"records":[]}`, string(got))

	ts, err := db.UpdatedAt(ctx, KeyExpenses)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())

	require.NoError(t, db.Put(ctx, KeyCategories, []byte(`[]`)))
	keys, err := db.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyCategories, KeyExpenses}, keys)

	require.NoError(t, db.Delete(ctx, KeyCategories))
	_, err = db.Get(ctx, KeyCategories)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dolla.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, "k", []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestMemoryFailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "k", []byte("v")))
	assert.Equal(t, 1, m.Writes())

	boom := errors.New("boom")
	m.WriteErr = boom
	assert.ErrorIs(t, m.Put(ctx, "k", []byte("w")), boom)
	assert.Equal(t, 1, m.Writes())

	m.ReadErr = boom
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)

	m.ReadErr = nil
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "k", []byte("abc")))

	got, _ := m.Get(ctx, "k")
	got[0] = 'z'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
