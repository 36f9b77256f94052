// Package store provides durable key/value blob storage for the ledger.
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Well-known keys.
const (
	KeyExpenses   = "expenses"
	KeyCategories = "categories"
	KeyImports    = "imports"
)

// BlobStore holds one opaque value per key. Put replaces the whole value
// atomically: readers see either the old or the new blob, never a mix.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dolla")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "dolla")
}

// DefaultPath returns the default SQLite database path.
func DefaultPath() string {
	return filepath.Join(DataDir(), "dolla.db")
}
