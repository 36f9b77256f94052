package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/theirongolddev/dolla/internal/source"
	"github.com/theirongolddev/dolla/internal/store"
)

// trackedFile is what the tracker remembers about an imported file.
type trackedFile struct {
	MtimeNs   int64 `json:"mtime_ns"`
	SizeBytes int64 `json:"size_bytes"`
	Records   int   `json:"records"`
}

// ImportTracker remembers which files have been imported, so re-running
// an import over the same folder only parses what changed.
type ImportTracker struct {
	files map[string]trackedFile
}

// NewImportTracker returns a tracker that has seen nothing.
func NewImportTracker() *ImportTracker {
	return &ImportTracker{files: make(map[string]trackedFile)}
}

// LoadImportTracker reads the tracker stored under key. A missing key
// yields an empty tracker.
func LoadImportTracker(ctx context.Context, s store.BlobStore, key string) (*ImportTracker, error) {
	t := NewImportTracker()
	data, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading import history: %w", err)
	}
	if err := json.Unmarshal(data, &t.files); err != nil {
		return nil, fmt.Errorf("decoding import history: %w", err)
	}
	return t, nil
}

// Save writes the tracker under key.
func (t *ImportTracker) Save(ctx context.Context, s store.BlobStore, key string) error {
	data, err := json.Marshal(t.files)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

// Unchanged reports whether df was imported before with the same size and
// modification time.
func (t *ImportTracker) Unchanged(df source.DiscoveredFile) bool {
	tf, ok := t.files[df.Path]
	return ok && tf.MtimeNs == df.ModTime.UnixNano() && tf.SizeBytes == df.Size
}

// Mark records df as imported.
func (t *ImportTracker) Mark(df source.DiscoveredFile, records int) {
	t.files[df.Path] = trackedFile{
		MtimeNs:   df.ModTime.UnixNano(),
		SizeBytes: df.Size,
		Records:   records,
	}
}

// Len returns the number of tracked files.
func (t *ImportTracker) Len() int { return len(t.files) }

// TrackedImportResult extends ImportResult with tracker metadata.
type TrackedImportResult struct {
	ImportResult
	Unchanged int
	Reparsed  int
}

// LoadImportsWithTracker discovers files, diffs them against the tracker,
// and parses only new or changed ones. The tracker is not updated; call
// Mark for each of result.Files once their records are safely stored.
func LoadImportsWithTracker(paths []string, tracker *ImportTracker, progressFn ProgressFunc) (*TrackedImportResult, error) {
	files, err := source.ScanPaths(paths...)
	if err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}

	result := &TrackedImportResult{
		ImportResult: ImportResult{TotalFiles: len(files)},
	}

	// Diff: partition into changed and unchanged
	var toParse []source.DiscoveredFile
	for _, f := range files {
		if tracker.Unchanged(f) {
			result.Unchanged++
		} else {
			toParse = append(toParse, f)
		}
	}
	result.Reparsed = len(toParse)

	if progressFn != nil && result.Unchanged > 0 {
		progressFn(result.Unchanged, result.TotalFiles)
	}
	parseInto(&result.ImportResult, toParse, result.Unchanged, progressFn)
	return result, nil
}
