package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/source"
)

// ImportResult holds the output of the import pipeline.
type ImportResult struct {
	Records     []model.ExpenseRecord
	Files       []ImportedFile // files that parsed, in path order
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
	Problems    []error // first problem per failing file
}

// ImportedFile is a parsed file and how many records it contributed.
type ImportedFile struct {
	source.DiscoveredFile
	Records int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadImports discovers and parses every import file under paths.
// It uses a bounded worker pool for parallel parsing.
func LoadImports(paths []string, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanPaths(paths...)
	if err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	result := &ImportResult{TotalFiles: len(files)}
	parseInto(result, files, 0, progressFn)
	return result, nil
}

// parseInto parses files in parallel and appends their records to result
// in file order. done is the count already reported as progress.
func parseInto(result *ImportResult, files []source.DiscoveredFile, done int, progressFn ProgressFunc) {
	if len(files) == 0 {
		return
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	// Feed work
	for i := range files {
		work <- i
	}
	close(work)

	// Spawn workers
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+done, result.TotalFiles)
				}
			}
		}()
	}

	wg.Wait()

	// Collect results
	for i, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			result.Problems = append(result.Problems, pr.Err)
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		if pr.FirstErr != nil {
			result.Problems = append(result.Problems, fmt.Errorf("%s: %w", files[i].Path, pr.FirstErr))
		}
		result.Files = append(result.Files, ImportedFile{DiscoveredFile: files[i], Records: len(pr.Records)})
		result.Records = append(result.Records, pr.Records...)
	}
}
