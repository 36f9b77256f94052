package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FormatOf maps a file name to its import format by extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL, true
	case ".json":
		return FormatJSON, true
	case ".csv":
		return FormatCSV, true
	case ".xlsx":
		return FormatXLSX, true
	}
	return "", false
}

// ScanPaths resolves files and directories into import candidates.
// Directories are walked recursively and files with unknown extensions
// inside them are ignored; a file named explicitly must have a supported
// extension. The result is sorted by path and free of duplicates.
func ScanPaths(paths ...string) ([]DiscoveredFile, error) {
	seen := make(map[string]struct{})
	var files []DiscoveredFile

	add := func(path string, info os.FileInfo, format Format) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, DiscoveredFile{
			Path:    path,
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			format, ok := FormatOf(abs)
			if !ok {
				return nil, fmt.Errorf("%s: unsupported file type (want .jsonl, .json, .csv or .xlsx)", p)
			}
			add(abs, info, format)
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // intentionally skip unreadable entries
			}
			if d.IsDir() {
				if path != abs && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			format, ok := FormatOf(path)
			if !ok {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil //nolint:nilerr // file vanished mid-walk
			}
			add(path, fi, format)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// CountFormats returns how many files of each format were discovered.
func CountFormats(files []DiscoveredFile) map[Format]int {
	counts := make(map[Format]int)
	for _, f := range files {
		counts[f.Format]++
	}
	return counts
}
