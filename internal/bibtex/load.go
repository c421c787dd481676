// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bibtools/bibcheck/pkg/types"
)

// FindBibFiles walks projectDir recursively and returns every file whose
// base name equals name, in sorted path order. An empty result is not an
// error here; callers decide whether zero bibliography files is fatal.
func FindBibFiles(projectDir, name string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s for %s: %w", projectDir, name, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadResult aggregates the outcome of loading a set of bibliography files.
type LoadResult struct {
	// Parsed is the number of entries added to the bibliography.
	Parsed int

	// Skipped is the number of files skipped as unreadable.
	Skipped int

	// Duplicates lists keys seen more than once; the first occurrence
	// of each is kept.
	Duplicates []types.DuplicateKey

	// Warnings lists per-file read problems.
	Warnings []types.FileWarning

	// EntryWarnings lists per-entry parse problems.
	EntryWarnings []types.FileWarning
}

// Load parses each file and merges the entries into one Bibliography.
// Files are isolated from each other: an unreadable file is skipped with
// a warning on w and the remaining files still load. A key seen twice is
// a duplicate; the later entry is discarded and recorded.
func Load(paths []string, w io.Writer) (*types.Bibliography, LoadResult) {
	bib := types.NewBibliography()
	var result LoadResult

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping %s: %v\n", path, err)
			result.Skipped++
			result.Warnings = append(result.Warnings, types.FileWarning{
				Path:    path,
				Message: err.Error(),
			})
			continue
		}

		entries, warnings := Parse(data, path)
		for _, warning := range warnings {
			fmt.Fprintf(w, "warning: %s: %s\n", warning.Path, warning.Message)
		}
		result.EntryWarnings = append(result.EntryWarnings, warnings...)

		for _, entry := range entries {
			if bib.Add(entry) {
				result.Parsed++
				continue
			}
			first, _ := bib.Lookup(entry.Key)
			fmt.Fprintf(w, "warning: duplicate key %q in %s:%d, keeping first occurrence from %s:%d\n",
				entry.Key, entry.File, entry.Line, first.File, first.Line)
			result.Duplicates = append(result.Duplicates, types.DuplicateKey{
				Key:       entry.Key,
				File:      entry.File,
				Line:      entry.Line,
				FirstFile: first.File,
				FirstLine: first.Line,
			})
		}
	}

	return bib, result
}
