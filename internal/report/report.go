// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders reconciliation results as annotated BibTeX
// documents. Each document carries a comment header summarizing the run's
// findings, followed by the entries grouped by type and sorted by title.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bibtools/bibcheck/internal/bibtex"
	"github.com/bibtools/bibcheck/pkg/types"
)

// Default output file names.
const (
	DefaultUsedFile   = "used_sorted_references.bib"
	DefaultUnusedFile = "unused_sorted_references.bib"
)

// typeOrder is the canonical group order; types not listed follow
// alphabetically.
var typeOrder = []string{"inproceedings", "article", "proceedings", "book", "misc"}

// Selection picks which side of the used/unused partition to render.
type Selection int

const (
	Used Selection = iota
	Unused
)

func (s Selection) String() string {
	if s == Unused {
		return "unused"
	}
	return "used"
}

// Compose builds the annotated document for one side of the partition.
// Entries with missing-field findings are preceded by one comment line
// per finding; header sections with no content are omitted.
func Compose(rep *types.Report, which Selection) string {
	entries := rep.Used
	if which == Unused {
		entries = rep.Unused
	}

	var b strings.Builder
	writeHeader(&b, rep, which, entries)

	findingsByKey := make(map[string][]types.MissingField)
	for _, f := range rep.MissingFields {
		findingsByKey[f.Key] = append(findingsByKey[f.Key], f)
	}

	order, groups := groupEntries(entries)
	for _, entryType := range order {
		fmt.Fprintf(&b, "%% ---- %s ----\n\n", strings.ToUpper(entryType))
		for _, e := range groups[entryType] {
			for _, f := range findingsByKey[e.Key] {
				fmt.Fprintf(&b, "%% missing required field: %s\n", f.Field)
			}
			b.WriteString(bibtex.FormatEntry(e))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// writeHeader writes the summary comment block: counts, findings, and
// the venue and field inventories.
func writeHeader(b *strings.Builder, rep *types.Report, which Selection, entries []*types.Entry) {
	fmt.Fprintf(b, "%% bibcheck report: %s entries\n", which)
	fmt.Fprintf(b, "%% conference profile: %s\n", rep.Conference)
	fmt.Fprintf(b, "%% total entries: %d\n", len(entries))

	if len(entries) > 0 {
		counts := make(map[string]int)
		for _, e := range entries {
			counts[e.Type]++
		}
		b.WriteString("% Entries per type:\n")
		for _, entryType := range orderedTypes(counts) {
			fmt.Fprintf(b, "%% - %s: %d\n", entryType, counts[entryType])
		}
	}

	if len(rep.Duplicates) > 0 {
		b.WriteString("\n% Duplicate keys (first occurrence kept):\n")
		for _, d := range rep.Duplicates {
			fmt.Fprintf(b, "%% - %s (%s:%d, first at %s:%d)\n",
				d.Key, d.File, d.Line, d.FirstFile, d.FirstLine)
		}
	}

	if len(rep.MissingEntries) > 0 {
		b.WriteString("\n% Cited but missing from bibliography:\n")
		for _, m := range rep.MissingEntries {
			fmt.Fprintf(b, "%% - %s\n", m.Key)
		}
	}

	if len(rep.Warnings) > 0 {
		b.WriteString("\n% File warnings:\n")
		for _, w := range rep.Warnings {
			fmt.Fprintf(b, "%% - %s: %s\n", w.Path, w.Message)
		}
	}

	if len(rep.Discrepancies) > 0 {
		b.WriteString("\n% Discrepancies in booktitle/journal names:\n")
		for _, d := range rep.Discrepancies {
			b.WriteString("% Variations found:\n")
			for _, v := range d.Variants {
				fmt.Fprintf(b, "%% - %s\n", v)
			}
		}
	}

	writeInventory(b, "List of booktitles", rep.Booktitles)
	writeInventory(b, "List of publishers", rep.Publishers)
	writeInventory(b, "List of journals", rep.Journals)

	if len(rep.TypeFields) > 0 {
		b.WriteString("\n% Fields used in each category:\n")
		entryTypes := make([]string, 0, len(rep.TypeFields))
		for t := range rep.TypeFields {
			entryTypes = append(entryTypes, t)
		}
		sort.Strings(entryTypes)
		for _, t := range entryTypes {
			fmt.Fprintf(b, "%% - %s: %s\n", t, strings.Join(rep.TypeFields[t], ", "))
		}
	}

	b.WriteString("\n")
}

func writeInventory(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%% %s:\n", label)
	for _, v := range values {
		fmt.Fprintf(b, "%% - %s\n", v)
	}
}

// groupEntries buckets entries by type, sorts each bucket by title with
// key as tiebreaker, and returns the non-empty types in canonical order.
func groupEntries(entries []*types.Entry) ([]string, map[string][]*types.Entry) {
	groups := make(map[string][]*types.Entry)
	for _, e := range entries {
		entryType := e.Type
		if entryType == "" {
			entryType = "misc"
		}
		groups[entryType] = append(groups[entryType], e)
	}
	for _, group := range groups {
		sortGroup(group)
	}

	counts := make(map[string]int, len(groups))
	for t, g := range groups {
		counts[t] = len(g)
	}
	return orderedTypes(counts), groups
}

// orderedTypes returns the types present in counts: canonical order
// first, then the rest alphabetically.
func orderedTypes(counts map[string]int) []string {
	var order []string
	canonical := make(map[string]bool, len(typeOrder))
	for _, t := range typeOrder {
		canonical[t] = true
		if counts[t] > 0 {
			order = append(order, t)
		}
	}
	var rest []string
	for t := range counts {
		if !canonical[t] && counts[t] > 0 {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// sortGroup sorts entries by title, case-insensitive, ties broken by key.
func sortGroup(entries []*types.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, _ := entries[i].Get("title")
		tj, _ := entries[j].Get("title")
		li, lj := strings.ToLower(ti), strings.ToLower(tj)
		if li != lj {
			return li < lj
		}
		return entries[i].Key < entries[j].Key
	})
}

// WriteFiles composes both documents and writes them to the output
// directory, temp file plus rename, so an interrupted run leaves no
// partial output. Both documents are rendered before either file is
// touched.
func WriteFiles(rep *types.Report, cfg types.OutputConfig, w io.Writer) error {
	usedName := cfg.UsedFile
	if usedName == "" {
		usedName = DefaultUsedFile
	}
	unusedName := cfg.UnusedFile
	if unusedName == "" {
		unusedName = DefaultUnusedFile
	}

	usedDoc := Compose(rep, Used)
	unusedDoc := Compose(rep, Unused)

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", cfg.Dir, err)
		}
	}

	usedPath := filepath.Join(cfg.Dir, usedName)
	if err := writeFileAtomic(usedPath, []byte(usedDoc)); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d used entries to %s\n", len(rep.Used), usedPath)

	unusedPath := filepath.Join(cfg.Dir, unusedName)
	if err := writeFileAtomic(unusedPath, []byte(unusedDoc)); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d unused entries to %s\n", len(rep.Unused), unusedPath)

	return nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory and a rename.
func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".bibcheck-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Summarize prints the run summary to w.
func Summarize(rep *types.Report, w io.Writer) {
	fmt.Fprintf(w, "Reconciliation against %s:\n", rep.Conference)
	fmt.Fprintf(w, "  %-21s %d\n", "used entries:", len(rep.Used))
	fmt.Fprintf(w, "  %-21s %d\n", "unused entries:", len(rep.Unused))
	fmt.Fprintf(w, "  %-21s %d\n", "duplicate keys:", len(rep.Duplicates))
	fmt.Fprintf(w, "  %-21s %d\n", "cited but missing:", len(rep.MissingEntries))
	fmt.Fprintf(w, "  %-21s %d\n", "missing fields:", len(rep.MissingFields))
	fmt.Fprintf(w, "  %-21s %d\n", "venue discrepancies:", len(rep.Discrepancies))
	fmt.Fprintf(w, "  %-21s %d\n", "file warnings:", len(rep.Warnings))
}
