// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile matches cited keys against loaded bibliography
// entries, validates required fields per conference profile, and detects
// venue naming discrepancies.
package reconcile

import (
	"sort"
	"strings"

	"github.com/bibtools/bibcheck/internal/profile"
	"github.com/bibtools/bibcheck/pkg/types"
)

// Reconcile partitions the bibliography into used and unused entries,
// normalizes capitalization, checks required fields against the profile,
// and collects discrepancies and inventories. The partition is total and
// disjoint: every entry lands in exactly one of the two sets. Cited keys
// with no matching entry are reported, never fatal.
func Reconcile(keys types.KeySet, bib *types.Bibliography, prof profile.Profile, cfg types.ValidateConfig) *types.Report {
	rep := &types.Report{Conference: prof.Name}

	// Normalization happens before validation so required-field checks
	// see the final field values.
	for _, e := range bib.Entries() {
		NormalizeEntry(e)
	}

	for _, e := range bib.Entries() {
		if keys.Has(e.Key) {
			rep.Used = append(rep.Used, e)
		} else {
			rep.Unused = append(rep.Unused, e)
		}
	}

	for _, key := range keys.Sorted() {
		if _, ok := bib.Lookup(key); !ok {
			rep.MissingEntries = append(rep.MissingEntries, types.MissingEntry{Key: key})
		}
	}

	validated := bib.Entries()
	if !cfg.IncludeUnused {
		validated = rep.Used
	}
	for _, e := range validated {
		rep.MissingFields = append(rep.MissingFields, checkRequiredFields(e, prof)...)
	}

	rep.Discrepancies = detectDiscrepancies(bib.Entries())
	collectInventories(rep, bib.Entries())

	return rep
}

// checkRequiredFields returns one finding per required field that is
// absent or empty on the entry. A misc entry that mentions arXiv in any
// field value validates against the profile's arxiv set when the profile
// defines one. Entries are never mutated: no placeholder fields are
// injected and no extra fields are stripped.
func checkRequiredFields(e *types.Entry, prof profile.Profile) []types.MissingField {
	entryType := e.Type
	if entryType == "misc" && isArxiv(e) && len(prof.Required("arxiv")) > 0 {
		entryType = "arxiv"
	}

	var findings []types.MissingField
	for _, field := range prof.Required(entryType) {
		value, ok := e.Get(field)
		if !ok || strings.TrimSpace(value) == "" {
			findings = append(findings, types.MissingField{
				Key:       e.Key,
				EntryType: e.Type,
				Field:     field,
			})
		}
	}
	return findings
}

// isArxiv reports whether any field value mentions arXiv.
func isArxiv(e *types.Entry) bool {
	for _, f := range e.Fields {
		if strings.Contains(strings.ToLower(f.Value), "arxiv") {
			return true
		}
	}
	return false
}

// venueField returns the entry's venue string: booktitle when present
// and non-empty, else journal.
func venueField(e *types.Entry) (string, bool) {
	if v, ok := e.Get("booktitle"); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	if v, ok := e.Get("journal"); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	return "", false
}

// NormalizeVenue returns the grouping key for a venue name: lowercased,
// periods and commas stripped, whitespace trimmed and collapsed.
func NormalizeVenue(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.Join(strings.Fields(s), " ")
}

// detectDiscrepancies groups entries by normalized venue name and reports
// every group whose raw spellings differ, so a human can unify them.
func detectDiscrepancies(entries []*types.Entry) []types.Discrepancy {
	variants := make(map[string]map[string]struct{})
	for _, e := range entries {
		raw, ok := venueField(e)
		if !ok {
			continue
		}
		norm := NormalizeVenue(raw)
		if norm == "" {
			continue
		}
		if variants[norm] == nil {
			variants[norm] = make(map[string]struct{})
		}
		variants[norm][raw] = struct{}{}
	}

	var discrepancies []types.Discrepancy
	for norm, set := range variants {
		if len(set) < 2 {
			continue
		}
		raws := make([]string, 0, len(set))
		for raw := range set {
			raws = append(raws, raw)
		}
		sort.Strings(raws)
		discrepancies = append(discrepancies, types.Discrepancy{Venue: norm, Variants: raws})
	}
	sort.Slice(discrepancies, func(i, j int) bool {
		return discrepancies[i].Venue < discrepancies[j].Venue
	})
	return discrepancies
}

// collectInventories fills the report's distinct venue and publisher
// lists and the fields-per-type table.
func collectInventories(rep *types.Report, entries []*types.Entry) {
	booktitles := make(map[string]struct{})
	publishers := make(map[string]struct{})
	journals := make(map[string]struct{})
	typeFields := make(map[string]map[string]struct{})

	for _, e := range entries {
		if v, ok := e.Get("booktitle"); ok && v != "" {
			booktitles[v] = struct{}{}
		}
		if v, ok := e.Get("publisher"); ok && v != "" {
			publishers[v] = struct{}{}
		}
		if v, ok := e.Get("journal"); ok && v != "" {
			journals[v] = struct{}{}
		}
		if typeFields[e.Type] == nil {
			typeFields[e.Type] = make(map[string]struct{})
		}
		for _, f := range e.Fields {
			typeFields[e.Type][f.Name] = struct{}{}
		}
	}

	rep.Booktitles = sortedKeys(booktitles)
	rep.Publishers = sortedKeys(publishers)
	rep.Journals = sortedKeys(journals)

	rep.TypeFields = make(map[string][]string, len(typeFields))
	for entryType, fields := range typeFields {
		rep.TypeFields[entryType] = sortedKeys(fields)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
