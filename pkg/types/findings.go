// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DuplicateKey records a bibliography entry whose key was already loaded
// from an earlier file or line. The later occurrence is discarded.
type DuplicateKey struct {
	// Key is the duplicated citation key.
	Key string `json:"key" yaml:"key"`

	// File and Line locate the discarded occurrence.
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`

	// FirstFile and FirstLine locate the occurrence that was kept.
	FirstFile string `json:"first_file" yaml:"first_file"`
	FirstLine int    `json:"first_line" yaml:"first_line"`
}

// MissingField records a required field that is absent or empty on an entry.
type MissingField struct {
	// Key is the citation key of the affected entry.
	Key string `json:"key" yaml:"key"`

	// EntryType is the entry's BibTeX type.
	EntryType string `json:"entry_type" yaml:"entry_type"`

	// Field is the required field name that is missing or empty.
	Field string `json:"field" yaml:"field"`
}

// Discrepancy records venue-name strings that normalize to the same venue
// but differ in their raw spelling across entries.
type Discrepancy struct {
	// Venue is the normalized venue name shared by the variants.
	Venue string `json:"venue" yaml:"venue"`

	// Variants lists the distinct raw spellings, sorted.
	Variants []string `json:"variants" yaml:"variants"`
}

// MissingEntry records a citation key with no matching bibliography entry.
type MissingEntry struct {
	// Key is the cited key absent from the bibliography.
	Key string `json:"key" yaml:"key"`
}

// FileWarning records a recoverable per-file or per-entry problem
// encountered while scanning or parsing.
type FileWarning struct {
	// Path is the affected file.
	Path string `json:"path" yaml:"path"`

	// Message describes the problem, including a line number when known.
	Message string `json:"message" yaml:"message"`
}

// Report is the result of reconciling cited keys against a bibliography.
// It partitions entries into used and unused sets and collects every
// non-fatal finding from the run.
type Report struct {
	// Conference is the canonical name of the profile validated against.
	Conference string `json:"conference" yaml:"conference"`

	// Used holds entries whose key appears in the citation set, in
	// bibliography order.
	Used []*Entry `json:"used" yaml:"used"`

	// Unused holds the remaining entries, in bibliography order.
	Unused []*Entry `json:"unused" yaml:"unused"`

	// MissingFields lists required-field findings.
	MissingFields []MissingField `json:"missing_fields,omitempty" yaml:"missing_fields,omitempty"`

	// Discrepancies lists venue naming discrepancies.
	Discrepancies []Discrepancy `json:"discrepancies,omitempty" yaml:"discrepancies,omitempty"`

	// Duplicates lists duplicate keys discarded during loading.
	Duplicates []DuplicateKey `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`

	// MissingEntries lists keys cited but absent from the bibliography.
	MissingEntries []MissingEntry `json:"missing_entries,omitempty" yaml:"missing_entries,omitempty"`

	// Warnings lists per-file scan and parse problems.
	Warnings []FileWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Booktitles, Publishers, and Journals list the distinct raw values
	// of those fields across all entries, sorted.
	Booktitles []string `json:"booktitles,omitempty" yaml:"booktitles,omitempty"`
	Publishers []string `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	Journals   []string `json:"journals,omitempty" yaml:"journals,omitempty"`

	// TypeFields maps each entry type to the sorted distinct field names
	// seen on entries of that type.
	TypeFields map[string][]string `json:"type_fields,omitempty" yaml:"type_fields,omitempty"`
}
