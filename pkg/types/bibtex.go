// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strings"
)

// Field is one name = value pair from a BibTeX entry. The value is stored
// without its outer braces or quotes; inner braces are preserved.
type Field struct {
	// Name is the field name. The parser lowercases names, since BibTeX
	// treats them case-insensitively.
	Name string `json:"name" yaml:"name"`

	// Value is the raw field value with outer delimiters removed.
	Value string `json:"value" yaml:"value"`
}

// Entry is one bibliography record parsed from a .bib file.
type Entry struct {
	// Type is the entry type tag (article, inproceedings, ...), lowercased.
	Type string `json:"type" yaml:"type"`

	// Key is the citation key. Keys are case-sensitive and never normalized.
	Key string `json:"key" yaml:"key"`

	// Fields holds the entry's fields in parse order.
	Fields []Field `json:"fields" yaml:"fields"`

	// File is the path of the .bib file the entry was parsed from.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// Line is the 1-based line of the entry's @ marker in File.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// Get returns the value of the named field. The lookup is case-insensitive.
func (e *Entry) Get(name string) (string, bool) {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether the entry carries the named field.
func (e *Entry) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set replaces the value of an existing field in place, preserving field
// order. It returns false when the entry has no field with that name.
func (e *Entry) Set(name, value string) bool {
	for i, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			e.Fields[i].Value = value
			return true
		}
	}
	return false
}

// Bibliography is an ordered collection of entries with unique keys.
// Entries keep their insertion order; key lookups are exact and
// case-sensitive, matching BibTeX key semantics.
type Bibliography struct {
	entries []*Entry
	byKey   map[string]*Entry
}

// NewBibliography returns an empty Bibliography.
func NewBibliography() *Bibliography {
	return &Bibliography{byKey: make(map[string]*Entry)}
}

// Add inserts an entry. It returns false, without inserting, when an
// entry with the same key is already present: the first occurrence wins.
func (b *Bibliography) Add(e *Entry) bool {
	if _, exists := b.byKey[e.Key]; exists {
		return false
	}
	b.entries = append(b.entries, e)
	b.byKey[e.Key] = e
	return true
}

// Lookup returns the entry for key, if present.
func (b *Bibliography) Lookup(key string) (*Entry, bool) {
	e, ok := b.byKey[key]
	return e, ok
}

// Len returns the number of entries.
func (b *Bibliography) Len() int {
	return len(b.entries)
}

// Entries returns the entries in insertion order.
func (b *Bibliography) Entries() []*Entry {
	return b.entries
}

// KeySet is a set of distinct citation keys. A key cited multiple times
// counts once.
type KeySet map[string]struct{}

// Add inserts a key into the set.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Sorted returns the keys in lexicographic order.
func (s KeySet) Sorted() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
