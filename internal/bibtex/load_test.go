// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// --- test helpers ---

func writeBib(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- FindBibFiles ---

func TestFindBibFiles(t *testing.T) {
	dir := t.TempDir()
	writeBib(t, dir, "reference.bib", "")
	writeBib(t, dir, filepath.Join("chapters", "reference.bib"), "")
	writeBib(t, dir, "other.bib", "")
	writeBib(t, dir, "xreference.bib", "")
	writeBib(t, dir, "reference.bib.bak", "")

	paths, err := FindBibFiles(dir, "reference.bib")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "chapters", "reference.bib"),
		filepath.Join(dir, "reference.bib"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestFindBibFilesNoneFound(t *testing.T) {
	dir := t.TempDir()
	writeBib(t, dir, "other.bib", "")

	paths, err := FindBibFiles(dir, "reference.bib")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("paths = %v, want empty", paths)
	}
}

func TestFindBibFilesMissingDirectory(t *testing.T) {
	_, err := FindBibFiles(filepath.Join(t.TempDir(), "nope"), "reference.bib")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

// --- Load ---

func TestLoadMergesFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib", `@article{alpha, title = {A}}`)
	b := writeBib(t, dir, "b.bib", `@article{beta, title = {B}}`)

	var buf strings.Builder
	bib, res := Load([]string{a, b}, &buf)

	if bib.Len() != 2 {
		t.Errorf("Len = %d, want 2", bib.Len())
	}
	if res.Parsed != 2 {
		t.Errorf("Parsed = %d, want 2", res.Parsed)
	}
	if _, ok := bib.Lookup("alpha"); !ok {
		t.Error("alpha not loaded")
	}
	if _, ok := bib.Lookup("beta"); !ok {
		t.Error("beta not loaded")
	}
}

func TestLoadDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib", `@article{dup2020, title = {First Version}}`)
	b := writeBib(t, dir, "b.bib", `@article{dup2020, title = {Second Version}}`)

	var buf strings.Builder
	bib, res := Load([]string{a, b}, &buf)

	if bib.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bib.Len())
	}
	kept, _ := bib.Lookup("dup2020")
	if title, _ := kept.Get("title"); title != "First Version" {
		t.Errorf("kept title = %q, want the first occurrence", title)
	}

	if len(res.Duplicates) != 1 {
		t.Fatalf("Duplicates = %v, want exactly 1", res.Duplicates)
	}
	d := res.Duplicates[0]
	if d.Key != "dup2020" || d.File != b || d.FirstFile != a {
		t.Errorf("duplicate = %+v", d)
	}

	warnings := strings.Count(buf.String(), "duplicate key")
	if warnings != 1 {
		t.Errorf("got %d duplicate warnings, want exactly 1: %s", warnings, buf.String())
	}
}

func TestLoadDuplicateWithinFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBib(t, dir, "refs.bib", `
@article{dup, title = {One}}
@article{dup, title = {Two}}
@article{dup, title = {Three}}
`)

	var buf strings.Builder
	bib, res := Load([]string{path}, &buf)

	if bib.Len() != 1 {
		t.Errorf("Len = %d, want 1", bib.Len())
	}
	kept, _ := bib.Lookup("dup")
	if title, _ := kept.Get("title"); title != "One" {
		t.Errorf("kept title = %q, want One", title)
	}
	// Two later occurrences, one warning each.
	if len(res.Duplicates) != 2 {
		t.Errorf("Duplicates = %d, want 2", len(res.Duplicates))
	}
}

func TestLoadSkipsUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	good := writeBib(t, dir, "good.bib", `@article{kept, title = {X}}`)
	bad := filepath.Join(dir, "bad.bib")
	if err := os.WriteFile(bad, []byte(`@article{lost, title = {Y}}`), 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(bad, 0o644) })

	var buf strings.Builder
	bib, res := Load([]string{bad, good}, &buf)

	if _, ok := bib.Lookup("kept"); !ok {
		t.Error("readable file should still load")
	}
	if _, ok := bib.Lookup("lost"); ok {
		t.Error("unreadable file should be skipped")
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1", res.Warnings)
	}
	if !strings.Contains(buf.String(), "warning: skipping") {
		t.Errorf("output = %q, want a skip warning", buf.String())
	}
}

func TestLoadCollectsEntryWarnings(t *testing.T) {
	dir := t.TempDir()
	path := writeBib(t, dir, "refs.bib", `
@article{broken
    title = {missing comma after key},
}

@article{fine, title = {Good}}
`)

	var buf strings.Builder
	bib, res := Load([]string{path}, &buf)

	if _, ok := bib.Lookup("fine"); !ok {
		t.Error("well-formed entry after malformed one should load")
	}
	if len(res.EntryWarnings) != 1 {
		t.Fatalf("EntryWarnings = %v, want 1", res.EntryWarnings)
	}
	if res.EntryWarnings[0].Path != path {
		t.Errorf("warning path = %q, want %q", res.EntryWarnings[0].Path, path)
	}
	if !strings.Contains(buf.String(), "warning:") {
		t.Errorf("output = %q, want a parse warning", buf.String())
	}
}

func TestLoadEmptyPathList(t *testing.T) {
	var buf strings.Builder
	bib, res := Load(nil, &buf)
	if bib.Len() != 0 || res.Parsed != 0 {
		t.Errorf("Len = %d, Parsed = %d; want 0, 0", bib.Len(), res.Parsed)
	}
}
