// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibindex

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibtools/bibcheck/pkg/types"
)

// testSetup creates a store in a fresh project directory.
func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	projectDir := t.TempDir()
	store, err := NewStore(projectDir, types.IndexConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, projectDir
}

func sampleEntry(entryType, key, title, venue string) *types.Entry {
	venueField := "booktitle"
	if entryType == "article" {
		venueField = "journal"
	}
	return &types.Entry{
		Type: entryType,
		Key:  key,
		Fields: []types.Field{
			{Name: "author", Value: "Smith, Anna"},
			{Name: "title", Value: title},
			{Name: venueField, Value: venue},
			{Name: "year", Value: "2016"},
		},
		File: "reference.bib",
		Line: 7,
	}
}

func sampleReport() *types.Report {
	return &types.Report{
		Conference: "CVPR",
		Used: []*types.Entry{
			sampleEntry("inproceedings", "he2016", "Deep Residual Learning for Image Recognition", "NeurIPS"),
			sampleEntry("article", "smith2020", "A Study of Testing", "Journal of Testing"),
		},
		Unused: []*types.Entry{
			sampleEntry("article", "lecun1998", "Gradient-Based Learning", "Proceedings of the IEEE"),
		},
		Duplicates: []types.DuplicateKey{
			{Key: "he2016", File: "b.bib", Line: 12, FirstFile: "a.bib", FirstLine: 3},
		},
		MissingEntries: []types.MissingEntry{{Key: "ghost2024"}},
		MissingFields: []types.MissingField{
			{Key: "he2016", EntryType: "inproceedings", Field: "booktitle"},
		},
		Discrepancies: []types.Discrepancy{
			{Venue: "proc of neurips", Variants: []string{"Proc of NeurIPS", "Proc. of NeurIPS"}},
		},
		Warnings: []types.FileWarning{
			{Path: "old.bib", Message: "unbalanced braces"},
		},
	}
}

func rebuildHelper(t *testing.T, store *Store) int {
	t.Helper()
	count, err := store.Rebuild(context.Background(), sampleReport())
	require.NoError(t, err)
	return count
}

// --- schema ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	for _, table := range []string{"entries", "findings", "runs", "entries_fts"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err, table)
		assert.NotZero(t, count, "table %s does not exist", table)
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	_, projectDir := testSetup(t)
	assert.FileExists(t, filepath.Join(projectDir, indexDir, dbFile))
}

func TestNewStoreIsIdempotent(t *testing.T) {
	_, projectDir := testSetup(t)

	again, err := NewStore(projectDir, types.IndexConfig{})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

// --- open ---

func TestOpenWithoutIndex(t *testing.T) {
	projectDir := t.TempDir()

	_, err := Open(projectDir, types.IndexConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoIndex))
	assert.Contains(t, err.Error(), projectDir)
}

func TestOpenExistingIndex(t *testing.T) {
	store, projectDir := testSetup(t)
	rebuildHelper(t, store)
	require.NoError(t, store.Close())

	reopened, err := Open(projectDir, types.IndexConfig{})
	require.NoError(t, err)
	defer reopened.Close()

	results, err := reopened.Search(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

// --- rebuild ---

func TestRebuildCountsEntries(t *testing.T) {
	store, _ := testSetup(t)
	assert.Equal(t, 3, rebuildHelper(t, store))
}

func TestRebuildReplacesPreviousRun(t *testing.T) {
	store, _ := testSetup(t)
	rebuildHelper(t, store)

	small := &types.Report{
		Conference: "CVPR",
		Used: []*types.Entry{
			sampleEntry("article", "only2021", "The Only Entry", "Journal of Testing"),
		},
	}
	count, err := store.Rebuild(context.Background(), small)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(context.Background(), QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only2021", results[0].Key)

	// Stale FTS rows would still match the old titles.
	results, err = store.Search(context.Background(), QueryOptions{Query: "residual"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRebuildStoresEntrySides(t *testing.T) {
	store, _ := testSetup(t)
	rebuildHelper(t, store)

	var used, unused int
	require.NoError(t, store.db.QueryRow(`SELECT count(*) FROM entries WHERE used = 1`).Scan(&used))
	require.NoError(t, store.db.QueryRow(`SELECT count(*) FROM entries WHERE used = 0`).Scan(&unused))
	assert.Equal(t, 2, used)
	assert.Equal(t, 1, unused)
}

func TestRebuildRecordsFindings(t *testing.T) {
	store, _ := testSetup(t)
	rebuildHelper(t, store)

	wantKinds := map[string]int{
		"duplicate_key": 1,
		"missing_field": 1,
		"missing_entry": 1,
		"discrepancy":   1,
		"file_warning":  1,
	}
	for kind, want := range wantKinds {
		var got int
		require.NoError(t, store.db.QueryRow(
			`SELECT count(*) FROM findings WHERE kind = ?`, kind).Scan(&got))
		assert.Equal(t, want, got, kind)
	}

	var detail string
	require.NoError(t, store.db.QueryRow(
		`SELECT detail FROM findings WHERE kind = 'duplicate_key'`).Scan(&detail))
	assert.Equal(t, "b.bib:12 duplicates a.bib:3", detail)
}

func TestRebuildRecordsRun(t *testing.T) {
	store, _ := testSetup(t)
	rebuildHelper(t, store)

	var (
		conference             string
		used, unused, findings int
		ranAt                  string
	)
	require.NoError(t, store.db.QueryRow(
		`SELECT conference, used, unused, findings, ran_at FROM runs`,
	).Scan(&conference, &used, &unused, &findings, &ranAt))

	assert.Equal(t, "CVPR", conference)
	assert.Equal(t, 2, used)
	assert.Equal(t, 1, unused)
	assert.Equal(t, 5, findings)
	assert.NotEmpty(t, ranAt)
}

func TestRebuildAppendsRunHistory(t *testing.T) {
	store, _ := testSetup(t)
	rebuildHelper(t, store)
	rebuildHelper(t, store)

	var runs int
	require.NoError(t, store.db.QueryRow(`SELECT count(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 2, runs)
}

func TestRebuildCanceledContext(t *testing.T) {
	store, _ := testSetup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Rebuild(ctx, sampleReport())
	require.Error(t, err)

	// The failed run must not leave partial rows behind.
	results, err := store.Search(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
