// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibtools/bibcheck/pkg/types"
)

func searchSetup(t *testing.T) *Store {
	t.Helper()
	store, _ := testSetup(t)
	rebuildHelper(t, store)
	return store
}

func TestSearchFullText(t *testing.T) {
	store := searchSetup(t)

	tests := []struct {
		name     string
		query    string
		wantKeys []string
	}{
		{"title term", "residual", []string{"he2016"}},
		{"venue term", "neurips", []string{"he2016"}},
		{"key term", "lecun1998", []string{"lecun1998"}},
		{"shared author term", "smith", []string{"he2016", "smith2020", "lecun1998"}},
		{"no match", "quantum", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Search(context.Background(), QueryOptions{Query: tt.query})
			require.NoError(t, err)

			var keys []string
			for _, r := range results {
				keys = append(keys, r.Key)
			}
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}

func TestSearchTypeFilter(t *testing.T) {
	store := searchSetup(t)

	results, err := store.Search(context.Background(), QueryOptions{Type: "Article"})
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "article", r.Type)
	}
}

func TestSearchUsedFilter(t *testing.T) {
	store := searchSetup(t)

	results, err := store.Search(context.Background(), QueryOptions{Used: true})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Used)
	}

	results, err = store.Search(context.Background(), QueryOptions{Unused: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lecun1998", results[0].Key)
	assert.False(t, results[0].Used)
}

func TestSearchUsedUnusedMutuallyExclusive(t *testing.T) {
	store := searchSetup(t)

	_, err := store.Search(context.Background(), QueryOptions{Used: true, Unused: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestSearchCombinesQueryAndFilters(t *testing.T) {
	store := searchSetup(t)

	// "smith" matches the author on every entry; the filters narrow it.
	results, err := store.Search(context.Background(), QueryOptions{
		Query: "smith",
		Type:  "article",
		Used:  true,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "smith2020", results[0].Key)
}

func TestSearchLimit(t *testing.T) {
	store := searchSetup(t)

	results, err := store.Search(context.Background(), QueryOptions{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchDefaultLimit(t *testing.T) {
	projectDir := t.TempDir()
	store, err := NewStore(projectDir, types.IndexConfig{MaxResults: 2})
	require.NoError(t, err)
	defer store.Close()
	rebuildHelper(t, store)

	results, err := store.Search(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchResultFields(t *testing.T) {
	store := searchSetup(t)

	results, err := store.Search(context.Background(), QueryOptions{Query: "residual"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "he2016", r.Key)
	assert.Equal(t, "inproceedings", r.Type)
	assert.True(t, r.Used)
	assert.Equal(t, "Deep Residual Learning for Image Recognition", r.Title)
	assert.Equal(t, "Smith, Anna", r.Author)
	assert.Equal(t, "NeurIPS", r.Venue)
	assert.Equal(t, "2016", r.Year)
	assert.Equal(t, "reference.bib", r.File)
	assert.Equal(t, 7, r.Line)
	assert.Equal(t, map[string]string{
		"author":    "Smith, Anna",
		"title":     "Deep Residual Learning for Image Recognition",
		"booktitle": "NeurIPS",
		"year":      "2016",
	}, r.Fields)
}

func TestSearchStructuredResultsInBibliographyOrder(t *testing.T) {
	store := searchSetup(t)

	results, err := store.Search(context.Background(), QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "he2016", results[0].Key)
	assert.Equal(t, "smith2020", results[1].Key)
	assert.Equal(t, "lecun1998", results[2].Key)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{}.IsEmpty())
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Query: "x"}.IsEmpty())
	assert.False(t, QueryOptions{Type: "article"}.IsEmpty())
	assert.False(t, QueryOptions{Used: true}.IsEmpty())
	assert.False(t, QueryOptions{Unused: true}.IsEmpty())
}
