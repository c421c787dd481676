package bibtex

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bibtools/bibcheck/pkg/types"
)

func TestFormatEntry(t *testing.T) {
	e := &types.Entry{
		Type: "inproceedings",
		Key:  "he2016resnet",
		Fields: []types.Field{
			{Name: "author", Value: "He, Kaiming and Zhang, Xiangyu"},
			{Name: "title", Value: "Deep Residual Learning"},
			{Name: "booktitle", Value: "CVPR"},
			{Name: "year", Value: "2016"},
		},
	}

	want := `@inproceedings{he2016resnet,
    author = {He, Kaiming and Zhang, Xiangyu},
    title = {Deep Residual Learning},
    booktitle = {CVPR},
    year = {2016},
}
`
	if got := FormatEntry(e); got != want {
		t.Errorf("FormatEntry =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatEntryRoundTrip(t *testing.T) {
	original := &types.Entry{
		Type: "article",
		Key:  "mixed.Key:2020",
		Fields: []types.Field{
			{Name: "title", Value: "An {LSTM}-based Model"},
			{Name: "author", Value: "O'Neil, D. and others"},
			{Name: "year", Value: "2020"},
		},
	}

	entries, warnings := Parse([]byte(FormatEntry(original)), "roundtrip.bib")
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	got := entries[0]
	if got.Type != original.Type || got.Key != original.Key {
		t.Errorf("round-trip header = @%s{%s}, want @%s{%s}",
			got.Type, got.Key, original.Type, original.Key)
	}
	if !reflect.DeepEqual(got.Fields, original.Fields) {
		t.Errorf("round-trip fields = %v, want %v", got.Fields, original.Fields)
	}
}

func TestWriteEntries(t *testing.T) {
	entries := []*types.Entry{
		{Type: "misc", Key: "a", Fields: []types.Field{{Name: "title", Value: "A"}}},
		{Type: "misc", Key: "b", Fields: []types.Field{{Name: "title", Value: "B"}}},
	}

	var buf strings.Builder
	if err := WriteEntries(&buf, entries); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "@misc{a,") || !strings.Contains(out, "@misc{b,") {
		t.Errorf("output missing entries:\n%s", out)
	}
	if !strings.Contains(out, "}\n\n@misc{b,") {
		t.Errorf("entries should be separated by a blank line:\n%s", out)
	}
}
