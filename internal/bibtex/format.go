package bibtex

import (
	"fmt"
	"io"
	"strings"

	"github.com/bibtools/bibcheck/pkg/types"
)

// FormatEntry renders an entry in canonical BibTeX text form: one field
// per line, four-space indent, every value brace-delimited, fields in
// stored order. Parsing the result yields an entry with identical type,
// key, and fields.
func FormatEntry(e *types.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "    %s = {%s},\n", f.Name, f.Value)
	}
	b.WriteString("}\n")
	return b.String()
}

// WriteEntries writes entries to w separated by blank lines.
func WriteEntries(w io.Writer, entries []*types.Entry) error {
	for _, e := range entries {
		if _, err := io.WriteString(w, FormatEntry(e)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
