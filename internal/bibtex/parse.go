// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex locates, parses, and re-serializes BibTeX bibliography
// files. The parser is a small brace-counting scanner rather than a
// regex: nested braces in field values are tolerated and a malformed
// entry is skipped with a warning while the scanner resynchronizes at
// the next '@'.
package bibtex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bibtools/bibcheck/pkg/types"
)

// Parse scans src for BibTeX entries and returns them in file order,
// along with one warning per malformed entry. @comment, @preamble, and
// @string blocks are recognized and skipped. path is recorded on each
// entry and warning for diagnostics.
func Parse(src []byte, path string) ([]*types.Entry, []types.FileWarning) {
	s := &scanner{src: src, line: 1}
	var entries []*types.Entry
	var warnings []types.FileWarning

	for s.seekEntry() {
		entryLine := s.line
		entry, err := s.readEntry()
		if err != nil {
			warnings = append(warnings, types.FileWarning{
				Path:    path,
				Message: fmt.Sprintf("line %d: %v", entryLine, err),
			})
			s.resync()
			continue
		}
		if entry == nil {
			continue // skipped block
		}
		entry.File = path
		entry.Line = entryLine
		entries = append(entries, entry)
	}
	return entries, warnings
}

// scanner walks a byte slice tracking the current line number.
type scanner struct {
	src  []byte
	pos  int
	line int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() byte {
	return s.src[s.pos]
}

func (s *scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.peek()) {
		s.advance()
	}
}

// seekEntry scans forward to the next '@' and consumes it. Text between
// entries is ignored, as BibTeX treats it as commentary.
func (s *scanner) seekEntry() bool {
	for !s.eof() {
		if s.advance() == '@' {
			return true
		}
	}
	return false
}

// resync advances to just before the next '@' so the scan can recover
// after a malformed entry.
func (s *scanner) resync() {
	for !s.eof() && s.peek() != '@' {
		s.advance()
	}
}

// readEntry parses one entry after its '@' marker. It returns (nil, nil)
// for recognized non-entry blocks.
func (s *scanner) readEntry() (*types.Entry, error) {
	typ := s.readEntryType()
	if typ == "" {
		return nil, errors.New("expected entry type after '@'")
	}
	typ = strings.ToLower(typ)

	s.skipSpace()
	if s.eof() {
		return nil, fmt.Errorf("unexpected end of file after @%s", typ)
	}
	open := s.peek()
	if open != '{' && open != '(' {
		return nil, fmt.Errorf("expected '{' after @%s", typ)
	}
	closer := byte('}')
	if open == '(' {
		closer = ')'
	}
	s.advance()

	switch typ {
	case "comment", "preamble", "string":
		if err := s.skipBalanced(open, closer); err != nil {
			return nil, fmt.Errorf("in @%s block: %w", typ, err)
		}
		return nil, nil
	}

	s.skipSpace()
	key := s.readKey(closer)
	if key == "" {
		return nil, errors.New("missing citation key")
	}

	entry := &types.Entry{Type: typ, Key: key}

	for {
		s.skipSpace()
		if s.eof() {
			return nil, fmt.Errorf("unexpected end of file in entry %q", key)
		}
		switch s.peek() {
		case closer:
			s.advance()
			return entry, nil
		case ',':
			s.advance()
		default:
			return nil, fmt.Errorf("expected ',' or '%c' in entry %q, found %q", closer, key, s.peek())
		}

		s.skipSpace()
		if !s.eof() && s.peek() == closer {
			s.advance()
			return entry, nil // trailing comma
		}

		name := s.readFieldName()
		if name == "" {
			return nil, fmt.Errorf("expected field name in entry %q", key)
		}
		s.skipSpace()
		if s.eof() || s.peek() != '=' {
			return nil, fmt.Errorf("expected '=' after field %q in entry %q", name, key)
		}
		s.advance()
		s.skipSpace()

		value, err := s.readValue(closer)
		if err != nil {
			return nil, fmt.Errorf("in field %q of entry %q: %w", name, key, err)
		}
		entry.Fields = append(entry.Fields, types.Field{
			Name:  strings.ToLower(name),
			Value: value,
		})
	}
}

// readEntryType reads the alphabetic type tag after '@'.
func (s *scanner) readEntryType() string {
	start := s.pos
	for !s.eof() && isAlpha(s.peek()) {
		s.advance()
	}
	return string(s.src[start:s.pos])
}

// readKey reads the citation key up to the first comma, entry closer, or
// line break, trimmed of surrounding whitespace.
func (s *scanner) readKey(closer byte) string {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if c == ',' || c == closer || c == '\n' {
			break
		}
		s.advance()
	}
	return strings.TrimSpace(string(s.src[start:s.pos]))
}

// readFieldName reads a field name: letters, digits, and -_.:+ keep the
// common BibTeX styles (archivePrefix, primaryClass, biburl) intact.
func (s *scanner) readFieldName() string {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if isAlpha(c) || isDigit(c) || c == '-' || c == '_' || c == '.' || c == ':' || c == '+' {
			s.advance()
			continue
		}
		break
	}
	return string(s.src[start:s.pos])
}

// readValue reads one field value: a brace-balanced group, a quoted
// string, or a bare number/identifier.
func (s *scanner) readValue(closer byte) (string, error) {
	if s.eof() {
		return "", errors.New("missing value")
	}
	switch s.peek() {
	case '{':
		return s.readBraced()
	case '"':
		return s.readQuoted()
	default:
		return s.readBare(closer)
	}
}

// readBraced reads a {...} group, honoring nested braces and \{ \}
// escapes, and returns the inner text with whitespace runs collapsed.
// Entries may span lines; the collapse keeps values on one line.
func (s *scanner) readBraced() (string, error) {
	s.advance() // opening brace
	var b strings.Builder
	depth := 1
	for !s.eof() {
		c := s.advance()
		switch c {
		case '\\':
			b.WriteByte(c)
			if !s.eof() {
				b.WriteByte(s.advance())
			}
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return collapseSpace(b.String()), nil
			}
		}
		b.WriteByte(c)
	}
	return "", errors.New("unbalanced braces")
}

// readQuoted reads a "..." string. Braces inside the quotes must balance;
// a quote inside a brace group does not terminate the value.
func (s *scanner) readQuoted() (string, error) {
	s.advance() // opening quote
	var b strings.Builder
	depth := 0
	for !s.eof() {
		c := s.advance()
		switch c {
		case '\\':
			b.WriteByte(c)
			if !s.eof() {
				b.WriteByte(s.advance())
			}
			continue
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				return collapseSpace(b.String()), nil
			}
		}
		b.WriteByte(c)
	}
	return "", errors.New("unterminated quoted value")
}

// readBare reads an undelimited value such as a year or month macro.
func (s *scanner) readBare(closer byte) (string, error) {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if c == ',' || c == closer || isSpace(c) {
			break
		}
		s.advance()
	}
	value := string(s.src[start:s.pos])
	if value == "" {
		return "", errors.New("missing value")
	}
	return value, nil
}

// skipBalanced consumes a balanced open...close block, used for the
// non-entry @ blocks.
func (s *scanner) skipBalanced(open, closer byte) error {
	depth := 1
	for !s.eof() {
		c := s.advance()
		switch c {
		case '\\':
			if !s.eof() {
				s.advance()
			}
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return errors.New("unbalanced braces")
}

// collapseSpace trims a value and collapses internal whitespace runs,
// including line breaks, to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
