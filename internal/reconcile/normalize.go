// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bibtools/bibcheck/pkg/types"
)

// smallWords stay lowercase in title case unless first or last.
var smallWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "but": true,
	"or": true, "for": true, "nor": true, "on": true, "at": true,
	"to": true, "from": true, "by": true, "of": true, "in": true,
	"out": true, "over": true, "with": true, "is": true, "ok": true,
	"as": true, "if": true, "be": true, "into": true, "than": true,
	"that": true,
}

// titleTokenRe splits a title into LaTeX commands with a group, brace
// groups, and plain words.
var titleTokenRe = regexp.MustCompile(`\\[a-zA-Z]+\{[^{}]*\}|\{[^{}]*\}|\S+`)

// NormalizeEntry applies the capitalization transforms to an entry's
// title and author fields in place. Both transforms are idempotent, so
// re-running on an already normalized entry changes nothing.
func NormalizeEntry(e *types.Entry) {
	if title, ok := e.Get("title"); ok {
		e.Set("title", TitleCase(title))
	}
	if author, ok := e.Get("author"); ok {
		e.Set("author", StandardizeAuthors(author))
	}
}

// TitleCase renders a title in title case while protecting segments whose
// capitalization is intentional: LaTeX commands with a group and brace
// groups are kept verbatim (the BibTeX forced-case convention), as are
// fully capitalized words (acronyms). Small words stay lowercase except
// in first or last position. Other words get their first letter
// uppercased with the remainder preserved, so camel-case names survive.
func TitleCase(title string) string {
	tokens := titleTokenRe.FindAllString(title, -1)
	for i, token := range tokens {
		switch {
		case isProtected(token):
		case isAllUpper(token):
		case i == 0 || i == len(tokens)-1:
			tokens[i] = upperFirst(token)
		case smallWords[strings.ToLower(token)]:
			tokens[i] = strings.ToLower(token)
		default:
			tokens[i] = upperFirst(token)
		}
	}
	return strings.Join(tokens, " ")
}

// StandardizeAuthors renders an author field as "Last, First" names
// joined by the BibTeX separator " and ". Names already containing a
// comma keep their split; otherwise the final token is the family name.
// Brace-wrapped corporate authors and the keyword "others" pass through
// verbatim.
func StandardizeAuthors(authorField string) string {
	names := splitAuthors(authorField)
	standardized := make([]string, 0, len(names))
	for _, name := range names {
		standardized = append(standardized, standardizeName(name))
	}
	return strings.Join(standardized, " and ")
}

// splitAuthors splits an author field on the word "and" surrounded by
// whitespace, ignoring separators inside brace groups so corporate
// author names stay whole.
func splitAuthors(s string) []string {
	var names []string
	depth := 0
	start := 0
	i := 0
	for i < len(s) {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && isSpaceByte(s[i]) {
			j := i
			for j < len(s) && isSpaceByte(s[j]) {
				j++
			}
			if strings.HasPrefix(s[j:], "and") && j+3 < len(s) && isSpaceByte(s[j+3]) {
				if name := strings.TrimSpace(s[start:i]); name != "" {
					names = append(names, name)
				}
				i = j + 4
				start = i
				continue
			}
		}
		i++
	}
	if name := strings.TrimSpace(s[start:]); name != "" {
		names = append(names, name)
	}
	return names
}

// standardizeName renders one personal name as "Last, First".
func standardizeName(name string) string {
	if name == "others" {
		return name
	}
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		return name
	}

	var last, first string
	if i := strings.Index(name, ","); i >= 0 {
		last = strings.TrimSpace(name[:i])
		first = strings.TrimSpace(name[i+1:])
	} else {
		parts := strings.Fields(name)
		if len(parts) == 1 {
			last = parts[0]
		} else {
			first = strings.Join(parts[:len(parts)-1], " ")
			last = parts[len(parts)-1]
		}
	}

	last = upperFirst(last)
	firstParts := strings.Fields(first)
	for i, p := range firstParts {
		firstParts[i] = upperFirst(p)
	}
	first = strings.Join(firstParts, " ")

	if first == "" {
		return last
	}
	return last + ", " + first
}

// isProtected reports whether a title token must be kept verbatim.
func isProtected(token string) bool {
	if strings.HasPrefix(token, `\`) {
		return true
	}
	return strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}")
}

// isAllUpper reports whether a token has at least one letter and no
// lowercase letters, the shape of an acronym like CNN or 3D.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// upperFirst uppercases the first rune and preserves the remainder.
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
