// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texscan extracts citation keys from LaTeX source files.
package texscan

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bibtools/bibcheck/pkg/types"
)

// DefaultMacros lists the citation macro names recognized when none are
// configured. Suffix matching means "cite" also covers \citep, \citet,
// \citeauthor, and the other natbib variants; the biblatex commands are
// listed explicitly.
var DefaultMacros = []string{
	"cite",
	"autocite",
	"parencite",
	"textcite",
	"footcite",
	"smartcite",
}

// macroNameRe restricts configured macro names to LaTeX command letters.
var macroNameRe = regexp.MustCompile(`^[a-zA-Z]+$`)

// ScanStats counts what one scan saw.
type ScanStats struct {
	// TexFiles is the number of .tex files read.
	TexFiles int

	// Skipped is the number of unreadable files skipped with a warning.
	Skipped int

	// Macros is the number of citation commands matched.
	Macros int
}

// Summary returns a one-line description of the scan.
func (s ScanStats) Summary() string {
	return fmt.Sprintf("%d tex file(s), %d citation command(s), %d skipped",
		s.TexFiles, s.Macros, s.Skipped)
}

// Scan walks projectDir recursively, reads every file with a .tex
// extension (matched case-insensitively), and returns the set of distinct
// citation keys referenced by citation commands. Keys are trimmed of
// surrounding whitespace and matched exactly; no case normalization.
//
// Unreadable files are skipped with a warning on w and never abort the
// walk. Zero .tex files is not an error: the caller can detect it via
// ScanStats.TexFiles. A missing or unreadable project directory is an
// error.
func Scan(projectDir string, cfg types.ScanConfig, w io.Writer) (types.KeySet, ScanStats, error) {
	re, err := macroPattern(cfg.Macros)
	if err != nil {
		return nil, ScanStats{}, err
	}

	info, err := os.Stat(projectDir)
	if err != nil {
		return nil, ScanStats{}, fmt.Errorf("project directory %s: %w", projectDir, err)
	}
	if !info.IsDir() {
		return nil, ScanStats{}, fmt.Errorf("project directory %s: not a directory", projectDir)
	}

	keys := make(types.KeySet)
	var stats ScanStats

	walkErr := filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(w, "warning: skipping %s: %v\n", path, err)
			stats.Skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".tex") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping %s: %v\n", path, err)
			stats.Skipped++
			return nil
		}

		stats.TexFiles++
		stats.Macros += extractKeys(string(data), re, keys)
		return nil
	})
	if walkErr != nil {
		return nil, stats, fmt.Errorf("walking %s: %w", projectDir, walkErr)
	}

	return keys, stats, nil
}

// macroPattern compiles the citation command pattern for the configured
// macro names. For each name N it matches \N with any alphabetic suffix,
// an optional star, up to two optional bracket arguments, and a braced
// key list.
func macroPattern(macros []string) (*regexp.Regexp, error) {
	if len(macros) == 0 {
		macros = DefaultMacros
	}
	quoted := make([]string, len(macros))
	for i, m := range macros {
		if !macroNameRe.MatchString(m) {
			return nil, fmt.Errorf("invalid citation macro name %q: must be alphabetic", m)
		}
		quoted[i] = regexp.QuoteMeta(m)
	}
	pattern := `\\(?:` + strings.Join(quoted, "|") + `)[a-zA-Z]*\*?(?:\[[^\]]*\]){0,2}\{([^{}]+)\}`
	return regexp.Compile(pattern)
}

// extractKeys adds every key cited in content to keys and returns the
// number of citation commands matched. Key lists are comma-separated;
// empty pieces are ignored.
func extractKeys(content string, re *regexp.Regexp, keys types.KeySet) int {
	matches := re.FindAllStringSubmatch(content, -1)
	for _, m := range matches {
		for _, piece := range strings.Split(m[1], ",") {
			key := strings.TrimSpace(piece)
			if key != "" {
				keys.Add(key)
			}
		}
	}
	return len(matches)
}
