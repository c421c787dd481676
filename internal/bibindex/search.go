// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for index searches.
type QueryOptions struct {
	// Query is the FTS5 full-text search string matched against key,
	// title, author, and venue.
	Query string

	// Type filters by entry type (article, inproceedings, ...).
	Type string

	// Used restricts results to entries cited in the LaTeX sources;
	// Unused restricts to the rest. Setting both is rejected.
	Used   bool
	Unused bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Type == "" && !q.Used && !q.Unused
}

// Result is one indexed entry returned by Search.
type Result struct {
	Key    string            `json:"key" yaml:"key"`
	Type   string            `json:"type" yaml:"type"`
	Used   bool              `json:"used" yaml:"used"`
	Title  string            `json:"title,omitempty" yaml:"title,omitempty"`
	Author string            `json:"author,omitempty" yaml:"author,omitempty"`
	Venue  string            `json:"venue,omitempty" yaml:"venue,omitempty"`
	Year   string            `json:"year,omitempty" yaml:"year,omitempty"`
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
	File   string            `json:"file,omitempty" yaml:"file,omitempty"`
	Line   int               `json:"line,omitempty" yaml:"line,omitempty"`
}

// Search queries the index with optional full-text search and structured
// filters. Full-text results are ranked by relevance; structured-only
// results come back in bibliography order.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Result, error) {
	if opts.Used && opts.Unused {
		return nil, fmt.Errorf("used and unused filters are mutually exclusive")
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.key, e.type, e.used, e.title, e.author, e.venue, e.year,
				e.fields, e.file, e.line
			FROM entries_fts
			JOIN entries e ON e.rowid = entries_fts.rowid
			WHERE entries_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.key, e.type, e.used, e.title, e.author, e.venue, e.year,
				e.fields, e.file, e.line
			FROM entries e
			WHERE 1=1`)
	}

	if opts.Type != "" {
		qb.WriteString(` AND e.type = ?`)
		args = append(args, strings.ToLower(opts.Type))
	}

	if opts.Used {
		qb.WriteString(` AND e.used = 1`)
	}
	if opts.Unused {
		qb.WriteString(` AND e.used = 0`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY entries_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.rowid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			r          Result
			used       int
			title      sql.NullString
			author     sql.NullString
			venue      sql.NullString
			year       sql.NullString
			fieldsJSON sql.NullString
			file       sql.NullString
		)

		if err := rows.Scan(
			&r.Key, &r.Type, &used, &title, &author, &venue, &year,
			&fieldsJSON, &file, &r.Line,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Used = used == 1
		r.Title = title.String
		r.Author = author.String
		r.Venue = venue.String
		r.Year = year.String
		r.File = file.String
		if fieldsJSON.Valid {
			json.Unmarshal([]byte(fieldsJSON.String), &r.Fields)
		}

		results = append(results, r)
	}

	return results, rows.Err()
}
