// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibindex persists reconciliation results in a per-project
// SQLite database and serves full-text searches over entry metadata.
// The schema uses an FTS5 virtual table, so binaries and tests must be
// built with the sqlite_fts5 tag (the mage targets pass it).
package bibindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bibtools/bibcheck/pkg/types"
)

const (
	indexDir = ".bibcheck"
	dbFile   = "index.db"
)

// ErrNoIndex reports that the project has no index database yet.
var ErrNoIndex = errors.New("no index database")

// Store manages the per-project index database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the index database at
// projectDir/.bibcheck/index.db, creating the schema if it does not
// exist.
func NewStore(projectDir string, cfg types.IndexConfig) (*Store, error) {
	dbDir := filepath.Join(projectDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return open(filepath.Join(dbDir, dbFile), cfg)
}

// Open opens an existing index database, returning ErrNoIndex when none
// has been built for the project.
func Open(projectDir string, cfg types.IndexConfig) (*Store, error) {
	dbPath := filepath.Join(projectDir, indexDir, dbFile)
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for %s", ErrNoIndex, projectDir)
		}
		return nil, fmt.Errorf("checking index database: %w", err)
	}
	return open(dbPath, cfg)
}

func open(dbPath string, cfg types.IndexConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			used INTEGER NOT NULL,
			title TEXT,
			author TEXT,
			venue TEXT,
			year TEXT,
			fields TEXT,
			file TEXT,
			line INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_used ON entries(used)`,
		`CREATE TABLE IF NOT EXISTS findings (
			kind TEXT NOT NULL,
			entry_key TEXT,
			detail TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ran_at TEXT NOT NULL,
			conference TEXT NOT NULL,
			used INTEGER NOT NULL,
			unused INTEGER NOT NULL,
			findings INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='entries_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE entries_fts USING fts5(key, title, author, venue, content=entries, content_rowid=rowid)`,
			`CREATE TRIGGER entries_ai AFTER INSERT ON entries BEGIN
				INSERT INTO entries_fts(rowid, key, title, author, venue)
				VALUES (new.rowid, new.key, new.title, new.author, new.venue);
			END`,
			`CREATE TRIGGER entries_ad AFTER DELETE ON entries BEGIN
				INSERT INTO entries_fts(entries_fts, rowid, key, title, author, venue)
				VALUES ('delete', old.rowid, old.key, old.title, old.author, old.venue);
			END`,
			`CREATE TRIGGER entries_au AFTER UPDATE ON entries BEGIN
				INSERT INTO entries_fts(entries_fts, rowid, key, title, author, venue)
				VALUES ('delete', old.rowid, old.key, old.title, old.author, old.venue);
				INSERT INTO entries_fts(rowid, key, title, author, venue)
				VALUES (new.rowid, new.key, new.title, new.author, new.venue);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Rebuild replaces the index contents with the entries and findings of
// one reconciliation run. The swap happens inside a single transaction,
// so a search never observes a half-built index. It returns the number
// of entries indexed.
func (s *Store) Rebuild(ctx context.Context, rep *types.Report) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"findings", "entries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return 0, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (key, type, used, title, author, venue, year, fields, file, line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, side := range []struct {
		entries []*types.Entry
		used    int
	}{
		{rep.Used, 1},
		{rep.Unused, 0},
	} {
		for _, e := range side.entries {
			if err := insertEntry(ctx, stmt, e, side.used); err != nil {
				return 0, err
			}
			count++
		}
	}

	if err := insertFindings(ctx, tx, rep); err != nil {
		return 0, err
	}

	findings := len(rep.Duplicates) + len(rep.MissingFields) +
		len(rep.MissingEntries) + len(rep.Discrepancies) + len(rep.Warnings)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (ran_at, conference, used, unused, findings) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), rep.Conference,
		len(rep.Used), len(rep.Unused), findings,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}

func insertEntry(ctx context.Context, stmt *sql.Stmt, e *types.Entry, used int) error {
	fields := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		fields[f.Name] = f.Value
	}
	fieldsJSON, _ := json.Marshal(fields)

	title, _ := e.Get("title")
	author, _ := e.Get("author")
	year, _ := e.Get("year")
	venue, ok := e.Get("booktitle")
	if !ok || venue == "" {
		venue, _ = e.Get("journal")
	}

	if _, err := stmt.ExecContext(ctx,
		e.Key, e.Type, used, title, author, venue, year,
		string(fieldsJSON), e.File, e.Line,
	); err != nil {
		return fmt.Errorf("inserting entry %s: %w", e.Key, err)
	}
	return nil
}

func insertFindings(ctx context.Context, tx *sql.Tx, rep *types.Report) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (kind, entry_key, detail) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing findings insert: %w", err)
	}
	defer stmt.Close()

	insert := func(kind, key, detail string) error {
		if _, err := stmt.ExecContext(ctx, kind, key, detail); err != nil {
			return fmt.Errorf("inserting %s finding: %w", kind, err)
		}
		return nil
	}

	for _, d := range rep.Duplicates {
		detail := fmt.Sprintf("%s:%d duplicates %s:%d", d.File, d.Line, d.FirstFile, d.FirstLine)
		if err := insert("duplicate_key", d.Key, detail); err != nil {
			return err
		}
	}
	for _, f := range rep.MissingFields {
		detail := fmt.Sprintf("missing required field %s on @%s", f.Field, f.EntryType)
		if err := insert("missing_field", f.Key, detail); err != nil {
			return err
		}
	}
	for _, m := range rep.MissingEntries {
		if err := insert("missing_entry", m.Key, "cited but not in bibliography"); err != nil {
			return err
		}
	}
	for _, d := range rep.Discrepancies {
		detailJSON, _ := json.Marshal(d.Variants)
		if err := insert("discrepancy", d.Venue, string(detailJSON)); err != nil {
			return err
		}
	}
	for _, w := range rep.Warnings {
		if err := insert("file_warning", w.Path, w.Message); err != nil {
			return err
		}
	}
	return nil
}
