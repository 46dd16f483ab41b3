// Package store implements the bibliographic source of truth on SQLite.
//
// Documents, authors, authorships, and citation edges live here; the vector
// index and citation graph are derived views rebuilt from this store. All
// multi-row mutations are transactional: a document insert and its
// authorship/citation edges either all succeed or none are visible.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Errors returned by store operations.
var (
	// ErrNotFound is returned when a lookup misses. An absent result is an
	// explicit outcome, not an exceptional control path.
	ErrNotFound = errors.New("not found")

	// ErrConstraint is returned when an insert or update would violate a
	// referential invariant. The enclosing transaction is rolled back.
	ErrConstraint = errors.New("store constraint violated")
)

// Store wraps the SQLite bibliographic database.
type Store struct {
	db       *sql.DB
	titleSim float64 // near-duplicate title similarity threshold
}

// Option configures a Store.
type Option func(*Store)

// WithTitleSimilarity sets the token-overlap threshold above which two
// normalized titles are treated as the same work.
func WithTitleSimilarity(threshold float64) Option {
	return func(s *Store) {
		if threshold > 0 && threshold <= 1 {
			s.titleSim = threshold
		}
	}
}

// Open opens or creates the bibliographic database at the given path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite serializes writes; a single connection avoids SQLITE_BUSY
	// races between concurrent ingestion workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{db: db, titleSim: 0.9}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			file_hash TEXT NOT NULL UNIQUE,
			content_hash TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			abstract TEXT,
			body TEXT,
			pub_year INTEGER,
			doi TEXT,
			keywords_json TEXT,
			sections_json TEXT,
			extracted_by TEXT NOT NULL,
			status TEXT NOT NULL,
			page_count INTEGER,
			file_size INTEGER,
			ingested_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_year ON documents(pub_year);
		CREATE INDEX IF NOT EXISTS idx_documents_ingested ON documents(ingested_at);

		CREATE TABLE IF NOT EXISTS authors (
			id TEXT PRIMARY KEY,
			canonical TEXT NOT NULL UNIQUE,
			display TEXT NOT NULL,
			given TEXT,
			family TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_authors_family ON authors(family);

		CREATE TABLE IF NOT EXISTS author_aliases (
			author_id TEXT NOT NULL,
			alias TEXT NOT NULL,
			PRIMARY KEY (author_id, alias)
		);

		CREATE TABLE IF NOT EXISTS authorships (
			document_id TEXT NOT NULL,
			author_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (document_id, author_id)
		);

		CREATE INDEX IF NOT EXISTS idx_authorships_author ON authorships(author_id);

		CREATE TABLE IF NOT EXISTS citations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			citing_id TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			ref_surname TEXT,
			ref_year INTEGER,
			ref_title TEXT,
			ref_doi TEXT,
			cited_id TEXT,
			resolved_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_citations_citing ON citations(citing_id);
		CREATE INDEX IF NOT EXISTS idx_citations_cited ON citations(cited_id) WHERE cited_id IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_citations_unresolved ON citations(ref_surname, ref_year) WHERE cited_id IS NULL;

		-- Duplicate submissions link back to the original document instead
		-- of being stored as new rows.
		CREATE TABLE IF NOT EXISTS duplicates (
			file_hash TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			document_id TEXT NOT NULL,
			detected_at INTEGER NOT NULL
		);

		-- Author merges are logged for auditability.
		CREATE TABLE IF NOT EXISTS author_merges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			loser_id TEXT NOT NULL,
			survivor_id TEXT NOT NULL,
			merged_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ingest_failures (
			source_path TEXT PRIMARY KEY,
			reason TEXT NOT NULL,
			occurred_at INTEGER NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			id,
			title,
			abstract,
			body,
			authors_text
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Stats summarizes the state of the corpus.
type Stats struct {
	DocumentCount       int `json:"document_count"`
	AuthorCount         int `json:"author_count"`
	ResolvedCitations   int `json:"resolved_citations"`
	UnresolvedCitations int `json:"unresolved_citations"`
	DuplicateCount      int `json:"duplicate_count"`
	FailedCount         int `json:"failed_count"`
}

// Stats returns corpus-level counters.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.DocumentCount},
		{"SELECT COUNT(*) FROM authors", &stats.AuthorCount},
		{"SELECT COUNT(*) FROM citations WHERE cited_id IS NOT NULL", &stats.ResolvedCitations},
		{"SELECT COUNT(*) FROM citations WHERE cited_id IS NULL", &stats.UnresolvedCitations},
		{"SELECT COUNT(*) FROM duplicates", &stats.DuplicateCount},
		{"SELECT COUNT(*) FROM ingest_failures", &stats.FailedCount},
	}
	for _, q := range counts {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}
	return stats, nil
}

// RecordFailure records a per-document extraction failure so that batch
// reports and stats agree across runs. Re-recording a path replaces the
// previous reason.
func (s *Store) RecordFailure(ctx context.Context, sourcePath, reason string, at int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_failures (source_path, reason, occurred_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET reason = excluded.reason, occurred_at = excluded.occurred_at
	`, sourcePath, reason, at)
	if err != nil {
		return fmt.Errorf("recording failure: %w", err)
	}
	return nil
}

// ClearFailure removes a recorded failure after a later successful ingest.
func (s *Store) ClearFailure(ctx context.Context, sourcePath string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM ingest_failures WHERE source_path = ?", sourcePath)
	return err
}
