package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/normalize"
)

// InsertResult reports the outcome of an InsertDocument call. A duplicate
// is a normal outcome, not an error: the submission is linked to the
// earlier document and no new row is stored.
type InsertResult struct {
	DocumentID  string `json:"document_id"`
	Duplicate   bool   `json:"duplicate"`
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

const selectDocFields = `id, source_path, file_hash, content_hash, title, abstract, body,
	pub_year, doi, keywords_json, sections_json, extracted_by, status,
	page_count, file_size, ingested_at`

// InsertDocument stores a document together with its authorship and citation
// edges in one transaction. Duplicate detection runs inside the same
// transaction: equal content hash, or a normalized-title similarity at or
// above the configured threshold, links the submission to the earlier
// document instead of storing it.
func (s *Store) InsertDocument(ctx context.Context, doc *document.Document) (*InsertResult, error) {
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	originalID, err := s.findDuplicate(ctx, tx, doc)
	if err != nil {
		return nil, err
	}
	if originalID != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO duplicates (file_hash, source_path, document_id, detected_at)
			VALUES (?, ?, ?, ?)
		`, doc.FileHash, doc.SourcePath, originalID, doc.IngestedAt.UnixNano()); err != nil {
			return nil, fmt.Errorf("linking duplicate: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing: %w", err)
		}
		return &InsertResult{DocumentID: originalID, Duplicate: true, DuplicateOf: originalID}, nil
	}

	keywordsJSON, _ := json.Marshal(doc.Keywords)
	sectionsJSON, _ := json.Marshal(doc.Sections)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (
			id, source_path, file_hash, content_hash, title, abstract, body,
			pub_year, doi, keywords_json, sections_json, extracted_by, status,
			page_count, file_size, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourcePath, doc.FileHash, doc.ContentHash, doc.Title, doc.Abstract, doc.Body,
		doc.Year, doc.DOI, string(keywordsJSON), string(sectionsJSON), doc.ExtractedBy, string(doc.Status),
		doc.PageCount, doc.FileSize, doc.IngestedAt.UnixNano()); err != nil {
		return nil, fmt.Errorf("%w: inserting document: %v", ErrConstraint, err)
	}

	var authorsText []string
	for position, a := range doc.Authors {
		authorID, err := insertOrGetAuthor(ctx, tx, a)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO authorships (document_id, author_id, position) VALUES (?, ?, ?)
		`, doc.ID, authorID, position); err != nil {
			return nil, fmt.Errorf("%w: inserting authorship: %v", ErrConstraint, err)
		}
		authorsText = append(authorsText, a.Display())
	}

	for _, ref := range doc.References {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO citations (citing_id, raw_text, ref_surname, ref_year, ref_title, ref_doi)
			VALUES (?, ?, ?, ?, ?, ?)
		`, doc.ID, ref.Raw, ref.Surname, ref.Year, ref.TitleFragment, ref.DOI); err != nil {
			return nil, fmt.Errorf("%w: inserting citation: %v", ErrConstraint, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents_fts (id, title, abstract, body, authors_text)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Abstract, doc.Body, strings.Join(authorsText, ", ")); err != nil {
		return nil, fmt.Errorf("indexing document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return &InsertResult{DocumentID: doc.ID}, nil
}

// findDuplicate returns the id of an already-stored document this one
// duplicates, or "" when the document is new. Hash equality is checked
// first; otherwise titles are compared pairwise against the corpus in
// ingestion order, so the earliest match wins deterministically.
func (s *Store) findDuplicate(ctx context.Context, tx *sql.Tx, doc *document.Document) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE content_hash = ?", doc.ContentHash).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("checking content hash: %w", err)
	}

	if doc.Title == "" {
		return "", nil
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, title FROM documents ORDER BY ingested_at ASC, id ASC")
	if err != nil {
		return "", fmt.Errorf("listing titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID, title string
		if err := rows.Scan(&candidateID, &title); err != nil {
			return "", err
		}
		if normalize.TitleSimilarity(doc.Title, title) >= s.titleSim {
			return candidateID, nil
		}
	}
	return "", rows.Err()
}

// GetDocument retrieves a document by id, with its ordered author list.
func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectDocFields+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	doc.Authors, err = s.documentAuthors(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// HasFileHash reports whether a file with the given byte hash has already
// been ingested (as a document or as a linked duplicate). Used by the batch
// orchestrator to make repeated runs incremental.
func (s *Store) HasFileHash(ctx context.Context, fileHash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT file_hash FROM documents WHERE file_hash = ?
			UNION ALL
			SELECT file_hash FROM duplicates WHERE file_hash = ?
		)`, fileHash, fileHash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking file hash: %w", err)
	}
	return n > 0, nil
}

// Filter narrows a document query. Zero values mean "no constraint".
type Filter struct {
	Text     string // FTS match over title/abstract/body/authors
	Author   string // author display-name substring
	YearFrom int
	YearTo   int
	Limit    int
}

// FilterDocuments returns documents matching all set filter fields,
// ordered by ingestion time for deterministic output.
func (s *Store) FilterDocuments(ctx context.Context, f Filter) ([]document.Document, error) {
	var conds []string
	var args []any

	if f.Text != "" {
		conds = append(conds, "d.id IN (SELECT id FROM documents_fts WHERE documents_fts MATCH ?)")
		args = append(args, prepareFTSQuery(f.Text))
	}
	if f.Author != "" {
		conds = append(conds, `d.id IN (
			SELECT ash.document_id FROM authorships ash
			JOIN authors a ON a.id = ash.author_id
			LEFT JOIN author_aliases al ON al.author_id = a.id
			WHERE a.display LIKE ? OR al.alias LIKE ?
		)`)
		pattern := "%" + f.Author + "%"
		args = append(args, pattern, pattern)
	}
	if f.YearFrom != 0 {
		conds = append(conds, "d.pub_year >= ?")
		args = append(args, f.YearFrom)
	}
	if f.YearTo != 0 {
		conds = append(conds, "d.pub_year <= ?")
		args = append(args, f.YearTo)
	}

	query := "SELECT " + prefixFields("d.") + " FROM documents d"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY d.ingested_at ASC, d.id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// DeleteDocument removes a document and its dependent edges: authorships,
// outgoing citations, duplicate links, and the FTS row. Incoming resolved
// citations revert to unresolved so no edge references a missing document.
// The caller is responsible for dropping the vector and archive entries.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %q: %w", id, ErrNotFound)
	}

	steps := []struct {
		sql string
		arg string
	}{
		{"DELETE FROM authorships WHERE document_id = ?", id},
		{"DELETE FROM citations WHERE citing_id = ?", id},
		{"UPDATE citations SET cited_id = NULL, resolved_at = NULL WHERE cited_id = ?", id},
		{"DELETE FROM duplicates WHERE document_id = ?", id},
		{"DELETE FROM documents_fts WHERE id = ?", id},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.sql, step.arg); err != nil {
			return fmt.Errorf("%w: cascading delete: %v", ErrConstraint, err)
		}
	}

	return tx.Commit()
}

func (s *Store) documentAuthors(ctx context.Context, docID string) ([]document.Author, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.given, a.family FROM authorships ash
		JOIN authors a ON a.id = ash.author_id
		WHERE ash.document_id = ?
		ORDER BY ash.position ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("listing document authors: %w", err)
	}
	defer rows.Close()

	var authors []document.Author
	for rows.Next() {
		var a document.Author
		var given sql.NullString
		if err := rows.Scan(&given, &a.Family); err != nil {
			return nil, err
		}
		a.Given = given.String
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	var doc document.Document
	var abstract, body, doi, keywordsJSON, sectionsJSON sql.NullString
	var year, pageCount sql.NullInt64
	var fileSize sql.NullInt64
	var ingestedAt int64
	var status string

	err := row.Scan(&doc.ID, &doc.SourcePath, &doc.FileHash, &doc.ContentHash,
		&doc.Title, &abstract, &body, &year, &doi, &keywordsJSON, &sectionsJSON,
		&doc.ExtractedBy, &status, &pageCount, &fileSize, &ingestedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Abstract = abstract.String
	doc.Body = body.String
	doc.DOI = doi.String
	doc.Year = int(year.Int64)
	doc.PageCount = int(pageCount.Int64)
	doc.FileSize = fileSize.Int64
	doc.Status = document.ExtractionStatus(status)
	doc.IngestedAt = time.Unix(0, ingestedAt).UTC()
	if keywordsJSON.String != "" {
		json.Unmarshal([]byte(keywordsJSON.String), &doc.Keywords)
	}
	if sectionsJSON.String != "" {
		json.Unmarshal([]byte(sectionsJSON.String), &doc.Sections)
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]document.Document, error) {
	var docs []document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func prefixFields(prefix string) string {
	parts := strings.Split(selectDocFields, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// prepareFTSQuery quotes each term so user input cannot inject FTS5 syntax.
func prepareFTSQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
