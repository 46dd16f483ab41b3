package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Citation is a directed edge from a citing document to a cited reference.
// CitedID is empty while the free-text reference has not been matched to a
// stored document; resolution is eventually consistent and monotonic.
type Citation struct {
	ID            int64     `json:"id"`
	CitingID      string    `json:"citing_id"`
	Raw           string    `json:"raw"`
	Surname       string    `json:"surname,omitempty"`
	Year          int       `json:"year,omitempty"`
	TitleFragment string    `json:"title,omitempty"`
	DOI           string    `json:"doi,omitempty"`
	CitedID       string    `json:"cited_id,omitempty"`
	ResolvedAt    time.Time `json:"resolved_at,omitempty"`
}

const selectCitationFields = `id, citing_id, raw_text, ref_surname, ref_year, ref_title, ref_doi, cited_id, resolved_at`

// CitationsFrom returns the citation edges made by a document.
func (s *Store) CitationsFrom(ctx context.Context, docID string) ([]Citation, error) {
	return s.queryCitations(ctx,
		"SELECT "+selectCitationFields+" FROM citations WHERE citing_id = ? ORDER BY id ASC", docID)
}

// CitationsTo returns the resolved citation edges pointing at a document.
func (s *Store) CitationsTo(ctx context.Context, docID string) ([]Citation, error) {
	return s.queryCitations(ctx,
		"SELECT "+selectCitationFields+" FROM citations WHERE cited_id = ? ORDER BY id ASC", docID)
}

// UnresolvedCitations returns every citation edge whose reference has not
// yet been matched, in stable id order.
func (s *Store) UnresolvedCitations(ctx context.Context) ([]Citation, error) {
	return s.queryCitations(ctx,
		"SELECT "+selectCitationFields+" FROM citations WHERE cited_id IS NULL ORDER BY id ASC")
}

// ResolvedCitations returns every matched citation edge, in stable id order.
func (s *Store) ResolvedCitations(ctx context.Context) ([]Citation, error) {
	return s.queryCitations(ctx,
		"SELECT "+selectCitationFields+" FROM citations WHERE cited_id IS NOT NULL ORDER BY id ASC")
}

// ResolveCitation flips an edge to resolved. The WHERE guard keeps
// resolution monotonic: an already-resolved edge is never repointed, so
// running a sweep twice changes nothing the second time.
func (s *Store) ResolveCitation(ctx context.Context, citationID int64, citedID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE citations SET cited_id = ?, resolved_at = ?
		WHERE id = ? AND cited_id IS NULL
	`, citedID, time.Now().UTC().UnixNano(), citationID)
	if err != nil {
		return fmt.Errorf("resolving citation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already resolved or missing; both are no-ops for the sweep.
		return nil
	}
	return nil
}

// CitationCount returns the number of resolved incoming edges for a document.
func (s *Store) CitationCount(ctx context.Context, docID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM citations WHERE cited_id = ?", docID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting citations: %w", err)
	}
	return n, nil
}

// CitedDocument pairs a document id with its resolved citation count.
type CitedDocument struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Count      int    `json:"count"`
}

// MostCited returns the n most-cited documents ordered by descending
// resolved citation count; ties break by earliest ingestion time, then id,
// so the result is identical across repeated calls on a fixed snapshot.
// n <= 0 returns the full ranking.
func (s *Store) MostCited(ctx context.Context, n int) ([]CitedDocument, error) {
	if n <= 0 {
		n = -1 // SQLite treats a negative LIMIT as no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title, COUNT(c.id) AS cited
		FROM citations c
		JOIN documents d ON d.id = c.cited_id
		GROUP BY d.id
		ORDER BY cited DESC, d.ingested_at ASC, d.id ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("ranking citations: %w", err)
	}
	defer rows.Close()

	var result []CitedDocument
	for rows.Next() {
		var cd CitedDocument
		if err := rows.Scan(&cd.DocumentID, &cd.Title, &cd.Count); err != nil {
			return nil, err
		}
		result = append(result, cd)
	}
	return result, rows.Err()
}

// ResolutionCandidate is a document eligible to resolve a parsed reference.
type ResolutionCandidate struct {
	DocumentID string
	Title      string
}

// ResolutionCandidates returns documents whose first author's family name
// and publication year match a parsed reference, in ingestion order so the
// earliest matching document wins deterministically.
func (s *Store) ResolutionCandidates(ctx context.Context, surname string, year int) ([]ResolutionCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.title FROM documents d
		JOIN authorships ash ON ash.document_id = d.id AND ash.position = 0
		JOIN authors a ON a.id = ash.author_id
		WHERE lower(a.family) = ? AND d.pub_year = ?
		ORDER BY d.ingested_at ASC, d.id ASC
	`, strings.ToLower(surname), year)
	if err != nil {
		return nil, fmt.Errorf("finding resolution candidates: %w", err)
	}
	defer rows.Close()

	var candidates []ResolutionCandidate
	for rows.Next() {
		var c ResolutionCandidate
		if err := rows.Scan(&c.DocumentID, &c.Title); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *Store) queryCitations(ctx context.Context, query string, args ...any) ([]Citation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	var citations []Citation
	for rows.Next() {
		var c Citation
		var surname, title, doi, citedID sql.NullString
		var year, resolvedAt sql.NullInt64
		if err := rows.Scan(&c.ID, &c.CitingID, &c.Raw, &surname, &year, &title, &doi, &citedID, &resolvedAt); err != nil {
			return nil, err
		}
		c.Surname = surname.String
		c.Year = int(year.Int64)
		c.TitleFragment = title.String
		c.DOI = doi.String
		c.CitedID = citedID.String
		if resolvedAt.Valid {
			c.ResolvedAt = time.Unix(0, resolvedAt.Int64).UTC()
		}
		citations = append(citations, c)
	}
	return citations, rows.Err()
}
