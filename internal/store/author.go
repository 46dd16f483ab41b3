package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scholium/scholium/internal/document"
)

// Author is a stored author identity with its observed name variants.
type Author struct {
	ID       string   `json:"id"`
	Display  string   `json:"display"`
	Given    string   `json:"given,omitempty"`
	Family   string   `json:"family"`
	Variants []string `json:"variants,omitempty"`
}

// insertOrGetAuthor resolves a parsed author name to a stored author id,
// creating the row on first observation. An exact canonical match wins;
// otherwise an initials form ("J. Smith") folds into an existing full name
// when exactly one matches, and a full name adopts an earlier initials-only
// row. Distinct full given names never merge here — that is what explicit
// MergeAuthors is for.
func insertOrGetAuthor(ctx context.Context, tx *sql.Tx, a document.Author) (string, error) {
	canonical := a.CanonicalKey()

	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM authors WHERE canonical = ?", canonical).Scan(&id)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("resolving author: %w", err)
	}

	if err == sql.ErrNoRows && a.Given != "" {
		if a.InitialsOnly() {
			id, err = foldInitialsForm(ctx, tx, a)
		} else {
			id, err = adoptInitialsRow(ctx, tx, a, canonical)
		}
		if err != nil {
			return "", err
		}
	}

	if id == "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO authors (id, canonical, display, given, family)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(canonical) DO NOTHING
		`, uuid.NewString(), canonical, a.Display(), a.Given, a.Family); err != nil {
			return "", fmt.Errorf("%w: inserting author: %v", ErrConstraint, err)
		}
		// Another insert may have won the conflict; re-select either way.
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM authors WHERE canonical = ?", canonical).Scan(&id); err != nil {
			return "", fmt.Errorf("resolving author: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO author_aliases (author_id, alias) VALUES (?, ?)
	`, id, a.Display()); err != nil {
		return "", fmt.Errorf("%w: recording alias: %v", ErrConstraint, err)
	}
	return id, nil
}

// foldInitialsForm resolves an initials observation to the one stored
// full-given author sharing the family name and first initial. Zero or
// several candidates means the initials keep their own row.
func foldInitialsForm(ctx context.Context, tx *sql.Tx, a document.Author) (string, error) {
	candidates, err := sameFamilyAuthors(ctx, tx, a.Family)
	if err != nil {
		return "", err
	}

	initial := a.GivenInitial()
	var matches []string
	for _, cand := range candidates {
		other := document.Author{Given: cand.given, Family: a.Family}
		if other.InitialsOnly() {
			continue
		}
		if other.GivenInitial() == initial {
			matches = append(matches, cand.id)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return "", nil
}

// adoptInitialsRow upgrades an earlier initials-only row to the full given
// name now observed, keeping its id, authorships, and aliases.
func adoptInitialsRow(ctx context.Context, tx *sql.Tx, a document.Author, canonical string) (string, error) {
	candidates, err := sameFamilyAuthors(ctx, tx, a.Family)
	if err != nil {
		return "", err
	}

	initial := a.GivenInitial()
	var matches []string
	for _, cand := range candidates {
		other := document.Author{Given: cand.given, Family: a.Family}
		if other.InitialsOnly() && other.GivenInitial() == initial {
			matches = append(matches, cand.id)
		}
	}
	if len(matches) != 1 {
		return "", nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE authors SET canonical = ?, display = ?, given = ? WHERE id = ?
	`, canonical, a.Display(), a.Given, matches[0]); err != nil {
		return "", fmt.Errorf("%w: upgrading author name: %v", ErrConstraint, err)
	}
	return matches[0], nil
}

type familyAuthor struct {
	id    string
	given string
}

func sameFamilyAuthors(ctx context.Context, tx *sql.Tx, family string) ([]familyAuthor, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, given FROM authors
		WHERE lower(family) = lower(?) AND given IS NOT NULL AND given != ''
		ORDER BY id ASC
	`, family)
	if err != nil {
		return nil, fmt.Errorf("listing family authors: %w", err)
	}
	defer rows.Close()

	var result []familyAuthor
	for rows.Next() {
		var fa familyAuthor
		if err := rows.Scan(&fa.id, &fa.given); err != nil {
			return nil, err
		}
		result = append(result, fa)
	}
	return result, rows.Err()
}

// GetAuthor retrieves an author by id.
func (s *Store) GetAuthor(ctx context.Context, id string) (*Author, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, display, given, family FROM authors WHERE id = ?", id)
	return s.scanAuthor(ctx, row)
}

// FindAuthor looks an author up by display name or recorded alias.
// An exact match wins over a substring match.
func (s *Store) FindAuthor(ctx context.Context, name string) (*Author, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.display, a.given, a.family FROM authors a
		LEFT JOIN author_aliases al ON al.author_id = a.id
		WHERE a.display = ? OR al.alias = ?
		LIMIT 1
	`, name, name)
	author, err := s.scanAuthor(ctx, row)
	if err == nil {
		return author, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT a.id, a.display, a.given, a.family FROM authors a
		LEFT JOIN author_aliases al ON al.author_id = a.id
		WHERE a.display LIKE ? OR al.alias LIKE ?
		ORDER BY a.family, a.id
		LIMIT 1
	`, "%"+name+"%", "%"+name+"%")
	return s.scanAuthor(ctx, row)
}

func (s *Store) scanAuthor(ctx context.Context, row *sql.Row) (*Author, error) {
	var a Author
	var given sql.NullString
	err := row.Scan(&a.ID, &a.Display, &given, &a.Family)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning author: %w", err)
	}
	a.Given = given.String

	rows, err := s.db.QueryContext(ctx,
		"SELECT alias FROM author_aliases WHERE author_id = ? ORDER BY alias", a.ID)
	if err != nil {
		return nil, fmt.Errorf("listing aliases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, err
		}
		a.Variants = append(a.Variants, alias)
	}
	return &a, rows.Err()
}

// MergeAuthors merges the loser author into the survivor in one
// transaction: authorships and aliases are repointed, the merge is logged,
// and the losing row is removed. Merging is idempotent — repointing an
// authorship that already exists for the survivor collapses into one row.
func (s *Store) MergeAuthors(ctx context.Context, loserID, survivorID string) error {
	if loserID == survivorID {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range []string{loserID, survivorID} {
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM authors WHERE id = ?", id).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("author %q: %w", id, ErrNotFound)
		}
	}

	// INSERT OR IGNORE + DELETE rather than UPDATE: the survivor may
	// already hold an authorship on the same document.
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO authorships (document_id, author_id, position)
		SELECT document_id, ?, position FROM authorships WHERE author_id = ?
	`, survivorID, loserID); err != nil {
		return fmt.Errorf("%w: repointing authorships: %v", ErrConstraint, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM authorships WHERE author_id = ?", loserID); err != nil {
		return fmt.Errorf("%w: removing old authorships: %v", ErrConstraint, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO author_aliases (author_id, alias)
		SELECT ?, alias FROM author_aliases WHERE author_id = ?
	`, survivorID, loserID); err != nil {
		return fmt.Errorf("%w: repointing aliases: %v", ErrConstraint, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM author_aliases WHERE author_id = ?", loserID); err != nil {
		return fmt.Errorf("%w: removing old aliases: %v", ErrConstraint, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM authors WHERE id = ?", loserID); err != nil {
		return fmt.Errorf("%w: removing author: %v", ErrConstraint, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO author_merges (loser_id, survivor_id, merged_at) VALUES (?, ?, ?)
	`, loserID, survivorID, time.Now().UTC().UnixNano()); err != nil {
		return fmt.Errorf("logging merge: %w", err)
	}

	return tx.Commit()
}

// AuthorDocuments returns the documents an author appears on, in ingestion
// order. Each document appears once even after alias merges.
func (s *Store) AuthorDocuments(ctx context.Context, authorID string) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixFields("d.")+` FROM documents d
		JOIN authorships ash ON ash.document_id = d.id
		WHERE ash.author_id = ?
		ORDER BY d.ingested_at ASC, d.id ASC
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing author documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Authorship is one (document, author, position) relation row.
type Authorship struct {
	DocumentID string
	AuthorID   string
	Position   int
}

// AllAuthorships returns every authorship row in stable order, for graph
// construction.
func (s *Store) AllAuthorships(ctx context.Context) ([]Authorship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, author_id, position FROM authorships
		ORDER BY document_id ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing authorships: %w", err)
	}
	defer rows.Close()

	var result []Authorship
	for rows.Next() {
		var ash Authorship
		if err := rows.Scan(&ash.DocumentID, &ash.AuthorID, &ash.Position); err != nil {
			return nil, err
		}
		result = append(result, ash)
	}
	return result, rows.Err()
}

// AllAuthors returns every author row ordered by id.
func (s *Store) AllAuthors(ctx context.Context) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, display, given, family FROM authors ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		var given sql.NullString
		if err := rows.Scan(&a.ID, &a.Display, &given, &a.Family); err != nil {
			return nil, err
		}
		a.Given = given.String
		authors = append(authors, a)
	}
	return authors, rows.Err()
}
