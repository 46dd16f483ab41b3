// Package document defines the core domain types for the literature corpus.
package document

import (
	"strings"
	"time"
)

// ExtractionStatus describes how much of a document's content was recovered.
type ExtractionStatus string

const (
	// StatusSucceeded means both body text and structural fields were recovered.
	StatusSucceeded ExtractionStatus = "succeeded"
	// StatusPartial means body text was recovered but title/authors were not.
	StatusPartial ExtractionStatus = "partial"
	// StatusFailed means no extractor produced usable content.
	StatusFailed ExtractionStatus = "failed"
)

// Document represents a fully normalized academic document.
type Document struct {
	// Identity
	ID          string `json:"id"`
	SourcePath  string `json:"source_path"`
	FileHash    string `json:"file_hash"`    // BLAKE2b-256 of the original bytes
	ContentHash string `json:"content_hash"` // dedup fingerprint over normalized fields

	// Bibliographic fields
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Body     string   `json:"body,omitempty"`
	Authors  []Author `json:"authors"` // insertion order matters for display
	Year     int      `json:"year,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	// Structure
	Sections   []Section            `json:"sections,omitempty"`
	References []ReferenceCandidate `json:"references,omitempty"`

	// Extraction provenance
	ExtractedBy string           `json:"extracted_by"`
	Status      ExtractionStatus `json:"status"`
	PageCount   int              `json:"page_count,omitempty"`
	FileSize    int64            `json:"file_size,omitempty"`

	IngestedAt time.Time `json:"ingested_at"`
}

// Author represents a parsed author name.
type Author struct {
	Given  string `json:"given,omitempty"`
	Family string `json:"family"`
}

// Display returns the author's name in "Given Family" form.
func (a Author) Display() string {
	if a.Given == "" {
		return a.Family
	}
	return a.Given + " " + a.Family
}

// CanonicalKey returns the identity key used for author deduplication:
// lowercase family name plus the normalized given name. Distinct full
// given names ("Jane Smith", "Janet Smith") stay distinct; folding an
// initials form ("J. Smith") into a full name is the store's job, since
// it needs the observed corpus to judge equivalence.
func (a Author) CanonicalKey() string {
	family := strings.ToLower(strings.TrimSpace(a.Family))
	given := normalizeGiven(a.Given)
	if given == "" {
		return family
	}
	return family + ", " + given
}

// InitialsOnly reports whether the given name carries only initials
// ("J.", "J. K."), with no full given name to key identity on.
func (a Author) InitialsOnly() bool {
	given := normalizeGiven(a.Given)
	if given == "" {
		return false
	}
	for _, tok := range strings.Fields(given) {
		if len([]rune(tok)) != 1 {
			return false
		}
	}
	return true
}

// GivenInitial returns the lowercased first letter of the given name, or
// "" when there is none.
func (a Author) GivenInitial() string {
	given := normalizeGiven(a.Given)
	if given == "" {
		return ""
	}
	return string([]rune(given)[0])
}

// normalizeGiven lowercases a given name and strips initials punctuation,
// so "J.K." and "J. K." normalize identically.
func normalizeGiven(given string) string {
	given = strings.ToLower(strings.TrimSpace(given))
	given = strings.ReplaceAll(given, ".", " ")
	return strings.Join(strings.Fields(given), " ")
}

// Section is a contiguous piece of extracted document structure.
type Section struct {
	Type    string `json:"type"` // "page" for page-level fallback sections
	Page    int    `json:"page,omitempty"`
	Content string `json:"content"`
}

// ReferenceCandidate is a parsed free-text citation awaiting resolution
// against the stored corpus.
type ReferenceCandidate struct {
	Raw           string `json:"raw"`
	Surname       string `json:"surname,omitempty"` // first-author family name
	Year          int    `json:"year,omitempty"`
	TitleFragment string `json:"title,omitempty"`
	DOI           string `json:"doi,omitempty"`
}
