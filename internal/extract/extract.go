// Package extract turns raw PDF bytes into structured extraction results.
//
// Extraction is organized as a priority-ordered chain of extractors. The
// chain tries each extractor in turn and degrades gracefully: a structural
// extractor that parses bibliographic fields runs first, followed by a
// plain-text fallback that only recovers body text.
package extract

import (
	"context"
	"errors"
)

// Errors returned by extraction operations.
var (
	// ErrNoUsableContent means every extractor in the chain failed or
	// produced output below the minimum-content threshold.
	ErrNoUsableContent = errors.New("no extractor produced usable content")

	// ErrTimeout means extraction exceeded the per-document wall clock budget.
	ErrTimeout = errors.New("extraction timed out")
)

// MinBodyLength is the minimum body text length (in runes) for an
// extraction to count as usable. Shorter output is treated as garbage
// and the chain falls through to the next extractor.
const MinBodyLength = 200

// Status describes the completeness of an extraction result.
type Status string

const (
	StatusSucceeded Status = "succeeded" // body and structural fields recovered
	StatusPartial   Status = "partial"   // body recovered, title/authors missing
	StatusFailed    Status = "failed"    // nothing usable
)

// Hints carries optional context about the input document.
type Hints struct {
	SourcePath string // original file path, used for logging only
}

// Section is a structural fragment of the extracted document.
type Section struct {
	Type    string // "page" for page-level sections
	Page    int
	Content string
}

// Result holds the raw output of one extractor. Fields are unnormalized;
// normalization and reference parsing are the caller's responsibility.
type Result struct {
	Status     Status
	Title      string
	Authors    []string // raw author name strings
	Abstract   string
	DOI        string
	Body       string
	Sections   []Section
	References []string // raw reference strings from the bibliography
	Keywords   []string
	PageCount  int
	Method     string // name of the extractor that produced this result
}

// Extractor is the capability interface implemented by each member of the
// chain.
type Extractor interface {
	// Name identifies the extractor in extraction provenance records.
	Name() string

	// Extract parses the document bytes. Implementations return an error
	// when the input cannot be parsed at all; content-quality judgment
	// (thresholds, status assignment) is the chain's job.
	Extract(ctx context.Context, data []byte, hints Hints) (*Result, error)
}

// usable reports whether a result carries enough body text to keep.
func usable(r *Result) bool {
	return r != nil && len([]rune(r.Body)) >= MinBodyLength
}

// structural reports whether a result recovered the structural fields that
// distinguish a succeeded extraction from a partial one.
func structural(r *Result) bool {
	return r.Title != "" && len(r.Authors) > 0
}
