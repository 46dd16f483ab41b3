// Package normalize canonicalizes extraction results into Documents and
// provides the duplicate-detection primitives used by the store.
//
// Everything here is deterministic and idempotent: normalizing the same
// extraction result twice yields identical Document fields and the same
// dedup decision.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/extract"
)

// DefaultTitleSimilarity is the default token-overlap threshold above which
// two normalized titles are treated as the same work.
const DefaultTitleSimilarity = 0.9

// nsDocument is the UUIDv5 namespace for document ids, so that the id is a
// pure function of the content hash.
var nsDocument = uuid.MustParse("8c1f5a36-24d2-49a4-9d9d-3f2b9a6a7c01")

// Source identifies the file an extraction came from.
type Source struct {
	Path     string
	FileHash string
	FileSize int64
}

// Normalize converts an extraction result into a canonical Document.
// The IngestedAt field is left zero; the store stamps it at insert time.
func Normalize(res *extract.Result, src Source) *document.Document {
	title := CleanText(res.Title)

	authors := make([]document.Author, 0, len(res.Authors))
	for _, raw := range res.Authors {
		a := ParseAuthor(raw)
		if a.Family != "" {
			authors = append(authors, a)
		}
	}

	refs := make([]document.ReferenceCandidate, 0, len(res.References))
	for _, raw := range res.References {
		refs = append(refs, ParseReference(raw))
	}

	keywords := make([]string, 0, len(res.Keywords))
	for _, kw := range res.Keywords {
		if kw = CleanText(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	sections := make([]document.Section, 0, len(res.Sections))
	for _, s := range res.Sections {
		sections = append(sections, document.Section{Type: s.Type, Page: s.Page, Content: s.Content})
	}

	year := YearFromText(res.Body)
	firstFamily := ""
	if len(authors) > 0 {
		firstFamily = authors[0].Family
	}
	// Without a title there is no bibliographic identity to fingerprint;
	// keying on the file bytes keeps distinct partial extractions distinct.
	contentHash := ContentHash(title, firstFamily, year)
	if title == "" {
		contentHash = src.FileHash
		if contentHash == "" {
			sum := sha256.Sum256([]byte(res.Body))
			contentHash = hex.EncodeToString(sum[:])
		}
	}

	return &document.Document{
		ID:          uuid.NewSHA1(nsDocument, []byte(contentHash)).String(),
		SourcePath:  src.Path,
		FileHash:    src.FileHash,
		FileSize:    src.FileSize,
		ContentHash: contentHash,
		Title:       title,
		Abstract:    CleanText(res.Abstract),
		DOI:         CleanText(res.DOI),
		Body:        res.Body,
		Authors:     authors,
		Year:        year,
		Keywords:    keywords,
		Sections:    sections,
		References:  refs,
		ExtractedBy: res.Method,
		Status:      document.ExtractionStatus(res.Status),
		PageCount:   res.PageCount,
	}
}

// CleanText collapses runs of whitespace and strips non-printable runes.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ContentHash computes the dedup fingerprint over normalized bibliographic
// fields: lowercased title, first-author family name, and year. It is
// independent of the file bytes, so re-submissions of the same work under
// different filenames hash identically.
func ContentHash(title, firstFamily string, year int) string {
	key := fmt.Sprintf("%s|%s|%d",
		strings.ToLower(CleanText(title)),
		strings.ToLower(CleanText(firstFamily)),
		year)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// TitleSimilarity returns the token-set overlap between two titles:
// |intersection| / |union| over lowercased word sets. Identical titles
// score 1.0; disjoint titles score 0.
func TitleSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(CleanText(s))) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// YearFromText returns the first plausible publication year found near the
// top of the document, or 0 when none is present. Best effort only.
func YearFromText(text string) int {
	head := text
	if len(head) > 2000 {
		head = head[:2000]
	}
	m := yearRe.FindString(head)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year
}
