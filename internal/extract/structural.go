package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// StructuralExtractor parses PDF text page by page and applies heuristics
// for title, authors, abstract, keywords, and the references section.
type StructuralExtractor struct{}

// NewStructuralExtractor creates the structural PDF extractor.
func NewStructuralExtractor() *StructuralExtractor {
	return &StructuralExtractor{}
}

// Name implements Extractor.
func (e *StructuralExtractor) Name() string { return "structural-pdf" }

var (
	abstractRe = regexp.MustCompile(`(?is)abstract\s*[:.]?\s*(.*?)(?:\n\s*(?:keywords|introduction|1\.|i\.)|\z)`)
	keywordsRe = regexp.MustCompile(`(?is)keywords?\s*[:.]?\s*(.*?)(?:\n\s*(?:introduction|1\.|i\.)|\z)`)
	refsHeadRe = regexp.MustCompile(`(?im)^\s*(?:references|bibliography|works\s+cited)\s*$`)
	pageNumRe  = regexp.MustCompile(`^\d+$`)
	doiRe      = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

	// Author line shapes seen on academic title pages:
	// "John Smith, Jane Doe", "J. Smith and J. Doe", "John Q. Smith".
	authorLineRes = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+(?:(?:,\s*|\s+and\s+)[A-Z][a-z]+ [A-Z][a-z]+)*$`),
		regexp.MustCompile(`^[A-Z]\.\s*[A-Z][a-z]+(?:(?:,\s*|\s+and\s+)[A-Z]\.\s*[A-Z][a-z]+)*$`),
		regexp.MustCompile(`^[A-Z][a-z]+ [A-Z]\. [A-Z][a-z]+(?:(?:,\s*|\s+and\s+)[A-Z][a-z]+ [A-Z]\. [A-Z][a-z]+)*$`),
	}

	// Reference list entry markers: "[1]", "1.", "Author, I."
	refSplitRes = []*regexp.Regexp{
		regexp.MustCompile(`\n\s*\[\d+\]`),
		regexp.MustCompile(`\n\s*\d+\.\s`),
		regexp.MustCompile(`\n(?:\s*)(?:[A-Z][a-z]+,\s*[A-Z])`),
	}
)

// Extract implements Extractor.
func (e *StructuralExtractor) Extract(ctx context.Context, data []byte, hints Hints) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var body strings.Builder
	var sections []Section
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // a single unreadable page is not fatal
		}
		body.WriteString(text)
		body.WriteString("\n")
		sections = append(sections, Section{Type: "page", Page: i, Content: text})
	}

	full := body.String()
	result := &Result{
		Title:      sniffTitle(full),
		Authors:    sniffAuthors(full),
		Abstract:   sniffAbstract(full),
		DOI:        sniffDOI(full),
		Keywords:   sniffKeywords(full),
		References: sniffReferences(full),
		Body:       full,
		Sections:   sections,
		PageCount:  pages,
	}
	return result, nil
}

// sniffTitle returns the first substantial line among the first ten:
// 10-200 characters, at least three words, not a bare page number.
func sniffTitle(text string) string {
	lines := strings.Split(text, "\n")
	limit := 10
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if len(line) < 10 || len(line) > 200 {
			continue
		}
		if pageNumRe.MatchString(line) || strings.Contains(strings.ToLower(line), "page") {
			continue
		}
		if len(strings.Fields(line)) >= 3 {
			return line
		}
	}
	return ""
}

// sniffAuthors scans the first twenty lines for author-list shapes.
func sniffAuthors(text string) []string {
	lines := strings.Split(text, "\n")
	limit := 20
	if len(lines) < limit {
		limit = len(lines)
	}

	seen := make(map[string]bool)
	var authors []string
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if len(line) < 5 || len(line) > 200 {
			continue
		}
		for _, re := range authorLineRes {
			if !re.MatchString(line) {
				continue
			}
			for _, name := range regexp.MustCompile(`,|\s+and\s+`).Split(line, -1) {
				name = strings.TrimSpace(name)
				if name != "" && !seen[name] {
					seen[name] = true
					authors = append(authors, name)
				}
			}
			break
		}
	}
	return authors
}

// sniffDOI returns the document's own DOI, usually printed on the first
// page. The search stops before the references section so a cited work's
// DOI is never mistaken for this document's.
func sniffDOI(text string) string {
	if loc := refsHeadRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	for _, m := range doiRe.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:)")
		if idx := strings.Index(m, "/"); idx > 2 && idx < len(m)-1 {
			return m
		}
	}
	return ""
}

func sniffAbstract(text string) string {
	m := abstractRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	abstract := strings.Join(strings.Fields(m[1]), " ")
	// An "abstract" spanning most of the document means the terminator
	// heuristic missed; cap it rather than swallow the body.
	if len(abstract) > 4000 {
		abstract = abstract[:4000]
	}
	return abstract
}

func sniffKeywords(text string) []string {
	m := keywordsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := m[1]
	if idx := strings.Index(raw, "\n\n"); idx > 0 {
		raw = raw[:idx]
	}
	var keywords []string
	for _, kw := range regexp.MustCompile(`[,;]`).Split(raw, -1) {
		kw = strings.TrimSpace(kw)
		if kw != "" && len(kw) < 80 {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// sniffReferences locates the references section and splits it into entries.
func sniffReferences(text string) []string {
	loc := refsHeadRe.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	section := text[loc[1]:]

	for _, re := range refSplitRes {
		parts := re.Split(section, -1)
		if len(parts) <= 3 {
			continue // marker style not used by this document
		}
		var refs []string
		for _, part := range parts[1:] {
			ref := strings.Join(strings.Fields(part), " ")
			if len(ref) > 20 && len(ref) < 600 {
				refs = append(refs, ref)
			}
		}
		if len(refs) > 0 {
			return refs
		}
	}
	return nil
}
