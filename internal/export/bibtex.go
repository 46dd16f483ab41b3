// Package export renders stored documents as BibTeX for use in reference
// managers and LaTeX bibliographies.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/scholium/scholium/internal/document"
)

// ToBibTeX renders one document as a BibTeX @article entry.
func ToBibTeX(doc *document.Document) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@article{%s,\n", CiteKey(doc)))

	if len(doc.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(doc.Authors)))
	}
	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(doc.Title)))
	if doc.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", doc.Year))
	}
	if doc.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", doc.DOI))
	}
	if len(doc.Keywords) > 0 {
		b.WriteString(fmt.Sprintf("  keywords = {%s},\n", escapeLatex(strings.Join(doc.Keywords, ", "))))
	}
	if doc.Abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(doc.Abstract)))
	}

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList renders multiple documents, one blank line between entries.
func ToBibTeXList(docs []document.Document) string {
	entries := make([]string, 0, len(docs))
	for i := range docs {
		entries = append(entries, ToBibTeX(&docs[i]))
	}
	return strings.Join(entries, "\n")
}

// CiteKey builds a citation key from the first author's family name, the
// year, and the first significant title word: "smith2020attention". A
// document missing those fields falls back to a prefix of its id.
func CiteKey(doc *document.Document) string {
	var b strings.Builder
	if len(doc.Authors) > 0 {
		b.WriteString(sanitizeKeyPart(doc.Authors[0].Family))
	}
	if doc.Year > 0 {
		fmt.Fprintf(&b, "%d", doc.Year)
	}
	if w := firstTitleWord(doc.Title); w != "" {
		b.WriteString(w)
	}
	if b.Len() == 0 {
		id := doc.ID
		if len(id) > 8 {
			id = id[:8]
		}
		return "doc" + sanitizeKeyPart(id)
	}
	return b.String()
}

// keyStopwords are skipped when picking the title word for a cite key.
var keyStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "of": true,
	"for": true, "and": true, "in": true, "to": true, "is": true,
}

func firstTitleWord(title string) string {
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = sanitizeKeyPart(w)
		if w != "" && !keyStopwords[w] {
			return w
		}
	}
	return ""
}

// sanitizeKeyPart keeps only letters and digits, lowercased, so keys are
// always legal BibTeX identifiers.
func sanitizeKeyPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatAuthors renders authors in BibTeX "Family, Given and Family, Given"
// form, preserving document order.
func formatAuthors(authors []document.Author) string {
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Given != "" {
			parts = append(parts, fmt.Sprintf("%s, %s", escapeLatex(a.Family), escapeLatex(a.Given)))
		} else {
			parts = append(parts, escapeLatex(a.Family))
		}
	}
	return strings.Join(parts, " and ")
}

// escapeLatex escapes characters LaTeX treats specially. & must come first
// so later escapes cannot double-process its output.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
