package export

import (
	"strings"
	"testing"

	"github.com/scholium/scholium/internal/document"
)

func sampleDoc() *document.Document {
	return &document.Document{
		ID:    "0f6c9a1e-0000-0000-0000-000000000001",
		Title: "Attention Is All You Need",
		Authors: []document.Author{
			{Given: "Ashish", Family: "Vaswani"},
			{Given: "Noam", Family: "Shazeer"},
		},
		Year:     2017,
		DOI:      "10.5555/3295222",
		Keywords: []string{"transformers", "attention"},
		Abstract: "We propose a new architecture.",
	}
}

func TestToBibTeX(t *testing.T) {
	entry := ToBibTeX(sampleDoc())

	wants := []string{
		"@article{vaswani2017attention,",
		"author = {Vaswani, Ashish and Shazeer, Noam},",
		"title = {Attention Is All You Need},",
		"year = {2017},",
		"doi = {10.5555/3295222},",
		"keywords = {transformers, attention},",
		"abstract = {We propose a new architecture.},",
	}
	for _, want := range wants {
		if !strings.Contains(entry, want) {
			t.Errorf("entry missing %q:\n%s", want, entry)
		}
	}
	if !strings.HasSuffix(entry, "}\n") {
		t.Error("entry not closed")
	}
}

func TestToBibTeXOmitsEmptyFields(t *testing.T) {
	doc := &document.Document{ID: "abc", Title: "Untitled Draft Notes Here"}
	entry := ToBibTeX(doc)

	for _, field := range []string{"author =", "year =", "doi =", "keywords =", "abstract ="} {
		if strings.Contains(entry, field) {
			t.Errorf("entry has %q for an empty field:\n%s", field, entry)
		}
	}
}

func TestCiteKey(t *testing.T) {
	tests := []struct {
		name string
		doc  *document.Document
		want string
	}{
		{
			name: "full key",
			doc:  sampleDoc(),
			want: "vaswani2017attention",
		},
		{
			name: "stopword skipped",
			doc: &document.Document{
				Title:   "The Origin of Species",
				Authors: []document.Author{{Family: "Darwin"}},
				Year:    1859,
			},
			want: "darwin1859origin",
		},
		{
			name: "accents and punctuation stripped",
			doc: &document.Document{
				Title:   "Graphs: Theory and Practice",
				Authors: []document.Author{{Family: "O'Neil"}},
				Year:    2001,
			},
			want: "oneil2001graphs",
		},
		{
			name: "bare document falls back to id",
			doc:  &document.Document{ID: "0f6c9a1e-dead-beef"},
			want: "doc0f6c9a1e",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CiteKey(tt.doc); got != tt.want {
				t.Errorf("CiteKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeLatex(t *testing.T) {
	got := escapeLatex("50% of C&A_costs #1 {braces}")
	want := `50\% of C\&A\_costs \#1 \{braces\}`
	if got != want {
		t.Errorf("escapeLatex() = %q, want %q", got, want)
	}
}

func TestToBibTeXList(t *testing.T) {
	docs := []document.Document{*sampleDoc(), {Title: "Another Piece of Writing", Year: 2020}}
	out := ToBibTeXList(docs)

	if strings.Count(out, "@article{") != 2 {
		t.Errorf("list has %d entries, want 2:\n%s", strings.Count(out, "@article{"), out)
	}
	if !strings.Contains(out, "}\n\n@article{") {
		t.Error("entries not separated by a blank line")
	}
}
