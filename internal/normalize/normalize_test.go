package normalize

import (
	"reflect"
	"testing"

	"github.com/scholium/scholium/internal/extract"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"trims ends", "  padded  ", "padded"},
		{"strips control runes", "ab\x00cd\x07ef", "abcdef"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("Deep Learning for Proteins", "Smith", 2020)
	h2 := ContentHash("deep learning  for proteins", "SMITH", 2020)
	if h1 != h2 {
		t.Errorf("hash should ignore case and spacing: %s != %s", h1, h2)
	}

	h3 := ContentHash("Deep Learning for Proteins", "Smith", 2021)
	if h1 == h3 {
		t.Error("different years should produce different hashes")
	}

	h4 := ContentHash("Deep Learning for Proteins", "Jones", 2020)
	if h1 == h4 {
		t.Error("different first authors should produce different hashes")
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Attention Is All You Need", "Attention Is All You Need", 1.0},
		{"case and punctuation", "Attention Is All You Need", "attention is all you need.", 1.0},
		{"disjoint", "Protein Folding", "Graph Neural Networks", 0.0},
		{"empty titles", "", "something", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("TitleSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	// One shared token out of three total.
	got := TitleSimilarity("protein folding", "protein design")
	want := 1.0 / 3.0
	if got != want {
		t.Errorf("partial overlap = %v, want %v", got, want)
	}
}

func TestYearFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"plain year", "Published in 2021 by the authors", 2021},
		{"first of several", "2019 revised 2020", 2019},
		{"no year", "no date anywhere", 0},
		{"rejects out of range", "in 1789 and 2150", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := YearFromText(tt.in); got != tt.want {
				t.Errorf("YearFromText(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	res := &extract.Result{
		Status:   extract.StatusSucceeded,
		Title:    "A  Study of\tThings",
		Authors:  []string{"Jane Smith", "Lee, Wei"},
		Abstract: "We study things.",
		Body:     "A Study of Things. 2022. Lots of content follows here.",
		Method:   "structural-pdf",
	}
	src := Source{Path: "/tmp/a.pdf", FileHash: "abc", FileSize: 10}

	d1 := Normalize(res, src)
	d2 := Normalize(res, src)

	if d1.ID != d2.ID {
		t.Errorf("ids differ across runs: %s vs %s", d1.ID, d2.ID)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Error("normalizing twice should yield identical documents")
	}

	if d1.Title != "A Study of Things" {
		t.Errorf("Title = %q, want cleaned title", d1.Title)
	}
	if d1.Year != 2022 {
		t.Errorf("Year = %d, want 2022", d1.Year)
	}
	if len(d1.Authors) != 2 {
		t.Fatalf("Authors = %d, want 2", len(d1.Authors))
	}
	if d1.Authors[0].Family != "Smith" || d1.Authors[0].Given != "Jane" {
		t.Errorf("first author = %+v", d1.Authors[0])
	}
	if d1.Authors[1].Family != "Lee" || d1.Authors[1].Given != "Wei" {
		t.Errorf("second author = %+v", d1.Authors[1])
	}
	if !d1.IngestedAt.IsZero() {
		t.Error("IngestedAt should be zero until stored")
	}
}

func TestNormalizeIDTracksContent(t *testing.T) {
	base := &extract.Result{
		Status:  extract.StatusSucceeded,
		Title:   "Same Work",
		Authors: []string{"Ada King"},
		Body:    "Same Work, 2020.",
	}

	// Same bibliographic identity from a different file gets the same id.
	d1 := Normalize(base, Source{Path: "/a.pdf", FileHash: "h1"})
	d2 := Normalize(base, Source{Path: "/b.pdf", FileHash: "h2"})
	if d1.ID != d2.ID {
		t.Error("same content from different files should share an id")
	}

	other := *base
	other.Title = "Different Work"
	d3 := Normalize(&other, Source{Path: "/a.pdf", FileHash: "h1"})
	if d1.ID == d3.ID {
		t.Error("different titles should produce different ids")
	}
}

func TestNormalizeTitlelessDocumentsStayDistinct(t *testing.T) {
	res := &extract.Result{
		Status: extract.StatusPartial,
		Body:   "scanned page text the fallback extractor recovered",
		Method: "plaintext",
	}

	// No title means no bibliographic fingerprint; identity falls back to
	// the file bytes.
	d1 := Normalize(res, Source{Path: "/scan-a.pdf", FileHash: "h1"})
	d2 := Normalize(res, Source{Path: "/scan-b.pdf", FileHash: "h2"})
	if d1.ContentHash == d2.ContentHash {
		t.Error("title-less documents from different files should not share a content hash")
	}
	if d1.ID == d2.ID {
		t.Error("title-less documents from different files should not share an id")
	}

	// The same bytes resubmitted still hash identically.
	d3 := Normalize(res, Source{Path: "/scan-a-copy.pdf", FileHash: "h1"})
	if d1.ContentHash != d3.ContentHash {
		t.Error("resubmitting the same bytes should reproduce the content hash")
	}

	// No file hash at all: the body digest keeps the fingerprint non-empty.
	d4 := Normalize(res, Source{Path: "/scan-c.pdf"})
	if d4.ContentHash == "" || d4.ContentHash == d1.ContentHash {
		t.Errorf("ContentHash = %q, want a body digest distinct from %q", d4.ContentHash, d1.ContentHash)
	}
}

func TestParseAuthor(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		given  string
		family string
	}{
		{"family comma given", "Smith, Jane", "Jane", "Smith"},
		{"given family", "Jane Smith", "Jane", "Smith"},
		{"initials", "J. Q. Smith", "J. Q.", "Smith"},
		{"single token", "Aristotle", "", "Aristotle"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAuthor(tt.in)
			if got.Given != tt.given || got.Family != tt.family {
				t.Errorf("ParseAuthor(%q) = {Given: %q, Family: %q}, want {Given: %q, Family: %q}",
					tt.in, got.Given, got.Family, tt.given, tt.family)
			}
		})
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		surname  string
		year     int
		fragment string
		doi      string
	}{
		{
			name:     "author first",
			in:       `Smith, J. "Deep Learning for Proteins." Nature, 2020.`,
			surname:  "Smith",
			year:     2020,
			fragment: "Deep Learning for Proteins.",
		},
		{
			name:    "title first short fragment dropped",
			in:      "Paper B, 2020, Smith",
			surname: "Smith",
			year:    2020,
		},
		{
			name:     "doi",
			in:       "Jones, A. Graph methods. 2019. doi:10.1000/xyz123.",
			surname:  "Jones",
			year:     2019,
			fragment: "Jones, A. Graph methods",
			doi:      "10.1000/xyz123",
		},
		{
			name: "unparseable keeps raw only",
			in:   "???",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReference(tt.in)
			if got.Raw != CleanText(tt.in) {
				t.Errorf("Raw = %q, want cleaned input", got.Raw)
			}
			if got.Surname != tt.surname {
				t.Errorf("Surname = %q, want %q", got.Surname, tt.surname)
			}
			if got.Year != tt.year {
				t.Errorf("Year = %d, want %d", got.Year, tt.year)
			}
			if got.TitleFragment != tt.fragment {
				t.Errorf("TitleFragment = %q, want %q", got.TitleFragment, tt.fragment)
			}
			if got.DOI != tt.doi {
				t.Errorf("DOI = %q, want %q", got.DOI, tt.doi)
			}
		})
	}
}
