package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestSniffTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "first substantial line",
			text: "Deep Learning for Protein Folding\nJane Smith\nAbstract: ...",
			want: "Deep Learning for Protein Folding",
		},
		{
			name: "skips page numbers and short lines",
			text: "3\nok\nA Sufficiently Long Paper Title Here\nrest",
			want: "A Sufficiently Long Paper Title Here",
		},
		{
			name: "requires three words",
			text: "Shorttitle here\nAnother Real Title Line\n",
			want: "Another Real Title Line",
		},
		{
			name: "nothing substantial",
			text: "1\n2\nx\n",
			want: "",
		},
		{
			name: "ignores lines past the first ten",
			text: strings.Repeat("x\n", 10) + "A Perfectly Good Title Too Late\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffTitle(tt.text); got != tt.want {
				t.Errorf("sniffTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSniffAuthors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "comma separated full names",
			text: "A Paper Title Goes Here\nJohn Smith, Jane Doe\n",
			want: []string{"John Smith", "Jane Doe"},
		},
		{
			name: "and separator with initials",
			text: "Title\nJ. Smith and J. Doe\n",
			want: []string{"J. Smith", "J. Doe"},
		},
		{
			name: "middle initial",
			text: "Title\nJohn Q. Smith\n",
			want: []string{"John Q. Smith"},
		},
		{
			name: "no author line",
			text: "Title\nSOME ALL CAPS AFFILIATION\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sniffAuthors(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sniffAuthors() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSniffAbstract(t *testing.T) {
	text := "Title\nAuthors\nAbstract: We present a method\nfor doing things.\nKeywords: a, b\n"
	got := sniffAbstract(text)
	want := "We present a method for doing things."
	if got != want {
		t.Errorf("sniffAbstract() = %q, want %q", got, want)
	}

	if got := sniffAbstract("no such section here"); got != "" {
		t.Errorf("sniffAbstract() = %q, want empty", got)
	}
}

func TestSniffDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "first page doi with trailing period",
			text: "A Paper Title\ndoi: 10.1000/journal.2020.12345.\nAbstract: ...",
			want: "10.1000/journal.2020.12345",
		},
		{
			name: "no doi",
			text: "A Paper Title\nAbstract: nothing identifies this work.",
			want: "",
		},
		{
			name: "doi in references only is skipped",
			text: "A Paper Title\nBody text.\nReferences\n[1] Cited work. 10.1000/other.999.",
			want: "",
		},
		{
			name: "own doi wins over cited dois",
			text: "Title\n10.5555/mine.1\nBody\nReferences\n[1] Other. 10.1000/theirs.2.",
			want: "10.5555/mine.1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sniffDOI(tt.text); got != tt.want {
				t.Errorf("sniffDOI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSniffKeywords(t *testing.T) {
	text := "Abstract: x\nKeywords: machine learning, proteins; folding\nIntroduction\n"
	got := sniffKeywords(text)
	want := []string{"machine learning", "proteins", "folding"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sniffKeywords() = %v, want %v", got, want)
	}
}

func TestSniffReferences(t *testing.T) {
	text := `Body text of the paper goes on for a while.

References
[1] Smith, J. First cited paper with enough length. 2019.
[2] Doe, J. Second cited paper also long enough here. 2020.
[3] Poe, E. Third cited paper rounding out the list. 2021.
`
	got := sniffReferences(text)
	if len(got) != 3 {
		t.Fatalf("sniffReferences() returned %d entries, want 3: %v", len(got), got)
	}
	if !strings.HasPrefix(got[0], "Smith, J.") {
		t.Errorf("first entry = %q", got[0])
	}

	if got := sniffReferences("no bibliography at all"); got != nil {
		t.Errorf("sniffReferences() = %v, want nil", got)
	}
}
