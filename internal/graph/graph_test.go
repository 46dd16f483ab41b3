package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/normalize"
	"github.com/scholium/scholium/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewEngine(s), s
}

func makeDoc(n int, title string, year int, authors ...document.Author) *document.Document {
	return &document.Document{
		ID:          fmt.Sprintf("doc-%03d", n),
		SourcePath:  fmt.Sprintf("/papers/%03d.pdf", n),
		FileHash:    fmt.Sprintf("filehash-%03d", n),
		ContentHash: fmt.Sprintf("contenthash-%03d", n),
		Title:       title,
		Body:        "Body text.",
		Authors:     authors,
		Year:        year,
		ExtractedBy: "structural-pdf",
		Status:      document.StatusSucceeded,
		IngestedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute),
	}
}

func mustInsert(t *testing.T, s *store.Store, doc *document.Document) {
	t.Helper()
	res, err := s.InsertDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("InsertDocument(%s) error = %v", doc.ID, err)
	}
	if res.Duplicate {
		t.Fatalf("InsertDocument(%s) unexpectedly a duplicate of %s", doc.ID, res.DuplicateOf)
	}
}

func TestResolveAllLinksBySurnameAndYear(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	cited := makeDoc(1, "Paper B", 2020, document.Author{Given: "Jane", Family: "Smith"})
	mustInsert(t, s, cited)

	citing := makeDoc(2, "Paper A Citing Things", 2022, document.Author{Given: "Wei", Family: "Lee"})
	citing.References = []document.ReferenceCandidate{
		normalize.ParseReference("Paper B, 2020, Smith"),
	}
	mustInsert(t, s, citing)

	resolved, err := e.ResolveAll(ctx)
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if resolved != 1 {
		t.Fatalf("ResolveAll() = %d, want 1", resolved)
	}

	edges, err := s.CitationsTo(ctx, cited.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 || edges[0].CitingID != citing.ID {
		t.Errorf("edges to cited = %+v, want one from %s", edges, citing.ID)
	}

	// A second sweep finds nothing new.
	resolved, err = e.ResolveAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != 0 {
		t.Errorf("second ResolveAll() = %d, want 0", resolved)
	}
}

func TestResolveAllChecksTitleFragment(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	wrongTitle := makeDoc(1, "A Different Work Entirely About Other Topics", 2020,
		document.Author{Given: "Jane", Family: "Smith"})
	mustInsert(t, s, wrongTitle)

	citing := makeDoc(2, "The Citing Paper", 2022, document.Author{Given: "Wei", Family: "Lee"})
	citing.References = []document.ReferenceCandidate{{
		Raw:           `Smith, J. "Graph Learning for Molecules." 2020.`,
		Surname:       "Smith",
		Year:          2020,
		TitleFragment: "Graph Learning for Molecules",
	}}
	mustInsert(t, s, citing)

	resolved, err := e.ResolveAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != 0 {
		t.Errorf("ResolveAll() = %d, want 0: surname and year match but the title does not", resolved)
	}
}

func TestResolveAllSkipsSelfCitation(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	doc := makeDoc(1, "A Self Referential Paper", 2020, document.Author{Given: "Jane", Family: "Smith"})
	doc.References = []document.ReferenceCandidate{{
		Raw:     "Smith, J. Earlier thing. 2020.",
		Surname: "Smith",
		Year:    2020,
	}}
	mustInsert(t, s, doc)

	resolved, err := e.ResolveAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != 0 {
		t.Errorf("ResolveAll() = %d, want 0 (an edge may not point at its own document)", resolved)
	}
}

func TestResolveAgainstIncremental(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	// The citing paper arrives first; its reference dangles.
	citing := makeDoc(1, "The Early Arrival", 2022, document.Author{Given: "Wei", Family: "Lee"})
	citing.References = []document.ReferenceCandidate{{
		Raw:     "Smith, J. Late work. 2020.",
		Surname: "Smith",
		Year:    2020,
	}}
	mustInsert(t, s, citing)

	cited := makeDoc(2, "Late Work", 2020, document.Author{Given: "Jane", Family: "Smith"})
	mustInsert(t, s, cited)

	resolved, err := e.ResolveAgainst(ctx, cited.ID)
	if err != nil {
		t.Fatalf("ResolveAgainst() error = %v", err)
	}
	if resolved != 1 {
		t.Errorf("ResolveAgainst() = %d, want 1", resolved)
	}

	count, err := e.CitationCount(ctx, cited.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("CitationCount() = %d, want 1", count)
	}
}

func TestCoAuthorGraphWeights(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	smith := document.Author{Given: "Jane", Family: "Smith"}
	lee := document.Author{Given: "Wei", Family: "Lee"}
	poe := document.Author{Given: "Edgar", Family: "Poe"}

	mustInsert(t, s, makeDoc(1, "First Shared Paper Title", 2019, smith, lee))
	mustInsert(t, s, makeDoc(2, "Second Shared Paper Title", 2020, smith, lee))
	mustInsert(t, s, makeDoc(3, "A Solo Paper By Poe Alone", 2021, poe))

	g, err := e.CoAuthorGraph(ctx)
	if err != nil {
		t.Fatalf("CoAuthorGraph() error = %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("Nodes = %d, want 3", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("Edges = %d, want 1", len(g.Edges))
	}
	if g.Edges[0].Weight != 2 {
		t.Errorf("edge weight = %d, want 2 shared documents", g.Edges[0].Weight)
	}
	if g.Edges[0].A >= g.Edges[0].B {
		t.Errorf("edge endpoints %q, %q not in canonical order", g.Edges[0].A, g.Edges[0].B)
	}
}

func TestCommunitiesDeterministic(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	smith := document.Author{Given: "Jane", Family: "Smith"}
	lee := document.Author{Given: "Wei", Family: "Lee"}
	kim := document.Author{Given: "Min", Family: "Kim"}
	poe := document.Author{Given: "Edgar", Family: "Poe"}
	doe := document.Author{Given: "John", Family: "Doe"}

	// Cluster of three, cluster of two.
	mustInsert(t, s, makeDoc(1, "Triad Collaboration Number One", 2019, smith, lee))
	mustInsert(t, s, makeDoc(2, "Triad Collaboration Number Two", 2020, lee, kim))
	mustInsert(t, s, makeDoc(3, "A Pairwise Collaboration Here", 2021, poe, doe))

	g, err := e.CoAuthorGraph(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var first []Community
	for run := 0; run < 5; run++ {
		got := Communities(g)
		if len(got) != 2 {
			t.Fatalf("run %d: communities = %d, want 2", run, len(got))
		}
		if len(got[0].Authors) != 3 || len(got[1].Authors) != 2 {
			t.Errorf("run %d: sizes = %d, %d; want 3 then 2",
				run, len(got[0].Authors), len(got[1].Authors))
		}
		if run == 0 {
			first = got
			continue
		}
		for i := range got {
			for j := range got[i].Authors {
				if got[i].Authors[j] != first[i].Authors[j] {
					t.Fatalf("run %d: member order differs from the first run", run)
				}
			}
		}
	}
}

func TestStrongestCollaborations(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	smith := document.Author{Given: "Jane", Family: "Smith"}
	lee := document.Author{Given: "Wei", Family: "Lee"}
	poe := document.Author{Given: "Edgar", Family: "Poe"}

	mustInsert(t, s, makeDoc(1, "Strong Pair Output Number One", 2019, smith, lee))
	mustInsert(t, s, makeDoc(2, "Strong Pair Output Number Two", 2020, smith, lee))
	mustInsert(t, s, makeDoc(3, "A Weaker Pairing Shows Here", 2021, smith, poe))

	got, err := e.StrongestCollaborations(ctx, 10)
	if err != nil {
		t.Fatalf("StrongestCollaborations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("collaborations = %d, want 2", len(got))
	}
	if got[0].Weight != 2 || got[1].Weight != 1 {
		t.Errorf("weights = %d, %d; want 2 then 1", got[0].Weight, got[1].Weight)
	}
	if got[0].NameA == "" || got[0].NameB == "" {
		t.Error("collaboration entries should carry display names")
	}
}

func TestAuthorProfile(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	smith := document.Author{Given: "Jane", Family: "Smith"}
	lee := document.Author{Given: "Wei", Family: "Lee"}

	work := makeDoc(1, "The Profiled Work Itself", 2020, smith, lee)
	mustInsert(t, s, work)

	citing := makeDoc(2, "A Paper Citing the Work", 2022, document.Author{Given: "Edgar", Family: "Poe"})
	citing.References = []document.ReferenceCandidate{{
		Raw:     "Smith, J. The profiled work itself. 2020.",
		Surname: "Smith",
		Year:    2020,
	}}
	mustInsert(t, s, citing)

	if _, err := e.ResolveAll(ctx); err != nil {
		t.Fatal(err)
	}

	profile, err := e.AuthorProfile(ctx, "Jane Smith")
	if err != nil {
		t.Fatalf("AuthorProfile() error = %v", err)
	}
	if profile.Author.Family != "Smith" {
		t.Errorf("Author = %+v", profile.Author)
	}
	if len(profile.Documents) != 1 || profile.Documents[0].ID != work.ID {
		t.Errorf("Documents = %+v", profile.Documents)
	}
	if profile.CitationCount != 1 {
		t.Errorf("CitationCount = %d, want 1", profile.CitationCount)
	}
	if len(profile.CoAuthors) != 1 || profile.CoAuthors[0].Display != lee.Display() {
		t.Errorf("CoAuthors = %+v, want Wei Lee", profile.CoAuthors)
	}
}
