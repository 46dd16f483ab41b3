package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/graph"
	"github.com/scholium/scholium/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertDoc(t *testing.T, s *store.Store, n int, title string, year int, refs []document.ReferenceCandidate, authors ...document.Author) string {
	t.Helper()
	doc := &document.Document{
		ID:          fmt.Sprintf("doc-%03d", n),
		FileHash:    title + "-hash",
		ContentHash: title + "-content",
		Title:       title,
		Year:        year,
		Authors:     authors,
		References:  refs,
		ExtractedBy: "structural-pdf",
		Status:      document.StatusSucceeded,
	}
	res, err := s.InsertDocument(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Duplicate {
		t.Fatalf("unexpected duplicate for %q", title)
	}
	return res.DocumentID
}

func TestBuildCoAuthorGraph(t *testing.T) {
	s := newTestStore(t)
	smith := document.Author{Given: "Jane", Family: "Smith"}
	lee := document.Author{Given: "Ada", Family: "Lee"}

	insertDoc(t, s, 1, "First Shared Piece of Writing Here", 2020, nil, smith, lee)
	insertDoc(t, s, 2, "Second Shared Piece of Writing Here", 2021, nil, smith, lee)

	g, err := BuildCoAuthorGraph(context.Background(), graph.NewEngine(s))
	if err != nil {
		t.Fatalf("BuildCoAuthorGraph() error = %v", err)
	}

	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(g.Nodes))
	}
	for _, n := range g.Nodes {
		if n.Type != NodeTypeAuthor {
			t.Errorf("node type = %q, want author", n.Type)
		}
		if n.Degree != 1 {
			t.Errorf("node %s degree = %d, want 1", n.Label, n.Degree)
		}
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(g.Edges))
	}
	if g.Edges[0].Kind != EdgeKindCoAuthor || g.Edges[0].Weight != 2 {
		t.Errorf("edge = %+v, want coauthor edge with weight 2", g.Edges[0])
	}
}

func TestBuildCitationGraph(t *testing.T) {
	s := newTestStore(t)
	engine := graph.NewEngine(s)

	citedID := insertDoc(t, s, 1, "Foundations of Graph Methods Explained", 2020, nil,
		document.Author{Given: "Jane", Family: "Smith"})
	citingID := insertDoc(t, s, 2, "New Results Building on Prior Work", 2022,
		[]document.ReferenceCandidate{{Raw: "Smith 2020", Surname: "Smith", Year: 2020}},
		document.Author{Given: "Ada", Family: "Lee"})
	// A third document with no citation edges stays out of the picture.
	insertDoc(t, s, 3, "Unrelated Standalone Report About Nothing", 2019, nil,
		document.Author{Given: "Eve", Family: "Jones"})

	if _, err := engine.ResolveAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	g, err := BuildCitationGraph(context.Background(), s)
	if err != nil {
		t.Fatalf("BuildCitationGraph() error = %v", err)
	}

	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want only the connected pair", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(g.Edges))
	}
	e := g.Edges[0]
	if e.Kind != EdgeKindCites || e.Source != citingID || e.Target != citedID {
		t.Errorf("edge = %+v, want %s cites %s", e, citingID, citedID)
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	g := &GraphData{
		Nodes: []Node{
			{ID: "a1", Type: NodeTypeAuthor, Label: "Jane Smith", Degree: 1},
			{ID: "a2", Type: NodeTypeAuthor, Label: "Ada Lee", Degree: 1},
		},
		Edges: []Edge{
			{Source: "a1", Target: "a2", Kind: EdgeKindCoAuthor, Weight: 3},
		},
	}

	out, err := g.ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var elements CytoscapeElements
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(elements.Nodes) != 2 || len(elements.Edges) != 1 {
		t.Fatalf("elements = %d nodes / %d edges", len(elements.Nodes), len(elements.Edges))
	}
	if elements.Edges[0].Data.ID == "" {
		t.Error("edge id not assigned")
	}
	if elements.Edges[0].Data.Weight != 3 {
		t.Errorf("edge weight = %d, want 3", elements.Edges[0].Data.Weight)
	}
}

func TestGenerateHTML(t *testing.T) {
	g := &GraphData{
		Nodes: []Node{{ID: "a1", Type: NodeTypeAuthor, Label: "Jane Smith"}},
	}

	html, err := GenerateHTML(g, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "cytoscape", "Jane Smith", `"cose"`} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestGenerateHTMLLayouts(t *testing.T) {
	g := &GraphData{Nodes: []Node{{ID: "a1", Type: NodeTypeAuthor, Label: "X"}}}

	html, err := GenerateHTML(g, HTMLOptions{Layout: "circle"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `"circle"`) {
		t.Error("circle layout not applied")
	}

	if _, err := GenerateHTML(g, HTMLOptions{Layout: "spiral"}); err == nil {
		t.Error("invalid layout accepted")
	}
}

func TestGenerateHTMLEmptyGraph(t *testing.T) {
	html, err := GenerateHTML(&GraphData{}, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(html, "No graph data") {
		t.Error("empty state page not rendered")
	}

	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("nil graph accepted")
	}
}
