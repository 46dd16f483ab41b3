package viz

import (
	"context"

	"github.com/scholium/scholium/internal/graph"
	"github.com/scholium/scholium/internal/store"
)

// BuildCoAuthorGraph projects the co-authorship network into renderable
// form: one node per author sized by collaboration degree, one edge per
// collaborating pair weighted by shared documents.
func BuildCoAuthorGraph(ctx context.Context, engine *graph.Engine) (*GraphData, error) {
	coG, err := engine.CoAuthorGraph(ctx)
	if err != nil {
		return nil, err
	}

	degree := make(map[string]int, len(coG.Nodes))
	edges := make([]Edge, 0, len(coG.Edges))
	for _, e := range coG.Edges {
		degree[e.A]++
		degree[e.B]++
		edges = append(edges, Edge{
			Source: e.A,
			Target: e.B,
			Kind:   EdgeKindCoAuthor,
			Weight: e.Weight,
		})
	}

	nodes := make([]Node, 0, len(coG.Nodes))
	for _, n := range coG.Nodes {
		nodes = append(nodes, Node{
			ID:     n.ID,
			Type:   NodeTypeAuthor,
			Label:  n.Display,
			Degree: degree[n.ID],
		})
	}

	return &GraphData{Nodes: nodes, Edges: edges}, nil
}

// BuildCitationGraph projects the resolved citation edges between stored
// documents. Documents with no resolved edges in either direction are
// omitted to keep large corpora legible.
func BuildCitationGraph(ctx context.Context, s *store.Store) (*GraphData, error) {
	citations, err := s.ResolvedCitations(ctx)
	if err != nil {
		return nil, err
	}

	degree := make(map[string]int)
	edges := make([]Edge, 0, len(citations))
	for _, c := range citations {
		degree[c.CitingID]++
		degree[c.CitedID]++
		edges = append(edges, Edge{
			Source: c.CitingID,
			Target: c.CitedID,
			Kind:   EdgeKindCites,
		})
	}

	docs, err := s.FilterDocuments(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(degree))
	for _, doc := range docs {
		if degree[doc.ID] == 0 {
			continue
		}
		nodes = append(nodes, Node{
			ID:     doc.ID,
			Type:   NodeTypeDocument,
			Label:  shortLabel(doc.Title),
			Title:  doc.Title,
			Year:   doc.Year,
			Degree: degree[doc.ID],
		})
	}

	return &GraphData{Nodes: nodes, Edges: edges}, nil
}

// shortLabel truncates a title for in-graph display; the full title stays
// available in the tooltip.
func shortLabel(title string) string {
	const max = 40
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return string(runes[:max-3]) + "..."
}
