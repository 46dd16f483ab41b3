// Package graph derives the citation and co-authorship networks from the
// bibliographic store and answers network-analysis queries over them.
//
// The graphs are read views: nothing here is durable state, and every
// result is recomputable from the store. Node and edge iteration is fed in
// stable order so all outputs are deterministic for a fixed snapshot.
package graph

import (
	"context"
	"sort"

	"github.com/scholium/scholium/internal/store"
)

// Engine answers graph queries over the bibliographic store.
type Engine struct {
	store    *store.Store
	titleSim float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithTitleSimilarity sets the threshold used when matching a parsed
// reference's title fragment against a candidate document.
func WithTitleSimilarity(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 && threshold <= 1 {
			e.titleSim = threshold
		}
	}
}

// NewEngine creates a graph engine over the given store.
func NewEngine(s *store.Store, opts ...Option) *Engine {
	e := &Engine{store: s, titleSim: 0.9}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CitationCount returns the number of resolved citations pointing at a
// document.
func (e *Engine) CitationCount(ctx context.Context, docID string) (int, error) {
	return e.store.CitationCount(ctx, docID)
}

// MostCited returns the n most-cited documents, deterministically ordered.
// n <= 0 returns the full ranking.
func (e *Engine) MostCited(ctx context.Context, n int) ([]store.CitedDocument, error) {
	return e.store.MostCited(ctx, n)
}

// AuthorNode is one author in the co-authorship graph.
type AuthorNode struct {
	ID        string `json:"id"`
	Display   string `json:"display"`
	Documents int    `json:"documents"`
}

// CoAuthorEdge is an undirected collaboration edge. A < B by author id;
// weight counts shared documents.
type CoAuthorEdge struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// CoAuthorGraph is the undirected weighted co-authorship network.
type CoAuthorGraph struct {
	Nodes []AuthorNode   `json:"nodes"`
	Edges []CoAuthorEdge `json:"edges"`

	display map[string]string
}

// CoAuthorGraph builds the co-authorship network: one node per author with
// at least one document, one edge per collaborating pair weighted by the
// number of shared documents. Nodes sort by id and edges by (a, b).
func (e *Engine) CoAuthorGraph(ctx context.Context) (*CoAuthorGraph, error) {
	authorships, err := e.store.AllAuthorships(ctx)
	if err != nil {
		return nil, err
	}
	authors, err := e.store.AllAuthors(ctx)
	if err != nil {
		return nil, err
	}

	display := make(map[string]string, len(authors))
	for _, a := range authors {
		display[a.ID] = a.Display
	}

	byDoc := make(map[string][]string)
	docCount := make(map[string]int)
	for _, ash := range authorships {
		byDoc[ash.DocumentID] = append(byDoc[ash.DocumentID], ash.AuthorID)
		docCount[ash.AuthorID]++
	}

	type pair struct{ a, b string }
	weights := make(map[pair]int)
	for _, coauthors := range byDoc {
		for i := 0; i < len(coauthors); i++ {
			for j := i + 1; j < len(coauthors); j++ {
				a, b := coauthors[i], coauthors[j]
				if a == b {
					continue
				}
				if b < a {
					a, b = b, a
				}
				weights[pair{a, b}]++
			}
		}
	}

	g := &CoAuthorGraph{display: display}
	for id, count := range docCount {
		g.Nodes = append(g.Nodes, AuthorNode{ID: id, Display: display[id], Documents: count})
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })

	for p, w := range weights {
		g.Edges = append(g.Edges, CoAuthorEdge{A: p.a, B: p.b, Weight: w})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].A != g.Edges[j].A {
			return g.Edges[i].A < g.Edges[j].A
		}
		return g.Edges[i].B < g.Edges[j].B
	})

	return g, nil
}

// Community is a disjoint set of author ids forming a collaboration
// cluster, with member ids sorted.
type Community struct {
	Authors []string `json:"authors"`
	Names   []string `json:"names,omitempty"`
}

// Communities partitions the co-authorship graph into connected
// components. Components sort by descending size, then by smallest member
// id, so the output is identical for a fixed graph snapshot.
func Communities(g *CoAuthorGraph) []Community {
	parent := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		parent[n.ID] = n.ID
	}

	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// Smaller root id wins so union order cannot change the result.
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for _, edge := range g.Edges {
		union(edge.A, edge.B)
	}

	members := make(map[string][]string)
	for _, n := range g.Nodes {
		root := find(n.ID)
		members[root] = append(members[root], n.ID)
	}

	communities := make([]Community, 0, len(members))
	for _, ids := range members {
		sort.Strings(ids)
		c := Community{Authors: ids}
		for _, id := range ids {
			c.Names = append(c.Names, g.display[id])
		}
		communities = append(communities, c)
	}
	sort.Slice(communities, func(i, j int) bool {
		if len(communities[i].Authors) != len(communities[j].Authors) {
			return len(communities[i].Authors) > len(communities[j].Authors)
		}
		return communities[i].Authors[0] < communities[j].Authors[0]
	})
	return communities
}

// Collaboration is a co-authorship edge annotated with display names.
type Collaboration struct {
	CoAuthorEdge
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`
}

// StrongestCollaborations returns the n heaviest co-authorship edges,
// ordered by weight then author ids.
func (e *Engine) StrongestCollaborations(ctx context.Context, n int) ([]Collaboration, error) {
	g, err := e.CoAuthorGraph(ctx)
	if err != nil {
		return nil, err
	}
	collabs := make([]Collaboration, 0, len(g.Edges))
	for _, edge := range g.Edges {
		collabs = append(collabs, Collaboration{
			CoAuthorEdge: edge,
			NameA:        g.display[edge.A],
			NameB:        g.display[edge.B],
		})
	}
	sort.Slice(collabs, func(i, j int) bool {
		if collabs[i].Weight != collabs[j].Weight {
			return collabs[i].Weight > collabs[j].Weight
		}
		if collabs[i].A != collabs[j].A {
			return collabs[i].A < collabs[j].A
		}
		return collabs[i].B < collabs[j].B
	})
	if n > 0 && len(collabs) > n {
		collabs = collabs[:n]
	}
	return collabs, nil
}
