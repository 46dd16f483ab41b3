package viz

import (
	"encoding/json"
	"fmt"
)

// CytoscapeElements is the element-list shape Cytoscape.js consumes.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode wraps a node in the data envelope Cytoscape expects.
type CytoscapeNode struct {
	Data Node `json:"data"`
}

// CytoscapeEdge wraps an edge in the data envelope Cytoscape expects.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData carries the edge fields plus the id Cytoscape requires.
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Weight int    `json:"weight,omitempty"`
}

// ToCytoscapeJSON serializes the graph in Cytoscape.js element format.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, 0, len(g.Edges)),
	}

	for _, n := range g.Nodes {
		elements.Nodes = append(elements.Nodes, CytoscapeNode{Data: n})
	}
	for i, e := range g.Edges {
		elements.Edges = append(elements.Edges, CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     edgeID(e, i),
				Source: e.Source,
				Target: e.Target,
				Kind:   e.Kind,
				Weight: e.Weight,
			},
		})
	}

	data, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("marshaling graph elements: %w", err)
	}
	return string(data), nil
}

// edgeID disambiguates parallel edges within one render; ids are not stable
// across graph builds.
func edgeID(e Edge, index int) string {
	return fmt.Sprintf("%s-%s-%s-%d", e.Source, e.Target, e.Kind, index)
}
