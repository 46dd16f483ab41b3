// Package viz renders the co-authorship and citation graphs as
// self-contained HTML pages built on Cytoscape.js.
package viz

// Node type and edge kind labels used by the Cytoscape stylesheet.
const (
	NodeTypeAuthor   = "author"
	NodeTypeDocument = "document"

	EdgeKindCoAuthor = "coauthor"
	EdgeKindCites    = "cites"
)

// GraphData is everything one visualization needs.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is an author or a document in the rendered graph.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"` // "author" or "document"
	Label string `json:"label"`

	// Document tooltip fields.
	Title string `json:"title,omitempty"`
	Year  int    `json:"year,omitempty"`

	// Degree sizes the node in the layout.
	Degree int `json:"degree"`
}

// Edge is a collaboration or citation relationship.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Weight int    `json:"weight,omitempty"` // shared documents, coauthor edges only
}

// IsEmpty reports whether there is anything to draw.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
