package viz

import (
	"bytes"
	"fmt"
	"html/template"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "force", "circle", or "grid"
	Title  string // page title
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Layout: "force", Title: "Library Graph"}
}

// GenerateHTML renders the graph as a self-contained HTML page. Cytoscape
// is loaded from a CDN; the graph data is embedded inline.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if err := validateLayout(opts.Layout); err != nil {
		return "", err
	}
	if opts.Title == "" {
		opts.Title = "Library Graph"
	}

	if graph.IsEmpty() {
		return generateEmptyHTML(opts.Title), nil
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:     opts.Title,
		GraphJSON: template.JS(graphJSON),
		Layout:    layoutToCytoscape(opts.Layout),
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func validateLayout(layout string) error {
	switch layout {
	case "", "force", "circle", "grid":
		return nil
	default:
		return fmt.Errorf("invalid layout %q: must be force, circle, or grid", layout)
	}
}

type templateData struct {
	Title     string
	GraphJSON template.JS
	Layout    string
}

// layoutToCytoscape maps user-facing layout names to Cytoscape algorithms.
func layoutToCytoscape(layout string) string {
	switch layout {
	case "circle":
		return "circle"
	case "grid":
		return "grid"
	default:
		return "cose"
	}
}

func generateEmptyHTML(title string) string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>` + template.HTMLEscapeString(title) + `</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state { text-align: center; color: #666; }
    .empty-state h2 { margin-bottom: 0.5em; color: #333; }
    .empty-state code { background: #e0e0e0; padding: 2px 6px; border-radius: 3px; }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No graph data</h2>
    <p>The library has no edges to draw yet.</p>
    <p>Ingest documents with <code>scholium ingest</code> and resolve citations with <code>scholium resolve</code></p>
  </div>
</body>
</html>`
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
  <style>
    * { box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #cy { width: 100%; height: 100vh; background: white; }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 300px;
      font-size: 13px;
      z-index: 1000;
      pointer-events: none;
    }
    #tooltip .type {
      font-size: 10px;
      text-transform: uppercase;
      color: #888;
      margin-bottom: 4px;
    }
    #tooltip .label { font-weight: bold; margin-bottom: 4px; }
    #tooltip .detail { color: #555; margin: 2px 0; }
  </style>
</head>
<body>
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const layout = "{{.Layout}}";

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          // Author nodes - blue circles sized by collaboration degree
          {
            selector: 'node[type="author"]',
            style: {
              'background-color': '#4A90D9',
              'label': 'data(label)',
              'color': '#333',
              'font-size': '10px',
              'text-valign': 'bottom',
              'text-margin-y': '5px',
              'width': 'mapData(degree, 0, 10, 20, 50)',
              'height': 'mapData(degree, 0, 10, 20, 50)'
            }
          },
          // Document nodes - orange squares sized by citation degree
          {
            selector: 'node[type="document"]',
            style: {
              'background-color': '#E8923A',
              'shape': 'round-rectangle',
              'label': 'data(label)',
              'color': '#333',
              'font-size': '9px',
              'text-valign': 'bottom',
              'text-margin-y': '4px',
              'width': 'mapData(degree, 0, 10, 20, 45)',
              'height': 'mapData(degree, 0, 10, 20, 45)'
            }
          },
          // Co-authorship edges - undirected, width by shared documents
          {
            selector: 'edge[kind="coauthor"]',
            style: {
              'line-color': '#5CB85C',
              'curve-style': 'bezier',
              'width': 'mapData(weight, 1, 10, 1, 6)'
            }
          },
          // Citation edges - directed
          {
            selector: 'edge[kind="cites"]',
            style: {
              'line-color': '#95A5A6',
              'target-arrow-color': '#95A5A6',
              'target-arrow-shape': 'triangle',
              'curve-style': 'bezier',
              'width': 1.5
            }
          },
          { selector: 'node.highlighted', style: { 'border-width': 3, 'border-color': '#ff6b6b' } },
          { selector: 'node.dimmed', style: { 'opacity': 0.3 } },
          { selector: 'edge.dimmed', style: { 'opacity': 0.2 } }
        ],
        layout: {
          name: layout,
          animate: false,
          nodeRepulsion: 8000,
          idealEdgeLength: 100,
          edgeElasticity: 100
        }
      });

      const tooltip = document.getElementById('tooltip');

      function showTooltip(evt, content) {
        tooltip.innerHTML = content;
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      }

      function hideTooltip() {
        tooltip.style.display = 'none';
      }

      function escapeHtml(str) {
        if (!str) return '';
        return str.replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      function getNodeTooltip(node) {
        const data = node.data();
        let html = '<div class="type">' + data.type + '</div>';
        html += '<div class="label">' + escapeHtml(data.label) + '</div>';
        if (data.type === 'document') {
          if (data.title) html += '<div class="detail">' + escapeHtml(data.title) + '</div>';
          if (data.year) html += '<div class="detail">Year: ' + data.year + '</div>';
        }
        html += '<div class="detail">Connections: ' + data.degree + '</div>';
        return html;
      }

      function getEdgeTooltip(edge) {
        const data = edge.data();
        let html = '<div class="type">' + data.kind + '</div>';
        if (data.weight) html += '<div class="detail">Shared documents: ' + data.weight + '</div>';
        return html;
      }

      cy.on('mouseover', 'node', function(evt) { showTooltip(evt, getNodeTooltip(evt.target)); });
      cy.on('mouseout', 'node', hideTooltip);
      cy.on('mouseover', 'edge', function(evt) { showTooltip(evt, getEdgeTooltip(evt.target)); });
      cy.on('mouseout', 'edge', hideTooltip);

      cy.on('tap', 'node', function(evt) {
        const node = evt.target;
        cy.elements().removeClass('highlighted dimmed');
        const neighborhood = node.neighborhood().add(node);
        neighborhood.addClass('highlighted');
        cy.elements().not(neighborhood).addClass('dimmed');
      });

      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          cy.elements().removeClass('highlighted dimmed');
        }
      });
    })();
  </script>
</body>
</html>`
