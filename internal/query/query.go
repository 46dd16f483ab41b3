// Package query plans and executes hybrid retrieval requests, combining
// lexical, semantic, and graph-derived signals into one ranked list.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/graph"
	"github.com/scholium/scholium/internal/normalize"
	"github.com/scholium/scholium/internal/store"
	"github.com/scholium/scholium/internal/vector"
)

// ErrNoEmbedder is returned for semantic requests when no embedding
// provider is configured.
var ErrNoEmbedder = errors.New("semantic search requested but no embedding provider is configured")

// DefaultLimit bounds result lists when the request does not set one.
const DefaultLimit = 20

// Weights are the documented lexical/semantic merge weights used when both
// signals are requested. They are configuration, not hidden heuristics.
type Weights struct {
	Lexical  float64
	Semantic float64
}

// DefaultWeights favor the semantic signal slightly.
var DefaultWeights = Weights{Lexical: 0.4, Semantic: 0.6}

// Intent selects an analysis query that bypasses score merging.
type Intent string

const (
	IntentNone          Intent = ""
	IntentMostCited     Intent = "most_cited"
	IntentCollaboration Intent = "collaboration"
)

// Request describes one retrieval or analysis query. Natural-language
// questions are handled by the free-text + semantic path; no deeper
// language understanding happens here.
type Request struct {
	Text     string `json:"text"`
	Semantic bool   `json:"semantic"`
	Author   string `json:"author,omitempty"`
	YearFrom int    `json:"year_from,omitempty"`
	YearTo   int    `json:"year_to,omitempty"`
	Intent   Intent `json:"intent,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Result is one ranked hit. MatchedFields records which signals
// contributed ("lexical", "semantic", "citations").
type Result struct {
	DocumentID    string   `json:"document_id"`
	Title         string   `json:"title"`
	Score         float64  `json:"score"`
	MatchedFields []string `json:"matched_fields"`
}

// Planner fans a request out to the store, vector index, and graph engine
// and merges the results.
type Planner struct {
	store    *store.Store
	index    *vector.Index
	embedder vector.Provider // nil disables the semantic path
	graph    *graph.Engine
	weights  Weights
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithWeights sets the lexical/semantic merge weights.
func WithWeights(w Weights) PlannerOption {
	return func(p *Planner) {
		if w.Lexical >= 0 && w.Semantic >= 0 && w.Lexical+w.Semantic > 0 {
			p.weights = w
		}
	}
}

// WithEmbedder sets the embedding provider for the semantic path.
func WithEmbedder(e vector.Provider) PlannerOption {
	return func(p *Planner) {
		p.embedder = e
	}
}

// NewPlanner creates a planner over the given store, index, and graph
// engine.
func NewPlanner(s *store.Store, idx *vector.Index, g *graph.Engine, opts ...PlannerOption) *Planner {
	p := &Planner{
		store:   s,
		index:   idx,
		graph:   g,
		weights: DefaultWeights,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search executes a request and returns the ranked result list. Structured
// filters narrow the candidate set first; lexical and semantic scoring run
// over the survivors and merge by the configured weights when both apply.
func (p *Planner) Search(ctx context.Context, req Request) ([]Result, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	if req.Intent != IntentNone {
		return p.analysisResults(ctx, req)
	}

	candidates, err := p.candidateSet(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	lexical := make(map[string]float64)
	if req.Text != "" {
		lexical = lexicalScores(req.Text, candidates)
	}

	semantic := make(map[string]float64)
	if req.Semantic {
		if req.Text == "" {
			return nil, errors.New("semantic search requires query text")
		}
		semantic, err = p.semanticScores(ctx, req.Text, candidates)
		if err != nil {
			return nil, err
		}
	}

	return p.merge(req, candidates, lexical, semantic), nil
}

// candidateSet applies the structured filters (and the FTS text match when
// present) in the store, returning candidate documents keyed by id.
func (p *Planner) candidateSet(ctx context.Context, req Request) (map[string]*document.Document, error) {
	filter := store.Filter{
		Author:   req.Author,
		YearFrom: req.YearFrom,
		YearTo:   req.YearTo,
	}
	// The FTS match is only a filter when lexical scoring applies; a pure
	// semantic request ranks the whole filtered corpus by similarity.
	if req.Text != "" && !req.Semantic {
		filter.Text = req.Text
	}

	docs, err := p.store.FilterDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]*document.Document, len(docs))
	for i := range docs {
		candidates[docs[i].ID] = &docs[i]
	}
	return candidates, nil
}

// lexicalScores computes a term-frequency score per candidate: query term
// hits weighted by field (title 3x, abstract 2x, body 1x), dampened by
// body length.
func lexicalScores(text string, candidates map[string]*document.Document) map[string]float64 {
	terms := queryTerms(text)
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[string]float64, len(candidates))
	for id, doc := range candidates {
		title := strings.ToLower(doc.Title)
		abstract := strings.ToLower(doc.Abstract)
		body := strings.ToLower(doc.Body)

		var score float64
		for _, term := range terms {
			score += 3 * float64(strings.Count(title, term))
			score += 2 * float64(strings.Count(abstract, term))
			score += float64(strings.Count(body, term))
		}
		if score > 0 {
			// Normalize by document length so long documents do not
			// dominate on raw term counts.
			words := len(strings.Fields(body)) + len(strings.Fields(abstract)) + 1
			scores[id] = score / float64(words) * 100
		}
	}
	return scores
}

func queryTerms(text string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(normalize.CleanText(text))) {
		if len(t) > 1 {
			terms = append(terms, t)
		}
	}
	return terms
}

// semanticScores embeds the query with the index's model and ranks the
// candidate set by vector similarity.
func (p *Planner) semanticScores(ctx context.Context, text string, candidates map[string]*document.Document) (map[string]float64, error) {
	if p.embedder == nil {
		return nil, ErrNoEmbedder
	}

	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	allowed := make(map[string]bool, len(candidates))
	for id := range candidates {
		allowed[id] = true
	}

	hits, err := p.index.QueryWithin(vec, 0, p.embedder.ModelID(), allowed)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.DocumentID] = float64(h.Score)
	}
	return scores, nil
}

// merge combines the per-signal scores. When both signals are present each
// is min-max normalized and combined by the configured weighted sum;
// single-signal requests rank by that signal alone.
func (p *Planner) merge(req Request, candidates map[string]*document.Document, lexical, semantic map[string]float64) []Result {
	useLexical := req.Text != "" && len(lexical) > 0
	useSemantic := req.Semantic && len(semantic) > 0

	normLex := minMaxNormalize(lexical)
	normSem := minMaxNormalize(semantic)

	var results []Result
	for id, doc := range candidates {
		var score float64
		var fields []string

		ls, hasLex := normLex[id]
		ss, hasSem := normSem[id]

		switch {
		case useLexical && useSemantic:
			if !hasLex && !hasSem {
				continue
			}
			score = p.weights.Lexical*ls + p.weights.Semantic*ss
			if hasLex {
				fields = append(fields, "lexical")
			}
			if hasSem {
				fields = append(fields, "semantic")
			}
		case useSemantic:
			if !hasSem {
				continue
			}
			score = ss
			fields = append(fields, "semantic")
		case useLexical:
			if !hasLex {
				continue
			}
			score = ls
			fields = append(fields, "lexical")
		default:
			// Pure structured-filter request: every candidate matches.
			score = 1
			fields = append(fields, "filter")
		}

		results = append(results, Result{
			DocumentID:    id,
			Title:         doc.Title,
			Score:         score,
			MatchedFields: fields,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results
}

// minMaxNormalize rescales scores into [0, 1]. A single-entry map
// normalizes to 1 so one strong hit still ranks.
func minMaxNormalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}

	min, max := 0.0, 0.0
	first := true
	for _, s := range scores {
		if first {
			min, max = s, s
			first = false
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	out := make(map[string]float64, len(scores))
	if max == min {
		for id := range scores {
			out[id] = 1
		}
		return out
	}
	for id, s := range scores {
		out[id] = (s - min) / (max - min)
	}
	return out
}

// analysisResults handles citation-only intents; scores carry the raw
// metric (citation count, community size) and no merging applies.
func (p *Planner) analysisResults(ctx context.Context, req Request) ([]Result, error) {
	switch req.Intent {
	case IntentMostCited:
		// "Most cited matching X": the filter applies to the full ranking
		// before the limit, otherwise matching papers ranked below the
		// global top n would be dropped.
		filtered := req.Text != "" || req.Author != "" || req.YearFrom != 0 || req.YearTo != 0
		fetch := req.Limit
		if filtered {
			fetch = 0
		}
		cited, err := p.graph.MostCited(ctx, fetch)
		if err != nil {
			return nil, err
		}

		var allowed map[string]bool
		if filtered {
			docs, err := p.store.FilterDocuments(ctx, store.Filter{
				Text:     req.Text,
				Author:   req.Author,
				YearFrom: req.YearFrom,
				YearTo:   req.YearTo,
			})
			if err != nil {
				return nil, err
			}
			allowed = make(map[string]bool, len(docs))
			for _, d := range docs {
				allowed[d.ID] = true
			}
		}

		results := []Result{}
		for _, cd := range cited {
			if allowed != nil && !allowed[cd.DocumentID] {
				continue
			}
			results = append(results, Result{
				DocumentID:    cd.DocumentID,
				Title:         cd.Title,
				Score:         float64(cd.Count),
				MatchedFields: []string{"citations"},
			})
			if len(results) == req.Limit {
				break
			}
		}
		return results, nil

	case IntentCollaboration:
		g, err := p.graph.CoAuthorGraph(ctx)
		if err != nil {
			return nil, err
		}
		communities := graph.Communities(g)
		results := []Result{}
		for i, c := range communities {
			if i >= req.Limit {
				break
			}
			results = append(results, Result{
				DocumentID:    c.Authors[0], // cluster keyed by smallest member id
				Title:         strings.Join(c.Names, ", "),
				Score:         float64(len(c.Authors)),
				MatchedFields: []string{"collaboration"},
			})
		}
		return results, nil

	default:
		return nil, fmt.Errorf("unknown analysis intent %q", req.Intent)
	}
}
