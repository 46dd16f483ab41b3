package graph

import (
	"context"
	"strings"

	"github.com/scholium/scholium/internal/normalize"
	"github.com/scholium/scholium/internal/store"
)

// ResolveAll sweeps every unresolved citation edge against the stored
// corpus and flips matches to resolved. The sweep is idempotent and
// monotonic: a second pass with no new ingestion changes nothing, and a
// resolved edge never reverts. Returns the number of edges resolved.
func (e *Engine) ResolveAll(ctx context.Context) (int, error) {
	unresolved, err := e.store.UnresolvedCitations(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, c := range unresolved {
		docID, err := e.matchReference(ctx, c)
		if err != nil {
			return resolved, err
		}
		if docID == "" || docID == c.CitingID {
			continue // self-citation by parse accident is never resolved
		}
		if err := e.store.ResolveCitation(ctx, c.ID, docID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

// ResolveAgainst matches unresolved citations against a single
// newly-ingested document; called once per ingestion so resolution stays
// incremental. Returns the number of edges resolved.
func (e *Engine) ResolveAgainst(ctx context.Context, docID string) (int, error) {
	doc, err := e.store.GetDocument(ctx, docID)
	if err != nil {
		return 0, err
	}
	if len(doc.Authors) == 0 || doc.Year == 0 {
		return 0, nil // nothing for a parsed reference to match on
	}
	family := strings.ToLower(doc.Authors[0].Family)

	unresolved, err := e.store.UnresolvedCitations(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, c := range unresolved {
		if c.CitingID == docID {
			continue
		}
		if strings.ToLower(c.Surname) != family || c.Year != doc.Year {
			continue
		}
		if !e.titleMatches(c.TitleFragment, doc.Title) {
			continue
		}
		if err := e.store.ResolveCitation(ctx, c.ID, docID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

// matchReference finds the document a parsed reference points at, or ""
// when no candidate matches. Candidates come back in ingestion order, so
// the earliest matching document wins deterministically.
func (e *Engine) matchReference(ctx context.Context, c store.Citation) (string, error) {
	if c.Surname == "" || c.Year == 0 {
		return "", nil
	}

	candidates, err := e.store.ResolutionCandidates(ctx, c.Surname, c.Year)
	if err != nil {
		return "", err
	}
	for _, cand := range candidates {
		if e.titleMatches(c.TitleFragment, cand.Title) {
			return cand.DocumentID, nil
		}
	}
	return "", nil
}

// titleMatches accepts a candidate when the reference carried no usable
// title fragment (surname+year is then the whole signal) or when the
// fragment is similar enough to the candidate's title.
func (e *Engine) titleMatches(fragment, title string) bool {
	if fragment == "" {
		return true
	}
	if strings.Contains(strings.ToLower(title), strings.ToLower(fragment)) {
		return true
	}
	return normalize.TitleSimilarity(fragment, title) >= e.titleSim
}
