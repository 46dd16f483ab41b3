package vector

import (
	"fmt"
	"math"
	"sort"
)

// Result is one similarity hit, scored in [-1, 1] by cosine similarity.
type Result struct {
	DocumentID string  `json:"document_id"`
	Score      float32 `json:"score"`
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched or empty inputs score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB)))
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// Query returns up to k nearest documents by descending similarity. An
// empty index yields an empty result, never an error. Ties break by
// document id so results are deterministic.
func (idx *Index) Query(vec []float32, k int, modelID string) ([]Result, error) {
	return idx.QueryWithin(vec, k, modelID, nil)
}

// QueryWithin is Query restricted to an allowed candidate set. A nil set
// means no restriction.
func (idx *Index) QueryWithin(vec []float32, k int, modelID string, allowed map[string]bool) ([]Result, error) {
	if modelID != idx.modelID {
		return nil, fmt.Errorf("%w: got %q, index holds %q", ErrModelMismatch, modelID, idx.modelID)
	}
	if len(vec) != idx.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), idx.dims)
	}

	idx.mu.RLock()
	results := make([]Result, 0, len(idx.vectors))
	for docID, stored := range idx.vectors {
		if allowed != nil && !allowed[docID] {
			continue
		}
		results = append(results, Result{
			DocumentID: docID,
			Score:      CosineSimilarity(vec, stored),
		})
	}
	idx.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Similar returns up to k documents nearest to an already-indexed document,
// excluding the document itself.
func (idx *Index) Similar(docID string, k int) ([]Result, error) {
	idx.mu.RLock()
	vec, ok := idx.vectors[docID]
	idx.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", docID, ErrNotIndexed)
	}

	results, err := idx.Query(vec, 0, idx.modelID)
	if err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, r := range results {
		if r.DocumentID != docID {
			filtered = append(filtered, r)
		}
	}
	if k > 0 && len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}
