// Package vector provides the per-model embedding index used for semantic
// retrieval, plus the embedding provider contract.
package vector

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Errors returned by index operations.
var (
	// ErrModelMismatch is returned when a vector carries a different model
	// identifier than the index. Mixed-model comparison is rejected, never
	// silently coerced.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrDimensionMismatch is returned when a vector has the wrong number
	// of dimensions for the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotIndexed is returned when a similarity lookup names a document
	// that has no stored vector.
	ErrNotIndexed = errors.New("document not in vector index")

	// ErrUnsupportedVersion is returned when a persisted index was written
	// in an incompatible format.
	ErrUnsupportedVersion = errors.New("unsupported index version")
)

// CurrentIndexVersion is the persisted format version. Increment on
// breaking changes to the snapshot layout.
const CurrentIndexVersion = 1

// IndexFileName is the name of the persisted index snapshot.
const IndexFileName = "vectors.gob"

// Index stores one embedding per document for a single model. All methods
// are safe for concurrent use; an upsert replaces a vector atomically with
// respect to queries.
type Index struct {
	mu      sync.RWMutex
	modelID string
	dims    int
	vectors map[string][]float32
}

// snapshot is the gob persistence layout.
type snapshot struct {
	Version   int
	ModelID   string
	Dims      int
	CreatedAt time.Time
	Vectors   map[string][]float32
}

// NewIndex creates an empty index bound to one model id and dimension.
func NewIndex(modelID string, dims int) *Index {
	return &Index{
		modelID: modelID,
		dims:    dims,
		vectors: make(map[string][]float32),
	}
}

// ModelID returns the model identifier this index is bound to.
func (idx *Index) ModelID() string { return idx.modelID }

// Dimensions returns the vector dimension this index accepts.
func (idx *Index) Dimensions() int { return idx.dims }

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Upsert stores or replaces the vector for a document. A concurrent query
// observes either the old vector or the new one, never a partial state.
func (idx *Index) Upsert(docID string, vec []float32, modelID string) error {
	if modelID != idx.modelID {
		return fmt.Errorf("%w: got %q, index holds %q", ErrModelMismatch, modelID, idx.modelID)
	}
	if len(vec) != idx.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), idx.dims)
	}

	owned := make([]float32, len(vec))
	copy(owned, vec)

	idx.mu.Lock()
	idx.vectors[docID] = owned
	idx.mu.Unlock()
	return nil
}

// Delete removes a document's vector. Deleting an absent id is a no-op.
func (idx *Index) Delete(docID string) {
	idx.mu.Lock()
	delete(idx.vectors, docID)
	idx.mu.Unlock()
}

// Has reports whether a document has a stored vector.
func (idx *Index) Has(docID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.vectors[docID]
	return ok
}

// Save persists the index snapshot atomically (write temp file, rename).
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	snap := snapshot{
		Version:   CurrentIndexVersion,
		ModelID:   idx.modelID,
		Dims:      idx.dims,
		CreatedAt: time.Now().UTC(),
		Vectors:   make(map[string][]float32, len(idx.vectors)),
	}
	for id, vec := range idx.vectors {
		snap.Vectors[id] = vec
	}
	idx.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// LoadIndex reads a persisted index. A missing file yields an empty index
// for the given model rather than an error, so first runs need no setup.
func LoadIndex(path, modelID string, dims int) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(modelID, dims), nil
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	if snap.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, snap.Version, CurrentIndexVersion)
	}
	if snap.ModelID != modelID {
		return nil, fmt.Errorf("%w: index on disk holds %q, configured model is %q",
			ErrModelMismatch, snap.ModelID, modelID)
	}

	idx := NewIndex(snap.ModelID, snap.Dims)
	idx.vectors = snap.Vectors
	if idx.vectors == nil {
		idx.vectors = make(map[string][]float32)
	}
	return idx, nil
}
