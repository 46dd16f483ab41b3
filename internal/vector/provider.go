package vector

import "context"

// Provider generates embeddings from text. Implementations must embed a
// query with the same model used at index time; the index enforces the
// model contract on every call.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelID returns the identifier of the embedding model.
	ModelID() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
