package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultModel is the default embedding model.
	DefaultModel = "all-minilm:l6-v2"

	// DefaultDimensions is the output dimension of the default model.
	DefaultDimensions = 384

	// DefaultEmbedTimeout bounds a single embedding request.
	DefaultEmbedTimeout = 30 * time.Second

	// embedRateLimit caps requests per second against a local Ollama so
	// batch ingestion does not starve interactive queries.
	embedRateLimit = 10.0

	apiPathEmbeddings = "/api/embeddings"

	// MaxEmbedChars truncates input before embedding; longer text exceeds
	// the model context window without adding semantic signal.
	MaxEmbedChars = 8000
)

// OllamaProvider generates embeddings via the Ollama HTTP API.
type OllamaProvider struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
	limiter *rate.Limiter
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithBaseURL sets the Ollama API base URL.
func WithBaseURL(url string) OllamaOption {
	return func(p *OllamaProvider) {
		p.baseURL = url
	}
}

// WithModel sets the embedding model and its dimensions.
func WithModel(model string, dims int) OllamaOption {
	return func(p *OllamaProvider) {
		p.model = model
		p.dims = dims
	}
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) OllamaOption {
	return func(p *OllamaProvider) {
		p.client.Timeout = d
	}
}

// NewOllamaProvider creates a rate-limited Ollama embedding provider.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL: DefaultOllamaURL,
		model:   DefaultModel,
		dims:    DefaultDimensions,
		client:  &http.Client{Timeout: DefaultEmbedTimeout},
		limiter: rate.NewLimiter(rate.Limit(embedRateLimit), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ModelID implements Provider.
func (p *OllamaProvider) ModelID() string { return p.model }

// Dimensions implements Provider.
func (p *OllamaProvider) Dimensions() int { return p.dims }

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed implements Provider.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > MaxEmbedChars {
		text = text[:MaxEmbedChars]
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embeddingRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+apiPathEmbeddings, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(er.Embedding) != p.dims {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			ErrDimensionMismatch, len(er.Embedding), p.dims)
	}

	vec := make([]float32, len(er.Embedding))
	for i, v := range er.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
