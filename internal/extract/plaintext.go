package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PlainTextExtractor is the last-resort extractor: it recovers body text
// in one pass and makes no attempt at structural fields, so its results
// are at best partial.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates the plain-text fallback extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Name implements Extractor.
func (e *PlainTextExtractor) Name() string { return "plaintext-pdf" }

// Extract implements Extractor.
func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte, hints Hints) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	return &Result{
		Body:      buf.String(),
		PageCount: r.NumPage(),
	}, nil
}
