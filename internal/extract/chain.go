package extract

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout is the per-document wall clock budget when the caller
// does not configure one.
const DefaultTimeout = 60 * time.Second

// Chain tries a priority-ordered list of extractors until one produces a
// usable result.
type Chain struct {
	extractors []Extractor
	timeout    time.Duration
	logger     *log.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithTimeout sets the per-document extraction timeout.
func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for per-extractor fallthrough messages.
func WithLogger(l *log.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = l
	}
}

// NewChain creates a chain over the given extractors, tried in order.
func NewChain(extractors []Extractor, opts ...ChainOption) *Chain {
	c := &Chain{
		extractors: extractors,
		timeout:    DefaultTimeout,
		logger:     log.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultChain returns the standard chain: structural extraction first,
// plain-text fallback second. When reduced is true the structural extractor
// is disabled and only the fallback runs.
func DefaultChain(reduced bool, opts ...ChainOption) *Chain {
	if reduced {
		return NewChain([]Extractor{NewPlainTextExtractor()}, opts...)
	}
	return NewChain([]Extractor{NewStructuralExtractor(), NewPlainTextExtractor()}, opts...)
}

// Extract runs the chain against the document bytes. The returned result
// carries StatusSucceeded or StatusPartial; when every extractor fails the
// error wraps ErrNoUsableContent and no result is returned.
//
// Extract has no side effects; persisting the result is the caller's
// responsibility.
func (c *Chain) Extract(ctx context.Context, data []byte, hints Hints) (*Result, error) {
	if len(data) == 0 || !looksLikePDF(data) {
		return nil, fmt.Errorf("%w: input is not a PDF document", ErrNoUsableContent)
	}

	var lastErr error
	for _, ex := range c.extractors {
		result, err := c.runOne(ctx, ex, data, hints)
		if err != nil {
			lastErr = err
			c.logger.Warn("extractor failed, falling through",
				"extractor", ex.Name(), "file", hints.SourcePath, "err", err)
			continue
		}
		if !usable(result) {
			lastErr = fmt.Errorf("%s: output below minimum content threshold", ex.Name())
			c.logger.Warn("extractor output unusable, falling through",
				"extractor", ex.Name(), "file", hints.SourcePath)
			continue
		}

		result.Method = ex.Name()
		if structural(result) {
			result.Status = StatusSucceeded
		} else {
			result.Status = StatusPartial
		}
		return result, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoUsableContent, lastErr)
	}
	return nil, ErrNoUsableContent
}

// runOne runs a single extractor under the chain's timeout. The extractor
// goroutine is abandoned on timeout so one malformed document cannot stall
// a batch; the goroutine's result is discarded when it eventually returns.
func (c *Chain) runOne(ctx context.Context, ex Extractor, data []byte, hints Hints) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			// ledongthuc/pdf panics on some malformed xref tables.
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("extractor panic: %v", r)}
			}
		}()
		result, err := ex.Extract(ctx, data, hints)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return nil, ctx.Err()
	}
}

// looksLikePDF checks for the PDF magic header within the first 1KB
// (some producers prepend junk before %PDF-).
func looksLikePDF(data []byte) bool {
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	return bytes.Contains(data[:limit], []byte("%PDF-"))
}
