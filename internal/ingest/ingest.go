// Package ingest orchestrates batch processing of PDF directories: each
// file runs through archive, extraction, normalization, storage, vector
// indexing, and incremental citation resolution. One bad file never stops
// the batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scholium/scholium/internal/archive"
	"github.com/scholium/scholium/internal/document"
	"github.com/scholium/scholium/internal/extract"
	"github.com/scholium/scholium/internal/graph"
	"github.com/scholium/scholium/internal/normalize"
	"github.com/scholium/scholium/internal/store"
	"github.com/scholium/scholium/internal/vector"
)

// DefaultConcurrency bounds the worker pool when Options does not set it.
const DefaultConcurrency = 4

// Options tunes a batch run.
type Options struct {
	Concurrency  int           // worker count, DefaultConcurrency when <= 0
	MaxFiles     int           // cap on files processed, 0 means no cap
	Timeout      time.Duration // per-file extraction timeout, 0 uses the chain default
	ReducedChain bool          // plaintext-only extraction for damaged corpora
	SkipEmbed    bool          // skip vector indexing (no embedder available)
}

// FileError records one file that failed during a batch.
type FileError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes a batch run.
type Report struct {
	Scanned           int           `json:"scanned"`
	Succeeded         int           `json:"succeeded"`
	Partial           int           `json:"partial"`
	Failed            int           `json:"failed"`
	SkippedDuplicates int           `json:"skipped_duplicates"`
	Resolved          int           `json:"resolved_citations"`
	Errors            []FileError   `json:"errors,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	store    *store.Store
	archive  *archive.Archive
	index    *vector.Index
	embedder vector.Provider // nil disables indexing
	graph    *graph.Engine
	chain    *extract.Chain
	logger   *log.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithEmbedder enables vector indexing of ingested documents.
func WithEmbedder(e vector.Provider) PipelineOption {
	return func(p *Pipeline) { p.embedder = e }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *log.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithChain overrides the extraction chain; the default is built from
// Options per batch.
func WithChain(c *extract.Chain) PipelineOption {
	return func(p *Pipeline) { p.chain = c }
}

// NewPipeline creates a pipeline over the given stores. The vector index
// may be nil when indexing is disabled.
func NewPipeline(s *store.Store, a *archive.Archive, idx *vector.Index, g *graph.Engine, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:   s,
		archive: a,
		index:   idx,
		graph:   g,
		logger:  log.New(os.Stderr),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDirectory ingests every *.pdf under dir (non-recursive), in sorted
// filename order for deterministic duplicate attribution. Per-file failures
// are recorded in the report and in the failure log; only systemic storage
// errors or context cancellation abort the batch.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string, opts Options) (*Report, error) {
	start := time.Now()

	files, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}
	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		files = files[:opts.MaxFiles]
	}

	report := &Report{Scanned: len(files)}
	if len(files) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(files) {
		concurrency = len(files)
	}

	chain := p.chain
	if chain == nil {
		chainOpts := []extract.ChainOption{extract.WithLogger(p.logger)}
		if opts.Timeout > 0 {
			chainOpts = append(chainOpts, extract.WithTimeout(opts.Timeout))
		}
		chain = extract.DefaultChain(opts.ReducedChain, chainOpts...)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		paths    = make(chan string)
		systemic error
	)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				outcome, err := p.processFile(ctx, chain, path, opts)
				mu.Lock()
				p.tally(ctx, report, path, outcome, err, &systemic)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, path := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case paths <- path:
		}
	}
	close(paths)
	wg.Wait()

	if systemic != nil {
		return report, systemic
	}
	if err := ctx.Err(); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	// New documents may resolve references in papers ingested earlier in
	// the same batch (or in a previous run), so finish with a full sweep.
	resolved, err := p.graph.ResolveAll(ctx)
	if err != nil {
		return report, fmt.Errorf("resolving citations: %w", err)
	}
	report.Resolved = resolved
	report.Duration = time.Since(start)
	return report, nil
}

type outcome struct {
	status    string
	duplicate bool
}

// processFile runs one file through the full pipeline. Returned errors are
// per-file unless they wrap a storage failure.
func (p *Pipeline) processFile(ctx context.Context, chain *extract.Chain, path string, opts Options) (*outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	hash, _, err := p.archive.Store(data)
	if err != nil {
		return nil, fmt.Errorf("archiving file: %w", err)
	}

	// Resume support: bytes already in the library (as a document or a
	// recorded duplicate) are skipped without re-extraction.
	seen, err := p.store.HasFileHash(ctx, hash)
	if err != nil {
		return nil, &storeError{err}
	}
	if seen {
		p.logger.Debug("skipping already ingested file", "path", path)
		return &outcome{duplicate: true}, nil
	}

	res, err := chain.Extract(ctx, data, extract.Hints{SourcePath: path})
	if err != nil {
		return nil, err
	}

	doc := normalize.Normalize(res, normalize.Source{
		Path:     path,
		FileHash: hash,
		FileSize: int64(len(data)),
	})

	ins, err := p.store.InsertDocument(ctx, doc)
	if err != nil {
		return nil, &storeError{err}
	}
	if ins.Duplicate {
		p.logger.Info("duplicate document", "path", path, "of", ins.DuplicateOf)
		return &outcome{duplicate: true}, nil
	}

	if p.embedder != nil && p.index != nil && !opts.SkipEmbed {
		if err := p.embedDocument(ctx, doc); err != nil {
			// Indexing failure leaves the document searchable lexically;
			// log and continue.
			p.logger.Warn("embedding failed", "path", path, "error", err)
		}
	}

	if _, err := p.graph.ResolveAgainst(ctx, doc.ID); err != nil {
		p.logger.Warn("incremental resolution failed", "doc", doc.ID, "error", err)
	}

	p.logger.Info("ingested document", "path", path, "doc", doc.ID, "status", doc.Status)
	return &outcome{status: string(doc.Status)}, nil
}

// embedDocument indexes the title and abstract; the body is too long and
// too noisy to embed whole.
func (p *Pipeline) embedDocument(ctx context.Context, doc *document.Document) error {
	text := strings.TrimSpace(doc.Title + "\n\n" + doc.Abstract)
	if text == "" {
		text = firstRunes(doc.Body, 2000)
	}
	if text == "" {
		return nil
	}
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	return p.index.Upsert(doc.ID, vec, p.embedder.ModelID())
}

// tally folds a single file outcome into the report, recording failures in
// the store's failure log and promoting storage errors to batch aborts.
func (p *Pipeline) tally(ctx context.Context, report *Report, path string, o *outcome, err error, systemic *error) {
	if *systemic != nil {
		return
	}
	if err != nil {
		var se *storeError
		if errors.As(err, &se) {
			*systemic = fmt.Errorf("storage failure on %s: %w", path, se.err)
			return
		}
		report.Failed++
		report.Errors = append(report.Errors, FileError{Path: path, Reason: err.Error()})
		p.logger.Error("ingest failed", "path", path, "error", err)
		if rerr := p.store.RecordFailure(ctx, path, err.Error(), time.Now().Unix()); rerr != nil {
			p.logger.Warn("recording failure", "path", path, "error", rerr)
		}
		return
	}

	switch {
	case o.duplicate:
		report.SkippedDuplicates++
	case o.status == string(extract.StatusPartial):
		report.Partial++
	default:
		report.Succeeded++
	}

	// A prior failure for this path is superseded by the successful run.
	if err := p.store.ClearFailure(ctx, path); err != nil {
		p.logger.Warn("clearing failure record", "path", path, "error", err)
	}
}

// storeError marks an error as systemic so the batch aborts instead of
// charging it to one file.
type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimSpace(string(runes))
}
