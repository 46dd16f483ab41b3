package main

import (
	"errors"

	"github.com/scholium/scholium/internal/archive"
	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/graph"
	"github.com/scholium/scholium/internal/store"
	"github.com/scholium/scholium/internal/vector"
)

// app bundles the opened library components a command needs.
type app struct {
	cfg     *config.Config
	store   *store.Store
	index   *vector.Index
	archive *archive.Archive
	graph   *graph.Engine
}

// mustOpenApp loads configuration and opens the store, vector index,
// archive, and graph engine, exiting on any failure.
func mustOpenApp() *app {
	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	st, err := store.Open(config.DBPath(cfg.DataDir),
		store.WithTitleSimilarity(cfg.Dedup.TitleSimilarity))
	if err != nil {
		exitWithError(ExitError, "opening library: %v", err)
	}

	idx, err := vector.LoadIndex(config.VectorsPath(cfg.DataDir),
		cfg.Embedding.Model, cfg.Embedding.Dimensions)
	if err != nil {
		st.Close()
		code := ExitError
		if errors.Is(err, vector.ErrModelMismatch) {
			code = ExitEmbedError
		}
		exitWithError(code, "loading vector index: %v", err)
	}

	arch, err := archive.New(config.ArchivePath(cfg.DataDir))
	if err != nil {
		st.Close()
		exitWithError(ExitError, "opening archive: %v", err)
	}

	return &app{
		cfg:     cfg,
		store:   st,
		index:   idx,
		archive: arch,
		graph:   graph.NewEngine(st, graph.WithTitleSimilarity(cfg.Dedup.TitleSimilarity)),
	}
}

func (a *app) close() {
	a.store.Close()
}

// saveIndex persists the vector index back to disk.
func (a *app) saveIndex() error {
	return a.index.Save(config.VectorsPath(a.cfg.DataDir))
}

// embedder builds the Ollama provider from configuration.
func (a *app) embedder() *vector.OllamaProvider {
	return vector.NewOllamaProvider(
		vector.WithBaseURL(a.cfg.Embedding.BaseURL),
		vector.WithModel(a.cfg.Embedding.Model, a.cfg.Embedding.Dimensions),
	)
}
