package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/index"
	"docchat/internal/llm/ollama"
	"docchat/internal/loader"
	"docchat/internal/pkg/logger"
	"docchat/internal/query"
	"docchat/internal/session"
	"docchat/internal/vectorstore"
)

// pipeline assembles the components named in the configuration and builds
// the query engine. Progress lines go to progress when it is set.
type pipeline struct {
	cfg      *config.AppConfig
	log      logger.Logger
	progress io.Writer
}

func (p *pipeline) printf(format string, args ...any) {
	if p.progress != nil {
		fmt.Fprintf(p.progress, format, args...)
	}
}

func (p *pipeline) build(ctx context.Context) (session.Asker, error) {
	emb, err := embedding.New(p.cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := vectorstore.New(p.cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	ld := loader.New(p.cfg.Documents.Dir, p.cfg.Documents.Extensions,
		loader.WithRecursive(p.cfg.Documents.Recursive),
		loader.WithLogger(p.log))
	ch := chunker.NewSentenceChunker(p.cfg.Chunker.SentencesPerChunk, p.cfg.Chunker.OverlapSentences)
	builder := index.NewBuilder(ld, ch, emb, store,
		index.WithLogger(p.log),
		index.WithConcurrency(p.cfg.Embedder.Concurrency))

	llm := ollama.NewClient(ollama.Config{
		BaseURL:     p.cfg.LLM.BaseURL,
		Model:       p.cfg.LLM.Model,
		Timeout:     time.Duration(p.cfg.LLM.TimeoutSecs) * time.Second,
		Temperature: p.cfg.LLM.Temperature,
	})
	// An unreachable model server fails the build instead of every question.
	if err := llm.Ping(ctx); err != nil {
		return nil, err
	}

	p.printf("loading documents from %q\n", p.cfg.Documents.Dir)
	idx, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	stats := idx.Stats()
	p.printf("Loaded %d documents\n", stats.Documents)
	p.printf("Index Created Successfully\n")

	return query.New(idx, llm, query.WithTopK(p.cfg.Retrieval.TopK)), nil
}

func (p *pipeline) manager() *session.Manager {
	return session.NewManager(p.build, session.WithLoadingHook(func() {
		p.log.Info("main", "initialising query engine", map[string]any{
			"dir":      p.cfg.Documents.Dir,
			"embedder": p.cfg.Embedder.Type,
			"model":    p.cfg.LLM.Model,
		})
	}))
}
