// Package index turns loaded documents into a queryable vector index.
package index

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"docchat/internal/domain"
	"docchat/internal/pkg/logger"
)

const module = "index"

// Builder runs load → chunk → embed → upsert.
type Builder struct {
	loader      domain.Loader
	chunker     domain.Chunker
	embedder    domain.Embedder
	store       domain.VectorStore
	log         logger.Logger
	concurrency int
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used for progress messages.
func WithLogger(l logger.Logger) BuilderOption {
	return func(b *Builder) { b.log = l }
}

// WithConcurrency bounds the number of in-flight embedding requests.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func NewBuilder(loader domain.Loader, chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, opts ...BuilderOption) *Builder {
	b := &Builder{
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		log:         logger.NewNop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads the documents and indexes them. An empty document set is an
// error: there is nothing an index could answer from.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	started := time.Now()
	b.log.Info(module, "loading documents", nil)
	docs, err := b.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	b.log.Info(module, "loaded documents", map[string]any{"count": len(docs)})
	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}

	var chunks []domain.Chunk
	for _, d := range docs {
		cs, err := b.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: documents contain no text", domain.ErrNoDocuments)
	}
	corpus := make([]string, len(chunks))
	for i, ch := range chunks {
		corpus[i] = ch.Text
	}

	b.log.Info(module, "creating index", map[string]any{"chunks": len(chunks), "embedder": b.embedder.Name()})
	if err := b.embedder.Prepare(corpus); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := b.embedAll(ctx, corpus)
	if err != nil {
		return nil, err
	}
	if len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: no indexable terms", domain.ErrNoDocuments)
	}
	if err := b.store.Init(len(vectors[0])); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := b.store.Clear(); err != nil {
		return nil, fmt.Errorf("clear vector store: %w", err)
	}
	if err := b.store.Upsert(chunks, vectors); err != nil {
		return nil, fmt.Errorf("upsert vectors: %w", err)
	}

	b.log.Info(module, "index created", map[string]any{
		"documents": len(docs),
		"chunks":    len(chunks),
		"elapsed":   time.Since(started).String(),
	})
	return &Index{
		embedder: b.embedder,
		store:    b.store,
		chunks:   chunks,
		stats:    Stats{Documents: len(docs), Chunks: len(chunks), BuiltAt: time.Now()},
	}, nil
}

// embedAll embeds texts with at most b.concurrency requests in flight,
// preserving input order.
func (b *Builder) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range texts {
		g.Go(func() error {
			vec, err := b.embedder.Embed(gctx, texts[i])
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
