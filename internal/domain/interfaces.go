package domain

import "context"

// Loader reads raw files into document records.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Clear() error
}

// Generator produces a completion for a prompt using a language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
