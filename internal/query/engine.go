// Package query answers questions by retrieving context from an index and
// forwarding it to a language model.
package query

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/domain"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 2

// Retriever is the part of an index the engine needs.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error)
}

// Engine is stateless apart from its references, so one Engine can serve any
// number of questions. Answers are never cached: every call reaches the model.
type Engine struct {
	retriever Retriever
	generator domain.Generator
	topK      int
}

// Option customises an Engine.
type Option func(*Engine)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

func New(retriever Retriever, generator domain.Generator, opts ...Option) *Engine {
	e := &Engine{retriever: retriever, generator: generator, topK: DefaultTopK}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query retrieves context for question and returns the model's answer.
func (e *Engine) Query(ctx context.Context, question string) (domain.Response, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Response{}, domain.ErrEmptyQuestion
	}
	sources, err := e.retriever.Retrieve(ctx, question, e.topK)
	if err != nil {
		return domain.Response{}, fmt.Errorf("retrieve: %w", err)
	}
	answer, err := e.generator.Generate(ctx, BuildPrompt(question, sources))
	if err != nil {
		return domain.Response{}, fmt.Errorf("generate: %w", err)
	}
	return domain.Response{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}

const qaTemplate = `Context information is below.
---------------------
%s
---------------------
Given the context information and not prior knowledge, answer the query.
Query: %s
Answer: `

// BuildPrompt renders the question-answering prompt. Each chunk is preceded
// by its source path so the model can tell documents apart.
func BuildPrompt(question string, sources []domain.SearchResult) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		text := strings.TrimSpace(s.Chunk.Text)
		if s.Chunk.Source != "" {
			text = "file_path: " + s.Chunk.Source + "\n\n" + text
		}
		parts = append(parts, text)
	}
	return fmt.Sprintf(qaTemplate, strings.Join(parts, "\n\n"), question)
}
