package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestSentenceChunker_Windows(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	doc := domain.Document{ID: "d1", Path: "a.txt", Content: "One. Two! Three? Four."}

	chunks, err := c.Chunk(doc)

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two!", chunks[0].Text)
	assert.Equal(t, "Two! Three?", chunks[1].Text)
	assert.Equal(t, "Three? Four.", chunks[2].Text)
	assert.Equal(t, "d1:2", chunks[2].ChunkID)
	assert.Equal(t, "a.txt", chunks[0].Source)
}

func TestSentenceChunker_KeepsUnterminatedTail(t *testing.T) {
	c := NewSentenceChunker(5, 0)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "First sentence. trailing words"})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "First sentence. trailing words", chunks[0].Text)
}

func TestSentenceChunker_NoPunctuation(t *testing.T) {
	c := NewSentenceChunker(5, 1)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "  just a heading  "})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a heading", chunks[0].Text)
}

func TestSentenceChunker_Empty(t *testing.T) {
	chunks, err := NewSentenceChunker(5, 1).Chunk(domain.Document{ID: "d", Content: " \n\t"})

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSentenceChunker_OverlapClamped(t *testing.T) {
	c := NewSentenceChunker(2, 5)

	chunks, err := c.Chunk(domain.Document{ID: "d", Content: "A. B. C. D."})

	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}
