package domain

import "strings"

// Document represents a single file (or PDF page) loaded from the data directory.
type Document struct {
	ID       string
	Path     string
	Content  string
	Metadata map[string]any
}

// Chunk is a semantically meaningful part of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role    Role
	Content string
}

// Response is the answer produced by the query engine together with the
// chunks it was grounded on.
type Response struct {
	Answer  string
	Sources []SearchResult
}

func (r Response) String() string { return strings.TrimSpace(r.Answer) }
