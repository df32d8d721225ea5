package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"docchat/internal/domain"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// An overlap as large as the window would never advance.
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits a document into overlapping windows of sentences. Trailing text
// without terminal punctuation is kept as its own sentence.
func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	i := 0
	idx := 0
	for i < len(sentences) {
		end := min(i+c.sentencesPerChunk, len(sentences))
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Source:     document.Path,
			Text:       strings.Join(sentences[i:end], " "),
			Index:      idx,
		})
		if end == len(sentences) {
			break
		}
		i = max(end-c.overlapSentences, 0)
		idx++
	}
	return chunks, nil
}

func (c *SentenceChunker) sentences(content string) []string {
	var out []string
	consumed := 0
	for _, loc := range c.splitter.FindAllStringIndex(content, -1) {
		if s := strings.TrimSpace(content[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		consumed = loc[1]
	}
	if tail := strings.TrimSpace(content[consumed:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
