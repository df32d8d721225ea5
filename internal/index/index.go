package index

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"docchat/internal/domain"
)

// Stats describes what an Index was built from.
type Stats struct {
	Documents int
	Chunks    int
	BuiltAt   time.Time
}

// Index is the handle returned by Builder.Build. It is read-only after
// construction and safe to share.
type Index struct {
	embedder domain.Embedder
	store    domain.VectorStore
	chunks   []domain.Chunk
	stats    Stats
}

func (i *Index) Stats() Stats { return i.stats }

// Retrieve returns the topK chunks most similar to question. When the query
// embeds to the zero vector, or every score is zero, ranking falls back to
// lexical overlap so a question sharing words with the corpus still finds context.
func (i *Index) Retrieve(ctx context.Context, question string, topK int) ([]domain.SearchResult, error) {
	vec, err := i.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	if isZero(vec) {
		return i.lexicalSearch(question, topK), nil
	}
	res, err := i.store.Search(vec, topK)
	if err != nil {
		return nil, err
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	return i.lexicalSearch(question, topK), nil
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

func (i *Index) lexicalSearch(query string, topK int) []domain.SearchResult {
	qset := toTokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(i.chunks))
	for j, ch := range i.chunks {
		scores[j] = pair{j, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score > scores[b].score })
	if topK <= 0 {
		topK = 5
	}
	topK = min(topK, len(scores))
	out := make([]domain.SearchResult, 0, topK)
	for _, p := range scores[:topK] {
		out = append(out, domain.SearchResult{Chunk: i.chunks[p.idx], Score: p.score})
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := toTokenSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
