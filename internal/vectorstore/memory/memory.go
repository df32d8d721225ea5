package memory

import (
	"errors"
	"sort"
	"sync"

	"docchat/internal/domain"
)

// Storage is an in-memory vector store using brute-force cosine similarity.
// Vectors are expected to be L2-normalised, so cosine similarity is a dot product.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.Chunk
	positions map[string]int
}

var _ domain.VectorStore = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{positions: make(map[string]int)} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.reset()
	return nil
}

// Upsert inserts chunks, replacing any stored chunk with the same ChunkID.
func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("storage not initialised")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, ch := range chunks {
		if pos, ok := s.positions[ch.ChunkID]; ok {
			s.chunks[pos] = ch
			s.vectors[pos] = vectors[i]
			continue
		}
		s.positions[ch.ChunkID] = len(s.chunks)
		s.chunks = append(s.chunks, ch)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Search returns up to topK chunks ordered by descending similarity. Ties keep
// insertion order.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	if topK <= 0 {
		topK = 5
	}
	scores := make([]float64, len(s.vectors))
	idxs := make([]int, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], vector)
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	topK = min(topK, len(idxs))
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// Len reports how many chunks are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Storage) reset() {
	s.vectors = nil
	s.chunks = nil
	s.positions = make(map[string]int)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
