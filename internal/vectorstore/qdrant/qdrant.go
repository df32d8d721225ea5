package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"docchat/internal/domain"
)

// pointNamespace derives stable point IDs; Qdrant only accepts integers or UUIDs.
var pointNamespace = uuid.MustParse("6f1c1a9e-3c55-4a59-9a1b-2f0d6c3e8b10")

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

var _ domain.VectorStore = (*Storage)(nil)

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "docchat"
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(http.MethodPut, s.collectionURL(""), body, nil)
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	points := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		points[i] = map[string]any{
			"id":     PointID(ch.ChunkID),
			"vector": vectors[i],
			"payload": map[string]any{
				"document_id": ch.DocumentID,
				"chunk_id":    ch.ChunkID,
				"source":      ch.Source,
				"index":       ch.Index,
				"text":        ch.Text,
			},
		}
	}
	return s.do(http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		chunk.DocumentID, _ = r.Payload["document_id"].(string)
		chunk.ChunkID, _ = r.Payload["chunk_id"].(string)
		chunk.Source, _ = r.Payload["source"].(string)
		chunk.Text, _ = r.Payload["text"].(string)
		if v, ok := r.Payload["index"].(float64); ok {
			chunk.Index = int(v)
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// Clear drops every point but keeps the collection schema.
func (s *Storage) Clear() error {
	body := map[string]any{"filter": map[string]any{}}
	return s.do(http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
}

// PointID maps a chunk ID onto the UUID Qdrant stores it under.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

func (s *Storage) do(method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
