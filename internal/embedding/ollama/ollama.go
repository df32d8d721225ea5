// Package ollama provides an embedding client for a locally running Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"docchat/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second
)

// Config configures the Ollama embeddings client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxRPS throttles requests to the server. Zero means unlimited.
	MaxRPS float64
}

// Client implements domain.Embedder against the /api/embeddings endpoint.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter

	mu        sync.Mutex
	dimension int
}

// embedRequest is the Ollama API request format.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the Ollama API response format.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

var _ domain.Embedder = (*Client)(nil)

// NewClient creates a new Ollama embeddings client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

func (c *Client) Name() string { return "ollama:" + c.model }

// Prepare is not required for remote embedding; the dimension is learnt from
// the first response.
func (c *Client) Prepare([]string) error { return nil }

func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns the unit-length embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embeddings: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embeddings (status %d): %s", resp.StatusCode, string(payload))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("no embedding returned")
	}

	c.mu.Lock()
	if c.dimension == 0 {
		c.dimension = len(out.Embedding)
	}
	dim := c.dimension
	c.mu.Unlock()
	if len(out.Embedding) != dim {
		return nil, fmt.Errorf("embedding dimension changed from %d to %d", dim, len(out.Embedding))
	}
	return normalize(out.Embedding), nil
}

// normalize scales v to unit length so a dot product equals cosine similarity.
func normalize(v []float64) []float64 {
	var magnitude float64
	for _, x := range v {
		magnitude += x * x
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / magnitude
	}
	return out
}
