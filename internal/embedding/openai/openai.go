package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"docchat/internal/domain"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
	sleep      func(context.Context, time.Duration) error

	mu        sync.Mutex
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

var _ domain.Embedder = (*Client)(nil)

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
		sleep:      sleepCtx,
	}, nil
}

func (c *Client) Name() string { return "openai:" + c.model }

// Prepare is not required for remote embedding. Dimension is set lazily on first embed.
func (c *Client) Prepare([]string) error { return nil }

func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text, retrying throttled
// and server-side failures with exponential backoff.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	url := c.baseURL + "/embeddings"
	data, err := json.Marshal(map[string]string{"input": text, "model": c.model})
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, retryDelay(attempt-1)); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: openai embeddings: %v", domain.ErrProviderUnavailable, err)
			continue
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("openai embeddings failed: %s", resp.Status)
			// Respect Retry-After if provided
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && attempt < c.maxRetries {
				if err := c.sleep(ctx, time.Duration(secs)*time.Second); err != nil {
					return nil, err
				}
			}
			continue
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("openai embeddings failed: %s", resp.Status)
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		v, err := decodeEmbedding(payload)
		if err != nil {
			lastErr = err
			continue
		}
		c.mu.Lock()
		if c.dimension == 0 {
			c.dimension = len(v)
		}
		c.mu.Unlock()
		return v, nil
	}
	return nil, lastErr
}

// decodeEmbedding accepts the OpenAI response shape and falls back to the
// Ollama-native {"embedding": [...]} shape served by compatible proxies.
func decodeEmbedding(payload []byte) ([]float64, error) {
	var openaiOut struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}
	return nil, errors.New("no embedding returned")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// exponential backoff capped at 5s
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
