package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestClient_Embed(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "bge-small"})
	vec, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "bge-small", got.Model)
	assert.Equal(t, "hello", got.Prompt)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, vec, 1e-9)
	assert.Equal(t, 2, c.Dimension())
	assert.Equal(t, "ollama:bge-small", c.Name())
}

func TestClient_EmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Embed(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestClient_EmbedUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url}).Embed(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestClient_EmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Embed(context.Background(), "x")

	assert.Error(t, err)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0", MaxRPS: 0.001})
	// The first token is free; drain it.
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Embed(ctx, "x")

	assert.Error(t, err)
}
