// Package embedding selects the embedding provider named in the configuration.
package embedding

import (
	"fmt"
	"time"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/embedding/ollama"
	"docchat/internal/embedding/openai"
	"docchat/internal/embedding/tfidf"
)

// New builds the embedder described by cfg.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "ollama", "":
		oc := config.OllamaEmbedderConfig{}
		if cfg.Ollama != nil {
			oc = *cfg.Ollama
		}
		return ollama.NewClient(ollama.Config{
			BaseURL: oc.BaseURL,
			Model:   oc.Model,
			Timeout: time.Duration(oc.TimeoutSecs) * time.Second,
			MaxRPS:  oc.MaxRPS,
		}), nil
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
