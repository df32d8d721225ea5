package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DocumentsConfig controls which files are ingested.
type DocumentsConfig struct {
	Dir        string   `yaml:"dir" toml:"dir"`
	Extensions []string `yaml:"extensions" toml:"extensions"`
	Recursive  bool     `yaml:"recursive" toml:"recursive"`
}

// OllamaEmbedderConfig holds configuration for the local Ollama embedder.
type OllamaEmbedderConfig struct {
	BaseURL     string  `yaml:"base_url" toml:"base_url"`
	Model       string  `yaml:"model" toml:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRPS      float64 `yaml:"max_rps" toml:"max_rps"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env" toml:"api_key_env"`
	Model       string `yaml:"model" toml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string                `yaml:"type" toml:"type"`
	Concurrency int                   `yaml:"concurrency" toml:"concurrency"`
	Ollama      *OllamaEmbedderConfig `yaml:"ollama,omitempty" toml:"ollama,omitempty"`
	OpenAI      *OpenAIEmbedderConfig `yaml:"openai,omitempty" toml:"openai,omitempty"`
}

// LLMConfig configures the generation endpoint. TimeoutSecs is handed to the
// HTTP client unmodified.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url" toml:"base_url"`
	Model       string  `yaml:"model" toml:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" toml:"timeout_secs"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type" toml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk" toml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences" toml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" toml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" toml:"url"`
	APIKey      string `yaml:"api_key" toml:"api_key"`
	Collection  string `yaml:"collection" toml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// RetrievalConfig configures the query engine.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" toml:"top_k"`
}

// WebConfig configures the browser chat surface.
type WebConfig struct {
	Addr  string `yaml:"addr" toml:"addr"`
	Title string `yaml:"title" toml:"title"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Documents   DocumentsConfig   `yaml:"documents" toml:"documents"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	LLM         LLMConfig         `yaml:"llm" toml:"llm"`
	Chunker     ChunkerConfig     `yaml:"chunker" toml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" toml:"retrieval"`
	Web         WebConfig         `yaml:"web" toml:"web"`
	Log         LogConfig         `yaml:"log" toml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := &AppConfig{}
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/docchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, cwdPath := range []string{"config.yaml", "config.toml"} {
		if _, err := os.Stat(cwdPath); err == nil {
			cfg, err := Load(cwdPath)
			return cfg, cwdPath, err
		}
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports configuration that cannot produce a working pipeline.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Documents.Dir) == "" {
		return errors.New("documents.dir must not be empty")
	}
	if len(c.Documents.Extensions) == 0 {
		return errors.New("documents.extensions must list at least one extension")
	}
	switch c.Embedder.Type {
	case "ollama", "tfidf":
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("openai embedder config missing")
		}
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil {
			return errors.New("qdrant config missing")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if c.Chunker.Type != "sentence" {
		return fmt.Errorf("unknown chunker: %s", c.Chunker.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docchat", "config.yaml"), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Default returns the configuration the tool runs with when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		Documents: DocumentsConfig{
			Dir:        "./data",
			Extensions: []string{".pdf", ".txt", ".md", ".docx"},
		},
		Embedder: EmbedderConfig{
			Type:        "ollama",
			Concurrency: 4,
			Ollama: &OllamaEmbedderConfig{
				BaseURL:     "http://localhost:11434",
				Model:       "nomic-embed-text",
				TimeoutSecs: 30,
			},
		},
		LLM: LLMConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3",
			TimeoutSecs: 600,
		},
		Chunker:     ChunkerConfig{Type: "sentence", SentencesPerChunk: 5, OverlapSentences: 1},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Retrieval:   RetrievalConfig{TopK: 2},
		Web:         WebConfig{Addr: ":8501", Title: "Chat with your Docs (Llama 3)"},
		Log:         LogConfig{Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = def.Documents.Dir
	}
	if len(cfg.Documents.Extensions) == 0 {
		cfg.Documents.Extensions = def.Documents.Extensions
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Concurrency <= 0 {
		cfg.Embedder.Concurrency = def.Embedder.Concurrency
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.BaseURL == "" {
			cfg.Embedder.Ollama.BaseURL = def.Embedder.Ollama.BaseURL
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = def.Embedder.Ollama.Model
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = def.Embedder.Ollama.TimeoutSecs
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = def.LLM.BaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = def.Chunker.Type
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = def.Chunker.SentencesPerChunk
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = def.VectorStore.Type
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = def.Web.Addr
	}
	if cfg.Web.Title == "" {
		cfg.Web.Title = def.Web.Title
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// applyEnvOverrides lets a .env file or the environment point the tool at a
// different data directory or model without editing the config file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("DOCCHAT_DATA_DIR"); v != "" {
		cfg.Documents.Dir = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
		if cfg.Embedder.Ollama != nil {
			cfg.Embedder.Ollama.BaseURL = v
		}
	}
	if v := os.Getenv("DOCCHAT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DOCCHAT_EMBED_MODEL"); v != "" && cfg.Embedder.Ollama != nil {
		cfg.Embedder.Ollama.Model = v
	}
}
