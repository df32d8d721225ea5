package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesOriginalPipeline(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./data", cfg.Documents.Dir)
	assert.Equal(t, []string{".pdf", ".txt", ".md", ".docx"}, cfg.Documents.Extensions)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 600, cfg.LLM.TimeoutSecs)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 2, cfg.Retrieval.TopK)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default().LLM, cfg.LLM)
}

func TestLoad_YAMLAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
documents:
  dir: ./docs
  extensions: [".txt"]
llm:
  model: mistral
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "./docs", cfg.Documents.Dir)
	assert.Equal(t, []string{".txt"}, cfg.Documents.Extensions)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, 600, cfg.LLM.TimeoutSecs)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.Ollama)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Ollama.Model)
	assert.Equal(t, 5, cfg.Chunker.SentencesPerChunk)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[documents]
dir = "./notes"
extensions = [".md"]

[embedder]
type = "tfidf"

[retrieval]
top_k = 4
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "./notes", cfg.Documents.Dir)
	assert.Equal(t, []string{".md"}, cfg.Documents.Extensions)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents: [unterminated"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCCHAT_DATA_DIR", "/srv/docs")
	t.Setenv("DOCCHAT_LLM_MODEL", "phi3")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "/srv/docs", cfg.Documents.Dir)
	assert.Equal(t, "phi3", cfg.LLM.Model)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "http://ollama:11434", cfg.Embedder.Ollama.BaseURL)
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Documents.Dir = "./elsewhere"

			require.NoError(t, Save(path, cfg))
			loaded, err := Load(path)

			require.NoError(t, err)
			assert.Equal(t, "./elsewhere", loaded.Documents.Dir)
			assert.Equal(t, cfg.Documents.Extensions, loaded.Documents.Extensions)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"empty dir", func(c *AppConfig) { c.Documents.Dir = " " }},
		{"no extensions", func(c *AppConfig) { c.Documents.Extensions = nil }},
		{"unknown embedder", func(c *AppConfig) { c.Embedder.Type = "bert" }},
		{"openai without block", func(c *AppConfig) { c.Embedder.Type = "openai" }},
		{"unknown store", func(c *AppConfig) { c.VectorStore.Type = "faiss" }},
		{"qdrant without block", func(c *AppConfig) { c.VectorStore.Type = "qdrant" }},
		{"unknown chunker", func(c *AppConfig) { c.Chunker.Type = "token" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
