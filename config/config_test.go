package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadinessPredicates(t *testing.T) {
	t.Parallel()

	t.Run("rag ready only with all four credentials", func(t *testing.T) {
		t.Parallel()

		full := &Config{
			CohereAPIKey:   "a",
			ChromaAPIKey:   "b",
			ChromaTenant:   "c",
			ChromaDatabase: "d",
		}
		assert.True(t, full.RAGReady())

		missing := []func(*Config){
			func(c *Config) { c.CohereAPIKey = "" },
			func(c *Config) { c.ChromaAPIKey = "" },
			func(c *Config) { c.ChromaTenant = "" },
			func(c *Config) { c.ChromaDatabase = "" },
		}
		for _, clear := range missing {
			cfg := *full
			clear(&cfg)
			assert.False(t, cfg.RAGReady())
		}
	})

	t.Run("oracle ready with a gemini key", func(t *testing.T) {
		t.Parallel()

		assert.True(t, (&Config{GeminiAPIKey: "k"}).OracleReady())
		assert.False(t, (&Config{}).OracleReady())
	})
}

func TestLoadDefaults(t *testing.T) {
	// t.Setenv forbids t.Parallel.
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_API_KEY", "gm")
	t.Setenv("RAG_BASE_URL", "http://rag.internal:8000")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, "gm", cfg.GeminiAPIKey)
	assert.Equal(t, "http://rag.internal:8000", cfg.RAGBaseURL)
	assert.Equal(t, "http://localhost:8000", cfg.ChromaURL)
	assert.Equal(t, "nomic-embed-text:v1.5", cfg.OllamaModel)
}
