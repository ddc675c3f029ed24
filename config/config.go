// Package config provides application configuration.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is loaded once at startup
// and injected into the services that need it; no service reads the
// environment directly.
type Config struct {
	Port string

	// Generative oracle (Gemini).
	GeminiAPIKey string
	GeminiModel  string

	// Retrieval stack credentials. All four must be present for the RAG
	// tier to be selectable.
	CohereAPIKey   string
	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	// Address of the Chroma server holding the report collection.
	ChromaURL string

	// Base URL of the RAG service the answer chain forwards to. This may
	// point back at this process when the retrieval routes are mounted.
	RAGBaseURL string

	// Local embedding endpoint used by the indexing pipeline.
	OllamaURL   string
	OllamaModel string

	// Optional directory watched for report files to index.
	ReportsWatchDir string

	// Directory where uploaded report files are stored before indexing.
	UploadsDir string

	FastSMSAPIKey string

	UnidocLicenseKey string
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CohereAPIKey:     os.Getenv("COHERE_API_KEY"),
		ChromaAPIKey:     os.Getenv("CHROMA_API_KEY"),
		ChromaTenant:     os.Getenv("CHROMA_TENANT"),
		ChromaDatabase:   os.Getenv("CHROMA_DATABASE"),
		ChromaURL:        getEnv("CHROMA_URL", "http://localhost:8000"),
		RAGBaseURL:       getEnv("RAG_BASE_URL", "http://localhost:8080"),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434/api/embeddings"),
		OllamaModel:      getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text:v1.5"),
		ReportsWatchDir:  os.Getenv("REPORTS_WATCH_DIR"),
		UploadsDir:       getEnv("UPLOADS_DIR", "./uploads"),
		FastSMSAPIKey:    os.Getenv("FAST2SMS_API_KEY"),
		UnidocLicenseKey: os.Getenv("UNIDOC_LICENSE_KEY"),
	}
}

// RAGReady reports whether every credential the retrieval stack needs is
// present. Tier selection in the answer chain depends on this predicate.
func (c *Config) RAGReady() bool {
	return c.CohereAPIKey != "" &&
		c.ChromaAPIKey != "" &&
		c.ChromaTenant != "" &&
		c.ChromaDatabase != ""
}

// OracleReady reports whether the generative oracle can be called directly.
func (c *Config) OracleReady() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
