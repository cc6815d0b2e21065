package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel  string
	LogFormat string
	APIPort   string

	DBPath      string
	SourcesPath string
	DataPath    string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantVectorSize int

	EmbeddingBaseURL        string
	EmbeddingAPIKey         string
	EmbeddingModelName      string
	EmbeddingBreakerEnabled bool

	ChunkSize       int
	ChunkOverlap    int
	ChunkSeparators []string // nil means the indexer defaults

	DistanceThreshold float64
	HybridCandidates  int
	HybridAlpha       float64
	DefaultK          int
	MaxK              int

	SpellDictionaryPath string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		APIPort:   getEnv("API_PORT", "9000"),

		DBPath:      getEnv("DB_PATH", "./data/chunks.db"),
		SourcesPath: getEnv("SOURCES_PATH", "./data/sources.json"),
		DataPath:    getEnv("DATA_PATH", "./data/sources"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "document_chunks"),

		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),

		SpellDictionaryPath: getEnv("SPELL_DICTIONARY_PATH", ""),
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// Must match the output size of the embeddings model. Changing it
	// requires recreating the collection.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	if cfg.EmbeddingBreakerEnabled, err = getEnvBool("EMBEDDING_BREAKER_ENABLED", true); err != nil {
		return nil, err
	}

	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 400); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if raw := getEnv("CHUNK_SEPARATORS", ""); raw != "" {
		var seps []string
		if err := json.Unmarshal([]byte(raw), &seps); err != nil {
			return nil, fmt.Errorf("CHUNK_SEPARATORS must be a JSON array of strings: %w", err)
		}
		cfg.ChunkSeparators = seps
	}

	if cfg.DistanceThreshold, err = getEnvFloat("RAG_DISTANCE_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	if cfg.DistanceThreshold < 0 {
		return nil, fmt.Errorf("RAG_DISTANCE_THRESHOLD must not be negative")
	}
	if cfg.HybridCandidates, err = getEnvInt("RAG_HYBRID_CANDIDATES", 30); err != nil {
		return nil, err
	}
	if cfg.HybridAlpha, err = getEnvFloat("RAG_HYBRID_ALPHA", 0.6); err != nil {
		return nil, err
	}
	if cfg.HybridAlpha < 0 || cfg.HybridAlpha > 1 {
		return nil, fmt.Errorf("RAG_HYBRID_ALPHA must be between 0 and 1")
	}
	if cfg.DefaultK, err = getEnvInt("RAG_DEFAULT_K", 3); err != nil {
		return nil, err
	}
	if cfg.MaxK, err = getEnvInt("RAG_MAX_K", 20); err != nil {
		return nil, err
	}
	if cfg.HybridCandidates <= 0 || cfg.DefaultK <= 0 || cfg.MaxK <= 0 {
		return nil, fmt.Errorf("RAG_HYBRID_CANDIDATES, RAG_DEFAULT_K and RAG_MAX_K must be greater than 0")
	}
	if cfg.DefaultK > cfg.MaxK {
		return nil, fmt.Errorf("RAG_DEFAULT_K must not exceed RAG_MAX_K")
	}

	// Create the directory holding the DB file if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// NewLogger builds a slog logger writing to w with the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel)) // validated by Load
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}
