package evidra

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/evidra/evidra/core/layout"
	"github.com/evidra/evidra/core/pipeline"
	"github.com/joho/godotenv"
)

// Config carries the tunable parameters of the system, read from the
// environment with defaults matching the documented behavior.
type Config struct {
	// ChunkSize is the approximate token budget per chunk.
	ChunkSize int
	// ChunkOverlap is the approximate token overlap between chunks.
	ChunkOverlap int
	// TopK is the default number of evidence chunks per query.
	TopK int
	// MaxHops caps multi-hop reasoning iterations.
	MaxHops int
	// ColumnThreshold is the column clustering distance for reading order.
	ColumnThreshold float64
	// EmbeddingDim is the embedder's output dimension.
	EmbeddingDim int
	// DataDir holds sidecar files (chunks, paper metadata, answer cache).
	DataDir string
	// CacheFile is the answer cache filename inside DataDir.
	CacheFile string
}

// NewConfigFromEnv loads configuration from the environment, reading a .env
// file first if present.
func NewConfigFromEnv() *Config {
	godotenv.Load()

	return &Config{
		ChunkSize:       envInt("CHUNK_SIZE", pipeline.DefaultChunkSize),
		ChunkOverlap:    envInt("CHUNK_OVERLAP", pipeline.DefaultChunkOverlap),
		TopK:            envInt("TOP_K_RETRIEVAL", 10),
		MaxHops:         envInt("MAX_REASONING_HOPS", 3),
		ColumnThreshold: envFloat("COLUMN_THRESHOLD", layout.DefaultColumnThreshold),
		EmbeddingDim:    envInt("EMBEDDING_DIM", 384),
		DataDir:         envString("DATA_DIR", "./data"),
		CacheFile:       envString("ANSWER_CACHE_FILE", "answer_cache.json"),
	}
}

// CachePath returns the full path of the answer cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, c.CacheFile)
}

// PaperMetadataPath returns the full path of the paper metadata sidecar.
func (c *Config) PaperMetadataPath() string {
	return filepath.Join(c.DataDir, "paper_metadata.json")
}

// ChunksPath returns the chunk sidecar path for one paper.
func (c *Config) ChunksPath(paperName string) string {
	return filepath.Join(c.DataDir, "chunks", paperName+"_chunks.json")
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
