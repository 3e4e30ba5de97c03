package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Chunk is a bounded span of region text (or a rendered structured
// extraction) with full provenance. Chunks are never mutated after creation;
// they are the unit stored in the vector index.
type Chunk struct {
	ChunkID      string     `json:"chunk_id"`
	Text         string     `json:"text"`
	PaperName    string     `json:"paper_name"`
	PageNum      int        `json:"page_num"`
	RegionID     string     `json:"region_id"`
	RegionType   RegionType `json:"region_type"`
	BBox         BBox       `json:"bbox"`
	ReadingOrder int        `json:"reading_order"`
	ChunkIndex   int        `json:"chunk_index"`
	Section      string     `json:"section,omitempty"`
	Metadata     Metadata   `json:"metadata,omitempty"`
}

// ChunkID builds the canonical chunk identifier, unique per
// (paper, region, chunk index).
func ChunkID(paperName, regionID string, chunkIndex int) string {
	return fmt.Sprintf("%s_%s_chunk%d", paperName, regionID, chunkIndex)
}

// SaveChunks writes all chunks of a document to a single JSON array file,
// creating parent directories as needed.
func SaveChunks(path string, chunks []Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadChunks reads a chunk sidecar file written by SaveChunks.
func LoadChunks(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, err
	}

	return chunks, nil
}
