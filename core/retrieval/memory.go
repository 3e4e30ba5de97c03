package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/evidra/evidra/core/pipeline"
	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
)

// MemoryIndex is an in-memory Index with brute-force cosine search. It is the
// default backend for small corpora and tests; the database-backed index
// serves persistent deployments.
type MemoryIndex struct {
	embed pipeline.EmbedFunc

	mu      sync.RWMutex
	entries []memoryEntry
	byID    map[string]int
}

type memoryEntry struct {
	chunk     model.Chunk
	embedding []float32
}

// NewMemoryIndex creates an empty in-memory index using the given embedder.
func NewMemoryIndex(embed pipeline.EmbedFunc) *MemoryIndex {
	return &MemoryIndex{
		embed: embed,
		byID:  make(map[string]int),
	}
}

// Add embeds and upserts chunks. Re-adding a chunk ID replaces the stored
// chunk in place, keeping its original insertion position.
func (m *MemoryIndex) Add(ctx context.Context, chunks []model.Chunk) error {
	for _, chunk := range chunks {
		embedding, err := m.embed(chunk.Text)
		if err != nil {
			return helper.NewError("embedding chunk "+chunk.ChunkID, err)
		}

		m.mu.Lock()
		if i, ok := m.byID[chunk.ChunkID]; ok {
			m.entries[i] = memoryEntry{chunk: chunk, embedding: embedding}
		} else {
			m.byID[chunk.ChunkID] = len(m.entries)
			m.entries = append(m.entries, memoryEntry{chunk: chunk, embedding: embedding})
		}
		m.mu.Unlock()
	}
	return nil
}

// Search embeds the query and returns the topK most similar chunks passing
// the filter, scored by cosine similarity. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query string, topK int, filter *Filter) ([]model.Evidence, error) {
	if topK <= 0 {
		return []model.Evidence{}, nil
	}

	queryEmbedding, err := m.embed(query)
	if err != nil {
		return nil, helper.NewError("embedding query", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]model.Evidence, 0, len(m.entries))
	for _, entry := range m.entries {
		if !filter.Matches(entry.chunk.PaperName, entry.chunk.RegionType) {
			continue
		}
		results = append(results, evidenceFromChunk(entry.chunk, cosineSimilarity(queryEmbedding, entry.embedding)))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats reports chunk counts grouped by paper and region type.
func (m *MemoryIndex) Stats(ctx context.Context) (*model.IndexStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &model.IndexStats{
		TotalChunks:      len(m.entries),
		PaperCounts:      make(map[string]int),
		RegionTypeCounts: make(map[model.RegionType]int),
	}
	for _, entry := range m.entries {
		stats.PaperCounts[entry.chunk.PaperName]++
		stats.RegionTypeCounts[entry.chunk.RegionType]++
	}
	return stats, nil
}

// DeletePaper removes all chunks of one paper.
func (m *MemoryIndex) DeletePaper(ctx context.Context, paperName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	deleted := 0
	for _, entry := range m.entries {
		if entry.chunk.PaperName == paperName {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept

	m.byID = make(map[string]int, len(m.entries))
	for i, entry := range m.entries {
		m.byID[entry.chunk.ChunkID] = i
	}
	return deleted, nil
}

// Clear removes all chunks.
func (m *MemoryIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.byID = make(map[string]int)
	return nil
}

func evidenceFromChunk(chunk model.Chunk, score float64) model.Evidence {
	return model.Evidence{
		ChunkID:    chunk.ChunkID,
		Text:       chunk.Text,
		PaperName:  chunk.PaperName,
		PageNum:    chunk.PageNum,
		RegionID:   chunk.RegionID,
		RegionType: chunk.RegionType,
		BBox:       chunk.BBox,
		Score:      score,
	}
}

// cosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either has zero magnitude or the dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
