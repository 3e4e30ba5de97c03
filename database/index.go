package database

import (
	"context"
	"fmt"
	"time"

	"github.com/evidra/evidra/core/pipeline"
	"github.com/evidra/evidra/core/retrieval"
	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
)

// PgIndex is the PostgreSQL-backed vector index over the chunks table. It
// embeds chunk text on Add and queries on Search with the configured
// embedder, satisfying the retrieval index contract.
type PgIndex struct {
	chunks *ChunksDBHandler
	embed  pipeline.EmbedFunc
}

// NewPgIndex creates a database-backed index. embeddingDim must match the
// embedder's output dimension.
func NewPgIndex(db *helper.Database, embed pipeline.EmbedFunc, embeddingDim int, force bool) (*PgIndex, error) {
	chunks, err := NewChunksDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, helper.NewError("creating chunks handler", err)
	}

	return &PgIndex{
		chunks: chunks,
		embed:  embed,
	}, nil
}

// Add embeds and upserts chunks by chunk ID.
func (p *PgIndex) Add(ctx context.Context, chunks []model.Chunk) error {
	for i := range chunks {
		embedding, err := p.embed(chunks[i].Text)
		if err != nil {
			return helper.NewError("embedding chunk "+chunks[i].ChunkID, err)
		}
		if err := p.chunks.UpsertChunk(&chunks[i], embedding); err != nil {
			return helper.NewError("upserting chunk "+chunks[i].ChunkID, err)
		}
	}
	return nil
}

// Search embeds the query and returns the topK most similar chunks passing
// the filter, scored by cosine similarity.
func (p *PgIndex) Search(ctx context.Context, query string, topK int, filter *retrieval.Filter) ([]model.Evidence, error) {
	if topK <= 0 {
		return []model.Evidence{}, nil
	}

	embedding, err := p.embed(query)
	if err != nil {
		return nil, helper.NewError("embedding query", err)
	}

	var paperName string
	var regionType model.RegionType
	if filter != nil {
		paperName = filter.PaperName
		regionType = filter.RegionType
	}

	results, err := p.chunks.SelectChunksBySimilarity(embedding, topK, paperName, regionType)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.Evidence{}
	}
	return results, nil
}

// Stats reports chunk counts per paper and region type.
func (p *PgIndex) Stats(ctx context.Context) (*model.IndexStats, error) {
	return p.chunks.SelectStats()
}

// DeletePaper removes all chunks of one paper and reports how many.
func (p *PgIndex) DeletePaper(ctx context.Context, paperName string) (int, error) {
	return p.chunks.DeleteChunksByPaper(paperName)
}

// Clear removes all chunks.
func (p *PgIndex) Clear(ctx context.Context) error {
	return p.chunks.DeleteAllChunks()
}

// ChangeIndexType swaps the vector index of the chunks table.
func (p *PgIndex) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return p.chunks.ChangeIndexType(ctx, indexType, params)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
// indexType: "hnsw" or "ivfflat"
// params: optional parameters for index creation
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *ChunksDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_chunks_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	var createIndexSQL string

	switch indexType {
	case "hnsw":
		m := 16
		efConstruction := 64

		if mVal, ok := params["m"].(int); ok {
			m = mVal
		}
		if efVal, ok := params["ef_construction"].(int); ok {
			efConstruction = efVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case "ivfflat":
		lists := 100
		if listsVal, ok := params["lists"].(int); ok {
			lists = listsVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index with params: %v", indexType, params))

	return nil
}
