package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
	loadSql "github.com/evidra/evidra/sql"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunk(chunk *model.Chunk, embedding []float32) error
	SelectChunk(chunkID string) (*model.Chunk, error)
	SelectChunksByPaper(paperName string) ([]*model.Chunk, error)
	SelectChunksBySimilarity(embedding []float32, limit int, paperName string, regionType model.RegionType) ([]model.Evidence, error)
	SelectStats() (*model.IndexStats, error)
	DeleteChunksByPaper(paperName string) (int, error)
	DeleteAllChunks() error
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// UpsertChunk inserts a chunk or replaces an existing one with the same chunk ID
func (h *ChunksDBHandler) UpsertChunk(chunk *model.Chunk, embedding []float32) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		chunk.ChunkID,
		chunk.PaperName,
		chunk.PageNum,
		chunk.RegionID,
		string(chunk.RegionType),
		pq.Array(chunk.BBox[:]),
		chunk.ReadingOrder,
		chunk.ChunkIndex,
		chunk.Section,
		chunk.Text,
		pgvector.NewVector(embedding),
		chunk.Metadata,
	)

	var bbox []float64
	var storedEmbedding pgvector.Vector
	var createdAt time.Time
	err := row.Scan(
		&chunk.ChunkID,
		&chunk.PaperName,
		&chunk.PageNum,
		&chunk.RegionID,
		&chunk.RegionType,
		pq.Array(&bbox),
		&chunk.ReadingOrder,
		&chunk.ChunkIndex,
		&chunk.Section,
		&chunk.Text,
		&storedEmbedding,
		&chunk.Metadata,
		&createdAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	copy(chunk.BBox[:], bbox)
	return nil
}

// SelectChunk retrieves a chunk by chunk ID
func (h *ChunksDBHandler) SelectChunk(chunkID string) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		chunkID,
	)

	chunk := &model.Chunk{}
	var bbox []float64
	var embedding pgvector.Vector
	var createdAt time.Time
	err := row.Scan(
		&chunk.ChunkID,
		&chunk.PaperName,
		&chunk.PageNum,
		&chunk.RegionID,
		&chunk.RegionType,
		pq.Array(&bbox),
		&chunk.ReadingOrder,
		&chunk.ChunkIndex,
		&chunk.Section,
		&chunk.Text,
		&embedding,
		&chunk.Metadata,
		&createdAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	copy(chunk.BBox[:], bbox)
	return chunk, nil
}

// SelectChunksByPaper retrieves all chunks of a paper in reading order
func (h *ChunksDBHandler) SelectChunksByPaper(paperName string) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_paper($1)`,
		paperName,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var bbox []float64
		var embedding pgvector.Vector
		var createdAt time.Time
		err := rows.Scan(
			&chunk.ChunkID,
			&chunk.PaperName,
			&chunk.PageNum,
			&chunk.RegionID,
			&chunk.RegionType,
			pq.Array(&bbox),
			&chunk.ReadingOrder,
			&chunk.ChunkIndex,
			&chunk.Section,
			&chunk.Text,
			&embedding,
			&chunk.Metadata,
			&createdAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		copy(chunk.BBox[:], bbox)
		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity performs vector similarity search.
// Empty paperName and regionType match all chunks.
func (h *ChunksDBHandler) SelectChunksBySimilarity(embedding []float32, limit int, paperName string, regionType model.RegionType) ([]model.Evidence, error) {
	var paperParam, regionTypeParam interface{}
	if paperName != "" {
		paperParam = paperName
	}
	if regionType != "" {
		regionTypeParam = string(regionType)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4)`,
		pgvector.NewVector(embedding),
		limit,
		paperParam,
		regionTypeParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []model.Evidence
	for rows.Next() {
		evidence := model.Evidence{}
		var bbox []float64
		var readingOrder, chunkIndex int
		var section string
		var metadata model.Metadata
		err := rows.Scan(
			&evidence.ChunkID,
			&evidence.PaperName,
			&evidence.PageNum,
			&evidence.RegionID,
			&evidence.RegionType,
			pq.Array(&bbox),
			&readingOrder,
			&chunkIndex,
			&section,
			&evidence.Text,
			&metadata,
			&evidence.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		copy(evidence.BBox[:], bbox)
		results = append(results, evidence)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// SelectStats retrieves chunk counts grouped by paper and region type
func (h *ChunksDBHandler) SelectStats() (*model.IndexStats, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_chunk_stats()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	stats := &model.IndexStats{
		PaperCounts:      make(map[string]int),
		RegionTypeCounts: make(map[model.RegionType]int),
	}
	for rows.Next() {
		var paperName string
		var regionType model.RegionType
		var count int
		err := rows.Scan(&paperName, &regionType, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		stats.TotalChunks += count
		stats.PaperCounts[paperName] += count
		stats.RegionTypeCounts[regionType] += count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return stats, nil
}

// DeleteChunksByPaper deletes all chunks of a paper and returns the count
func (h *ChunksDBHandler) DeleteChunksByPaper(paperName string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_chunks_by_paper($1)`,
		paperName,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

// DeleteAllChunks deletes all chunks
func (h *ChunksDBHandler) DeleteAllChunks() error {
	_, err := h.db.Instance.Exec(`SELECT delete_all_chunks()`)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
