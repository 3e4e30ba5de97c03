// Package retrieval provides the vector index abstraction and the retrieval
// engine with filter routing and diversity sampling.
package retrieval

import (
	"context"

	"github.com/evidra/evidra/model"
)

// Filter restricts a search to one paper, one region type or both. A zero
// value matches everything.
type Filter struct {
	PaperName  string
	RegionType model.RegionType
}

// Matches reports whether evidence passes the filter.
func (f *Filter) Matches(paperName string, regionType model.RegionType) bool {
	if f == nil {
		return true
	}
	if f.PaperName != "" && f.PaperName != paperName {
		return false
	}
	if f.RegionType != "" && f.RegionType != regionType {
		return false
	}
	return true
}

// Index is a vector store over chunks. Implementations embed chunk text on
// Add and the query on Search with their configured embedder, and return
// results ordered by descending similarity score.
type Index interface {
	// Add upserts chunks by chunk ID.
	Add(ctx context.Context, chunks []model.Chunk) error
	// Search returns up to topK chunks matching the filter, scored by
	// cosine similarity to the query.
	Search(ctx context.Context, query string, topK int, filter *Filter) ([]model.Evidence, error)
	// Stats reports chunk counts per paper and region type.
	Stats(ctx context.Context) (*model.IndexStats, error)
	// DeletePaper removes all chunks of one paper and reports how many.
	DeletePaper(ctx context.Context, paperName string) (int, error)
	// Clear removes all chunks.
	Clear(ctx context.Context) error
}
