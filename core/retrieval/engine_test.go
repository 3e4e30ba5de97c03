package retrieval

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/evidra/evidra/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetriever(t *testing.T) *Retriever {
	t.Helper()

	index := NewMemoryIndex(keywordEmbedder(8))
	err := index.Add(context.Background(), []model.Chunk{
		testChunk("p1.pdf", "r1", model.RegionTypeText, 0, "attention mechanisms in transformers"),
		testChunk("p1.pdf", "r2", model.RegionTypeTable, 0, "benchmark results for attention variants"),
		testChunk("p2.pdf", "r1", model.RegionTypeText, 0, "attention across decoder layers"),
		testChunk("p2.pdf", "r2", model.RegionTypeFigure, 0, "dataset size over time"),
		testChunk("p3.pdf", "r1", model.RegionTypeText, 0, "dataset collection methodology"),
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRetriever(index, logger)
}

func TestRetrieverRetrieve(t *testing.T) {
	ctx := context.Background()
	retriever := testRetriever(t)

	t.Run("Single paper filter restricts and reports that paper", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{
			TopK:         5,
			FilterPapers: []string{"p1.pdf"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"p1.pdf"}, result.PapersSearched)
		for _, item := range result.EvidenceChunks {
			assert.Equal(t, "p1.pdf", item.PaperName)
		}
	})

	t.Run("Single region type filter restricts results", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "benchmark", model.RetrieveOptions{
			TopK:              5,
			FilterRegionTypes: []model.RegionType{model.RegionTypeTable},
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.EvidenceChunks)
		for _, item := range result.EvidenceChunks {
			assert.Equal(t, model.RegionTypeTable, item.RegionType)
		}
	})

	t.Run("Multiple papers fan out and merge by score", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{
			TopK:         4,
			FilterPapers: []string{"p1.pdf", "p3.pdf"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.EvidenceChunks)
		for _, item := range result.EvidenceChunks {
			assert.Contains(t, []string{"p1.pdf", "p3.pdf"}, item.PaperName)
		}
		for i := 1; i < len(result.EvidenceChunks); i++ {
			assert.GreaterOrEqual(t, result.EvidenceChunks[i-1].Score, result.EvidenceChunks[i].Score,
				"Expected merged results sorted by descending score")
		}
	})

	t.Run("Multiple region types fan out", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "dataset", model.RetrieveOptions{
			TopK:              5,
			FilterRegionTypes: []model.RegionType{model.RegionTypeTable, model.RegionTypeFigure},
		})
		require.NoError(t, err)
		for _, item := range result.EvidenceChunks {
			assert.Contains(t, []model.RegionType{model.RegionTypeTable, model.RegionTypeFigure}, item.RegionType)
		}
	})

	t.Run("Unfiltered query truncates to topK", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{TopK: 2})
		require.NoError(t, err)
		assert.Len(t, result.EvidenceChunks, 2)
		assert.Equal(t, 2, result.TotalChunks)
	})

	t.Run("Diversity sampling spreads papers", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{
			TopK:            2,
			DiversityLambda: 0.5,
		})
		require.NoError(t, err)
		require.Len(t, result.EvidenceChunks, 2)
		assert.NotEqual(t, result.EvidenceChunks[0].PaperName, result.EvidenceChunks[1].PaperName,
			"Expected diversification to pick a second paper")
	})

	t.Run("Zero topK falls back to the default", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{})
		require.NoError(t, err)
		assert.Equal(t, 5, result.TotalChunks, "Expected the whole corpus under the default topK")
	})

	t.Run("Grouping partitions the evidence", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{TopK: 5})
		require.NoError(t, err)

		grouped := 0
		for _, items := range result.ByPaper {
			grouped += len(items)
		}
		assert.Equal(t, result.TotalChunks, grouped)

		grouped = 0
		for _, items := range result.ByRegionType {
			grouped += len(items)
		}
		assert.Equal(t, result.TotalChunks, grouped)

		assert.Len(t, result.PapersSearched, len(result.ByPaper))
	})

	t.Run("No matches yields an empty result", func(t *testing.T) {
		result, err := retriever.Retrieve(ctx, "attention", model.RetrieveOptions{
			TopK:         5,
			FilterPapers: []string{"missing.pdf"},
		})
		require.NoError(t, err)
		assert.Empty(t, result.EvidenceChunks)
		assert.Empty(t, result.PapersSearched)
		assert.Equal(t, 0, result.TotalChunks)
	})
}
