package retrieval

import (
	"testing"

	"github.com/evidra/evidra/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evidence(chunkID, paper, regionID string, score float64) model.Evidence {
	return model.Evidence{
		ChunkID:    chunkID,
		PaperName:  paper,
		RegionID:   regionID,
		RegionType: model.RegionTypeText,
		Score:      score,
	}
}

func TestDiversify(t *testing.T) {
	t.Run("Pool at or below topK is returned unchanged", func(t *testing.T) {
		candidates := []model.Evidence{
			evidence("a", "p1.pdf", "r1", 0.9),
			evidence("b", "p2.pdf", "r1", 0.8),
		}
		assert.Equal(t, candidates, Diversify(candidates, 5, 0.5))
	})

	t.Run("Top hit is always kept first", func(t *testing.T) {
		candidates := []model.Evidence{
			evidence("a", "p1.pdf", "r1", 0.9),
			evidence("b", "p1.pdf", "r2", 0.8),
			evidence("c", "p2.pdf", "r1", 0.7),
		}
		selected := Diversify(candidates, 2, 0.5)
		require.NotEmpty(t, selected)
		assert.Equal(t, "a", selected[0].ChunkID)
	})

	t.Run("Cross-paper evidence beats a slightly better same-paper hit", func(t *testing.T) {
		candidates := []model.Evidence{
			evidence("a1", "p1.pdf", "r1", 0.9),
			evidence("a2", "p1.pdf", "r2", 0.85),
			evidence("b1", "p2.pdf", "r1", 0.8),
		}

		selected := Diversify(candidates, 2, 0.5)
		require.Len(t, selected, 2)
		assert.Equal(t, "a1", selected[0].ChunkID)
		assert.Equal(t, "b1", selected[1].ChunkID, "Expected the redundancy penalty to promote the other paper")
	})

	t.Run("Lambda one reduces to pure relevance", func(t *testing.T) {
		candidates := []model.Evidence{
			evidence("a1", "p1.pdf", "r1", 0.9),
			evidence("a2", "p1.pdf", "r2", 0.85),
			evidence("b1", "p2.pdf", "r1", 0.8),
		}

		selected := Diversify(candidates, 2, 1.0)
		require.Len(t, selected, 2)
		assert.Equal(t, "a2", selected[1].ChunkID)
	})

	t.Run("Same region is penalized harder than same paper", func(t *testing.T) {
		candidates := []model.Evidence{
			evidence("a1", "p1.pdf", "r1", 0.9),
			evidence("a1b", "p1.pdf", "r1", 0.89),
			evidence("a2", "p1.pdf", "r2", 0.7),
		}

		selected := Diversify(candidates, 2, 0.5)
		require.Len(t, selected, 2)
		assert.Equal(t, "a2", selected[1].ChunkID, "Expected the near-duplicate region to lose despite its score")
	})

	t.Run("No duplicates and exact topK size", func(t *testing.T) {
		candidates := []model.Evidence{
			evidence("a", "p1.pdf", "r1", 0.9),
			evidence("b", "p1.pdf", "r2", 0.8),
			evidence("c", "p2.pdf", "r1", 0.7),
			evidence("d", "p2.pdf", "r2", 0.6),
			evidence("e", "p3.pdf", "r1", 0.5),
		}

		selected := Diversify(candidates, 3, 0.5)
		require.Len(t, selected, 3)
		seen := make(map[string]bool)
		for _, item := range selected {
			assert.False(t, seen[item.ChunkID], "Expected each chunk at most once")
			seen[item.ChunkID] = true
		}
	})
}

func TestBucketSimilarity(t *testing.T) {
	a := evidence("a", "p1.pdf", "r1", 0.9)

	t.Run("Same region", func(t *testing.T) {
		b := evidence("b", "p1.pdf", "r1", 0.8)
		assert.Equal(t, similaritySameRegion, bucketSimilarity(a, b))
	})

	t.Run("Same paper different region", func(t *testing.T) {
		b := evidence("b", "p1.pdf", "r2", 0.8)
		assert.Equal(t, similaritySamePaper, bucketSimilarity(a, b))
	})

	t.Run("Different papers", func(t *testing.T) {
		b := evidence("b", "p2.pdf", "r9", 0.8)
		assert.Equal(t, similarityCrossPaper, bucketSimilarity(a, b))
	})
}
