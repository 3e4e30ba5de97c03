package answer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evidra/evidra/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnswer(question, text string) *model.Answer {
	return &model.Answer{
		Question:    question,
		AnswerText:  text,
		Evidence:    []model.Evidence{{ChunkID: "c1", PaperName: "p1.pdf", PageNum: 1, Score: 0.9}},
		Sources:     []string{"p1.pdf (Topic: General Research) - Pages 1"},
		HasEvidence: true,
		RetrievalStats: model.RetrievalStats{
			TotalChunks:    1,
			PapersSearched: []string{"p1.pdf"},
		},
	}
}

func TestCacheSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer_cache.json")
	cache := NewCache(path, discardLogger())

	t.Run("Miss on unknown question", func(t *testing.T) {
		_, ok := cache.Get("never asked")
		assert.False(t, ok)
		assert.False(t, cache.Has("never asked"))
	})

	t.Run("Set then get round trips the answer", func(t *testing.T) {
		require.NoError(t, cache.Set("What is attention?", testAnswer("What is attention?", "Attention weighs tokens.")))

		cached, ok := cache.Get("What is attention?")
		require.True(t, ok)
		assert.Equal(t, "Attention weighs tokens.", cached.AnswerText)
		assert.True(t, cached.HasEvidence)
		require.Len(t, cached.Evidence, 1)
		assert.Equal(t, "c1", cached.Evidence[0].ChunkID)
		assert.True(t, cache.Has("What is attention?"))
	})

	t.Run("Set persists to disk immediately", func(t *testing.T) {
		_, err := os.Stat(path)
		require.NoError(t, err)

		reloaded := NewCache(path, discardLogger())
		cached, ok := reloaded.Get("What is attention?")
		require.True(t, ok)
		assert.Equal(t, "Attention weighs tokens.", cached.AnswerText)
	})

	t.Run("Error-marked answers are cache misses", func(t *testing.T) {
		require.NoError(t, cache.Set("broken", testAnswer("broken", "Error generating answer: model unavailable")))
		_, ok := cache.Get("broken")
		assert.False(t, ok, "Expected error answers to be regenerated, not served")
		assert.False(t, cache.Has("broken"))

		require.NoError(t, cache.Set("payment", testAnswer("payment", "Error code: 402 insufficient credits")))
		_, ok = cache.Get("payment")
		assert.False(t, ok)
	})
}

func TestCacheLoad(t *testing.T) {
	t.Run("Missing file starts empty", func(t *testing.T) {
		cache := NewCache(filepath.Join(t.TempDir(), "missing.json"), discardLogger())
		count, _ := cache.Stats()
		assert.Equal(t, 0, count)
	})

	t.Run("Corrupt file starts fresh", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.json")
		require.NoError(t, os.WriteFile(path, []byte("not json {"), 0644))

		cache := NewCache(path, discardLogger())
		count, _ := cache.Stats()
		assert.Equal(t, 0, count)

		require.NoError(t, cache.Set("q", testAnswer("q", "a")))
		assert.True(t, cache.Has("q"))
	})

	t.Run("Save creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")
		cache := NewCache(path, discardLogger())
		require.NoError(t, cache.Set("q", testAnswer("q", "a")))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestCacheUpdateAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer_cache.json")
	cache := NewCache(path, discardLogger())

	answerFn := func(ctx context.Context, question string) (*model.Answer, error) {
		if question == "failing" {
			return nil, errors.New("generation down")
		}
		return testAnswer(question, "answer for "+question), nil
	}

	cache.UpdateAll(context.Background(), []string{"first", "failing", "second"}, answerFn)

	t.Run("Successful questions are cached", func(t *testing.T) {
		assert.True(t, cache.Has("first"))
		assert.True(t, cache.Has("second"))
	})

	t.Run("Failed questions are skipped without aborting", func(t *testing.T) {
		assert.False(t, cache.Has("failing"))
		count, questions := cache.Stats()
		assert.Equal(t, 2, count)
		assert.Equal(t, []string{"first", "second"}, questions)
	})
}

func TestCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer_cache.json")
	cache := NewCache(path, discardLogger())
	require.NoError(t, cache.Set("q", testAnswer("q", "a")))

	require.NoError(t, cache.Clear())
	assert.False(t, cache.Has("q"))

	reloaded := NewCache(path, discardLogger())
	count, _ := reloaded.Stats()
	assert.Equal(t, 0, count, "Expected the cleared cache to persist")
}
