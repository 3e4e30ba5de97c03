package database

import (
	"testing"
	"time"

	"github.com/evidra/evidra/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPapersNewPapersDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewPapersDBHandler", func(t *testing.T) {
		papersDbHandler, err := NewPapersDBHandler(database, true)
		assert.NoError(t, err, "Expected NewPapersDBHandler to not return an error")
		require.NotNil(t, papersDbHandler, "Expected NewPapersDBHandler to return a non-nil instance")
		require.NotNil(t, papersDbHandler.db, "Expected NewPapersDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewPapersDBHandler with nil database", func(t *testing.T) {
		_, err := NewPapersDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating PapersDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestPapersUpsertAndSelect(t *testing.T) {
	database := initDB(t)

	papersDbHandler, err := NewPapersDBHandler(database, true)
	require.NoError(t, err)

	paper := &model.Paper{
		PaperName: "attention.pdf",
		Title:     "Attention Is All You Need",
		Topic:     "Machine Translation",
		NumPages:  15,
	}

	t.Run("Upsert new paper", func(t *testing.T) {
		err := papersDbHandler.UpsertPaper(paper)
		assert.NoError(t, err, "Expected Upsert to not return an error")
		assert.WithinDuration(t, paper.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Upsert existing paper replaces metadata", func(t *testing.T) {
		updated := &model.Paper{
			PaperName: "attention.pdf",
			Title:     "Attention Is All You Need",
			Topic:     "Sequence Transduction",
			NumPages:  15,
		}
		err := papersDbHandler.UpsertPaper(updated)
		assert.NoError(t, err)

		stored, err := papersDbHandler.SelectPaper("attention.pdf")
		require.NoError(t, err)
		assert.Equal(t, "Sequence Transduction", stored.Topic)
	})

	t.Run("Select unknown paper", func(t *testing.T) {
		_, err := papersDbHandler.SelectPaper("missing.pdf")
		assert.Error(t, err, "Expected error for unknown paper")
	})

	t.Run("Select all papers ordered by name", func(t *testing.T) {
		second := &model.Paper{PaperName: "bert.pdf", Title: "BERT", Topic: "Language Modeling", NumPages: 12}
		require.NoError(t, papersDbHandler.UpsertPaper(second))

		papers, err := papersDbHandler.SelectAllPapers()
		assert.NoError(t, err)
		require.Len(t, papers, 2)
		assert.Equal(t, "attention.pdf", papers[0].PaperName)
		assert.Equal(t, "bert.pdf", papers[1].PaperName)
	})

	t.Run("Delete paper", func(t *testing.T) {
		deleted, err := papersDbHandler.DeletePaper("bert.pdf")
		assert.NoError(t, err)
		assert.Equal(t, 1, deleted)

		papers, err := papersDbHandler.SelectAllPapers()
		require.NoError(t, err)
		assert.Len(t, papers, 1)
	})
}
