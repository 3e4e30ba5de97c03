package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
	loadSql "github.com/evidra/evidra/sql"
)

// PapersDBHandlerFunctions defines the interface for Papers database operations.
type PapersDBHandlerFunctions interface {
	UpsertPaper(paper *model.Paper) error
	SelectPaper(paperName string) (*model.Paper, error)
	SelectAllPapers() ([]*model.Paper, error)
	DeletePaper(paperName string) (int, error)
}

// PapersDBHandler handles paper-related database operations
type PapersDBHandler struct {
	db *helper.Database
}

// NewPapersDBHandler creates a new papers database handler.
// It initializes the database connection and loads paper-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPapersDBHandler(db *helper.Database, force bool) (*PapersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	papersDbHandler := &PapersDBHandler{
		db: db,
	}

	err := loadSql.LoadPapersSql(papersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load papers sql", err)
	}

	err = papersDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PapersDBHandler")

	return papersDbHandler, nil
}

// CreateTable creates the 'papers' table in the database.
// If the table already exists, it does not create it again.
func (h *PapersDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_papers();`)
	if err != nil {
		log.Panicf("error initializing papers table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table papers")

	return nil
}

// UpsertPaper inserts a paper or replaces an existing one with the same name
func (h *PapersDBHandler) UpsertPaper(paper *model.Paper) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_paper($1, $2, $3, $4)`,
		paper.PaperName,
		paper.Title,
		paper.Topic,
		paper.NumPages,
	)

	err := row.Scan(
		&paper.PaperName,
		&paper.Title,
		&paper.Topic,
		&paper.NumPages,
		&paper.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectPaper retrieves a paper by name
func (h *PapersDBHandler) SelectPaper(paperName string) (*model.Paper, error) {
	paper := &model.Paper{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_paper($1)`,
		paperName,
	)

	err := row.Scan(
		&paper.PaperName,
		&paper.Title,
		&paper.Topic,
		&paper.NumPages,
		&paper.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return paper, nil
}

// SelectAllPapers retrieves all papers ordered by name
func (h *PapersDBHandler) SelectAllPapers() ([]*model.Paper, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_papers()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var papers []*model.Paper
	for rows.Next() {
		paper := &model.Paper{}
		err := rows.Scan(
			&paper.PaperName,
			&paper.Title,
			&paper.Topic,
			&paper.NumPages,
			&paper.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		papers = append(papers, paper)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return papers, nil
}

// DeletePaper deletes a paper by name and returns the count of deleted rows
func (h *PapersDBHandler) DeletePaper(paperName string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_paper($1)`,
		paperName,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}
