// Package evidra turns layout-analyzed research papers into an evidence-backed
// question answering system: reading-order resolution, semantic chunking, a
// vector index, diversity-aware retrieval and answer synthesis with citations.
package evidra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/evidra/evidra/core/answer"
	"github.com/evidra/evidra/core/layout"
	"github.com/evidra/evidra/core/pipeline"
	"github.com/evidra/evidra/core/retrieval"
	"github.com/evidra/evidra/database"
	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
	loadSql "github.com/evidra/evidra/sql"
)

// Evidra provides a unified interface to the full pipeline
type Evidra struct {
	Config    *Config
	Resolver  *layout.Resolver
	Chunker   *pipeline.Chunker
	Index     retrieval.Index
	Retriever *retrieval.Retriever
	Answers   *answer.Engine
	Cache     *answer.Cache
	DB        *helper.Database
	Papers    *database.PapersDBHandler
	// Logging
	log       *slog.Logger
	paperMeta map[string]model.PaperMeta
}

// New creates an Evidra instance backed by an in-memory vector index.
// embed and generate are the model capabilities; generate may be nil if only
// retrieval is used.
func New(config *Config, embed pipeline.EmbedFunc, generate pipeline.GenerateFunc) (*Evidra, error) {
	if config == nil {
		config = NewConfigFromEnv()
	}

	logger := newLogger()

	index := retrieval.NewMemoryIndex(embed)
	return assemble(config, index, generate, logger, nil, nil)
}

// NewWithDatabase creates an Evidra instance backed by a PostgreSQL vector
// index, persisting chunks and paper records across restarts.
func NewWithDatabase(config *Config, dbConfig *helper.DatabaseConfiguration, embed pipeline.EmbedFunc, generate pipeline.GenerateFunc) (*Evidra, error) {
	if config == nil {
		config = NewConfigFromEnv()
	}

	logger := newLogger()

	db := helper.NewDatabase("evidra", dbConfig, logger)
	if err := loadSql.Init(db.Instance); err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	index, err := database.NewPgIndex(db, embed, config.EmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create vector index", err)
	}

	papers, err := database.NewPapersDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create papers handler", err)
	}

	return assemble(config, index, generate, logger, db, papers)
}

func newLogger() *slog.Logger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}

func assemble(config *Config, index retrieval.Index, generate pipeline.GenerateFunc, logger *slog.Logger, db *helper.Database, papers *database.PapersDBHandler) (*Evidra, error) {
	paperMeta, err := model.LoadPaperMetadata(config.PaperMetadataPath())
	if err != nil {
		return nil, helper.NewError("load paper metadata", err)
	}

	// DB paper records override the sidecar when both exist.
	if papers != nil {
		stored, err := papers.SelectAllPapers()
		if err != nil {
			return nil, helper.NewError("load paper records", err)
		}
		for _, paper := range stored {
			paperMeta[paper.PaperName] = paper.Meta()
		}
	}

	retriever := retrieval.NewRetriever(index, logger)

	return &Evidra{
		Config:    config,
		Resolver:  &layout.Resolver{ColumnThreshold: config.ColumnThreshold},
		Chunker:   pipeline.NewChunker(config.ChunkSize, config.ChunkOverlap),
		Index:     index,
		Retriever: retriever,
		Answers:   answer.NewEngine(retriever, generate, paperMeta, logger),
		Cache:     answer.NewCache(config.CachePath(), logger),
		DB:        db,
		Papers:    papers,
		log:       logger,
		paperMeta: paperMeta,
	}, nil
}

// Close closes the database connection
func (e *Evidra) Close() error {
	if e.DB != nil && e.DB.Instance != nil {
		return e.DB.Instance.Close()
	}
	return nil
}

// RegisterPaper records display metadata for a paper, used in citations.
func (e *Evidra) RegisterPaper(paperName string, meta model.PaperMeta) {
	e.paperMeta[paperName] = meta
}

// IndexDocument processes one analyzed document end to end:
// 1. Resolving the reading order if not already resolved
// 2. Chunking region texts and rendered extractions
// 3. Writing the chunk sidecar file
// 4. Embedding and indexing all chunks
// Returns the number of chunks indexed.
func (e *Evidra) IndexDocument(ctx context.Context, doc *model.ProcessedDocument) (int, error) {
	if doc == nil || doc.Filename == "" {
		return 0, helper.NewError("index document", fmt.Errorf("document is nil or has no filename"))
	}

	if len(doc.OrderedRegions) == 0 {
		doc.OrderedRegions = e.Resolver.Resolve(doc.Regions)
	}

	chunks := e.Chunker.ChunkDocument(doc)
	e.log.Info("Chunked document", slog.String("paper", doc.Filename), slog.Int("num_chunks", len(chunks)))

	if err := model.SaveChunks(e.Config.ChunksPath(doc.Filename), chunks); err != nil {
		return 0, helper.NewError("save chunk sidecar", err)
	}

	if err := e.Index.Add(ctx, chunks); err != nil {
		return 0, helper.NewError("index chunks", err)
	}

	if e.Papers != nil {
		meta := e.paperMeta[doc.Filename]
		paper := &model.Paper{
			PaperName: doc.Filename,
			Title:     meta.Title,
			Topic:     meta.Topic,
			NumPages:  doc.NumPages,
		}
		if err := e.Papers.UpsertPaper(paper); err != nil {
			return 0, helper.NewError("upsert paper record", err)
		}
	}

	e.log.Info("Indexed document", slog.String("paper", doc.Filename), slog.Int("num_chunks", len(chunks)))

	return len(chunks), nil
}

// withDefaults fills unset options from the configuration.
func (e *Evidra) withDefaults(opts model.RetrieveOptions) model.RetrieveOptions {
	if opts.TopK <= 0 {
		opts.TopK = e.Config.TopK
	}
	return opts
}

// Retrieve runs retrieval without answer synthesis.
func (e *Evidra) Retrieve(ctx context.Context, query string, opts model.RetrieveOptions) (*model.RetrievalResult, error) {
	return e.Retriever.Retrieve(ctx, query, e.withDefaults(opts))
}

// Ask answers a question, serving from the answer cache when a valid entry
// exists and caching fresh answers.
func (e *Evidra) Ask(ctx context.Context, question string, opts model.RetrieveOptions) (*model.Answer, error) {
	if cached, ok := e.Cache.Get(question); ok {
		e.log.Info("Answer served from cache", slog.String("question", question))
		return cached, nil
	}

	result, err := e.Answers.Answer(ctx, question, e.withDefaults(opts))
	if err != nil {
		return nil, err
	}

	if err := e.Cache.Set(question, result); err != nil {
		e.log.Error("Failed to cache answer", slog.Any("error", err))
	}

	return result, nil
}

// AskMultiHop answers a complex question with iterative retrieval. Multi-hop
// answers are not cached.
func (e *Evidra) AskMultiHop(ctx context.Context, question string, maxHops int) (*model.Answer, error) {
	if maxHops <= 0 {
		maxHops = e.Config.MaxHops
	}
	return e.Answers.MultiHop(ctx, question, maxHops)
}

// Stats reports the index contents.
func (e *Evidra) Stats(ctx context.Context) (*model.IndexStats, error) {
	return e.Index.Stats(ctx)
}

// DeletePaper removes a paper's chunks from the index (and its record when
// database-backed) and reports how many chunks were removed.
func (e *Evidra) DeletePaper(ctx context.Context, paperName string) (int, error) {
	deleted, err := e.Index.DeletePaper(ctx, paperName)
	if err != nil {
		return 0, helper.NewError("delete paper chunks", err)
	}

	if deleted == 0 {
		e.log.Warn("No chunks found for paper", slog.String("paper", paperName))
	}

	if e.Papers != nil {
		if _, err := e.Papers.DeletePaper(paperName); err != nil {
			return deleted, helper.NewError("delete paper record", err)
		}
	}

	e.log.Info("Deleted paper", slog.String("paper", paperName), slog.Int("num_chunks", deleted))

	return deleted, nil
}

// ClearIndex removes all chunks from the index.
func (e *Evidra) ClearIndex(ctx context.Context) error {
	return e.Index.Clear(ctx)
}

// ClearCache removes all cached answers.
func (e *Evidra) ClearCache() error {
	return e.Cache.Clear()
}

// WarmCache precomputes and caches answers for the given questions.
func (e *Evidra) WarmCache(ctx context.Context, questions []string) {
	opts := model.DefaultRetrieveOptions()
	opts.TopK = e.Config.TopK
	e.Cache.UpdateAll(ctx, questions, func(ctx context.Context, question string) (*model.Answer, error) {
		return e.Answers.Answer(ctx, question, opts)
	})
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat.
// Only supported on the database-backed index.
func (e *Evidra) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	pg, ok := e.Index.(*database.PgIndex)
	if !ok {
		return helper.NewError("change index type", fmt.Errorf("not supported by the in-memory index"))
	}
	return pg.ChangeIndexType(ctx, indexType, params)
}
