package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
)

// Retriever routes queries to the index, applies filter fan-out and diversity
// sampling, and groups the evidence for downstream answer assembly.
type Retriever struct {
	index  Index
	logger *slog.Logger
}

// NewRetriever creates a retriever over the given index.
func NewRetriever(index Index, logger *slog.Logger) *Retriever {
	return &Retriever{
		index:  index,
		logger: logger,
	}
}

// Retrieve runs a query with the given options. Filters route the search:
// a single paper or region type becomes an exact index filter, multiple
// values fan out one search per value with a global re-sort, and an
// unfiltered query over-fetches a 2x pool for diversity sampling.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts model.RetrieveOptions) (*model.RetrievalResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = model.DefaultRetrieveOptions().TopK
	}

	r.logger.Debug("retrieving", slog.String("query", truncate(query, 100)), slog.Int("top_k", topK))

	var filter *Filter
	if len(opts.FilterPapers) == 1 {
		filter = &Filter{PaperName: opts.FilterPapers[0]}
	} else if len(opts.FilterRegionTypes) == 1 {
		filter = &Filter{RegionType: opts.FilterRegionTypes[0]}
	}

	var results []model.Evidence
	var err error

	switch {
	case len(opts.FilterPapers) > 1:
		filters := make([]Filter, len(opts.FilterPapers))
		for i, paper := range opts.FilterPapers {
			filters[i] = Filter{PaperName: paper}
		}
		results, err = r.searchFanOut(ctx, query, topK, filters)
	case len(opts.FilterRegionTypes) > 1:
		filters := make([]Filter, len(opts.FilterRegionTypes))
		for i, regionType := range opts.FilterRegionTypes {
			filters[i] = Filter{RegionType: regionType}
		}
		results, err = r.searchFanOut(ctx, query, topK, filters)
	default:
		// Over-fetch to give diversity sampling a pool to pick from.
		results, err = r.index.Search(ctx, query, topK*2, filter)
	}
	if err != nil {
		return nil, helper.NewError("searching index", err)
	}

	if opts.DiversityLambda > 0 && len(results) > topK {
		results = Diversify(results, topK, opts.DiversityLambda)
	} else if len(results) > topK {
		results = results[:topK]
	}

	result := groupEvidence(query, results)

	r.logger.Debug("retrieved",
		slog.Int("chunks", result.TotalChunks),
		slog.Int("papers", len(result.PapersSearched)),
	)

	return result, nil
}

// searchFanOut runs one filtered search per filter value, merges the results
// by descending score and truncates to topK.
func (r *Retriever) searchFanOut(ctx context.Context, query string, topK int, filters []Filter) ([]model.Evidence, error) {
	var merged []model.Evidence
	for i := range filters {
		results, err := r.index.Search(ctx, query, topK, &filters[i])
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

// groupEvidence builds the grouped retrieval result. PapersSearched lists
// papers in order of their best-ranked evidence.
func groupEvidence(query string, evidence []model.Evidence) *model.RetrievalResult {
	result := &model.RetrievalResult{
		Query:          query,
		EvidenceChunks: evidence,
		PapersSearched: []string{},
		TotalChunks:    len(evidence),
		ByPaper:        make(map[string][]model.Evidence),
		ByRegionType:   make(map[model.RegionType][]model.Evidence),
	}

	for _, item := range evidence {
		if _, ok := result.ByPaper[item.PaperName]; !ok {
			result.PapersSearched = append(result.PapersSearched, item.PaperName)
		}
		result.ByPaper[item.PaperName] = append(result.ByPaper[item.PaperName], item)
		result.ByRegionType[item.RegionType] = append(result.ByRegionType[item.RegionType], item)
	}

	return result
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
