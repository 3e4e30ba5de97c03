// Package answer synthesizes evidence-backed answers from retrieval results,
// including multi-hop reasoning and a persistent answer cache.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/evidra/evidra/core/pipeline"
	"github.com/evidra/evidra/core/retrieval"
	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
)

// NoEvidenceAnswer is the terminal answer text when retrieval returns nothing.
const NoEvidenceAnswer = "No relevant evidence found in the indexed papers."

// sufficientInfoMarker ends the multi-hop loop early: the generation prompt
// instructs the model to emit this phrase when evidence cannot answer the
// question, so further hops would only accumulate noise.
const sufficientInfoMarker = "sufficient information"

const defaultMaxHops = 3

// multiHopTopK bounds evidence per reasoning hop.
const multiHopTopK = 5

const systemPrompt = `You are a research assistant specialized in analyzing academic papers.

Your task is to answer questions based ONLY on the provided evidence from research papers. Follow these rules strictly:

1. ONLY use information explicitly stated in the provided evidence passages
2. NEVER use external knowledge or make assumptions
3. Write your answer in a natural, conversational style directly addressing the question
4. When referencing information, cite the evidence inline using [Evidence N] notation
5. When mentioning findings, include the paper's topic/subject area naturally in your text (e.g., "According to the paper on Text-to-Speech Generation..." or "The Multi-Modal Learning study shows...")
6. Be precise and accurate - do not paraphrase in ways that change meaning
7. Synthesize information across papers when relevant, clearly indicating which paper (with its topic) each insight comes from
8. If evidence passages contradict each other, acknowledge the contradiction and present both viewpoints
9. If the evidence doesn't contain enough information to answer, explicitly state: "The provided evidence does not contain sufficient information to answer this question."

IMPORTANT - Format your response in THREE sections:

First, write your complete answer naturally with inline citations [Evidence N]. Make it conversational and comprehensive.

Then, after your answer is complete, add:

---
**Evidence:**
- Evidence 1 (from [Paper Topic]): [Brief description of what this evidence specifically shows]
- Evidence 2 (from [Paper Topic]): [Brief description]
[Continue for each evidence cited]

**Sources:**
- [Paper Title] (Topic: [Topic]) - Pages referenced
[List all unique papers used]
`

// Engine assembles answers from retrieved evidence. Generation failures are
// absorbed into the answer text so the evidence trail is never lost.
type Engine struct {
	retriever *retrieval.Retriever
	generate  pipeline.GenerateFunc
	paperMeta map[string]model.PaperMeta
	logger    *slog.Logger
}

// NewEngine creates an answer engine. paperMeta enriches citations with paper
// titles and topics; a nil map falls back to filenames.
func NewEngine(retriever *retrieval.Retriever, generate pipeline.GenerateFunc, paperMeta map[string]model.PaperMeta, logger *slog.Logger) *Engine {
	if paperMeta == nil {
		paperMeta = map[string]model.PaperMeta{}
	}
	return &Engine{
		retriever: retriever,
		generate:  generate,
		paperMeta: paperMeta,
		logger:    logger,
	}
}

// Answer answers a question with evidence backing. Without evidence a fixed
// terminal answer is returned; a failed generation call becomes an
// error-marked answer text with the evidence preserved.
func (e *Engine) Answer(ctx context.Context, question string, opts model.RetrieveOptions) (*model.Answer, error) {
	e.logger.Info("answering question", slog.String("question", truncate(question, 100)))

	result, err := e.retriever.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, helper.NewError("retrieving evidence", err)
	}

	if len(result.EvidenceChunks) == 0 {
		return &model.Answer{
			Question:    question,
			AnswerText:  NoEvidenceAnswer,
			Evidence:    []model.Evidence{},
			Sources:     []string{},
			HasEvidence: false,
			RetrievalStats: model.RetrievalStats{
				TotalChunks:    0,
				PapersSearched: []string{},
			},
		}, nil
	}

	answerText := e.generateAnswer(ctx, question, e.formatContext(result.EvidenceChunks))

	stats := model.RetrievalStats{
		TotalChunks:    result.TotalChunks,
		PapersSearched: result.PapersSearched,
		ByPaper:        make(map[string]int, len(result.ByPaper)),
		ByRegionType:   make(map[model.RegionType]int, len(result.ByRegionType)),
	}
	for paper, chunks := range result.ByPaper {
		stats.ByPaper[paper] = len(chunks)
	}
	for regionType, chunks := range result.ByRegionType {
		stats.ByRegionType[regionType] = len(chunks)
	}

	return &model.Answer{
		Question:       question,
		AnswerText:     answerText,
		Evidence:       result.EvidenceChunks,
		Sources:        e.extractSources(result.EvidenceChunks),
		HasEvidence:    true,
		RetrievalStats: stats,
	}, nil
}

// MultiHop answers a complex question by iterative retrieval: each hop
// retrieves for the current query, reasons over it and derives a follow-up
// query, until the model signals enough information or maxHops is reached.
// The final answer synthesizes all accumulated evidence.
func (e *Engine) MultiHop(ctx context.Context, question string, maxHops int) (*model.Answer, error) {
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}

	e.logger.Info("multi-hop reasoning", slog.String("question", truncate(question, 100)), slog.Int("max_hops", maxHops))

	currentQuery := question
	var allEvidence []model.Evidence
	hops := 0

	for hop := 0; hop < maxHops; hop++ {
		result, err := e.retriever.Retrieve(ctx, currentQuery, model.RetrieveOptions{
			TopK:            multiHopTopK,
			DiversityLambda: 0.5,
		})
		if err != nil {
			return nil, helper.NewError("retrieving evidence", err)
		}
		if len(result.EvidenceChunks) == 0 {
			break
		}

		allEvidence = append(allEvidence, result.EvidenceChunks...)

		intermediate := e.generateAnswer(ctx, currentQuery, e.formatContext(result.EvidenceChunks))
		hops++

		if strings.Contains(strings.ToLower(intermediate), sufficientInfoMarker) {
			break
		}

		if hop < maxHops-1 {
			currentQuery = e.followupQuery(ctx, question, intermediate)
		}
	}

	finalAnswer := e.generateAnswer(ctx, question, e.formatContext(allEvidence))

	papersSearched := []string{}
	seen := make(map[string]bool)
	for _, evidence := range allEvidence {
		if !seen[evidence.PaperName] {
			seen[evidence.PaperName] = true
			papersSearched = append(papersSearched, evidence.PaperName)
		}
	}

	if allEvidence == nil {
		allEvidence = []model.Evidence{}
	}

	return &model.Answer{
		Question:    question,
		AnswerText:  fmt.Sprintf("Multi-hop Reasoning (%d hops):\n\n%s", hops, finalAnswer),
		Evidence:    allEvidence,
		Sources:     e.extractSources(allEvidence),
		HasEvidence: true,
		RetrievalStats: model.RetrievalStats{
			TotalChunks:    len(allEvidence),
			PapersSearched: papersSearched,
			ReasoningHops:  hops,
		},
	}, nil
}

// formatContext renders evidence as numbered blocks the model can cite by
// [Evidence N].
func (e *Engine) formatContext(evidence []model.Evidence) string {
	blocks := make([]string, 0, len(evidence))

	for i, item := range evidence {
		meta := e.paperMeta[item.PaperName]
		title := meta.Title
		if title == "" {
			title = item.PaperName
		}
		topic := meta.Topic
		if topic == "" {
			topic = "Unknown Topic"
		}

		blocks = append(blocks, fmt.Sprintf(
			"[Evidence %d]\nPaper: %s\nTopic: %s\nSource: %s, Page %d\nRegion Type: %s\nContent:\n%s\n",
			i+1, title, topic, item.PaperName, item.PageNum, item.RegionType, item.Text,
		))
	}

	return strings.Join(blocks, "\n")
}

// generateAnswer calls the generation capability. Failures become an
// error-marked answer text rather than an error.
func (e *Engine) generateAnswer(ctx context.Context, question, context string) string {
	userContent := fmt.Sprintf(
		"Evidence passages:\n\n%s\n\nQuestion: %s\n\nPlease provide an evidence-backed answer following the format specified.",
		context, question,
	)

	response, err := e.generate(ctx, systemPrompt, []pipeline.Message{
		{Role: "user", Content: userContent},
	})
	if err != nil {
		e.logger.Error("failed to generate answer", slog.Any("error", err))
		return fmt.Sprintf("Error generating answer: %v", err)
	}

	return response
}

// followupQuery derives the next hop's query. On failure the original
// question is reused so the reasoning loop keeps going.
func (e *Engine) followupQuery(ctx context.Context, question, intermediate string) string {
	prompt := fmt.Sprintf(
		"Original question: %s\n\nPrevious finding: %s\n\nWhat additional information is needed to fully answer the original question?\nGenerate a focused follow-up query (one sentence).\n",
		question, intermediate,
	)

	response, err := e.generate(ctx, "", []pipeline.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		e.logger.Error("failed to generate follow-up query", slog.Any("error", err))
		return question
	}

	return strings.TrimSpace(response)
}

// extractSources builds one citation line per distinct paper, with title,
// topic and the sorted pages referenced, ordered by paper name.
func (e *Engine) extractSources(evidence []model.Evidence) []string {
	pagesByPaper := make(map[string]map[int]bool)
	for _, item := range evidence {
		if pagesByPaper[item.PaperName] == nil {
			pagesByPaper[item.PaperName] = make(map[int]bool)
		}
		pagesByPaper[item.PaperName][item.PageNum] = true
	}

	papers := make([]string, 0, len(pagesByPaper))
	for paper := range pagesByPaper {
		papers = append(papers, paper)
	}
	sort.Strings(papers)

	sources := make([]string, 0, len(papers))
	for _, paper := range papers {
		meta := e.paperMeta[paper]
		title := meta.Title
		if title == "" {
			title = paper
		}
		topic := meta.Topic
		if topic == "" {
			topic = "General Research"
		}

		pages := make([]int, 0, len(pagesByPaper[paper]))
		for page := range pagesByPaper[paper] {
			pages = append(pages, page)
		}
		sort.Ints(pages)

		pageStrings := make([]string, len(pages))
		for i, page := range pages {
			pageStrings[i] = fmt.Sprintf("%d", page)
		}

		sources = append(sources, fmt.Sprintf("%s (Topic: %s) - Pages %s", title, topic, strings.Join(pageStrings, ", ")))
	}

	return sources
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
