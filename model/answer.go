package model

import "time"

// RetrievalStats summarizes the retrieval behind an answer.
type RetrievalStats struct {
	TotalChunks    int                `json:"total_chunks"`
	PapersSearched []string           `json:"papers_searched"`
	ByPaper        map[string]int     `json:"by_paper,omitempty"`
	ByRegionType   map[RegionType]int `json:"by_region_type,omitempty"`
	ReasoningHops  int                `json:"reasoning_hops,omitempty"`
}

// Answer is the result of answering one question against the indexed papers.
// AnswerText carries the generated text verbatim, or a fixed message when no
// evidence was found, or an error-marked string when generation failed.
type Answer struct {
	Question       string         `json:"question"`
	AnswerText     string         `json:"answer"`
	Evidence       []Evidence     `json:"evidence"`
	Sources        []string       `json:"sources"`
	HasEvidence    bool           `json:"has_evidence"`
	RetrievalStats RetrievalStats `json:"retrieval_stats"`
}

// CachedAnswer is a persisted answer keyed by exact question text.
type CachedAnswer struct {
	Question       string         `json:"question"`
	AnswerText     string         `json:"answer"`
	Evidence       []Evidence     `json:"evidence"`
	Sources        []string       `json:"sources"`
	HasEvidence    bool           `json:"has_evidence"`
	RetrievalStats RetrievalStats `json:"retrieval_stats"`
	CachedAt       time.Time      `json:"cached_at"`
}

// ToAnswer converts a cache entry back to an Answer.
func (c CachedAnswer) ToAnswer() *Answer {
	return &Answer{
		Question:       c.Question,
		AnswerText:     c.AnswerText,
		Evidence:       c.Evidence,
		Sources:        c.Sources,
		HasEvidence:    c.HasEvidence,
		RetrievalStats: c.RetrievalStats,
	}
}
