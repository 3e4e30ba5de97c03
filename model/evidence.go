package model

import (
	"fmt"
	"sort"
)

// Evidence is the retrieval-time projection of a chunk plus its similarity
// score (1 - cosine distance). Ephemeral, constructed per query.
type Evidence struct {
	ChunkID    string     `json:"chunk_id"`
	Text       string     `json:"text"`
	PaperName  string     `json:"paper_name"`
	PageNum    int        `json:"page_num"`
	RegionID   string     `json:"region_id"`
	RegionType RegionType `json:"region_type"`
	BBox       BBox       `json:"bbox"`
	Score      float64    `json:"score"`
}

// Citation returns a short human-readable source reference.
func (e Evidence) Citation() string {
	return fmt.Sprintf("%s, Page %d", e.PaperName, e.PageNum)
}

// RetrievalResult groups the evidence returned for one query.
// ByPaper and ByRegionType partition the evidence list; PapersSearched lists
// the distinct paper names actually present in the results, in first-seen
// order (not the requested filter set).
type RetrievalResult struct {
	Query          string                    `json:"query"`
	EvidenceChunks []Evidence                `json:"evidence_chunks"`
	PapersSearched []string                  `json:"papers_searched"`
	TotalChunks    int                       `json:"total_chunks"`
	ByPaper        map[string][]Evidence     `json:"by_paper"`
	ByRegionType   map[RegionType][]Evidence `json:"by_region_type"`
}

// IndexStats summarizes the contents of a vector index, computed by scanning
// all stored metadata.
type IndexStats struct {
	TotalChunks      int                `json:"total_chunks"`
	PaperCounts      map[string]int     `json:"paper_counts"`
	RegionTypeCounts map[RegionType]int `json:"region_type_counts"`
}

// Papers returns the indexed paper names in sorted order.
func (s *IndexStats) Papers() []string {
	papers := make([]string, 0, len(s.PaperCounts))
	for name := range s.PaperCounts {
		papers = append(papers, name)
	}
	sort.Strings(papers)
	return papers
}
