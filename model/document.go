package model

import (
	"encoding/json"
	"os"
	"time"
)

// ProcessedDocument is the output of the upstream extraction pipeline for one
// PDF: detected regions, extracted text per region and structured extractions
// for tables and figures. It is the input to reading-order resolution and
// chunking.
type ProcessedDocument struct {
	Filename       string                `json:"filename"`
	NumPages       int                   `json:"num_pages"`
	Regions        []Region              `json:"regions"`
	RegionTexts    map[string]string     `json:"region_texts"`
	OrderedRegions []OrderedRegion       `json:"ordered_regions,omitempty"`
	Extractions    map[string]Extraction `json:"extractions,omitempty"`
	Metadata       Metadata              `json:"metadata,omitempty"`
}

// PaperMeta carries display metadata for an indexed paper, looked up from a
// sidecar file keyed by filename.
type PaperMeta struct {
	Title string `json:"title"`
	Topic string `json:"topic"`
}

// Paper is the persisted record of one indexed paper.
type Paper struct {
	PaperName string    `json:"paper_name"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	NumPages  int       `json:"num_pages"`
	CreatedAt time.Time `json:"created_at"`
}

// Meta returns the display metadata of the paper.
func (p *Paper) Meta() PaperMeta {
	return PaperMeta{Title: p.Title, Topic: p.Topic}
}

// LoadPaperMetadata reads the paper metadata sidecar. A missing file is not
// an error; answer assembly falls back to filenames.
func LoadPaperMetadata(path string) (map[string]PaperMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]PaperMeta{}, nil
		}
		return nil, err
	}

	meta := map[string]PaperMeta{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return meta, nil
}
