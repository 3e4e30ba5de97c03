package model

// RetrieveOptions configures one retrieval call.
type RetrieveOptions struct {
	// TopK is the number of evidence chunks to return.
	TopK int `json:"top_k"`

	// FilterPapers restricts the search to specific papers.
	FilterPapers []string `json:"filter_papers,omitempty"`

	// FilterRegionTypes restricts the search to specific region types.
	FilterRegionTypes []RegionType `json:"filter_region_types,omitempty"`

	// DiversityLambda balances relevance against redundancy in [0,1].
	// 0 disables diversification entirely.
	DiversityLambda float64 `json:"diversity_lambda"`
}

// DefaultRetrieveOptions returns a sensible default configuration.
func DefaultRetrieveOptions() RetrieveOptions {
	return RetrieveOptions{
		TopK:            10,
		DiversityLambda: 0.5,
	}
}
