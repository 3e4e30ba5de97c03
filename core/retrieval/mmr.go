package retrieval

import "github.com/evidra/evidra/model"

// Bucket similarities used in place of pairwise embedding distance: evidence
// from the same region is near-duplicate, the same paper is related, and
// different papers are mostly independent.
const (
	similaritySameRegion = 0.9
	similaritySamePaper  = 0.6
	similarityCrossPaper = 0.3
)

// Diversify applies maximal marginal relevance over a relevance-ordered
// candidate pool: it keeps the top hit, then repeatedly selects the candidate
// maximizing lambda*relevance - (1-lambda)*maxSimilarityToSelected. Ties keep
// the more relevant candidate.
func Diversify(candidates []model.Evidence, topK int, lambda float64) []model.Evidence {
	if len(candidates) <= topK {
		return candidates
	}

	selected := make([]model.Evidence, 0, topK)
	selected = append(selected, candidates[0])
	remaining := make([]model.Evidence, len(candidates)-1)
	copy(remaining, candidates[1:])

	for len(selected) < topK && len(remaining) > 0 {
		bestIndex := 0
		bestScore := mmrScore(remaining[0], selected, lambda)

		for i := 1; i < len(remaining); i++ {
			if score := mmrScore(remaining[i], selected, lambda); score > bestScore {
				bestIndex = i
				bestScore = score
			}
		}

		selected = append(selected, remaining[bestIndex])
		remaining = append(remaining[:bestIndex], remaining[bestIndex+1:]...)
	}

	return selected
}

func mmrScore(candidate model.Evidence, selected []model.Evidence, lambda float64) float64 {
	maxSimilarity := 0.0
	for _, chosen := range selected {
		if similarity := bucketSimilarity(candidate, chosen); similarity > maxSimilarity {
			maxSimilarity = similarity
		}
	}
	return lambda*candidate.Score - (1-lambda)*maxSimilarity
}

func bucketSimilarity(a, b model.Evidence) float64 {
	switch {
	case a.PaperName == b.PaperName && a.RegionID == b.RegionID:
		return similaritySameRegion
	case a.PaperName == b.PaperName:
		return similaritySamePaper
	default:
		return similarityCrossPaper
	}
}
