package semantic

import "sort"

// FusedResult holds a document ID and its weighted keyword/semantic scores.
type FusedResult struct {
	ID            string
	Score         float64
	KeywordScore  float64
	SemanticScore float64
}

// NormalizeByMax scales scores into [0,1] by the largest score.
func NormalizeByMax(scores map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(scores))
	var maxScore float64
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	for id, s := range scores {
		if maxScore > 0 {
			normalized[id] = s / maxScore
		} else {
			normalized[id] = 0
		}
	}
	return normalized
}

// Fuse merges keyword and semantic score maps with weights and returns the
// results best first. Ties are broken by ID so the order is stable.
func Fuse(keywordScores, semanticScores map[string]float64, keywordWeight, semanticWeight float64) []*FusedResult {
	scoreMap := make(map[string]*FusedResult)
	for id, score := range keywordScores {
		scoreMap[id] = &FusedResult{
			ID:           id,
			KeywordScore: score,
		}
	}
	for id, score := range semanticScores {
		if result, exists := scoreMap[id]; exists {
			result.SemanticScore = score
		} else {
			scoreMap[id] = &FusedResult{
				ID:            id,
				SemanticScore: score,
			}
		}
	}
	results := make([]*FusedResult, 0, len(scoreMap))
	for _, result := range scoreMap {
		result.Score = (keywordWeight * result.KeywordScore) + (semanticWeight * result.SemanticScore)
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results
}
