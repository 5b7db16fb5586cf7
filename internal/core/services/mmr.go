package services

import (
	"math"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// MaximalMarginalRelevance picks k candidates that balance similarity to the
// query against similarity to candidates already picked. lambda=1 ranks by
// relevance only, lambda=0 by diversity only. Candidates must carry their
// query similarity and embedding.
func MaximalMarginalRelevance(candidates []domain.Candidate, k int, lambda float64) []domain.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]domain.Candidate, 0, k)
	used := make([]bool, len(candidates))
	// maxSim[i] is the highest similarity of candidate i to any selected one.
	maxSim := make([]float64, len(candidates))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			score := c.Similarity
			if len(selected) > 0 {
				score = lambda*c.Similarity - (1-lambda)*maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		picked := candidates[best]
		selected = append(selected, picked)

		for i, c := range candidates {
			if used[i] {
				continue
			}
			if sim := CosineSimilarity(c.Entry.Embedding, picked.Entry.Embedding); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}
	return selected
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
