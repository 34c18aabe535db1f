// Package fusion combines ranked result lists from multiple retrievers. RRF
// fuses lists by rank position and needs no scores; MMR diversifies a
// candidate set using embeddings. Both are first-stage companions to the
// cross-encoder ranker, which is the precision stage.
package fusion

import (
	"math"
	"sort"
)

const (
	// DefaultRankConstant is the RRF smoothing constant. 60 is the value
	// from the original RRF paper and works well in practice.
	DefaultRankConstant = 60

	// DefaultMMRLambda balances relevance against diversity in MMR.
	DefaultMMRLambda = 0.5
)

// RRF (Reciprocal Rank Fusion) fuses multiple ranked ID lists. Each ID scores
// the sum of 1/(rank + rankConstant) over the lists it appears in. IDs scoring
// below minScore are dropped. Returns IDs and scores sorted by score
// descending; ties keep first-seen order.
func RRF(results [][]string, rankConstant int, minScore float64) ([]string, []float64) {
	if rankConstant <= 0 {
		rankConstant = DefaultRankConstant
	}

	scores := make(map[string]float64)
	order := make([]string, 0)

	for _, result := range results {
		for i, id := range result {
			if _, exists := scores[id]; !exists {
				order = append(order, id)
			}
			scores[id] += 1.0 / float64(i+rankConstant)
		}
	}

	type idScore struct {
		id    string
		score float64
	}

	scored := make([]idScore, 0, len(order))
	for _, id := range order {
		if scores[id] >= minScore {
			scored = append(scored, idScore{id: id, score: scores[id]})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ids := make([]string, len(scored))
	scoreList := make([]float64, len(scored))
	for i, item := range scored {
		ids[i] = item.id
		scoreList[i] = item.score
	}
	return ids, scoreList
}

// MaximalMarginalRelevance (MMR) reranks candidates to balance relevance and
// diversity. Each candidate scores lambda * sim(query, candidate) minus
// (1-lambda) * its maximum similarity to any other candidate. Candidates
// scoring below minScore are dropped.
func MaximalMarginalRelevance(queryVector []float32, candidates map[string][]float32, mmrLambda float64, minScore float64) ([]string, []float64) {
	if mmrLambda == 0 {
		mmrLambda = DefaultMMRLambda
	}
	if len(candidates) == 0 {
		return []string{}, []float64{}
	}

	ids := make([]string, 0, len(candidates))
	vectors := make(map[string][]float32, len(candidates))
	for id, embedding := range candidates {
		vectors[id] = normalizeL2(embedding)
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic iteration over the map

	normalizedQuery := normalizeL2(queryVector)

	mmrScores := make(map[string]float64, len(ids))
	for _, id := range ids {
		queryDocSim := cosineSimilarity(normalizedQuery, vectors[id])

		maxSim := 0.0
		for _, otherID := range ids {
			if id == otherID {
				continue
			}
			if sim := cosineSimilarity(vectors[id], vectors[otherID]); sim > maxSim {
				maxSim = sim
			}
		}

		mmrScores[id] = mmrLambda*queryDocSim - (1-mmrLambda)*maxSim
	}

	type idMMR struct {
		id  string
		mmr float64
	}

	scored := make([]idMMR, 0, len(ids))
	for _, id := range ids {
		if mmrScores[id] >= minScore {
			scored = append(scored, idMMR{id: id, mmr: mmrScores[id]})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].mmr > scored[j].mmr
	})

	resultIDs := make([]string, len(scored))
	resultScores := make([]float64, len(scored))
	for i, item := range scored {
		resultIDs[i] = item.id
		resultScores[i] = item.mmr
	}
	return resultIDs, resultScores
}

// normalizeL2 performs L2 normalization on a vector.
func normalizeL2(vector []float32) []float32 {
	if len(vector) == 0 {
		return vector
	}

	var norm float32
	for _, val := range vector {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))

	if norm == 0 {
		return vector
	}

	normalized := make([]float32, len(vector))
	for i, val := range vector {
		normalized[i] = val / norm
	}
	return normalized
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
