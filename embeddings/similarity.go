package embeddings

import (
	"fmt"
	"math"
	"sort"
)

// Scored pairs a candidate index with its similarity to the query.
type Scored struct {
	Index int
	Score float64
}

// Cosine computes the cosine similarity of two vectors.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embeddings: dimension mismatch %d != %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// TopK ranks candidates by cosine similarity against query, highest
// first. A nil topK keeps every candidate; a nil cutoff disables the
// similarity floor. Ranking is stable so equal scores keep input order.
func TopK(query []float64, candidates [][]float64, topK *int, cutoff *float64) ([]Scored, error) {
	scored := make([]Scored, 0, len(candidates))
	for i, candidate := range candidates {
		sim, err := Cosine(query, candidate)
		if err != nil {
			return nil, err
		}
		if cutoff != nil && sim < *cutoff {
			continue
		}
		scored = append(scored, Scored{Index: i, Score: sim})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK != nil && len(scored) > *topK {
		scored = scored[:*topK]
	}
	return scored, nil
}
