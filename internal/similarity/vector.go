package similarity

import (
	"fmt"
	"math"
)

// Dot computes the dot product of two vectors. Embeddings arrive
// L2-normalized from the triage provider, so this is cosine similarity.
func Dot(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("dot: empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("dot: dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		if !isFinite(ai) || !isFinite(bi) {
			return 0, fmt.Errorf("dot: non-finite value at index %d", i)
		}
		sum += ai * bi
	}
	if sum > 1 {
		sum = 1
	} else if sum < -1 {
		sum = -1
	}
	return sum, nil
}

// Normalize scales a vector to unit L2 norm. Used by provider stubs; real
// providers return pre-normalized embeddings.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("normalize: empty vector")
	}
	var norm float64
	for _, value := range v {
		norm += float64(value) * float64(value)
	}
	norm = math.Sqrt(norm)
	if norm == 0 || !isFinite(norm) {
		return nil, fmt.Errorf("normalize: zero or invalid norm")
	}
	out := make([]float32, len(v))
	for i, value := range v {
		out[i] = float32(float64(value) / norm)
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
