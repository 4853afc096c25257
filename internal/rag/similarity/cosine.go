// Package similarity implements the cosine-similarity kernel used by the
// in-process search fallback.
package similarity

import (
	"fmt"
	"math"

	"github.com/estudia/study-backend/internal/entity"
)

// Cosine returns the cosine similarity between two vectors:
// dot(a,b) / (‖a‖·‖b‖). It is 0 when either norm is zero and fails when
// the vectors differ in length.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", entity.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (normA * normB), nil
}
