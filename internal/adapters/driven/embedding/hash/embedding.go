// Package hash provides a deterministic embedding adapter that needs
// no model server. Vectors are byte-level hash histograms, so they
// capture surface similarity only; it exists for offline use and for
// tests that need stable vectors.
package hash

import (
	"context"
	"math"
	"strings"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
)

var _ driven.Embedder = (*Embedder)(nil)

// Embedder maps text onto a fixed-size L2-normalized vector.
type Embedder struct {
	size int
}

// NewEmbedder creates a hash embedder producing vectors of the given
// size, floored at the minimum usable embedding size.
func NewEmbedder(size int) *Embedder {
	if size < domain.MinVectorSize {
		size = domain.MinVectorSize
	}
	return &Embedder{size: size}
}

// Embed hashes each byte of the text into a bucket and normalizes the
// resulting histogram. Equal texts always produce equal vectors; blank
// text, including whitespace only, produces the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.size)
	if strings.TrimSpace(text) == "" {
		return vector, nil
	}

	for i := 0; i < len(text); i++ {
		// Bytes are taken as signed; the bucket layout depends on it.
		idx := int(int8(text[i]))*31 + i
		if idx < 0 {
			idx = -idx
		}
		vector[idx%e.size]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector, nil
	}
	norm = math.Sqrt(norm)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector, nil
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.size
}
