package driven

import "context"

// Embedder maps text to a fixed-length vector.
//
// Implementations must never fail on blank input: they return a zero
// vector (or an immediate zero-filled result) instead. The engine is
// agnostic to which implementation is active; one is selected per
// deployment via configuration.
//
// Implementations include:
//   - hash: deterministic bag-of-bytes embedding, no external dependency
//   - ollama: model-backed embeddings over the Ollama HTTP API
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size. It is fixed for the
	// lifetime of a deployment; changing it invalidates stored vectors.
	Dimensions() int
}
