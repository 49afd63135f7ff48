package driving

import (
	"context"

	"github.com/vellum-search/vellum/internal/core/domain"
)

// Searcher answers natural-language queries over an owner's documents.
type Searcher interface {
	// Search returns ranked chunk matches for the query. A topK of zero
	// or less uses the configured default. An empty result is a valid
	// outcome, not an error.
	Search(ctx context.Context, owner, query string, topK int) ([]domain.ChunkMatch, error)

	// BuildContext assembles the final matches into a single text blob
	// for a downstream language model. When vector search yields nothing
	// usable it falls back to keyword search; when the whole chain comes
	// up empty it returns "".
	BuildContext(ctx context.Context, owner, query string, topK int) (string, error)
}

// DocumentManager lists and deletes an owner's documents.
type DocumentManager interface {
	// List returns one page of the owner's documents, newest first.
	List(ctx context.Context, owner string, page, size int) (*domain.DocumentPage, error)

	// Delete soft-deletes a document and removes its chunks. Returns
	// false when the owner has no live document with that id.
	Delete(ctx context.Context, owner, docID string) (bool, error)
}
