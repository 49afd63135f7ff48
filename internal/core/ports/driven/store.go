package driven

import (
	"context"

	"github.com/vellum-search/vellum/internal/core/domain"
)

// Store persists documents and chunks and executes the vector and
// keyword queries the retriever depends on. All operations are scoped
// to a single owner; no query ever crosses owners.
//
// Nearest-neighbour ordering contract: results come back in ascending
// distance order, ties broken by insertion order. The distance metric is
// the adapter's choice (the SQLite adapter uses Euclidean distance);
// the minimum-score threshold must be calibrated to it.
type Store interface {
	// CreateDocument inserts a new document row and returns its id.
	CreateDocument(ctx context.Context, owner, title, content string) (string, error)

	// InsertChunk persists one chunk with its embedding.
	InsertChunk(ctx context.Context, chunk domain.Chunk) error

	// SearchTopK returns the k nearest chunks to the query embedding.
	// Candidate embeddings are not populated; this is the lean query for
	// the plain strategy.
	SearchTopK(ctx context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error)

	// SearchCandidates returns the k nearest chunks with their stored
	// embeddings attached, as required by MMR re-ranking.
	SearchCandidates(ctx context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error)

	// SearchChunksByKeyword returns chunk contents containing the keyword,
	// newest first.
	SearchChunksByKeyword(ctx context.Context, owner, keyword string, limit int) ([]string, error)

	// SearchDocumentsByKeyword returns document contents whose title or
	// content contains the keyword, most recently updated first.
	SearchDocumentsByKeyword(ctx context.Context, owner, keyword string, limit int) ([]string, error)

	// ListRecentChunks returns the newest chunk contents regardless of
	// keyword.
	ListRecentChunks(ctx context.Context, owner string, limit int) ([]string, error)

	// ListRecentDocuments returns the most recently updated document
	// contents regardless of keyword.
	ListRecentDocuments(ctx context.Context, owner string, limit int) ([]string, error)

	// ListDocuments returns a page of document summaries, newest first.
	ListDocuments(ctx context.Context, owner string, offset, limit int) ([]domain.DocumentSummary, error)

	// CountDocuments returns the number of live documents for the owner.
	CountDocuments(ctx context.Context, owner string) (int64, error)

	// SoftDeleteDocument marks the document deleted and removes its
	// chunks. Returns false when no live document matched.
	SoftDeleteDocument(ctx context.Context, owner, docID string) (bool, error)
}
