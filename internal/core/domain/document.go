package domain

import "time"

// Document represents an owner-scoped document in the knowledge base.
// Content is the full text after image-text inlining; it is what the
// chunker consumed and what keyword fallback search matches against.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Owner identifies the user the document belongs to. Documents are
	// only ever visible to their owner.
	Owner string

	// Title is the human-readable title.
	Title string

	// Content is the full enriched text content.
	Content string

	// Deleted marks the document as soft-deleted. Deleted documents are
	// excluded from every query; the row itself is never removed.
	Deleted bool

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Chunk represents a searchable unit within a document.
// Chunks are created in a batch during ingestion and never updated;
// they are removed when the parent document is deleted.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Owner duplicates the parent document's owner so chunk queries can
	// be scoped without a join. Invariant: always equals the parent's.
	Owner string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// CreatedAt is when the chunk was inserted.
	CreatedAt time.Time
}

// DocumentSummary is a listing row for a document, without content.
type DocumentSummary struct {
	// ID is the document identifier.
	ID string

	// Title is the human-readable title.
	Title string

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// DocumentPage is one page of a document listing.
type DocumentPage struct {
	// Documents holds the rows for this page.
	Documents []DocumentSummary

	// Total is the total number of documents for the owner.
	Total int64

	// Page is the 1-based page number.
	Page int

	// Size is the page size.
	Size int

	// TotalPages is the number of pages at this size.
	TotalPages int
}
