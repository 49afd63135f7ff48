package driving

import "context"

// Ingestor turns raw content into a stored, chunked, embedded document.
type Ingestor interface {
	// Ingest stores plain text content and returns the new document id.
	// A blank owner or content is rejected with domain.ErrInvalidInput.
	Ingest(ctx context.Context, owner, title, content string) (string, error)

	// IngestMarkdown stores markdown content. The sourcePath is used to
	// derive a title when none is given and to resolve relative image
	// references recorded in the document trailer.
	IngestMarkdown(ctx context.Context, owner, title, markdown, sourcePath string) (string, error)

	// IngestMarkdownWithImages stores markdown whose image references can
	// be resolved against the supplied name-to-bytes map. Recognised text
	// is inlined next to each reference before chunking; the enriched
	// text is what gets persisted.
	IngestMarkdownWithImages(ctx context.Context, owner, title, markdown string, images map[string][]byte) (string, error)
}
