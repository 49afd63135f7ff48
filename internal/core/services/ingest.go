package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/inline"
	"github.com/vellum-search/vellum/internal/logger"
	"github.com/vellum-search/vellum/internal/postprocessors"
)

const (
	defaultTitle         = "Untitled"
	defaultMarkdownTitle = "Markdown Note"
)

// IngestService turns raw content into stored, chunked, embedded
// documents. The document row is created before any chunk so a reader
// can always resolve a chunk's parent; a failure partway through
// chunk insertion leaves the chunks inserted so far in place.
type IngestService struct {
	store    driven.Store
	embedder driven.Embedder
	settings driven.SettingsSource
	inliner  *inline.Inliner
	registry *postprocessors.Registry
}

// NewIngestService creates an ingestion service. The inliner may be nil
// when image enrichment is not needed.
func NewIngestService(store driven.Store, embedder driven.Embedder, settings driven.SettingsSource, inliner *inline.Inliner) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		settings: settings,
		inliner:  inliner,
		registry: postprocessors.DefaultRegistry(),
	}
}

// Ingest stores plain text content and returns the new document id.
func (s *IngestService) Ingest(ctx context.Context, owner, title, content string) (string, error) {
	if strings.TrimSpace(owner) == "" {
		return "", fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}

	docID, err := s.store.CreateDocument(ctx, owner, title, content)
	if err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}

	pipeline, err := s.buildPipeline()
	if err != nil {
		return "", fmt.Errorf("building chunk pipeline: %w", err)
	}

	doc := &domain.Document{ID: docID, Owner: owner, Title: title, Content: content}
	chunks, err := pipeline.Process(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("chunking document %s: %w", docID, err)
	}

	for i := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunks[i].Content)
		if err != nil {
			return "", fmt.Errorf("embedding chunk %d of document %s: %w", i, docID, err)
		}
		chunks[i].Embedding = embedding
		if err := s.store.InsertChunk(ctx, chunks[i]); err != nil {
			return "", fmt.Errorf("storing chunk %d of document %s: %w", i, docID, err)
		}
	}

	logger.Info("ingested document %s: %d chunks", docID, len(chunks))
	return docID, nil
}

// IngestMarkdown stores markdown content. A missing title falls back to
// the source file's base name; relative image references are recorded
// in a trailer so they can be resolved later.
func (s *IngestService) IngestMarkdown(ctx context.Context, owner, title, markdown, sourcePath string) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = titleFromSourcePath(sourcePath)
	}
	enriched := inline.RefsTrailer(markdown, sourcePath)
	return s.Ingest(ctx, owner, title, enriched)
}

// IngestMarkdownWithImages stores markdown with its images' recognised
// text inlined next to each reference. The enriched text is what gets
// persisted and chunked.
func (s *IngestService) IngestMarkdownWithImages(ctx context.Context, owner, title, markdown string, images map[string][]byte) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = defaultMarkdownTitle
	}
	enriched := markdown
	if s.inliner != nil {
		enriched = s.inliner.Enrich(ctx, markdown, images)
	}
	return s.Ingest(ctx, owner, title, enriched)
}

// buildPipeline assembles the post-processing pipeline from registered
// processors, reading the current settings so a config reload takes
// effect on the next ingest.
func (s *IngestService) buildPipeline() (*postprocessors.Pipeline, error) {
	cfg := s.settings.Retrieval()
	processor, err := s.registry.Build("chunker", map[string]any{
		"chunk_size": cfg.ChunkSize,
		"overlap":    cfg.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	return postprocessors.NewPipeline(processor), nil
}

// titleFromSourcePath derives a title from the file name, stripping the
// extension.
func titleFromSourcePath(sourcePath string) string {
	base := filepath.Base(strings.TrimSpace(sourcePath))
	if base == "." || base == "/" || base == "" {
		return defaultMarkdownTitle
	}
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if strings.TrimSpace(base) == "" {
		return defaultMarkdownTitle
	}
	return base
}
