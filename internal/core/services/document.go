package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/logger"
)

// DocumentService lists and deletes an owner's documents.
type DocumentService struct {
	store driven.Store
}

// NewDocumentService creates a document management service.
func NewDocumentService(store driven.Store) *DocumentService {
	return &DocumentService{store: store}
}

// List returns one page of the owner's documents, newest first.
// Page and size are floored at 1.
func (s *DocumentService) List(ctx context.Context, owner string, page, size int) (*domain.DocumentPage, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	total, err := s.store.CountDocuments(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	summaries, err := s.store.ListDocuments(ctx, owner, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	totalPages := int(total) / size
	if int(total)%size != 0 {
		totalPages++
	}
	return &domain.DocumentPage{
		Documents:  summaries,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}, nil
}

// Delete soft-deletes a document and removes its chunks. Returns false
// when the owner has no live document with that id.
func (s *DocumentService) Delete(ctx context.Context, owner, docID string) (bool, error) {
	if strings.TrimSpace(owner) == "" {
		return false, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(docID) == "" {
		return false, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	deleted, err := s.store.SoftDeleteDocument(ctx, owner, docID)
	if err != nil {
		return false, fmt.Errorf("deleting document %s: %w", docID, err)
	}
	if deleted {
		logger.Info("deleted document %s", docID)
	}
	return deleted, nil
}
