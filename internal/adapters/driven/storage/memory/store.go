// Package memory implements the Store port in process memory.
// Intended for tests and ephemeral runs; ordering semantics match the
// SQLite adapter so the two are interchangeable.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
)

// Store keeps documents and chunks in memory, guarded by a single
// RWMutex.
type Store struct {
	mu     sync.RWMutex
	docs   []domain.Document
	chunks []domain.Chunk
}

var _ driven.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// CreateDocument inserts a new document row and returns its id.
func (s *Store) CreateDocument(_ context.Context, owner, title, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	doc := domain.Document{
		ID:        uuid.New().String(),
		Owner:     owner,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.docs = append(s.docs, doc)
	return doc.ID, nil
}

// InsertChunk persists one chunk with its embedding.
func (s *Store) InsertChunk(_ context.Context, chunk domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}
	s.chunks = append(s.chunks, chunk)
	return nil
}

// SearchTopK returns the k nearest chunks without their embeddings.
func (s *Store) SearchTopK(ctx context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error) {
	candidates, err := s.SearchCandidates(ctx, owner, query, k)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Embedding = nil
	}
	return candidates, nil
}

// SearchCandidates returns the k nearest chunks with embeddings.
// Ordering matches the SQLite adapter: Euclidean distance ascending,
// ties keep insertion order.
func (s *Store) SearchCandidates(_ context.Context, owner string, query []float32, k int) ([]domain.ChunkCandidate, error) {
	if k < 1 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []domain.ChunkCandidate
	for _, chunk := range s.chunks {
		if chunk.Owner != owner {
			continue
		}
		candidates = append(candidates, domain.ChunkCandidate{
			DocID:     chunk.DocumentID,
			Content:   chunk.Content,
			Embedding: chunk.Embedding,
			Distance:  euclideanDistance(query, chunk.Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// SearchChunksByKeyword returns chunk contents containing the keyword,
// newest first.
func (s *Store) SearchChunksByKeyword(_ context.Context, owner, keyword string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(keyword)
	var matched []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Owner == owner && strings.Contains(strings.ToLower(chunk.Content), needle) {
			matched = append(matched, chunk)
		}
	}
	sortNewestFirst(matched, func(c domain.Chunk) time.Time { return c.CreatedAt })

	return contentsOf(matched, limit, func(c domain.Chunk) string { return c.Content }), nil
}

// SearchDocumentsByKeyword returns document contents whose title or
// content contains the keyword, most recently updated first.
func (s *Store) SearchDocumentsByKeyword(_ context.Context, owner, keyword string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(keyword)
	var matched []domain.Document
	for _, doc := range s.docs {
		if doc.Owner != owner || doc.Deleted {
			continue
		}
		if strings.Contains(strings.ToLower(doc.Title), needle) ||
			strings.Contains(strings.ToLower(doc.Content), needle) {
			matched = append(matched, doc)
		}
	}
	sortNewestFirst(matched, func(d domain.Document) time.Time { return d.UpdatedAt })

	return contentsOf(matched, limit, func(d domain.Document) string { return d.Content }), nil
}

// ListRecentChunks returns the newest chunk contents.
func (s *Store) ListRecentChunks(_ context.Context, owner string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Owner == owner {
			matched = append(matched, chunk)
		}
	}
	sortNewestFirst(matched, func(c domain.Chunk) time.Time { return c.CreatedAt })

	return contentsOf(matched, limit, func(c domain.Chunk) string { return c.Content }), nil
}

// ListRecentDocuments returns the most recently updated document
// contents.
func (s *Store) ListRecentDocuments(_ context.Context, owner string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Document
	for _, doc := range s.docs {
		if doc.Owner == owner && !doc.Deleted {
			matched = append(matched, doc)
		}
	}
	sortNewestFirst(matched, func(d domain.Document) time.Time { return d.UpdatedAt })

	return contentsOf(matched, limit, func(d domain.Document) string { return d.Content }), nil
}

// ListDocuments returns a page of document summaries, newest first.
func (s *Store) ListDocuments(_ context.Context, owner string, offset, limit int) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var live []domain.Document
	for _, doc := range s.docs {
		if doc.Owner == owner && !doc.Deleted {
			live = append(live, doc)
		}
	}
	sortNewestFirst(live, func(d domain.Document) time.Time { return d.CreatedAt })

	if offset >= len(live) || limit < 1 {
		return nil, nil
	}
	end := offset + limit
	if end > len(live) {
		end = len(live)
	}

	summaries := make([]domain.DocumentSummary, 0, end-offset)
	for _, doc := range live[offset:end] {
		summaries = append(summaries, domain.DocumentSummary{
			ID:        doc.ID,
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return summaries, nil
}

// CountDocuments returns the number of live documents for the owner.
func (s *Store) CountDocuments(_ context.Context, owner string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, doc := range s.docs {
		if doc.Owner == owner && !doc.Deleted {
			count++
		}
	}
	return count, nil
}

// SoftDeleteDocument marks the document deleted and removes its chunks.
func (s *Store) SoftDeleteDocument(_ context.Context, owner, docID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := false
	for i := range s.docs {
		if s.docs[i].Owner == owner && s.docs[i].ID == docID && !s.docs[i].Deleted {
			s.docs[i].Deleted = true
			s.docs[i].UpdatedAt = time.Now().UTC()
			deleted = true
			break
		}
	}
	if !deleted {
		return false, nil
	}

	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if !(chunk.Owner == owner && chunk.DocumentID == docID) {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	return true, nil
}

// sortNewestFirst orders rows by descending timestamp. Equal
// timestamps put the later-inserted row first, matching the SQLite
// adapter's rowid DESC tie-break.
func sortNewestFirst[T any](rows []T, at func(T) time.Time) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		ta, tb := at(rows[a]), at(rows[b])
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return a > b
	})
	sorted := make([]T, len(rows))
	for i, o := range order {
		sorted[i] = rows[o]
	}
	copy(rows, sorted)
}

func contentsOf[T any](rows []T, limit int, content func(T) string) []string {
	if limit < 1 {
		return nil
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, content(row))
	}
	return out
}

func euclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}
