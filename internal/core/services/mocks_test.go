package services

import (
	"context"
	"fmt"

	"github.com/vellum-search/vellum/internal/core/domain"
)

// mockStore is a hand-rolled Store double with per-query canned data
// and call recording.
type mockStore struct {
	createdDocs   []domain.Document
	insertedChunks []domain.Chunk
	callOrder     []string

	docID     string
	createErr error
	insertErr error

	topK       []domain.ChunkCandidate
	topKErr    error
	candidates []domain.ChunkCandidate

	chunkKeywordRows map[string][]string
	docKeywordRows   map[string][]string
	recentChunks     []string
	recentDocs       []string

	summaries []domain.DocumentSummary
	docCount  int64

	deleted   bool
	deleteErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		docID:            "doc-1",
		chunkKeywordRows: map[string][]string{},
		docKeywordRows:   map[string][]string{},
	}
}

func (m *mockStore) CreateDocument(_ context.Context, owner, title, content string) (string, error) {
	m.callOrder = append(m.callOrder, "CreateDocument")
	if m.createErr != nil {
		return "", m.createErr
	}
	m.createdDocs = append(m.createdDocs, domain.Document{ID: m.docID, Owner: owner, Title: title, Content: content})
	return m.docID, nil
}

func (m *mockStore) InsertChunk(_ context.Context, chunk domain.Chunk) error {
	m.callOrder = append(m.callOrder, "InsertChunk")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.insertedChunks = append(m.insertedChunks, chunk)
	return nil
}

func (m *mockStore) SearchTopK(_ context.Context, _ string, _ []float32, k int) ([]domain.ChunkCandidate, error) {
	m.callOrder = append(m.callOrder, "SearchTopK")
	if m.topKErr != nil {
		return nil, m.topKErr
	}
	if k < len(m.topK) {
		return m.topK[:k], nil
	}
	return m.topK, nil
}

func (m *mockStore) SearchCandidates(_ context.Context, _ string, _ []float32, k int) ([]domain.ChunkCandidate, error) {
	m.callOrder = append(m.callOrder, "SearchCandidates")
	if k < len(m.candidates) {
		return m.candidates[:k], nil
	}
	return m.candidates, nil
}

func (m *mockStore) SearchChunksByKeyword(_ context.Context, _ string, keyword string, _ int) ([]string, error) {
	m.callOrder = append(m.callOrder, "SearchChunksByKeyword")
	return m.chunkKeywordRows[keyword], nil
}

func (m *mockStore) SearchDocumentsByKeyword(_ context.Context, _ string, keyword string, _ int) ([]string, error) {
	m.callOrder = append(m.callOrder, "SearchDocumentsByKeyword")
	return m.docKeywordRows[keyword], nil
}

func (m *mockStore) ListRecentChunks(context.Context, string, int) ([]string, error) {
	m.callOrder = append(m.callOrder, "ListRecentChunks")
	return m.recentChunks, nil
}

func (m *mockStore) ListRecentDocuments(context.Context, string, int) ([]string, error) {
	m.callOrder = append(m.callOrder, "ListRecentDocuments")
	return m.recentDocs, nil
}

func (m *mockStore) ListDocuments(_ context.Context, _ string, offset, limit int) ([]domain.DocumentSummary, error) {
	m.callOrder = append(m.callOrder, "ListDocuments")
	if offset >= len(m.summaries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.summaries) {
		end = len(m.summaries)
	}
	return m.summaries[offset:end], nil
}

func (m *mockStore) CountDocuments(context.Context, string) (int64, error) {
	m.callOrder = append(m.callOrder, "CountDocuments")
	return m.docCount, nil
}

func (m *mockStore) SoftDeleteDocument(context.Context, string, string) (bool, error) {
	m.callOrder = append(m.callOrder, "SoftDeleteDocument")
	return m.deleted, m.deleteErr
}

// mockEmbedder returns a fixed vector for every input.
type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(context.Context, string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.vector) }

// mockOCR returns canned text per image name.
type mockOCR struct {
	texts map[string]string
}

func (m *mockOCR) ExtractText(_ context.Context, _ []byte, name, _ string) (string, error) {
	text, ok := m.texts[name]
	if !ok {
		return "", fmt.Errorf("no text for %s", name)
	}
	return text, nil
}
