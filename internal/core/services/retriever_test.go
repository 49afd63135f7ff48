package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
)

func plainSettings() driven.StaticSettings {
	cfg := domain.DefaultRetrievalSettings()
	cfg.Strategy = domain.StrategyPlain
	return driven.StaticSettings{Settings: cfg}
}

func mmrSettings() driven.StaticSettings {
	return driven.StaticSettings{Settings: domain.DefaultRetrievalSettings()}
}

func TestSearch_ValidatesInput(t *testing.T) {
	svc := NewRetrievalService(newMockStore(), &mockEmbedder{vector: []float32{1}}, plainSettings())

	_, err := svc.Search(context.Background(), "  ", "query", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Search(context.Background(), "user-1", "   ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_EmbeddingFailurePropagates(t *testing.T) {
	svc := NewRetrievalService(newMockStore(), &mockEmbedder{err: errors.New("model offline")}, plainSettings())
	_, err := svc.Search(context.Background(), "user-1", "query", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestSearch_PlainScoresAndGates(t *testing.T) {
	store := newMockStore()
	store.topK = []domain.ChunkCandidate{
		{DocID: "d1", Content: "near", Distance: 0.0},
		{DocID: "d2", Content: "mid", Distance: 1.0},
		{DocID: "d3", Content: "far", Distance: 19.0},
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1, 0}}, plainSettings())

	matches, err := svc.Search(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	require.Len(t, matches, 2, "score 0.05 falls below the 0.2 threshold")
	assert.Equal(t, 1.0, matches[0].Score)
	assert.InDelta(t, 0.5, matches[1].Score, 1e-9)
}

func TestSearch_MinScoreZeroKeepsEverything(t *testing.T) {
	store := newMockStore()
	store.topK = []domain.ChunkCandidate{{DocID: "d1", Content: "far", Distance: 99.0}}
	cfg := domain.DefaultRetrievalSettings()
	cfg.Strategy = domain.StrategyPlain
	cfg.MinScore = 0
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1}}, driven.StaticSettings{Settings: cfg})

	matches, err := svc.Search(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// A relevant chunk with zero lexical overlap with the query must still
// be returned when its vector score clears the threshold.
func TestBuildContext_VectorHitWithoutLexicalOverlap(t *testing.T) {
	store := newMockStore()
	store.topK = []domain.ChunkCandidate{
		{DocID: "d1", Content: "Streams are lazily evaluated pipelines.", Distance: 0.8181818181818181},
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1, 0}}, plainSettings())

	matches, err := svc.Search(context.Background(), "user-1", "совершенно другой запрос", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.55, matches[0].Score, 1e-9)

	got, err := svc.BuildContext(context.Background(), "user-1", "совершенно другой запрос", 5)
	require.NoError(t, err)
	assert.Contains(t, got, "Streams are lazily evaluated pipelines.")
}

// A sole match far below the threshold yields an empty context when the
// fallback chain finds nothing either.
func TestBuildContext_LowScoreAndEmptyFallback(t *testing.T) {
	store := newMockStore()
	store.topK = []domain.ChunkCandidate{{DocID: "d1", Content: "noise", Distance: 19.0}}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1}}, plainSettings())

	got, err := svc.BuildContext(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Empty vector results fall through to chunk keyword search; its rows
// become the context verbatim.
func TestBuildContext_ChunkKeywordFallback(t *testing.T) {
	store := newMockStore()
	store.chunkKeywordRows["流和集合的差异"] = []string{"流和集合的差异"}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1}}, plainSettings())

	got, err := svc.BuildContext(context.Background(), "user-1", "流和集合的差异", 5)
	require.NoError(t, err)
	assert.Equal(t, "流和集合的差异", got)
}

func TestBuildContext_FallbackOrder(t *testing.T) {
	store := newMockStore()
	store.recentDocs = []string{"oldest resort"}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1}}, plainSettings())

	got, err := svc.BuildContext(context.Background(), "user-1", "nothingmatches", 5)
	require.NoError(t, err)
	assert.Equal(t, "oldest resort", got)

	var steps []string
	for _, call := range store.callOrder {
		if call == "SearchTopK" || call == "SearchChunksByKeyword" ||
			call == "SearchDocumentsByKeyword" || call == "ListRecentChunks" ||
			call == "ListRecentDocuments" {
			if len(steps) == 0 || steps[len(steps)-1] != call {
				steps = append(steps, call)
			}
		}
	}
	assert.Equal(t, []string{
		"SearchTopK",
		"SearchChunksByKeyword",
		"SearchDocumentsByKeyword",
		"ListRecentChunks",
		"ListRecentDocuments",
	}, steps)
}

func TestBuildContext_JoinsWithBlankLineKeepingDuplicates(t *testing.T) {
	store := newMockStore()
	store.topK = []domain.ChunkCandidate{
		{DocID: "d1", Content: "same text", Distance: 0.1},
		{DocID: "d2", Content: "same text", Distance: 0.2},
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1}}, plainSettings())

	got, err := svc.BuildContext(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	assert.Equal(t, "same text\n\nsame text", got)
}

func TestSearch_MMRSelectsDiverseResults(t *testing.T) {
	store := newMockStore()
	store.candidates = []domain.ChunkCandidate{
		{DocID: "d1", Content: "a", Embedding: []float32{1, 0}, Distance: 0.1},
		{DocID: "d2", Content: "a-twin", Embedding: []float32{1, 0}, Distance: 0.15},
		{DocID: "d3", Content: "b", Embedding: []float32{0, 1}, Distance: 0.5},
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1, 0}}, mmrSettings())

	matches, err := svc.Search(context.Background(), "user-1", "query", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Content, "highest relevance goes first")
	assert.Equal(t, "b", matches[1].Content, "the orthogonal chunk beats the near-duplicate")
}

func TestSearch_MMRNeverRepeatsOrExceedsTopK(t *testing.T) {
	store := newMockStore()
	for i := 0; i < 10; i++ {
		store.candidates = append(store.candidates, domain.ChunkCandidate{
			DocID:     "d",
			Content:   string(rune('a' + i)),
			Embedding: []float32{float32(i + 1), 1},
			Distance:  float64(i) * 0.1,
		})
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1, 0}}, mmrSettings())

	matches, err := svc.Search(context.Background(), "user-1", "query", 3)
	require.NoError(t, err)
	require.LessOrEqual(t, len(matches), 3)
	seen := map[string]bool{}
	for _, m := range matches {
		assert.False(t, seen[m.Content], "candidate selected twice")
		seen[m.Content] = true
	}
}

// When every candidate sits below the threshold, MMR yields nothing and
// the plain path runs; with the same gate it also yields nothing.
func TestSearch_MMREmptyFallsBackToPlain(t *testing.T) {
	store := newMockStore()
	store.candidates = []domain.ChunkCandidate{
		{DocID: "d1", Content: "far", Embedding: []float32{1, 0}, Distance: 50},
	}
	store.topK = []domain.ChunkCandidate{
		{DocID: "d1", Content: "far", Distance: 50},
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1, 0}}, mmrSettings())

	matches, err := svc.Search(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Contains(t, store.callOrder, "SearchCandidates")
	assert.Contains(t, store.callOrder, "SearchTopK")
}

func TestSearch_RepeatedQueriesAreIdempotent(t *testing.T) {
	store := newMockStore()
	store.topK = []domain.ChunkCandidate{
		{DocID: "d1", Content: "stable", Distance: 0.3},
		{DocID: "d2", Content: "result", Distance: 0.4},
	}
	svc := NewRetrievalService(store, &mockEmbedder{vector: []float32{1}}, plainSettings())

	first, err := svc.Search(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "user-1", "query", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDistanceToScore(t *testing.T) {
	assert.Equal(t, 1.0, distanceToScore(0))
	assert.InDelta(t, 0.55, distanceToScore(0.8181818181818181), 1e-9)
	assert.InDelta(t, 0.05, distanceToScore(19), 1e-9)
	assert.Equal(t, 1.0, distanceToScore(-3), "negative distances clamp to zero")
	assert.Greater(t, distanceToScore(1), distanceToScore(2))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}), "length mismatch")
}
