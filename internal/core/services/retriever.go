package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vellum-search/vellum/internal/core/domain"
	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/logger"
)

// RetrievalService answers queries over an owner's ingested documents.
// It embeds the query, ranks stored chunks by vector distance (plain
// top-k or MMR re-ranking) and assembles the winners into a context
// blob. When vector search produces nothing usable it walks a keyword
// fallback chain so a reasonable context still comes back for corpora
// the embedder represents poorly.
type RetrievalService struct {
	store    driven.Store
	embedder driven.Embedder
	settings driven.SettingsSource
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(store driven.Store, embedder driven.Embedder, settings driven.SettingsSource) *RetrievalService {
	return &RetrievalService{store: store, embedder: embedder, settings: settings}
}

// Search returns ranked chunk matches for the query. Matches scoring
// below the configured minimum are dropped; an empty result is a valid
// outcome. A topK of zero or less uses the configured default.
func (s *RetrievalService) Search(ctx context.Context, owner, query string, topK int) ([]domain.ChunkMatch, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	cfg := s.settings.Retrieval()
	limit := topK
	if limit <= 0 {
		limit = cfg.TopK
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if cfg.Strategy == domain.StrategyMMR {
		matches, err := s.searchMMR(ctx, owner, queryVector, limit, cfg)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return matches, nil
		}
		logger.Debug("mmr selected nothing, retrying with plain top-k")
	}
	return s.searchPlain(ctx, owner, queryVector, limit, cfg)
}

// BuildContext assembles retrieval results into a single text blob.
// Vector matches above the score threshold are used as-is; otherwise
// the keyword fallback chain runs. An empty string means the whole
// chain came up empty, which is not an error.
func (s *RetrievalService) BuildContext(ctx context.Context, owner, query string, topK int) (string, error) {
	matches, err := s.Search(ctx, owner, query, topK)
	if err != nil {
		return "", err
	}
	if len(matches) > 0 {
		logger.Debug("vector search hit: %d matches", len(matches))
		snippets := make([]string, len(matches))
		for i, m := range matches {
			snippets[i] = m.Content
		}
		return assembleContext(snippets), nil
	}

	cfg := s.settings.Retrieval()
	limit := topK
	if limit <= 0 {
		limit = cfg.TopK
	}
	snippets, err := s.keywordFallback(ctx, owner, query, limit)
	if err != nil {
		return "", err
	}
	if len(snippets) == 0 {
		logger.Debug("vector and keyword fallback both empty for query %q", query)
		return "", nil
	}
	logger.Debug("keyword fallback produced %d snippets", len(snippets))
	return assembleContext(snippets), nil
}

// searchPlain scores the k nearest chunks and applies the minimum-score
// gate.
func (s *RetrievalService) searchPlain(ctx context.Context, owner string, queryVector []float32, limit int, cfg domain.RetrievalSettings) ([]domain.ChunkMatch, error) {
	candidates, err := s.store.SearchTopK(ctx, owner, queryVector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches := make([]domain.ChunkMatch, 0, len(candidates))
	for _, c := range candidates {
		score := distanceToScore(c.Distance)
		if cfg.MinScore > 0 && score < cfg.MinScore {
			continue
		}
		matches = append(matches, domain.ChunkMatch{DocID: c.DocID, Content: c.Content, Score: score})
	}
	return matches, nil
}

// searchMMR re-ranks a widened candidate pool with Maximal Marginal
// Relevance. Candidates below the minimum score never qualify; ties on
// the marginal score go to the earlier, nearer candidate.
func (s *RetrievalService) searchMMR(ctx context.Context, owner string, queryVector []float32, limit int, cfg domain.RetrievalSettings) ([]domain.ChunkMatch, error) {
	poolSize := limit * cfg.MMRCandidateMultiplier
	if poolSize < limit {
		poolSize = limit
	}
	candidates, err := s.store.SearchCandidates(ctx, owner, queryVector, poolSize)
	if err != nil {
		return nil, fmt.Errorf("vector candidate search: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = distanceToScore(c.Distance)
	}

	selected := make([]int, 0, limit)
	picked := make([]bool, len(candidates))
	for len(selected) < limit {
		best := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if picked[i] {
				continue
			}
			if cfg.MinScore > 0 && relevance[i] < cfg.MinScore {
				continue
			}
			redundancy := 0.0
			for _, j := range selected {
				sim := cosineSimilarity(candidates[i].Embedding, candidates[j].Embedding)
				if sim > redundancy {
					redundancy = sim
				}
			}
			marginal := cfg.MMRLambda*relevance[i] - (1-cfg.MMRLambda)*redundancy
			if marginal > bestScore {
				bestScore = marginal
				best = i
			}
		}
		if best < 0 {
			break
		}
		picked[best] = true
		selected = append(selected, best)
	}

	matches := make([]domain.ChunkMatch, 0, len(selected))
	for _, i := range selected {
		matches = append(matches, domain.ChunkMatch{
			DocID:   candidates[i].DocID,
			Content: candidates[i].Content,
			Score:   relevance[i],
		})
	}
	return matches, nil
}

// keywordFallback tries progressively blunter lookups until one yields
// rows: keyword search over chunks, keyword search over documents,
// recent chunks, recent documents. Keyword steps try the trimmed query
// first, then each extracted keyword.
func (s *RetrievalService) keywordFallback(ctx context.Context, owner, query string, limit int) ([]string, error) {
	terms := []string{strings.TrimSpace(query)}
	terms = append(terms, extractKeywords(query)...)

	for _, term := range terms {
		if term == "" {
			continue
		}
		rows, err := s.store.SearchChunksByKeyword(ctx, owner, term, limit)
		if err != nil {
			return nil, fmt.Errorf("chunk keyword search: %w", err)
		}
		if len(rows) > 0 {
			logger.Debug("chunk keyword hit for %q", term)
			return rows, nil
		}
	}

	for _, term := range terms {
		if term == "" {
			continue
		}
		rows, err := s.store.SearchDocumentsByKeyword(ctx, owner, term, limit)
		if err != nil {
			return nil, fmt.Errorf("document keyword search: %w", err)
		}
		if len(rows) > 0 {
			logger.Debug("document keyword hit for %q", term)
			return rows, nil
		}
	}

	rows, err := s.store.ListRecentChunks(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("recent chunks: %w", err)
	}
	if len(rows) > 0 {
		return rows, nil
	}

	rows, err = s.store.ListRecentDocuments(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	return rows, nil
}

// assembleContext joins snippets with a blank line, preserving order
// and repetition.
func assembleContext(snippets []string) string {
	return strings.Join(snippets, "\n\n")
}

// distanceToScore maps a non-negative distance onto (0, 1], strictly
// decreasing. Negative distances are treated as zero.
func distanceToScore(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// zero when either has no magnitude or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
