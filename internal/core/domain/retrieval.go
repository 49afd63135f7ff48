package domain

import "strings"

// Search strategies for the retriever.
const (
	// StrategyPlain returns the top-k nearest chunks by vector distance.
	StrategyPlain = "plain"

	// StrategyMMR re-ranks a larger candidate pool with Maximal Marginal
	// Relevance, trading relevance against redundancy.
	StrategyMMR = "mmr"
)

// ChunkCandidate is a raw nearest-neighbour hit produced per query.
// Embedding is only populated by the candidate query used for MMR.
type ChunkCandidate struct {
	// DocID is the parent document of the matched chunk.
	DocID string

	// Content is the chunk text.
	Content string

	// Embedding is the chunk's stored vector, when requested.
	Embedding []float32

	// Distance is the raw vector distance to the query embedding.
	Distance float64
}

// ChunkMatch is a scored retrieval result returned to callers.
type ChunkMatch struct {
	// DocID is the parent document of the matched chunk.
	DocID string

	// Content is the chunk text.
	Content string

	// Score is the similarity derived from distance as 1/(1+distance).
	// It is strictly decreasing in distance and always in (0, 1].
	Score float64
}

// Default retrieval settings.
const (
	DefaultVectorSize             = 256
	DefaultTopK                   = 5
	DefaultChunkSize              = 800
	DefaultChunkOverlap           = 100
	DefaultMinScore               = 0.2
	DefaultMMRLambda              = 0.7
	DefaultMMRCandidateMultiplier = 4

	// MinVectorSize is the smallest usable embedding size. Smaller
	// configured values are raised to this floor.
	MinVectorSize = 8
)

// RetrievalSettings is the process-wide retrieval configuration.
// It is read at call time and never mutated by the engine; the
// configuration adapter may replace it wholesale on hot reload.
type RetrievalSettings struct {
	// VectorSize is the embedding length. Changing it invalidates all
	// previously stored vectors.
	VectorSize int

	// TopK is the default number of matches when the caller does not
	// request a count.
	TopK int

	// ChunkSize is the chunk window size in runes.
	ChunkSize int

	// ChunkOverlap is the number of runes shared between adjacent chunks.
	ChunkOverlap int

	// Strategy selects plain top-k or MMR re-ranking.
	Strategy string

	// MinScore discards matches scoring below it. Zero disables the gate.
	MinScore float64

	// MMRLambda balances relevance (1.0) against diversity (0.0).
	MMRLambda float64

	// MMRCandidateMultiplier sizes the MMR candidate pool as a multiple
	// of the requested top-k.
	MMRCandidateMultiplier int
}

// DefaultRetrievalSettings returns the stock configuration.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		VectorSize:             DefaultVectorSize,
		TopK:                   DefaultTopK,
		ChunkSize:              DefaultChunkSize,
		ChunkOverlap:           DefaultChunkOverlap,
		Strategy:               StrategyMMR,
		MinScore:               DefaultMinScore,
		MMRLambda:              DefaultMMRLambda,
		MMRCandidateMultiplier: DefaultMMRCandidateMultiplier,
	}
}

// Normalize clamps every field into its valid range and returns the
// result. Unknown strategies fall back to plain top-k.
func (s RetrievalSettings) Normalize() RetrievalSettings {
	if s.VectorSize < MinVectorSize {
		s.VectorSize = MinVectorSize
	}
	if s.TopK < 1 {
		s.TopK = DefaultTopK
	}
	if s.ChunkSize < 1 {
		s.ChunkSize = DefaultChunkSize
	}
	if s.ChunkOverlap < 0 {
		s.ChunkOverlap = 0
	}
	if s.ChunkOverlap >= s.ChunkSize {
		s.ChunkOverlap = s.ChunkSize / 4
	}
	switch strings.ToLower(strings.TrimSpace(s.Strategy)) {
	case StrategyPlain:
		s.Strategy = StrategyPlain
	case StrategyMMR:
		s.Strategy = StrategyMMR
	default:
		s.Strategy = StrategyPlain
	}
	if s.MinScore < 0 {
		s.MinScore = 0
	}
	if s.MMRLambda < 0 {
		s.MMRLambda = 0
	}
	if s.MMRLambda > 1 {
		s.MMRLambda = 1
	}
	if s.MMRCandidateMultiplier < 1 {
		s.MMRCandidateMultiplier = 1
	}
	return s
}
