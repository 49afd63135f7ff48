// Package domain defines the core business entities for Vellum.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An owner-scoped document with its enriched text content
//   - Chunk: A searchable unit within a document, with its embedding
//   - ChunkCandidate / ChunkMatch: Ephemeral retrieval results
//   - RetrievalSettings: The process-wide retrieval configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
