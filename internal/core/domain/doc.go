// Package domain defines the core business entities for Contracta.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested contract with page-tagged text
//   - Chunk: A retrievable unit within a document
//   - Answer / Citation: A generated answer with source attribution
//   - ConversationTurn: A completed Q&A exchange
//   - FieldSet: The fixed schema of extracted contract fields
//   - CacheEntry: A stored result keyed by owner/document/operation
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
