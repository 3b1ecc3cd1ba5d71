// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - LLMService: Generates answers, summaries, and field extractions
//   - DocumentStore: Ingested document persistence
//   - PromptStore: Prompt template access
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CacheStore: Result caching. Without it, every operation recomputes.
//   - IndexStore: Vector index persistence. Without it, every load re-embeds.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
