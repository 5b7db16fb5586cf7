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
//   - BlobStore: Named blob persistence (Google Drive or local SQLite)
//   - ShardCodec: Serialises vector shards to and from zip archives
//   - SimilarityIndex: Nearest-neighbour queries over a loaded shard
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the dependent features report an Unavailable error:
//
//   - EmbeddingService: Generates vector embeddings. Without it, indexing and retrieval are disabled.
//   - LLMService: Chat completion. Without it, revision and question answering are disabled.
//   - Transcriber: Speech-to-text. Without it, transcription is disabled.
//   - ShardObserver: Receives shard corruption signals.
//   - PromptStore: User-editable prompt templates. Defaults are used when nil.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
