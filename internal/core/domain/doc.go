// Package domain holds the core types of Quill: document manifests and their
// versions, vector shards and their entries, and retrieval results.
//
// Types here have no dependencies outside the standard library.
//
// Key types:
//   - Manifest, Version: append-only document history
//   - Shard, Entry: persisted vector index and its chunks
//   - ScoredChunk: search hit with provenance
//   - AppSettings: resolved configuration
package domain
