// Package vector persists and queries vector shards with chromem-go.
//
// A shard blob is a zip archive with two members under shard_index/:
//
//   - index.json: entry order, texts, typed metadata, model and dimensions
//   - vectors.gob: a chromem-go export of the entry embeddings
//
// Integer metadata decodes as int64 and other numbers as float64. chromem
// stores embeddings normalised to unit length, so decoded vectors are the
// normalised form of what was encoded; cosine scores are unaffected.
//
// Archives with the members at the root are read too. Anything unreadable
// decodes to domain.ErrCorruptArtifact so the shard manager can start over.
package vector
