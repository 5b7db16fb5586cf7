package driven

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// ShardCodec serialises shards to the zip archive format stored in the blob store.
type ShardCodec interface {
	// Encode writes the shard as an archive.
	Encode(shard *domain.Shard) ([]byte, error)

	// Decode reads an archive. Returns domain.ErrCorruptArtifact when the
	// bytes are not a readable shard.
	Decode(name string, data []byte) (*domain.Shard, error)
}

// SimilarityIndex finds the entries of a shard closest to a query vector.
// Backed by chromem-go.
type SimilarityIndex interface {
	// Nearest returns up to n non-placeholder entries ordered by descending
	// cosine similarity.
	Nearest(ctx context.Context, shard *domain.Shard, query []float32, n int) ([]domain.Candidate, error)
}

// ShardObserver receives signals about shard health.
// Implementations may log, count or alert.
type ShardObserver interface {
	// ShardCorrupt is called when a shard blob exists but cannot be decoded
	// and a fresh shard is used in its place.
	ShardCorrupt(name string, err error)
}
