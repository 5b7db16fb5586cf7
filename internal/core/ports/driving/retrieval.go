package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// Retriever answers similarity and MMR queries over shards.
type Retriever interface {
	// Search queries one shard.
	Search(ctx context.Context, shard, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error)

	// SearchShards queries several shards and merges the results by score.
	SearchShards(ctx context.Context, shards []string, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error)

	// SearchGlobal queries the global shard.
	SearchGlobal(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error)

	// SearchDocument queries one document's shard.
	SearchDocument(ctx context.Context, docID, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error)

	// SearchMemory queries the memory shard of a chat.
	SearchMemory(ctx context.Context, chatID, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error)
}
