package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// ShardManager maintains per-document and global vector shards.
type ShardManager interface {
	// LoadOrCreate loads the named shard. A missing or undecodable shard
	// yields a fresh bootstrap shard with existed=false.
	LoadOrCreate(ctx context.Context, name string) (shard *domain.Shard, existed bool, err error)

	// Upsert embeds texts and appends them to the document shard and the global shard.
	// metadatas may be nil or must have one entry per text.
	Upsert(ctx context.Context, docID string, texts []string, metadatas []domain.Meta) (*domain.UpsertResult, error)

	// RebuildGlobal recreates the global shard from every per-document shard.
	RebuildGlobal(ctx context.Context) (*domain.RebuildResult, error)

	// LoadMemory loads the memory shard of a chat, like LoadOrCreate.
	LoadMemory(ctx context.Context, chatID string) (shard *domain.Shard, existed bool, err error)

	// AppendMemory embeds texts and appends them to the memory shard of a chat.
	AppendMemory(ctx context.Context, chatID string, texts []string, metadatas []domain.Meta) (string, error)
}
