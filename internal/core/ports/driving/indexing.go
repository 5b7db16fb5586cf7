package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// Indexer chunks document text into shards.
type Indexer interface {
	// IndexVersion chunks text and upserts it with the version metadata.
	IndexVersion(ctx context.Context, docID, text string, meta domain.Meta) (*domain.UpsertResult, error)

	// SaveAndIndex saves text as a new version and then indexes it.
	SaveAndIndex(ctx context.Context, docID, text string, meta domain.Meta) (*domain.ManifestRef, *domain.UpsertResult, error)
}
