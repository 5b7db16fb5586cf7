package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// Answer is a generated response with the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources []domain.ScoredChunk

	// Refs holds one citation per source, e.g. "[A1] chapter-1 • chapter-1_v3".
	Refs []string
}

// Asker answers questions from the indexed documents.
type Asker interface {
	// Ask retrieves context from the global shard and generates an answer.
	Ask(ctx context.Context, question string, opts domain.SearchOptions) (*Answer, error)
}
