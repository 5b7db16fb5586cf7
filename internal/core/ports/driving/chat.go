package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// ChatOptions configures one chat turn.
type ChatOptions struct {
	// MemoryK is the number of memory chunks to retrieve (default 4).
	MemoryK int

	// KnowledgeK is the number of global shard chunks to retrieve (default 6).
	KnowledgeK int
}

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Text string

	// Memory holds the recalled turns, cited as [M#].
	Memory     []domain.ScoredChunk
	MemoryRefs []string

	// Sources holds the manuscript chunks, cited as [A#].
	Sources    []domain.ScoredChunk
	SourceRefs []string

	// Summary is the rolling summary after this turn.
	Summary string
}

// ChatService keeps persistent conversations grounded on the manuscript
// and on each chat's own memory.
type ChatService interface {
	// Create starts a chat and registers it in the chat index.
	Create(ctx context.Context, title string) (*domain.Chat, error)

	// List returns every chat, most recently updated first.
	List(ctx context.Context) ([]domain.Chat, error)

	// Get returns one chat. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, chatID string) (*domain.Chat, error)

	// History returns the turns of a chat in order.
	History(ctx context.Context, chatID string) ([]domain.ChatTurn, error)

	// Summary returns the rolling summary of a chat.
	Summary(ctx context.Context, chatID string) (string, error)

	// Send records a user message, answers it and updates history, summary and memory.
	Send(ctx context.Context, chatID, message string, opts ChatOptions) (*ChatReply, error)
}
