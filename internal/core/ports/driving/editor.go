package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// ReviseOptions configures an LLM revision.
type ReviseOptions struct {
	// Language is the language or norm to follow (default "PT-BR").
	Language string

	// Audience is the target readership.
	Audience string

	// Tone is the desired voice.
	Tone string

	// Notes are free-form remarks for the editor.
	Notes string

	// Instructions are specific editing instructions.
	Instructions string

	// Text overrides the latest version as input when non-empty.
	Text string
}

// Editor revises documents with an LLM and manages canonical versions.
type Editor interface {
	// Revise returns the revised text of the latest version without saving it.
	Revise(ctx context.Context, docID string, opts ReviseOptions) (string, error)

	// ReviseAndSave revises, saves the result as a new version and indexes it.
	ReviseAndSave(ctx context.Context, docID string, opts ReviseOptions) (string, *domain.ManifestRef, error)

	// Promote re-saves an earlier version as the newest one.
	Promote(ctx context.Context, docID string, index int, canonical bool) (*domain.ManifestRef, error)
}
