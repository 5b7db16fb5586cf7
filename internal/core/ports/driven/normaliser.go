package driven

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// Normaliser cleans imported or transcribed text before it is versioned.
// Each normaliser handles specific MIME types (e.g., text/plain, text/markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise turns raw bytes into clean text and a title.
	Normalise(ctx context.Context, raw *domain.RawText) (*domain.NormalisedText, error)
}

// NormaliserRegistry selects the appropriate normaliser for raw text.
// It maintains a priority-ordered list of normalisers and dispatches
// based on MIME type.
type NormaliserRegistry interface {
	// Normalise transforms raw text using the best matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawText) (*domain.NormalisedText, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
