package driven

import "github.com/custodia-labs/quill/internal/core/domain"

// TokenStore persists the OAuth token used by the Drive blob store.
type TokenStore interface {
	// Load returns the saved token. Returns domain.ErrAuthRequired if none is saved.
	Load() (*domain.OAuthToken, error)

	// Save replaces the saved token.
	Save(token *domain.OAuthToken) error

	// Clear removes the saved token.
	Clear() error
}
