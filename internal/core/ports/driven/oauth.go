package driven

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// OAuthClient performs the provider side of an authorization code flow with PKCE.
type OAuthClient interface {
	// AuthURL returns the consent URL the user opens in a browser.
	AuthURL(state, codeChallenge, redirectURI string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.OAuthToken, error)
}
