package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// OAuthFlowState holds the state for an OAuth flow in progress.
// Used by the CLI to run the loopback callback server.
type OAuthFlowState struct {
	// AuthURL is the URL to open in the browser for user authorization.
	AuthURL string

	// CodeVerifier is the PKCE code verifier for token exchange.
	CodeVerifier string

	// State is the OAuth state parameter for CSRF protection.
	State string

	// RedirectURI is the local callback URL for the OAuth flow.
	RedirectURI string

	// RedirectPort is the port the callback server must listen on.
	RedirectPort int
}

// DriveAuth connects quill to a Google Drive account.
type DriveAuth interface {
	// StartFlow prepares an authorization request.
	StartFlow(ctx context.Context) (*OAuthFlowState, error)

	// CompleteFlow exchanges the callback code and stores the token.
	CompleteFlow(ctx context.Context, flow *OAuthFlowState, code string) error

	// Status returns the stored token, or domain.ErrAuthRequired.
	Status() (*domain.OAuthToken, error)

	// Disconnect removes the stored token.
	Disconnect() error
}
