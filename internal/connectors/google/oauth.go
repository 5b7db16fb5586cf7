package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.OAuthClient = (*OAuthClient)(nil)

// Google OAuth endpoints.
const (
	authURL = "https://accounts.google.com/o/oauth2/v2/auth"
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	tokenURL = "https://oauth2.googleapis.com/token"
)

// Scopes requested for the Drive blob store.
var Scopes = []string{drive.DriveFileScope}

// OAuthClient runs the Google side of the authorization code flow.
type OAuthClient struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
}

// NewOAuthClient creates a client for the given OAuth app credentials.
func NewOAuthClient(clientID, clientSecret string) *OAuthClient {
	return &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// WithEndpoint overrides the OAuth endpoints.
func (c *OAuthClient) WithEndpoint(endpoint oauth2.Endpoint) *OAuthClient {
	c.endpoint = endpoint
	return c
}

// AuthURL builds the consent URL. Google only issues a refresh token
// with access_type=offline, and prompt=consent makes it issue one again
// on reconnect.
func (c *OAuthClient) AuthURL(state, codeChallenge, redirectURI string) string {
	return c.config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Exchange trades an authorization code for tokens.
func (c *OAuthClient) Exchange(
	ctx context.Context, code, codeVerifier, redirectURI string,
) (*domain.OAuthToken, error) {
	tok, err := c.config(redirectURI).Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return fromOAuth2(tok), nil
}

func (c *OAuthClient) config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint:     c.endpoint,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
	}
}

func fromOAuth2(tok *oauth2.Token) *domain.OAuthToken {
	return &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

func toOAuth2(tok *domain.OAuthToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}
