package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
)

// Ensure AuthService implements the interface.
var _ driving.DriveAuth = (*AuthService)(nil)

// Loopback ports tried for the OAuth redirect.
const (
	callbackPortStart = 18080
	callbackPortEnd   = 18099
)

// AuthService runs the Drive OAuth flow and keeps the resulting token.
type AuthService struct {
	client driven.OAuthClient
	tokens driven.TokenStore
}

// NewAuthService creates a new auth service.
// The client is nil when no Google OAuth app is configured.
func NewAuthService(client driven.OAuthClient, tokens driven.TokenStore) *AuthService {
	return &AuthService{client: client, tokens: tokens}
}

// StartFlow picks a free loopback port and builds a PKCE authorization request.
func (s *AuthService) StartFlow(_ context.Context) (*driving.OAuthFlowState, error) {
	if s.client == nil {
		return nil, fmt.Errorf("google client id/secret not configured: %w", domain.ErrAuthRequired)
	}

	port, err := findCallbackPort(callbackPortStart, callbackPortEnd)
	if err != nil {
		return nil, err
	}
	pkce, err := newPKCE()
	if err != nil {
		return nil, err
	}
	state, err := newState()
	if err != nil {
		return nil, err
	}

	redirectURI := fmt.Sprintf("http://localhost:%d/callback", port)
	logger.Debug("OAuth redirect %s", redirectURI)
	return &driving.OAuthFlowState{
		AuthURL:      s.client.AuthURL(state, pkce.Challenge, redirectURI),
		CodeVerifier: pkce.Verifier,
		State:        state,
		RedirectURI:  redirectURI,
		RedirectPort: port,
	}, nil
}

// CompleteFlow exchanges the code and saves the token.
func (s *AuthService) CompleteFlow(ctx context.Context, flow *driving.OAuthFlowState, code string) error {
	if s.client == nil {
		return fmt.Errorf("google client id/secret not configured: %w", domain.ErrAuthRequired)
	}
	if flow == nil || code == "" {
		return fmt.Errorf("missing flow state or code: %w", domain.ErrInvalidInput)
	}

	token, err := s.client.Exchange(ctx, code, flow.CodeVerifier, flow.RedirectURI)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	if err := s.tokens.Save(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	logger.Info("Google Drive connected")
	return nil
}

// Status returns the stored token.
func (s *AuthService) Status() (*domain.OAuthToken, error) {
	return s.tokens.Load()
}

// Disconnect removes the stored token.
func (s *AuthService) Disconnect() error {
	return s.tokens.Clear()
}
