package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
)

func TestAuthService_StartFlow(t *testing.T) {
	client := &mockOAuthClient{}
	svc := NewAuthService(client, &memoryTokenStore{})

	flow, err := svc.StartFlow(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, flow.RedirectPort, callbackPortStart)
	assert.LessOrEqual(t, flow.RedirectPort, callbackPortEnd)
	assert.Equal(t, flow.RedirectURI, client.redirectURI)
	assert.True(t, strings.HasPrefix(flow.RedirectURI, "http://localhost:"))
	assert.True(t, strings.HasSuffix(flow.RedirectURI, "/callback"))
	assert.Contains(t, flow.AuthURL, flow.State)
	assert.Equal(t, codeChallenge(flow.CodeVerifier), client.challenge)
}

func TestAuthService_StartFlow_NotConfigured(t *testing.T) {
	svc := NewAuthService(nil, &memoryTokenStore{})

	_, err := svc.StartFlow(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestAuthService_CompleteFlow(t *testing.T) {
	client := &mockOAuthClient{}
	tokens := &memoryTokenStore{}
	svc := NewAuthService(client, tokens)
	ctx := context.Background()

	_, err := svc.Status()
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	flow, err := svc.StartFlow(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteFlow(ctx, flow, "the-code"))

	assert.Equal(t, "the-code", client.code)
	assert.Equal(t, flow.CodeVerifier, client.verifier)

	token, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)

	require.NoError(t, svc.Disconnect())
	_, err = svc.Status()
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestAuthService_CompleteFlow_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewAuthService(&mockOAuthClient{}, &memoryTokenStore{})
	assert.ErrorIs(t, svc.CompleteFlow(ctx, nil, "code"), domain.ErrInvalidInput)

	started, err := svc.StartFlow(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.CompleteFlow(ctx, started, ""), domain.ErrInvalidInput)

	failing := NewAuthService(&mockOAuthClient{err: assert.AnError}, &memoryTokenStore{})
	assert.ErrorIs(t, failing.CompleteFlow(ctx, started, "code"), assert.AnError)

	saveFails := NewAuthService(&mockOAuthClient{}, &memoryTokenStore{saveErr: assert.AnError})
	assert.ErrorIs(t, saveFails.CompleteFlow(ctx, started, "code"), assert.AnError)

	assert.ErrorIs(t, NewAuthService(nil, &memoryTokenStore{}).CompleteFlow(ctx, started, "code"), domain.ErrAuthRequired)
}
