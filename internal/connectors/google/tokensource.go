package google

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/logger"
)

// persistingTokenSource refreshes through oauth2 and saves every new
// access token so the next run does not refresh again.
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store driven.TokenStore

	mu   sync.Mutex
	last string
}

// NewTokenSource creates an oauth2.TokenSource from the stored Drive token.
// The returned TokenSource can be used with option.WithTokenSource() when
// creating Google API services. Returns domain.ErrAuthRequired when nothing
// is stored or the token cannot be refreshed.
func NewTokenSource(ctx context.Context, client *OAuthClient, store driven.TokenStore) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	if tok.IsExpired() && !tok.CanRefresh() {
		return nil, fmt.Errorf("drive token expired and has no refresh token: %w", domain.ErrAuthRequired)
	}

	base := client.config("").TokenSource(ctx, toOAuth2(tok))
	return &persistingTokenSource{
		base:  oauth2.ReuseTokenSource(toOAuth2(tok), base),
		store: store,
		last:  tok.AccessToken,
	}, nil
}

// Token implements oauth2.TokenSource.
func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh drive token: %w: %w", domain.ErrAuthRequired, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(fromOAuth2(tok)); err != nil {
			logger.Warn("Could not persist refreshed Drive token: %v", err)
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}
