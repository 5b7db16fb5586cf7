package google

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/quill/internal/core/domain"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorised", &googleapi.Error{Code: http.StatusUnauthorized}, domain.ErrAuthRequired},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, domain.ErrNotFound},
		{"too many requests", &googleapi.Error{Code: http.StatusTooManyRequests}, domain.ErrRateLimited},
		{"user rate limit", &googleapi.Error{
			Code:   http.StatusForbidden,
			Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}},
		}, domain.ErrRateLimited},
		{"daily quota", &googleapi.Error{
			Code:   http.StatusForbidden,
			Errors: []googleapi.ErrorItem{{Reason: "dailyLimitExceeded"}},
		}, ErrQuotaExceeded},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, WrapError(tt.err), tt.want)
		})
	}
}

func TestWrapError_PassThrough(t *testing.T) {
	assert.NoError(t, WrapError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, WrapError(plain))

	server := &googleapi.Error{Code: http.StatusInternalServerError}
	assert.Equal(t, server, WrapError(server))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, IsRateLimited(domain.ErrRateLimited))
	assert.False(t, IsRateLimited(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, IsRateLimited(errors.New("other")))
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	assert.Equal(t, 7, RetryAfter(&googleapi.Error{Code: http.StatusTooManyRequests, Header: h}))
	assert.Equal(t, 0, RetryAfter(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.Equal(t, 0, RetryAfter(errors.New("plain")))
}
