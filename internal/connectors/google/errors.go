package google

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// Google API errors without a domain equivalent.
var (
	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrQuotaExceeded indicates the daily API quota was exceeded.
	ErrQuotaExceeded = errors.New("google: quota exceeded")
)

// IsRateLimited returns true if the error indicates rate limiting.
// Drive reports per-user rate limits as 403 with reason userRateLimitExceeded.
func IsRateLimited(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	return gerr.Code == http.StatusForbidden && hasReason(gerr, "userRateLimitExceeded", "rateLimitExceeded")
}

// RetryAfter returns the Retry-After header of a rate-limit error in seconds, or 0.
func RetryAfter(err error) int {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	n, _ := strconv.Atoi(gerr.Header.Get("Retry-After"))
	return n
}

// WrapError converts a Google API error to a domain error, keeping the
// original message.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case gerr.Code == http.StatusForbidden && hasReason(gerr, "dailyLimitExceeded", "quotaExceeded"):
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return err
	}
}

func hasReason(gerr *googleapi.Error, reasons ...string) bool {
	for _, item := range gerr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}
