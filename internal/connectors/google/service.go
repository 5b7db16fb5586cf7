package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// userAgent identifies quill in Drive API request logs.
const userAgent = "quill"

// NewDriveService creates a Drive API client authorised by ts. Extra
// options (an endpoint for tests, for example) are applied last.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*drive.Service, error) {
	all := append([]option.ClientOption{
		option.WithTokenSource(ts),
		option.WithUserAgent(userAgent),
	}, opts...)

	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}
