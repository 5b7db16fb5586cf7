// Package google provides shared infrastructure for the Google Drive blob store.
//
// It contains:
//   - OAuthClient: authorization code flow with PKCE against Google's endpoints
//   - A TokenSource that refreshes the stored token and persists the refresh
//   - Service factory for the Drive API client
//   - Error mapping from googleapi codes to domain errors (401, 403, 404, 429)
//   - Rate limiting to respect Drive API quotas
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, client, tokenStore)
//	svc, err := google.NewDriveService(ctx, ts)
//	store := drive.NewBlobStore(svc, "Agente_Livro")
//
// # OAuth2 Scopes
//
// Only https://www.googleapis.com/auth/drive.file is requested: quill sees the
// folders and files it created and nothing else.
package google
