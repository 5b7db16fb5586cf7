package domain

import "time"

// BlobInfo describes a stored blob without its content.
type BlobInfo struct {
	// ID is the store-specific identifier (Drive file ID, SQLite row key).
	ID string

	// Name is the blob name, unique within its folder.
	Name string

	// Size is the content length in bytes.
	Size int64

	// MimeType is the declared content type.
	MimeType string

	// ModifiedAt is the last write time.
	ModifiedAt time.Time
}

// OAuthToken holds the credentials used to reach a remote blob store.
type OAuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// IsExpired returns true if the token has expired.
// A zero Expiry never expires.
func (t *OAuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// CanRefresh returns true if a refresh token is available.
func (t *OAuthToken) CanRefresh() bool {
	return t.RefreshToken != ""
}
