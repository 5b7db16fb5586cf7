package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.TokenStore = (*FileTokenStore)(nil)

// TokenFileName is the token file inside the config directory.
const TokenFileName = "drive_token.json"

// FileTokenStore keeps the token as JSON in a file readable only by the owner.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a token store in dir.
// If dir is empty, defaults to ~/.quill.
func NewFileTokenStore(dir string) (*FileTokenStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".quill")
	}
	return &FileTokenStore{path: filepath.Join(dir, TokenFileName)}, nil
}

// Path returns the token file path.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load reads the saved token.
func (s *FileTokenStore) Load() (*domain.OAuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no drive token at %s: %w", s.path, domain.ErrAuthRequired)
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var tok domain.OAuthToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing token %s: %w", s.path, domain.ErrAuthRequired)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("empty token at %s: %w", s.path, domain.ErrAuthRequired)
	}
	return &tok, nil
}

// Save writes the token atomically with 0600 permissions.
func (s *FileTokenStore) Save(tok *domain.OAuthToken) error {
	if tok == nil {
		return fmt.Errorf("nil token: %w", domain.ErrInvalidInput)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing token: %w", err)
	}
	return nil
}

// Clear deletes the token file. A missing file is not an error.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}
