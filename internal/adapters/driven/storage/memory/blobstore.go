package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

type blob struct {
	id       string
	data     []byte
	mimeType string
	modified time.Time
}

// BlobStore is an in-memory implementation of driven.BlobStore.
type BlobStore struct {
	mu      sync.RWMutex
	folders map[driven.Folder]map[string]blob
	seq     int
	now     func() time.Time
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		folders: make(map[driven.Folder]map[string]blob),
		now:     time.Now,
	}
}

// Put creates or replaces a blob. Replacing keeps the original ID.
func (s *BlobStore) Put(_ context.Context, folder driven.Folder, name string, data []byte, mimeType string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty blob name: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blobs, ok := s.folders[folder]
	if !ok {
		blobs = make(map[string]blob)
		s.folders[folder] = blobs
	}

	id := ""
	if existing, ok := blobs[name]; ok {
		id = existing.id
	} else {
		s.seq++
		id = fmt.Sprintf("mem-%d", s.seq)
	}

	blobs[name] = blob{
		id:       id,
		data:     append([]byte(nil), data...),
		mimeType: mimeType,
		modified: s.now(),
	}
	return id, nil
}

// Get returns a copy of the blob content.
func (s *BlobStore) Get(_ context.Context, folder driven.Folder, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.folders[folder][name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", folder, name, domain.ErrNotFound)
	}
	return append([]byte(nil), b.data...), nil
}

// Stat returns blob metadata.
func (s *BlobStore) Stat(_ context.Context, folder driven.Folder, name string) (*domain.BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.folders[folder][name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", folder, name, domain.ErrNotFound)
	}
	info := b.info(name)
	return &info, nil
}

// List returns blobs whose names start with prefix, sorted by name.
func (s *BlobStore) List(_ context.Context, folder driven.Folder, prefix string) ([]domain.BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.BlobInfo, 0, len(s.folders[folder]))
	for name, b := range s.folders[folder] {
		if strings.HasPrefix(name, prefix) {
			infos = append(infos, b.info(name))
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a blob if present.
func (s *BlobStore) Delete(_ context.Context, folder driven.Folder, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.folders[folder], name)
	return nil
}

func (b blob) info(name string) domain.BlobInfo {
	return domain.BlobInfo{
		ID:         b.id,
		Name:       name,
		Size:       int64(len(b.data)),
		MimeType:   b.mimeType,
		ModifiedAt: b.modified,
	}
}
