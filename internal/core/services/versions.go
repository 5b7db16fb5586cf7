package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/naming"
)

// Ensure VersionService implements the interface.
var _ driving.VersionRepository = (*VersionService)(nil)

const (
	mimeJSON = "application/json"
	mimeText = "text/plain"
)

// VersionService stores document manifests and version blobs in a BlobStore.
// Appends to the same document are serialised within the process; across
// processes the last manifest write wins.
type VersionService struct {
	store driven.BlobStore
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewVersionService creates a new version repository.
func NewVersionService(store driven.BlobStore) *VersionService {
	return &VersionService{
		store: store,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// Create writes a new manifest for docID.
func (s *VersionService) Create(
	ctx context.Context, docID, initialText string, meta domain.Meta,
) (*domain.ManifestRef, error) {
	if err := validateDocID(docID); err != nil {
		return nil, err
	}

	unlock := s.lock(docID)
	defer unlock()

	_, err := s.store.Stat(ctx, driven.FolderVersions, naming.ManifestName(docID))
	switch {
	case err == nil:
		return nil, fmt.Errorf("manifest %s: %w", docID, domain.ErrAlreadyExists)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("stat manifest %s: %w", docID, err)
	}

	now := s.now().Unix()
	manifest := &domain.Manifest{ID: docID, CreatedAt: now, Versions: []domain.Version{}}

	var version *domain.Version
	if initialText != "" {
		version = s.newVersion(manifest, initialText, meta, now)
	}

	logger.Debug("Creating manifest %s with %d version(s)", docID, len(manifest.Versions))
	return s.write(ctx, manifest, version)
}

// Get reads the manifest for docID.
func (s *VersionService) Get(ctx context.Context, docID string) (*domain.Manifest, error) {
	if err := validateDocID(docID); err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, driven.FolderVersions, naming.ManifestName(docID))
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", docID, err)
	}
	return decodeManifest(docID, data)
}

// Append adds a version to an existing manifest.
func (s *VersionService) Append(
	ctx context.Context, docID, text string, meta domain.Meta,
) (*domain.ManifestRef, error) {
	if err := validateDocID(docID); err != nil {
		return nil, err
	}

	unlock := s.lock(docID)
	defer unlock()

	return s.appendLocked(ctx, docID, text, meta)
}

// Save creates the manifest if it does not exist, otherwise appends.
func (s *VersionService) Save(
	ctx context.Context, docID, text string, meta domain.Meta,
) (*domain.ManifestRef, error) {
	ref, err := s.Append(ctx, docID, text, meta)
	if !errors.Is(err, domain.ErrNotFound) {
		return ref, err
	}

	logger.Debug("No manifest for %s, creating", docID)
	ref, err = s.Create(ctx, docID, text, meta)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Created concurrently between the two calls.
		return s.Append(ctx, docID, text, meta)
	}
	return ref, err
}

// ListVersionBlobs returns the version blob names of docID in chronological order.
func (s *VersionService) ListVersionBlobs(ctx context.Context, docID string) ([]string, error) {
	if err := validateDocID(docID); err != nil {
		return nil, err
	}

	infos, err := s.store.List(ctx, driven.FolderVersions, naming.VersionBlobPrefix(docID))
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", docID, err)
	}

	slug := naming.Slugify(docID)
	type indexed struct {
		name  string
		index int
	}
	found := make([]indexed, 0, len(infos))
	for _, info := range infos {
		key, ok := naming.ParseVersionBlobName(info.Name)
		if !ok || key.DocID != slug {
			continue
		}
		found = append(found, indexed{name: info.Name, index: key.Index})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].index != found[j].index {
			return found[i].index < found[j].index
		}
		return found[i].name < found[j].name
	})

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names, nil
}

// ReadVersionBlob returns the text of one version blob.
func (s *VersionService) ReadVersionBlob(ctx context.Context, key domain.VersionKey) (string, error) {
	name := naming.VersionBlobName(key)
	data, err := s.store.Get(ctx, driven.FolderVersions, name)
	if err != nil {
		return "", fmt.Errorf("read version blob %s: %w", name, err)
	}
	return string(data), nil
}

// ListDocuments returns all document identifiers, sorted.
func (s *VersionService) ListDocuments(ctx context.Context) ([]string, error) {
	infos, err := s.store.List(ctx, driven.FolderVersions, "")
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		if id, ok := naming.DocIDFromManifest(info.Name); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *VersionService) appendLocked(
	ctx context.Context, docID, text string, meta domain.Meta,
) (*domain.ManifestRef, error) {
	manifest, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	version := s.newVersion(manifest, text, meta, s.now().Unix())
	logger.Debug("Appending %s to %s", version.Meta.String(domain.MetaVersionTag), docID)
	return s.write(ctx, manifest, version)
}

// newVersion appends a version to manifest and returns it.
// The index always comes from the version count, never from caller metadata.
func (s *VersionService) newVersion(
	manifest *domain.Manifest, text string, meta domain.Meta, ts int64,
) *domain.Version {
	index := manifest.NextIndex()
	m := meta.Clone()
	m[domain.MetaVersionIndex] = index
	m[domain.MetaVersionTag] = domain.VersionTag(manifest.ID, index)

	manifest.Versions = append(manifest.Versions, domain.Version{TS: ts, Text: text, Meta: m})
	return &manifest.Versions[len(manifest.Versions)-1]
}

// write overwrites the manifest and, if version is set, writes its blob.
func (s *VersionService) write(
	ctx context.Context, manifest *domain.Manifest, version *domain.Version,
) (*domain.ManifestRef, error) {
	data, err := encodeManifest(manifest)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Put(ctx, driven.FolderVersions, naming.ManifestName(manifest.ID), data, mimeJSON)
	if err != nil {
		return nil, fmt.Errorf("write manifest %s: %w", manifest.ID, err)
	}

	ref := &domain.ManifestRef{DocID: manifest.ID, BlobID: id, VersionCount: len(manifest.Versions)}
	if version == nil {
		return ref, nil
	}

	index, _ := version.Meta.Int(domain.MetaVersionIndex)
	name := naming.VersionBlobName(domain.VersionKey{
		DocID:  manifest.ID,
		Source: version.Meta.Source(),
		Index:  index,
	})
	if _, err := s.store.Put(ctx, driven.FolderVersions, name, []byte(version.Text), mimeText); err != nil {
		return nil, fmt.Errorf("write version blob %s: %w", name, err)
	}
	ref.VersionBlob = name
	return ref, nil
}

func (s *VersionService) lock(docID string) func() {
	s.mu.Lock()
	l, ok := s.locks[docID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[docID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func encodeManifest(m *domain.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest %s: %w", m.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeManifest(docID string, data []byte) (*domain.Manifest, error) {
	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w: %w", docID, domain.ErrCorruptArtifact, err)
	}
	if m.ID == "" {
		m.ID = docID
	}
	if m.Versions == nil {
		m.Versions = []domain.Version{}
	}
	return &m, nil
}

func validateDocID(docID string) error {
	if strings.TrimSpace(docID) == "" {
		return fmt.Errorf("document id is empty: %w", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(docID, "/\\") {
		return fmt.Errorf("document id %q contains a path separator: %w", docID, domain.ErrInvalidInput)
	}
	return nil
}
