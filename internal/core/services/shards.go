package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/naming"
)

// Ensure ShardService implements the interface.
var _ driving.ShardManager = (*ShardService)(nil)

const mimeZip = "application/zip"

// ShardService maintains per-document shards and the global shard.
// Shard writes are not locked: one active writer is assumed.
type ShardService struct {
	store    driven.BlobStore
	codec    driven.ShardCodec
	embedder driven.EmbeddingService
	observer driven.ShardObserver
	newID    func() string
	now      func() time.Time
}

// NewShardService creates a new shard manager.
// The embedder is optional; without it Upsert returns ErrEmbeddingUnavailable.
// newID generates entry IDs; nil falls back to a timestamp sequence.
func NewShardService(
	store driven.BlobStore,
	codec driven.ShardCodec,
	embedder driven.EmbeddingService,
	newID func() string,
) *ShardService {
	if newID == nil {
		newID = sequentialIDs()
	}
	return &ShardService{
		store:    store,
		codec:    codec,
		embedder: embedder,
		newID:    newID,
		now:      time.Now,
	}
}

// SetObserver sets the observer notified about corrupt shards.
func (s *ShardService) SetObserver(o driven.ShardObserver) {
	s.observer = o
}

// LoadOrCreate loads the named shard, or returns a fresh bootstrap shard.
func (s *ShardService) LoadOrCreate(ctx context.Context, name string) (*domain.Shard, bool, error) {
	return s.loadOrCreate(ctx, driven.FolderShards, name)
}

// LoadMemory loads the memory shard of a chat, or returns a fresh bootstrap shard.
func (s *ShardService) LoadMemory(ctx context.Context, chatID string) (*domain.Shard, bool, error) {
	if err := validateDocID(chatID); err != nil {
		return nil, false, err
	}
	return s.loadOrCreate(ctx, driven.FolderMemory, naming.MemoryShardName(chatID))
}

func (s *ShardService) loadOrCreate(ctx context.Context, folder driven.Folder, name string) (*domain.Shard, bool, error) {
	data, err := s.store.Get(ctx, folder, name)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Shard %s/%s not found, starting empty", folder, name)
		return domain.NewBootstrapShard(name), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read shard %s: %w", name, err)
	}

	shard, err := s.codec.Decode(name, data)
	if err != nil {
		s.reportCorrupt(name, err)
		return domain.NewBootstrapShard(name), false, nil
	}
	shard.Name = name
	return shard, true, nil
}

// Upsert embeds texts once and appends them to the document shard, then to the global shard.
// Both shards are checked against the embedding model before either is written.
func (s *ShardService) Upsert(
	ctx context.Context, docID string, texts []string, metadatas []domain.Meta,
) (*domain.UpsertResult, error) {
	if len(texts) == 0 {
		return &domain.UpsertResult{Added: 0}, nil
	}
	if err := validateDocID(docID); err != nil {
		return nil, err
	}

	docName := naming.ShardName(docID)
	doc, _, err := s.LoadOrCreate(ctx, docName)
	if err != nil {
		return nil, err
	}
	global, _, err := s.LoadOrCreate(ctx, naming.GlobalShardName)
	if err != nil {
		return nil, err
	}

	model, entries, err := s.embedEntries(ctx, domain.MetaDocID, docID, texts, metadatas, doc, global)
	if err != nil {
		return nil, err
	}

	if err := doc.Append(model, entries...); err != nil {
		return nil, err
	}
	docShardID, err := s.save(ctx, driven.FolderShards, doc)
	if err != nil {
		return nil, err
	}
	if err := global.Append(model, entries...); err != nil {
		return nil, err
	}
	globalID, err := s.save(ctx, driven.FolderShards, global)
	if err != nil {
		return nil, err
	}

	logger.Debug("Upserted %d entries into %s and %s", len(entries), docName, naming.GlobalShardName)
	return &domain.UpsertResult{
		DocShardID:    docShardID,
		GlobalShardID: globalID,
		Added:         len(entries),
	}, nil
}

// AppendMemory embeds texts and appends them to the memory shard of a chat.
// Returns the store identifier of the shard blob.
func (s *ShardService) AppendMemory(
	ctx context.Context, chatID string, texts []string, metadatas []domain.Meta,
) (string, error) {
	if len(texts) == 0 {
		return "", nil
	}
	shard, _, err := s.LoadMemory(ctx, chatID)
	if err != nil {
		return "", err
	}

	model, entries, err := s.embedEntries(ctx, domain.MetaChatID, chatID, texts, metadatas, shard)
	if err != nil {
		return "", err
	}
	if err := shard.Append(model, entries...); err != nil {
		return "", err
	}

	logger.Debug("Appended %d turn(s) to memory of %s", len(entries), chatID)
	return s.save(ctx, driven.FolderMemory, shard)
}

// embedEntries validates the input, checks every target shard against the
// embedding model and returns the entries to append. ownerKey names the
// metadata key that records ownerID.
func (s *ShardService) embedEntries(
	ctx context.Context, ownerKey, ownerID string, texts []string, metadatas []domain.Meta, targets ...*domain.Shard,
) (string, []domain.Entry, error) {
	if metadatas != nil && len(metadatas) != len(texts) {
		return "", nil, fmt.Errorf("%d metadatas for %d texts: %w", len(metadatas), len(texts), domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return "", nil, domain.ErrEmbeddingUnavailable
	}

	model := s.embedder.ModelName()
	for _, shard := range targets {
		if err := shard.Compatible(model, s.embedder.Dimensions()); err != nil {
			return "", nil, err
		}
	}

	logger.Debug("Embedding %d chunk(s) for %s", len(texts), ownerID)
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", nil, fmt.Errorf("embed %s: %w", ownerID, err)
	}
	if len(vectors) != len(texts) {
		return "", nil, fmt.Errorf("embedder returned %d vectors for %d texts: %w",
			len(vectors), len(texts), domain.ErrEmbeddingUnavailable)
	}
	for _, shard := range targets {
		if err := shard.Compatible(model, len(vectors[0])); err != nil {
			return "", nil, err
		}
	}
	return model, s.buildEntries(ownerKey, ownerID, texts, metadatas, vectors), nil
}

// RebuildGlobal recreates the global shard from all per-document shards.
// Shards that fail to load or merge are skipped and counted.
func (s *ShardService) RebuildGlobal(ctx context.Context) (*domain.RebuildResult, error) {
	logger.Section("Rebuilding global shard")

	infos, err := s.store.List(ctx, driven.FolderShards, "")
	if err != nil {
		return nil, fmt.Errorf("list shards: %w", err)
	}

	global := domain.NewBootstrapShard(naming.GlobalShardName)
	result := &domain.RebuildResult{}

	for _, info := range infos {
		if !naming.IsDocShard(info.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		shard, err := s.loadStrict(ctx, driven.FolderShards, info.Name)
		if err != nil {
			logger.Warn("Skipping shard %s: %v", info.Name, err)
			result.Skipped++
			continue
		}
		s.reassignCollidingIDs(global, shard)
		if err := global.Merge(shard); err != nil {
			logger.Warn("Skipping shard %s: %v", info.Name, err)
			result.Skipped++
			continue
		}
		result.SourcesMerged++
	}

	id, err := s.save(ctx, driven.FolderShards, global)
	if err != nil {
		return nil, err
	}
	result.GlobalShardID = id
	result.Entries = global.ContentLen()

	logger.Info("Global shard rebuilt from %d shard(s), %d skipped, %d entries",
		result.SourcesMerged, result.Skipped, result.Entries)
	return result, nil
}

// loadStrict loads a shard that is known to exist and reports decode failures as errors.
func (s *ShardService) loadStrict(ctx context.Context, folder driven.Folder, name string) (*domain.Shard, error) {
	data, err := s.store.Get(ctx, folder, name)
	if err != nil {
		return nil, err
	}
	shard, err := s.codec.Decode(name, data)
	if err != nil {
		return nil, err
	}
	shard.Name = name
	return shard, nil
}

func (s *ShardService) save(ctx context.Context, folder driven.Folder, shard *domain.Shard) (string, error) {
	data, err := s.codec.Encode(shard)
	if err != nil {
		return "", fmt.Errorf("encode shard %s: %w", shard.Name, err)
	}
	id, err := s.store.Put(ctx, folder, shard.Name, data, mimeZip)
	if err != nil {
		return "", fmt.Errorf("write shard %s: %w", shard.Name, err)
	}
	return id, nil
}

func (s *ShardService) buildEntries(
	ownerKey, ownerID string, texts []string, metadatas []domain.Meta, vectors [][]float32,
) []domain.Entry {
	now := s.now().Unix()
	entries := make([]domain.Entry, len(texts))
	for i, text := range texts {
		var meta domain.Meta
		if metadatas != nil {
			meta = metadatas[i]
		}
		m := meta.Clone()
		if _, ok := m[ownerKey]; !ok {
			m[ownerKey] = ownerID
		}
		if _, ok := m[domain.MetaCreatedAt]; !ok {
			m[domain.MetaCreatedAt] = now
		}
		entries[i] = domain.Entry{
			ID:        s.newID(),
			Text:      text,
			Embedding: vectors[i],
			Metadata:  m,
		}
	}
	return entries
}

// reassignCollidingIDs gives fresh IDs to entries of src whose ID already exists in dst.
func (s *ShardService) reassignCollidingIDs(dst, src *domain.Shard) {
	seen := make(map[string]struct{}, len(dst.Entries))
	for i := range dst.Entries {
		seen[dst.Entries[i].ID] = struct{}{}
	}
	for i := range src.Entries {
		e := &src.Entries[i]
		if e.IsBootstrap() {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			e.ID = s.uniqueID(seen, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
}

func (s *ShardService) uniqueID(seen map[string]struct{}, base string) string {
	if id := s.newID(); id != "" {
		if _, dup := seen[id]; !dup {
			return id
		}
	}
	for n := 1; ; n++ {
		id := base + "-" + strconv.Itoa(n)
		if _, dup := seen[id]; !dup {
			return id
		}
	}
}

// reportCorrupt hands the failure to the observer, or logs it when none is set.
func (s *ShardService) reportCorrupt(name string, err error) {
	if s.observer != nil {
		s.observer.ShardCorrupt(name, err)
		return
	}
	logger.Warn("Shard %s is unreadable, starting empty: %v", name, err)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	prefix := strconv.FormatInt(time.Now().UnixNano(), 36)
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
