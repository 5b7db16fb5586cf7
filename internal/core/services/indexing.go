package services

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.Indexer = (*IndexingService)(nil)

// IndexingService chunks document versions and upserts them into shards.
type IndexingService struct {
	versions driving.VersionRepository
	shards   driving.ShardManager
	splitter driven.Splitter
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(
	versions driving.VersionRepository,
	shards driving.ShardManager,
	splitter driven.Splitter,
) *IndexingService {
	return &IndexingService{
		versions: versions,
		shards:   shards,
		splitter: splitter,
	}
}

// IndexVersion chunks text and upserts the chunks with the version metadata
// plus each chunk's position.
func (s *IndexingService) IndexVersion(
	ctx context.Context, docID, text string, meta domain.Meta,
) (*domain.UpsertResult, error) {
	chunks := s.splitter.Split(text)
	logger.Debug("Split %s into %d chunk(s) with %s splitter", docID, len(chunks), s.splitter.Name())

	metas := make([]domain.Meta, len(chunks))
	for i := range chunks {
		m := meta.Clone()
		m[domain.MetaChunk] = i
		metas[i] = m
	}
	return s.shards.Upsert(ctx, docID, chunks, metas)
}

// SaveAndIndex saves text as a new version and then indexes it with the
// metadata the version was stored with.
func (s *IndexingService) SaveAndIndex(
	ctx context.Context, docID, text string, meta domain.Meta,
) (*domain.ManifestRef, *domain.UpsertResult, error) {
	ref, err := s.versions.Save(ctx, docID, text, meta)
	if err != nil {
		return nil, nil, err
	}

	indexMeta := meta.Clone()
	indexMeta[domain.MetaVersionIndex] = ref.VersionCount
	indexMeta[domain.MetaVersionTag] = domain.VersionTag(docID, ref.VersionCount)
	if _, ok := indexMeta[domain.MetaSource]; !ok {
		indexMeta[domain.MetaSource] = domain.SourceUnknown
	}

	res, err := s.IndexVersion(ctx, docID, text, indexMeta)
	if err != nil {
		return ref, nil, err
	}
	return ref, res, nil
}
