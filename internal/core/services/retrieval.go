package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/naming"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// RetrievalService answers similarity and MMR queries over shards.
type RetrievalService struct {
	shards   driving.ShardManager
	index    driven.SimilarityIndex
	embedder driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
// The embedder is optional; without it non-trivial searches return ErrEmbeddingUnavailable.
func NewRetrievalService(
	shards driving.ShardManager,
	index driven.SimilarityIndex,
	embedder driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		shards:   shards,
		index:    index,
		embedder: embedder,
	}
}

// Search queries one shard.
func (s *RetrievalService) Search(
	ctx context.Context, shard, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return s.SearchShards(ctx, []string{shard}, query, opts)
}

// SearchGlobal queries the global shard.
func (s *RetrievalService) SearchGlobal(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return s.Search(ctx, naming.GlobalShardName, query, opts)
}

// SearchDocument queries one document's shard.
func (s *RetrievalService) SearchDocument(
	ctx context.Context, docID, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	if err := validateDocID(docID); err != nil {
		return nil, err
	}
	return s.Search(ctx, naming.ShardName(docID), query, opts)
}

// SearchMemory queries the memory shard of a chat.
func (s *RetrievalService) SearchMemory(
	ctx context.Context, chatID, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.K <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	shard, _, err := s.shards.LoadMemory(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.searchLoaded(ctx, []*domain.Shard{shard}, query, opts.Normalized())
}

// SearchShards queries each named shard with one query embedding and merges
// the results by descending score.
func (s *RetrievalService) SearchShards(
	ctx context.Context, names []string, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.K <= 0 || len(names) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	loaded := make([]*domain.Shard, 0, len(names))
	for _, name := range names {
		shard, _, err := s.shards.LoadOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, shard)
	}
	return s.searchLoaded(ctx, loaded, query, opts.Normalized())
}

// searchLoaded embeds the query once and searches every shard with content.
func (s *RetrievalService) searchLoaded(
	ctx context.Context, shards []*domain.Shard, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	logger.Section("Retrieval")

	loaded := make([]*domain.Shard, 0, len(shards))
	for _, shard := range shards {
		if shard.ContentLen() == 0 {
			logger.Debug("Shard %s has no content, skipping", shard.Name)
			continue
		}
		loaded = append(loaded, shard)
	}
	if len(loaded) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	logger.Debug("Query: %q, k=%d, mode=%s, lambda=%.2f, shards=%d",
		query, opts.K, opts.Mode, opts.Lambda, len(loaded))

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	queryVec, err := s.embedder.Embed(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var results []domain.ScoredChunk
	for _, shard := range loaded {
		if err := shard.Compatible(s.embedder.ModelName(), len(queryVec)); err != nil {
			return nil, err
		}
		hits, err := s.searchShard(ctx, shard, queryVec, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, hits...)
	}

	// A single shard keeps the MMR selection order.
	if len(loaded) > 1 {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
	if len(results) > opts.K {
		results = results[:opts.K]
	}

	logger.Debug("Returning %d result(s)", len(results))
	return results, nil
}

func (s *RetrievalService) searchShard(
	ctx context.Context, shard *domain.Shard, queryVec []float32, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	n := opts.K
	if opts.Mode == domain.RetrievalMMR {
		n = opts.FetchK
	}
	if avail := shard.ContentLen(); n > avail {
		n = avail
	}

	candidates, err := s.index.Nearest(ctx, shard, queryVec, n)
	if err != nil {
		return nil, fmt.Errorf("query shard %s: %w", shard.Name, err)
	}

	if opts.Mode == domain.RetrievalMMR {
		candidates = MaximalMarginalRelevance(candidates, opts.K, opts.Lambda)
	} else if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}

	out := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Entry.IsBootstrap() {
			continue
		}
		out = append(out, domain.ScoredChunk{
			Text:     c.Entry.Text,
			Score:    c.Similarity,
			Metadata: c.Entry.Metadata,
			Shard:    shard.Name,
		})
	}
	return out, nil
}
