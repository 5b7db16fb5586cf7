package vector

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.SimilarityIndex = (*Index)(nil)

// Index answers nearest-neighbour queries by loading a shard into an
// in-memory chromem collection.
type Index struct{}

// NewIndex creates a similarity index.
func NewIndex() *Index {
	return &Index{}
}

// Nearest returns up to n content entries of shard by descending cosine similarity.
func (x *Index) Nearest(
	ctx context.Context, shard *domain.Shard, query []float32, n int,
) ([]domain.Candidate, error) {
	if n <= 0 || len(query) == 0 {
		return nil, nil
	}

	col, positions, err := x.load(ctx, shard)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}
	if n > len(positions) {
		n = len(positions)
	}

	results, err := col.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", shard.Name, err)
	}

	out := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		i, ok := positions[r.ID]
		if !ok {
			continue
		}
		out = append(out, domain.Candidate{
			Entry:      shard.Entries[i],
			Similarity: float64(r.Similarity),
		})
	}
	return out, nil
}

// load adds every non-placeholder entry with an embedding to a fresh
// collection. Document IDs are entry positions, so duplicate entry IDs
// in merged shards stay distinct.
func (x *Index) load(ctx context.Context, shard *domain.Shard) (*chromem.Collection, map[string]int, error) {
	col, err := chromem.NewDB().CreateCollection(collectionName, nil, refuseEmbedding)
	if err != nil {
		return nil, nil, fmt.Errorf("create collection: %w", err)
	}

	positions := make(map[string]int, len(shard.Entries))
	docs := make([]chromem.Document, 0, len(shard.Entries))
	for i := range shard.Entries {
		e := &shard.Entries[i]
		if e.IsBootstrap() || len(e.Embedding) == 0 {
			continue
		}
		id := strconv.Itoa(i)
		positions[id] = i
		docs = append(docs, chromem.Document{ID: id, Embedding: e.Embedding, Content: e.Text})
	}
	if len(docs) == 0 {
		return col, positions, nil
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", shard.Name, err)
	}
	return col, positions, nil
}
