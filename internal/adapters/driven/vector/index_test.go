package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
)

func TestIndex_NearestOrdersBySimilarity(t *testing.T) {
	shard := sampleShard()
	shard.Entries = append(shard.Entries, domain.Entry{
		ID:        "c",
		Text:      "Um dragão perto do rio.",
		Embedding: []float32{0.8, 0.6, 0},
		Metadata:  domain.Meta{domain.MetaDocID: "chapter-1"},
	})

	got, err := NewIndex().Nearest(context.Background(), shard, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].Entry.ID)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-5)
	assert.Equal(t, "c", got[1].Entry.ID)
	assert.InDelta(t, 0.8, got[1].Similarity, 1e-5)
	assert.Equal(t, "b", got[2].Entry.ID)
	for _, c := range got {
		assert.False(t, c.Entry.IsBootstrap())
	}
}

func TestIndex_NearestClampsToContent(t *testing.T) {
	got, err := NewIndex().Nearest(context.Background(), sampleShard(), []float32{0, 1, 0}, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Entry.ID)
}

func TestIndex_NearestKeepsDuplicateIDs(t *testing.T) {
	shard := sampleShard()
	dup := shard.Entries[1]
	dup.Text = "copy"
	shard.Entries = append(shard.Entries, dup)

	got, err := NewIndex().Nearest(context.Background(), shard, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestIndex_NearestEmpty(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()

	got, err := idx.Nearest(ctx, domain.NewBootstrapShard("x.faiss.zip"), []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Nearest(ctx, sampleShard(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_NearestDimensionMismatch(t *testing.T) {
	_, err := NewIndex().Nearest(context.Background(), sampleShard(), []float32{1, 0}, 1)
	assert.Error(t, err)
}

func TestLogObserver(t *testing.T) {
	o := NewLogObserver()
	o.ShardCorrupt("a.faiss.zip", domain.ErrCorruptArtifact)
	o.ShardCorrupt("_global.faiss.zip", domain.ErrCorruptArtifact)

	assert.Equal(t, []string{"a.faiss.zip", "_global.faiss.zip"}, o.Corrupt())
}
