package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

func newTestVersionService() (*VersionService, *memory.BlobStore) {
	store := memory.NewBlobStore()
	svc := NewVersionService(store)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, store
}

func TestVersionService_Create(t *testing.T) {
	svc, store := newTestVersionService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, "chapter-1", "Era uma vez", domain.Meta{domain.MetaSource: domain.SourceManualEdit})
	require.NoError(t, err)
	assert.Equal(t, "chapter-1", ref.DocID)
	assert.Equal(t, 1, ref.VersionCount)
	assert.Equal(t, "chapter-1__manual-edit__001.txt", ref.VersionBlob)
	assert.NotEmpty(t, ref.BlobID)

	blob, err := store.Get(ctx, driven.FolderVersions, "chapter-1__manual-edit__001.txt")
	require.NoError(t, err)
	assert.Equal(t, "Era uma vez", string(blob))

	m, err := svc.Get(ctx, "chapter-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), m.CreatedAt)
	require.Len(t, m.Versions, 1)
	assert.Equal(t, "chapter-1_v1", m.Versions[0].Meta.String(domain.MetaVersionTag))
	idx, ok := m.Versions[0].Meta.Int(domain.MetaVersionIndex)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestVersionService_Create_EmptyText(t *testing.T) {
	svc, store := newTestVersionService()
	ctx := context.Background()

	ref, err := svc.Create(ctx, "empty", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ref.VersionCount)
	assert.Empty(t, ref.VersionBlob)

	blobs, err := store.List(ctx, driven.FolderVersions, "empty__")
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestVersionService_Create_AlreadyExists(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "doc", "a", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "doc", "b", nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestVersionService_Create_InvalidID(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	for _, id := range []string{"", "  ", "a/b", `a\b`} {
		_, err := svc.Create(ctx, id, "x", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "id %q", id)
	}
}

func TestVersionService_Get_NotFound(t *testing.T) {
	svc, _ := newTestVersionService()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionService_Get_CorruptManifest(t *testing.T) {
	svc, store := newTestVersionService()
	ctx := context.Background()

	_, err := store.Put(ctx, driven.FolderVersions, "bad.json", []byte("{not json"), "application/json")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
}

func TestVersionService_Append(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "doc", "one", domain.Meta{domain.MetaSource: domain.SourceWhisper})
	require.NoError(t, err)

	ref, err := svc.Append(ctx, "doc", "two", domain.Meta{
		domain.MetaSource:       domain.SourceManualEdit,
		domain.MetaVersionIndex: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ref.VersionCount)
	assert.Equal(t, "doc__manual-edit__002.txt", ref.VersionBlob)

	m, err := svc.Get(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, m.Versions, 2)
	assert.Equal(t, "two", m.Latest().Text)
	idx, _ := m.Latest().Meta.Int(domain.MetaVersionIndex)
	assert.Equal(t, 2, idx, "caller-supplied index is ignored")
}

func TestVersionService_Append_NotFound(t *testing.T) {
	svc, _ := newTestVersionService()

	_, err := svc.Append(context.Background(), "missing", "x", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionService_Append_UnknownSource(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "doc", "", nil)
	require.NoError(t, err)

	ref, err := svc.Append(ctx, "doc", "text", nil)
	require.NoError(t, err)
	assert.Equal(t, "doc__unknown__001.txt", ref.VersionBlob)
}

func TestVersionService_Save_CreatesThenAppends(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	ref, err := svc.Save(ctx, "new-doc", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.VersionCount)

	ref, err = svc.Save(ctx, "new-doc", "second", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ref.VersionCount)
}

func TestVersionService_Save_ConcurrentAppendsKeepEveryVersion(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Save(ctx, "shared", fmt.Sprintf("text %d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	m, err := svc.Get(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, m.Versions, n)
	for i, v := range m.Versions {
		idx, _ := v.Meta.Int(domain.MetaVersionIndex)
		assert.Equal(t, i+1, idx)
	}
}

func TestVersionService_ManifestIsReadableJSON(t *testing.T) {
	svc, store := newTestVersionService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "acentos", "Coração <ação>", nil)
	require.NoError(t, err)

	data, err := store.Get(ctx, driven.FolderVersions, "acentos.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Coração <ação>")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "acentos", raw["id"])
	assert.Contains(t, raw, "created_at")
	assert.Contains(t, raw, "versions")
}

func TestVersionService_ListVersionBlobs(t *testing.T) {
	svc, store := newTestVersionService()
	ctx := context.Background()

	_, _ = svc.Save(ctx, "doc", "a", domain.Meta{domain.MetaSource: domain.SourceWhisper})
	_, _ = svc.Save(ctx, "doc", "b", domain.Meta{domain.MetaSource: domain.SourceManualEdit})
	_, _ = svc.Save(ctx, "doc-2", "c", nil)
	// A stray blob sharing the prefix but not the naming scheme.
	_, _ = store.Put(ctx, driven.FolderVersions, "doc__notes.txt", []byte("x"), "text/plain")

	names, err := svc.ListVersionBlobs(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc__whisper__001.txt", "doc__manual-edit__002.txt"}, names)
}

func TestVersionService_ReadVersionBlob(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	_, err := svc.Save(ctx, "doc", "content", domain.Meta{domain.MetaSource: domain.SourcePicked})
	require.NoError(t, err)

	text, err := svc.ReadVersionBlob(ctx, domain.VersionKey{DocID: "doc", Source: domain.SourcePicked, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "content", text)

	_, err = svc.ReadVersionBlob(ctx, domain.VersionKey{DocID: "doc", Source: domain.SourcePicked, Index: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVersionService_ListDocuments(t *testing.T) {
	svc, _ := newTestVersionService()
	ctx := context.Background()

	ids, err := svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, _ = svc.Save(ctx, "zeta", "z", nil)
	_, _ = svc.Save(ctx, "alpha", "a", nil)

	ids, err = svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ids)
}
