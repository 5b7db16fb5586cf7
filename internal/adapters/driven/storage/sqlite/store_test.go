package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// ==================== Store Creation ====================

func TestNewStore_RecordsMigrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
	assert.Contains(t, store.Path(), dbFileName)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	_, err = first.Put(ctx, driven.FolderVersions, "a.json", []byte("{}"), "application/json")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	data, err := second.Get(ctx, driven.FolderVersions, "a.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

// ==================== Blob Operations ====================

func TestStore_PutGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, driven.FolderVersions, "chapter-1.json", []byte(`{"id":"chapter-1"}`), "application/json")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	data, err := store.Get(ctx, driven.FolderVersions, "chapter-1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"chapter-1"}`, string(data))
}

func TestStore_PutReplaceKeepsID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Put(ctx, driven.FolderShards, "_global.faiss.zip", []byte("v1"), "application/zip")
	require.NoError(t, err)
	second, err := store.Put(ctx, driven.FolderShards, "_global.faiss.zip", []byte("version 2"), "application/zip")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	info, err := store.Stat(ctx, driven.FolderShards, "_global.faiss.zip")
	require.NoError(t, err)
	assert.Equal(t, first, info.ID)
	assert.Equal(t, int64(len("version 2")), info.Size)
	assert.Equal(t, "application/zip", info.MimeType)
	assert.False(t, info.ModifiedAt.IsZero())
}

func TestStore_PutEmptyName(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Put(context.Background(), driven.FolderVersions, "", []byte("x"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_PutEmptyContent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, driven.FolderTranscripts, "empty.md", nil, "text/markdown")
	require.NoError(t, err)

	data, err := store.Get(ctx, driven.FolderTranscripts, "empty.md")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestStore_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, driven.FolderVersions, "missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Stat(ctx, driven.FolderVersions, "missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_FoldersAreSeparate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, driven.FolderVersions, "same", []byte("versions"), "")
	require.NoError(t, err)
	_, err = store.Put(ctx, driven.FolderShards, "same", []byte("shards"), "")
	require.NoError(t, err)

	data, err := store.Get(ctx, driven.FolderVersions, "same")
	require.NoError(t, err)
	assert.Equal(t, "versions", string(data))

	_, err = store.Get(ctx, driven.FolderTranscripts, "same")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListByPrefix(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{
		"chapter-1__whisper__002.txt",
		"chapter-1__manual-edit__001.txt",
		"chapter-10__manual-edit__001.txt",
		"Chapter-1__upper__001.txt",
		"intro__manual-edit__001.txt",
	} {
		_, err := store.Put(ctx, driven.FolderVersions, name, []byte(name), "text/plain")
		require.NoError(t, err)
	}

	infos, err := store.List(ctx, driven.FolderVersions, "chapter-1__")
	require.NoError(t, err)

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.Equal(t, []string{
		"chapter-1__manual-edit__001.txt",
		"chapter-1__whisper__002.txt",
	}, names)
}

func TestStore_ListPrefixIsLiteral(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, driven.FolderVersions, "a_b.json", []byte("1"), "")
	require.NoError(t, err)
	_, err = store.Put(ctx, driven.FolderVersions, "axb.json", []byte("2"), "")
	require.NoError(t, err)

	infos, err := store.List(ctx, driven.FolderVersions, "a_")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "a_b.json", infos[0].Name)
}

func TestStore_ListAll(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	infos, err := store.List(ctx, driven.FolderShards, "")
	require.NoError(t, err)
	assert.Empty(t, infos)

	_, err = store.Put(ctx, driven.FolderShards, "b.faiss.zip", []byte("b"), "")
	require.NoError(t, err)
	_, err = store.Put(ctx, driven.FolderShards, "a.faiss.zip", []byte("a"), "")
	require.NoError(t, err)

	infos, err = store.List(ctx, driven.FolderShards, "")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a.faiss.zip", infos[0].Name)
	assert.Equal(t, "b.faiss.zip", infos[1].Name)
}

func TestStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, driven.FolderTranscripts, "t.md", []byte("hi"), "text/markdown")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, driven.FolderTranscripts, "t.md"))
	_, err = store.Get(ctx, driven.FolderTranscripts, "t.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, driven.FolderTranscripts, "t.md"))
}
