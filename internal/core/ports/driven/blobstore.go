package driven

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// Folder is a logical namespace inside a blob store.
type Folder string

// Well-known folders.
const (
	// FolderVersions holds manifests and version blobs.
	FolderVersions Folder = "versions"

	// FolderShards holds per-document and global vector shards.
	FolderShards Folder = "shards"

	// FolderTranscripts holds raw transcripts.
	FolderTranscripts Folder = "transcripts"

	// FolderMemory holds the per-chat memory shards.
	FolderMemory Folder = "memory"

	// FolderChats holds the chat index, histories and summaries.
	FolderChats Folder = "chats"
)

// AllFolders returns every well-known folder.
func AllFolders() []Folder {
	return []Folder{FolderVersions, FolderShards, FolderTranscripts, FolderMemory, FolderChats}
}

// BlobStore persists named blobs grouped into folders.
// Names are unique within a folder: Put on an existing name replaces the content.
//
// Implementations may include:
//   - Google Drive (folder tree under a configurable root)
//   - SQLite (local, offline)
//   - In-memory (tests)
type BlobStore interface {
	// Put creates or replaces the blob and returns its store identifier.
	Put(ctx context.Context, folder Folder, name string, data []byte, mimeType string) (string, error)

	// Get returns the content of the named blob.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, folder Folder, name string) ([]byte, error)

	// Stat returns metadata for the named blob without its content.
	// Returns domain.ErrNotFound if absent.
	Stat(ctx context.Context, folder Folder, name string) (*domain.BlobInfo, error)

	// List returns blobs in the folder whose names start with prefix, sorted by name.
	List(ctx context.Context, folder Folder, prefix string) ([]domain.BlobInfo, error)

	// Delete removes the named blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, folder Folder, name string) error
}
