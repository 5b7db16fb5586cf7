package driving

import (
	"context"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// VersionRepository manages document manifests and version blobs.
type VersionRepository interface {
	// Create writes a new manifest. Returns domain.ErrAlreadyExists if one exists.
	// Empty initialText creates a manifest with no versions.
	Create(ctx context.Context, docID, initialText string, meta domain.Meta) (*domain.ManifestRef, error)

	// Get reads a manifest. Returns domain.ErrNotFound if absent and
	// domain.ErrCorruptArtifact if it cannot be parsed.
	Get(ctx context.Context, docID string) (*domain.Manifest, error)

	// Append adds a version to an existing manifest.
	// Returns domain.ErrNotFound if the manifest does not exist.
	Append(ctx context.Context, docID, text string, meta domain.Meta) (*domain.ManifestRef, error)

	// Save creates the manifest if absent, otherwise appends.
	Save(ctx context.Context, docID, text string, meta domain.Meta) (*domain.ManifestRef, error)

	// ListVersionBlobs returns the version blob names of a document in chronological order.
	ListVersionBlobs(ctx context.Context, docID string) ([]string, error)

	// ReadVersionBlob returns the text of one version blob.
	ReadVersionBlob(ctx context.Context, key domain.VersionKey) (string, error)

	// ListDocuments returns all document identifiers, sorted.
	ListDocuments(ctx context.Context) ([]string, error)
}
