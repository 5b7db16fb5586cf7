package mcp

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// mockRetriever records the last call and returns canned hits.
type mockRetriever struct {
	hits []domain.ScoredChunk
	err  error

	lastScope string
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockRetriever) record(scope, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	m.lastScope = scope
	m.lastQuery = query
	m.lastOpts = opts
	return m.hits, m.err
}

func (m *mockRetriever) Search(
	_ context.Context, shard, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record(shard, query, opts)
}

func (m *mockRetriever) SearchShards(
	_ context.Context, _ []string, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record("shards", query, opts)
}

func (m *mockRetriever) SearchGlobal(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record("global", query, opts)
}

func (m *mockRetriever) SearchDocument(
	_ context.Context, docID, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record("doc:"+docID, query, opts)
}

func (m *mockRetriever) SearchMemory(
	_ context.Context, chatID, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record("memory:"+chatID, query, opts)
}

// mockVersions serves manifests from a map.
type mockVersions struct {
	manifests map[string]*domain.Manifest
	listErr   error
	getErr    error
}

func (m *mockVersions) Create(context.Context, string, string, domain.Meta) (*domain.ManifestRef, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockVersions) Get(_ context.Context, docID string) (*domain.Manifest, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	manifest, ok := m.manifests[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return manifest, nil
}

func (m *mockVersions) Append(context.Context, string, string, domain.Meta) (*domain.ManifestRef, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockVersions) Save(context.Context, string, string, domain.Meta) (*domain.ManifestRef, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockVersions) ListVersionBlobs(context.Context, string) ([]string, error) {
	return nil, nil
}

func (m *mockVersions) ReadVersionBlob(context.Context, domain.VersionKey) (string, error) {
	return "", domain.ErrNotFound
}

func (m *mockVersions) ListDocuments(context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var ids []string
	for id := range m.manifests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// mockAsker returns a canned answer.
type mockAsker struct {
	answer   *driving.Answer
	err      error
	question string
	opts     domain.SearchOptions
}

func (m *mockAsker) Ask(_ context.Context, question string, opts domain.SearchOptions) (*driving.Answer, error) {
	m.question = question
	m.opts = opts
	return m.answer, m.err
}

func testManifest() *domain.Manifest {
	return &domain.Manifest{
		ID:        "chapter-1",
		CreatedAt: 1700000000,
		Versions: []domain.Version{
			{TS: 1700000000, Text: "Era uma vez.", Meta: domain.Meta{domain.MetaSource: domain.SourceWhisper}},
			{TS: 1700000600, Text: "Era uma vez, revisado.", Meta: domain.Meta{
				domain.MetaSource:    domain.SourcePicked,
				domain.MetaCanonical: true,
			}},
		},
	}
}

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}
