package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/services"
)

// mockRetriever serves canned hits for global searches.
type mockRetriever struct {
	results []domain.ScoredChunk
	err     error
	queries []string
}

func (m *mockRetriever) Search(context.Context, string, string, domain.SearchOptions) ([]domain.ScoredChunk, error) {
	return m.results, m.err
}

func (m *mockRetriever) SearchShards(
	context.Context, []string, string, domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.results, m.err
}

func (m *mockRetriever) SearchGlobal(_ context.Context, query string, _ domain.SearchOptions) ([]domain.ScoredChunk, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func (m *mockRetriever) SearchDocument(
	context.Context, string, string, domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.results, m.err
}

func (m *mockRetriever) SearchMemory(
	context.Context, string, string, domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.results, m.err
}

// testServices holds the services behind newTestPorts.
type testServices struct {
	retriever *mockRetriever
	versions  *services.VersionService
	settings  *services.SettingsService
}

// newTestPorts wires a mock retriever to in-memory version and settings
// services. capitulo-1 has two versions.
func newTestPorts(t *testing.T) (*Ports, *testServices) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")

	ctx := context.Background()
	ts := &testServices{
		retriever: &mockRetriever{},
		versions:  services.NewVersionService(memory.NewBlobStore()),
		settings:  services.NewSettingsService(memory.NewConfigStore()),
	}
	_, err := ts.versions.Create(ctx, "capitulo-1", "Era uma vez.", domain.Meta{domain.MetaSource: domain.SourceWhisper})
	require.NoError(t, err)
	_, err = ts.versions.Append(ctx, "capitulo-1", "Era uma vez um dragão.", domain.Meta{domain.MetaSource: domain.SourceManualEdit})
	require.NoError(t, err)

	return NewPorts(ts.retriever, ts.versions, ts.settings), ts
}
