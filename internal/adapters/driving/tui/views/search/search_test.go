package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/services"
)

// mockRetriever records global searches and returns canned results.
type mockRetriever struct {
	results []domain.ScoredChunk
	err     error
	queries []string
	opts    []domain.SearchOptions
}

func (m *mockRetriever) Search(context.Context, string, string, domain.SearchOptions) ([]domain.ScoredChunk, error) {
	return nil, errors.New("unexpected Search")
}

func (m *mockRetriever) SearchShards(
	context.Context, []string, string, domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return nil, errors.New("unexpected SearchShards")
}

func (m *mockRetriever) SearchGlobal(_ context.Context, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	m.queries = append(m.queries, query)
	m.opts = append(m.opts, opts)
	return m.results, m.err
}

func (m *mockRetriever) SearchDocument(
	context.Context, string, string, domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return nil, errors.New("unexpected SearchDocument")
}

func (m *mockRetriever) SearchMemory(
	context.Context, string, string, domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return nil, errors.New("unexpected SearchMemory")
}

func dragonHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{
			Text:  "O dragão dormia\nsob o castelo.",
			Score: 0.91,
			Metadata: domain.Meta{
				domain.MetaDocID:        "capitulo-1",
				domain.MetaVersionTag:   "capitulo-1_v2",
				domain.MetaVersionIndex: float64(2),
			},
			Shard: "global.faiss.zip",
		},
		{
			Text:     "O rio cortava o reino.",
			Score:    0.42,
			Metadata: domain.Meta{domain.MetaDocID: "capitulo-2", domain.MetaVersionTag: "capitulo-2_v1"},
			Shard:    "global.faiss.zip",
		},
	}
}

func typeQuery(view *View, query string) {
	for _, r := range query {
		view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newTestView(t *testing.T, retriever *mockRetriever) (*View, *services.VersionService, *services.SettingsService) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	versions := services.NewVersionService(memory.NewBlobStore())
	settings := services.NewSettingsService(memory.NewConfigStore())
	view := NewView(nil, nil, retriever, versions, settings)
	view.SetDimensions(100, 40)
	return view, versions, settings
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, nil, nil, nil)

	require.NotNil(t, view)
	assert.True(t, view.InputFocused())
	assert.False(t, view.Ready())
	assert.Equal(t, "Initialising...", view.View())
	assert.NotNil(t, view.Init())
}

func TestView_SubmitUsesConfiguredOptions(t *testing.T) {
	retriever := &mockRetriever{results: dragonHits()}
	view, _, settings := newTestView(t, retriever)
	require.NoError(t, settings.Set("search.k", "3"))
	require.NoError(t, settings.Set("search.lambda", "0"))

	typeQuery(view, "dragão")
	assert.Equal(t, "dragão", view.Query())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, view.InputFocused())

	msg := cmd()
	completed, ok := msg.(messages.SearchCompleted)
	require.True(t, ok)
	require.NoError(t, completed.Err)
	require.Len(t, retriever.opts, 1)
	assert.Equal(t, []string{"dragão"}, retriever.queries)
	assert.Equal(t, 3, retriever.opts[0].K)
	assert.Equal(t, domain.RetrievalMMR, retriever.opts[0].Mode)
	assert.Zero(t, retriever.opts[0].Lambda)
	assert.True(t, retriever.opts[0].LambdaSet, "an explicit zero lambda is kept")

	view.Update(msg)
	assert.Len(t, view.Results(), 2)
	out := view.View()
	assert.Contains(t, out, "[A1] capitulo-1")
	assert.Contains(t, out, "capitulo-1_v2")
	assert.Contains(t, out, "O dragão dormia sob o castelo.")
}

func TestView_DefaultOptionsWithoutSettings(t *testing.T) {
	retriever := &mockRetriever{}
	view := NewView(nil, nil, retriever, nil, nil)

	view.performSearch("rio")()

	require.Len(t, retriever.opts, 1)
	assert.Equal(t, domain.DefaultK, retriever.opts[0].K)
}

func TestView_EmptyQueryDoesNothing(t *testing.T) {
	retriever := &mockRetriever{}
	view, _, _ := newTestView(t, retriever)

	typeQuery(view, "   ")
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, view.InputFocused())
	assert.Empty(t, retriever.queries)
}

func TestView_SearchError(t *testing.T) {
	retriever := &mockRetriever{err: domain.ErrModelMismatch}
	view, _, _ := newTestView(t, retriever)

	view.Update(view.performSearch("rei")())

	assert.ErrorIs(t, view.Err(), domain.ErrModelMismatch)
	assert.Contains(t, view.View(), "Error:")
}

func TestView_NoRetriever(t *testing.T) {
	view := NewView(nil, nil, nil, nil, nil)

	msg := view.performSearch("rei")()

	occurred, ok := msg.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, occurred.Err, ErrNoRetriever)
}

func TestView_ShowVersionText(t *testing.T) {
	view, _, _ := newTestView(t, &mockRetriever{})
	view.Update(messages.SearchCompleted{Results: dragonHits()})

	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, view.ActionMenuOpen())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, view.ActionMenuOpen())

	selected, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "capitulo-1", selected.DocID)
	assert.Equal(t, 2, selected.Version)
	assert.Equal(t, messages.ViewSearch, selected.From)
}

func TestView_ShowVersionHistory(t *testing.T) {
	view, versions, _ := newTestView(t, &mockRetriever{})
	_, err := versions.Create(context.Background(), "capitulo-2", "O rio cortava o reino.", nil)
	require.NoError(t, err)
	view.Update(messages.SearchCompleted{Results: dragonHits()})

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, view.SelectedIndex())
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	loaded, ok := cmd().(messages.DocumentDetailsLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	require.NotNil(t, loaded.Manifest)
	assert.Equal(t, "capitulo-2", loaded.Manifest.ID)
	assert.Len(t, loaded.Manifest.Versions, 1)
}

func TestView_ActionMenuCancel(t *testing.T) {
	view, _, _ := newTestView(t, &mockRetriever{})
	view.Update(messages.SearchCompleted{Results: dragonHits()})
	view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, view.ActionMenuOpen())
}

func TestView_NewSearchAndBack(t *testing.T) {
	view, _, _ := newTestView(t, &mockRetriever{})
	view.Update(messages.SearchCompleted{Query: "rio", Results: dragonHits()})

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.True(t, view.InputFocused())
	assert.Empty(t, view.Query())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	view, _, _ := newTestView(t, &mockRetriever{})
	view.Update(messages.SearchCompleted{Results: dragonHits()})
	view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	view.Reset()

	assert.True(t, view.InputFocused())
	assert.Empty(t, view.Results())
	assert.NoError(t, view.Err())
}
