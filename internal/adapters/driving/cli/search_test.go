package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
)

func testHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{
			Text:  "Era uma vez um livro.",
			Score: 0.91,
			Shard: "_global",
			Metadata: domain.Meta{
				domain.MetaDocID:      "chapter-1",
				domain.MetaVersionTag: "chapter-1_v2",
			},
		},
		{
			Text:     "Sem tag.",
			Score:    0.5,
			Shard:    "_global",
			Metadata: domain.Meta{domain.MetaDocID: "intro"},
		},
	}
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearch_GlobalDefaults(t *testing.T) {
	m := setupTestServices(t)
	m.retriever.hits = testHits()

	out, err := executeCommand(t, "search", "livro", "antigo")
	require.NoError(t, err)

	assert.Equal(t, "global", m.retriever.scope)
	assert.Equal(t, "livro antigo", m.retriever.query)
	assert.Equal(t, domain.DefaultK, m.retriever.opts.K)
	assert.Equal(t, domain.RetrievalMMR, m.retriever.opts.Mode)
	assert.InDelta(t, domain.DefaultLambda, m.retriever.opts.Lambda, 1e-9)

	assert.Contains(t, out, "[1] chapter-1 • chapter-1_v2 (0.910)")
	assert.Contains(t, out, "[2] intro (0.500)")
	assert.Contains(t, out, "Era uma vez um livro.")
}

func TestSearch_Scopes(t *testing.T) {
	m := setupTestServices(t)

	_, err := executeCommand(t, "search", "x", "--doc", "chapter-1")
	require.NoError(t, err)
	assert.Equal(t, "doc:chapter-1", m.retriever.scope)

	_, err = executeCommand(t, "search", "x", "--shard", "a", "--shard", "b")
	require.NoError(t, err)
	assert.Equal(t, "shards:a,b", m.retriever.scope)

	_, err = executeCommand(t, "search", "x")
	require.NoError(t, err)
	assert.Equal(t, "global", m.retriever.scope)
}

func TestSearch_FlagsOverrideSettings(t *testing.T) {
	m := setupTestServices(t)
	require.NoError(t, m.settings.Set("search.k", "3"))
	require.NoError(t, m.settings.Set("search.mode", "similarity"))
	require.NoError(t, m.settings.Set("search.lambda", "0.8"))

	_, err := executeCommand(t, "search", "x")
	require.NoError(t, err)
	assert.Equal(t, 3, m.retriever.opts.K)
	assert.Equal(t, domain.RetrievalSimilarity, m.retriever.opts.Mode)
	assert.InDelta(t, 0.8, m.retriever.opts.Lambda, 1e-9)

	_, err = executeCommand(t, "search", "x", "-k", "9", "--mode", "mmr", "--lambda", "0.2")
	require.NoError(t, err)
	assert.Equal(t, 9, m.retriever.opts.K)
	assert.Equal(t, domain.RetrievalMMR, m.retriever.opts.Mode)
	assert.InDelta(t, 0.2, m.retriever.opts.Lambda, 1e-9)
}

func TestSearch_ExplicitZeroLambda(t *testing.T) {
	m := setupTestServices(t)
	require.NoError(t, m.settings.Set("search.lambda", "0.8"))

	_, err := executeCommand(t, "search", "x", "--lambda", "0")
	require.NoError(t, err)
	assert.True(t, m.retriever.opts.LambdaSet)
	assert.Zero(t, m.retriever.opts.Lambda)
	assert.Zero(t, m.retriever.opts.Normalized().Lambda)

	require.NoError(t, m.settings.Set("search.lambda", "0"))
	_, err = executeCommand(t, "search", "x")
	require.NoError(t, err)
	assert.True(t, m.retriever.opts.LambdaSet)
	assert.Zero(t, m.retriever.opts.Normalized().Lambda)
}

func TestSearch_InvalidOptions(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "search", "x", "--mode", "bm25")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "search", "x", "--lambda", "1.5")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "search", "nada")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearch_JSON(t *testing.T) {
	m := setupTestServices(t)
	m.retriever.hits = testHits()

	out, err := executeCommand(t, "search", "livro", "--json")
	require.NoError(t, err)

	var results []searchResultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "chapter-1", results[0].DocID)
	assert.Equal(t, "chapter-1_v2", results[0].VersionTag)
	assert.Equal(t, "_global", results[0].Shard)
	assert.InDelta(t, 0.91, results[0].Score, 1e-9)
	assert.Empty(t, results[1].VersionTag)
}

func TestSearch_RetrieverError(t *testing.T) {
	m := setupTestServices(t)
	m.retriever.err = errors.New("index unavailable")

	_, err := executeCommand(t, "search", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed: index unavailable")
}

func TestSearch_NotConfigured(t *testing.T) {
	SetServices(nil)
	t.Cleanup(func() { resetFlags(rootCmd) })

	_, err := executeCommand(t, "search", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short", "curto", 10, "curto"},
		{"flattens whitespace", "a\n\n  b\tc", 10, "a b c"},
		{"cuts runes", "ação ação", 4, "ação..."},
		{"exact length", "abcd", 4, "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.text, tt.n))
		})
	}
}

func TestSnippet_LongText(t *testing.T) {
	s := snippet(strings.Repeat("palavra ", 100), 200)
	assert.Len(t, []rune(s), 203)
	assert.True(t, strings.HasSuffix(s, "..."))
}
