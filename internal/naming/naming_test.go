package naming

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Capítulo 1: Início", "capitulo-1-inicio"},
		{"  Hello   World  ", "hello-world"},
		{"a_b--c  d", "a-b-c-d"},
		{"Ação & Reação!", "acao-reacao"},
		{"---", ""},
		{"", ""},
		{"manual-edit", "manual-edit"},
		{"Die Straße", "die-strasse"},
		{"Œuvre Æther", "oeuvre-aether"},
		{"Глава 1", "глава-1"},
		{"第一章 序", "第一章-序"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugify_MaxLength(t *testing.T) {
	long := strings.Repeat("abcd ", 40)
	got := Slugify(long)

	assert.LessOrEqual(t, len([]rune(got)), 80)
	assert.False(t, strings.HasSuffix(got, "-"))
	assert.False(t, strings.HasPrefix(got, "-"))
}

func TestSlugFromText(t *testing.T) {
	assert.Equal(t, "o-inicio-de-tudo", SlugFromText("O início de tudo"))
	assert.Equal(t, "one-two-three-four-five-six-seven-eight",
		SlugFromText("one two three four five six seven eight nine ten"))
	assert.Equal(t, FallbackSlug, SlugFromText("?!"))
	assert.Equal(t, FallbackSlug, SlugFromText(""))
}

func TestVersionBlobName(t *testing.T) {
	name := VersionBlobName(domain.VersionKey{DocID: "Chapter 1", Source: "manual-edit", Index: 3})
	assert.Equal(t, "chapter-1__manual-edit__003.txt", name)

	name = VersionBlobName(domain.VersionKey{DocID: "intro", Index: 1})
	assert.Equal(t, "intro__unknown__001.txt", name)
}

func TestParseVersionBlobName(t *testing.T) {
	key := domain.VersionKey{DocID: "chapter-1", Source: "editor-llm", Index: 12}

	got, ok := ParseVersionBlobName(VersionBlobName(key))
	require.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = ParseVersionBlobName("chapter-1.json")
	assert.False(t, ok)
	_, ok = ParseVersionBlobName("chapter-1__x__1.txt")
	assert.False(t, ok)
}

func TestVersionBlobNames_ZeroPaddedIndexSorts(t *testing.T) {
	var names []string
	for _, i := range []int{10, 2, 1, 9} {
		names = append(names, VersionBlobName(domain.VersionKey{DocID: "doc", Source: "whisper", Index: i}))
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"doc__whisper__001.txt",
		"doc__whisper__002.txt",
		"doc__whisper__009.txt",
		"doc__whisper__010.txt",
	}, names)
	assert.True(t, strings.HasPrefix(names[0], VersionBlobPrefix("doc")))
}

func TestManifestAndShardNames(t *testing.T) {
	assert.Equal(t, "chapter-1.json", ManifestName("chapter-1"))
	id, ok := DocIDFromManifest("chapter-1.json")
	require.True(t, ok)
	assert.Equal(t, "chapter-1", id)
	_, ok = DocIDFromManifest(".json")
	assert.False(t, ok)

	assert.Equal(t, "chapter-1.faiss.zip", ShardName("chapter-1"))
	assert.Equal(t, "_global.faiss.zip", GlobalShardName)
	assert.True(t, IsDocShard("chapter-1.faiss.zip"))
	assert.False(t, IsDocShard(GlobalShardName))
	assert.False(t, IsDocShard("chapter-1.json"))

	id, ok = DocIDFromShard("chapter-1.faiss.zip")
	require.True(t, ok)
	assert.Equal(t, "chapter-1", id)
}

func TestSlugFromText_KeepsNonLatinWords(t *testing.T) {
	assert.Equal(t, "глава-первая", SlugFromText("Глава первая."))
}

func TestChatNames(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	assert.Equal(t, "20240305-140709_meu-chat", ChatID("Meu chat", at))
	assert.Equal(t, "20240305-140709_chat", ChatID("!!", at))
	assert.Equal(t, "20240305-140709_meu-chat.faiss.zip", MemoryShardName(ChatID("Meu chat", at)))
	assert.Equal(t, "c1.history.jsonl", ChatHistoryName("c1"))
	assert.Equal(t, "c1.summary.txt", ChatSummaryName("c1"))
	assert.Equal(t, "index.json", ChatIndexName)
}

func TestTranscriptName(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	assert.Equal(t, "20240305T140709Z-entrevista-com-ana.md", TranscriptName("Entrevista com Ana", at, ""))
	assert.Equal(t, "20240305T140709Z-aula-infancia.md", TranscriptName("Aula", at, "Infância"))
	assert.Equal(t, "20240305T140709Z.md", TranscriptName("", at, ""))
}
