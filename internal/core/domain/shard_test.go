package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, dims int) Entry {
	return Entry{
		ID:        id,
		Text:      "text " + id,
		Embedding: make([]float32, dims),
		Metadata:  Meta{MetaDocID: "doc"},
	}
}

func TestNewBootstrapShard(t *testing.T) {
	s := NewBootstrapShard("a.faiss.zip")

	require.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.ContentLen())
	assert.True(t, s.Entries[0].IsBootstrap())
	assert.Equal(t, BootstrapText, s.Entries[0].Text)
	assert.Empty(t, s.ContentEntries())
}

func TestShard_AppendStampsModel(t *testing.T) {
	s := NewBootstrapShard("a.faiss.zip")

	require.NoError(t, s.Append("m1", entry("1", 3), entry("2", 3)))
	assert.Equal(t, "m1", s.Model)
	assert.Equal(t, 3, s.Dimensions)
	assert.Equal(t, 2, s.ContentLen())
	assert.Equal(t, 3, s.Len())
}

func TestShard_AppendRejectsOtherModel(t *testing.T) {
	s := &Shard{Name: "a", Model: "m1", Dimensions: 3}

	err := s.Append("m2", entry("1", 3))
	assert.ErrorIs(t, err, ErrModelMismatch)

	err = s.Append("m1", entry("1", 4))
	assert.ErrorIs(t, err, ErrModelMismatch)
	assert.Equal(t, 0, s.Len())
}

func TestShard_LegacyAcceptsAnyModel(t *testing.T) {
	s := &Shard{Name: "legacy"}
	require.NoError(t, s.Append("m2", entry("1", 5)))
	assert.Equal(t, "m2", s.Model)
}

func TestShard_MergeKeepsDuplicatesAndOneBootstrap(t *testing.T) {
	a := NewBootstrapShard("a")
	require.NoError(t, a.Append("m", entry("1", 2)))
	b := NewBootstrapShard("b")
	require.NoError(t, b.Append("m", entry("1", 2)))

	g := NewBootstrapShard("g")
	require.NoError(t, g.Merge(a))
	require.NoError(t, g.Merge(b))

	assert.Equal(t, 2, g.ContentLen())
	assert.Equal(t, 3, g.Len())
}

func TestManifest_Helpers(t *testing.T) {
	m := &Manifest{ID: "doc"}
	assert.Nil(t, m.Latest())
	assert.Equal(t, 1, m.NextIndex())

	m.Versions = append(m.Versions, Version{Text: "one"}, Version{Text: "two"})
	assert.Equal(t, "two", m.Latest().Text)
	assert.Equal(t, 3, m.NextIndex())

	v, err := m.VersionAt(1)
	require.NoError(t, err)
	assert.Equal(t, "one", v.Text)

	_, err = m.VersionAt(3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "doc_v2", VersionTag("doc", 2))
}

func TestMeta_Accessors(t *testing.T) {
	m := Meta{
		MetaSource:       "whisper",
		MetaVersionIndex: float64(3),
		MetaCanonical:    true,
	}

	n, ok := m.Int(MetaVersionIndex)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = m.Int(MetaSource)
	assert.False(t, ok)
	assert.True(t, m.Bool(MetaCanonical))
	assert.Equal(t, "whisper", m.Source())
	assert.Equal(t, SourceUnknown, Meta{}.Source())

	c := m.Clone()
	c[MetaSource] = "picked"
	assert.Equal(t, "whisper", m.String(MetaSource))

	assert.NotNil(t, Meta(nil).Clone())
}

func TestOAuthToken(t *testing.T) {
	tok := &OAuthToken{AccessToken: "a"}
	assert.False(t, tok.IsExpired())
	assert.False(t, tok.CanRefresh())

	tok.Expiry = time.Now().Add(-time.Minute)
	tok.RefreshToken = "r"
	assert.True(t, tok.IsExpired())
	assert.True(t, tok.CanRefresh())
}
