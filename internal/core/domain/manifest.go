package domain

import (
	"fmt"
	"time"
)

// Well-known version metadata keys.
const (
	MetaSource       = "source"
	MetaVersionIndex = "version_index"
	MetaVersionTag   = "version_tag"
	MetaCanonical    = "canonical"
	MetaDocID        = "doc_id"
	MetaCreatedAt    = "created_at"
	MetaChunk        = "chunk"
	MetaBootstrap    = "bootstrap"
)

// Origin tags recorded in MetaSource.
const (
	SourceManualEdit = "manual-edit"
	SourceWhisper    = "whisper"
	SourcePicked     = "picked"
	SourceEditorLLM  = "editor-llm"
	SourceImport     = "import"
	SourceUnknown    = "unknown"
)

// Manifest is the full version history of one document.
// Versions are ordered chronologically and only ever appended.
type Manifest struct {
	// ID is the document identifier. Immutable.
	ID string `json:"id"`

	// CreatedAt is the creation time in epoch seconds.
	CreatedAt int64 `json:"created_at"`

	// Versions is the append-only version log.
	Versions []Version `json:"versions"`
}

// Version is one immutable snapshot of a document.
type Version struct {
	// TS is the time the version was appended, in epoch seconds.
	TS int64 `json:"ts"`

	// Text is the full document text for this version.
	Text string `json:"text"`

	// Meta is free-form metadata (source, version_index, version_tag, ...).
	Meta Meta `json:"meta"`
}

// Latest returns the most recent version, or nil for an empty manifest.
func (m *Manifest) Latest() *Version {
	if m == nil || len(m.Versions) == 0 {
		return nil
	}
	return &m.Versions[len(m.Versions)-1]
}

// NextIndex returns the 1-based index the next appended version will get.
// The version count is the authoritative source of the index.
func (m *Manifest) NextIndex() int {
	return len(m.Versions) + 1
}

// VersionAt returns the version with the given 1-based index.
func (m *Manifest) VersionAt(index int) (*Version, error) {
	if index < 1 || index > len(m.Versions) {
		return nil, fmt.Errorf("version %d of %q: %w", index, m.ID, ErrNotFound)
	}
	return &m.Versions[index-1], nil
}

// CreatedTime returns CreatedAt as a time.Time.
func (m *Manifest) CreatedTime() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// VersionTag derives the tag for the given document and 1-based index.
func VersionTag(docID string, index int) string {
	return fmt.Sprintf("%s_v%d", docID, index)
}

// VersionKey is the composite key of a version blob.
type VersionKey struct {
	DocID  string
	Source string
	Index  int
}

// ManifestRef identifies a persisted manifest and the version just written.
type ManifestRef struct {
	// DocID is the document identifier.
	DocID string

	// BlobID is the store identifier of the manifest blob.
	BlobID string

	// VersionCount is the number of versions after the write.
	VersionCount int

	// VersionBlob is the name of the version blob written, if any.
	VersionBlob string
}

// Meta is free-form metadata attached to versions and shard entries.
type Meta map[string]any

// Clone returns a shallow copy. A nil Meta clones to an empty map.
func (m Meta) Clone() Meta {
	out := make(Meta, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns the string value of key, or "".
func (m Meta) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the integer value of key.
// JSON decoding yields float64 for numbers, so several numeric types are accepted.
func (m Meta) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean value of key.
func (m Meta) Bool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Source returns the origin tag, defaulting to SourceUnknown.
func (m Meta) Source() string {
	if s := m.String(MetaSource); s != "" {
		return s
	}
	return SourceUnknown
}
