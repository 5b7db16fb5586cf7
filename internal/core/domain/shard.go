package domain

import "fmt"

// BootstrapText is the content of the placeholder entry that keeps a shard
// non-empty for index libraries that reject empty collections.
const BootstrapText = "__bootstrap__"

// Shard is a persisted vector index keyed by name.
// Entries are kept in insertion order.
type Shard struct {
	// Name is the blob name of the shard (e.g. "chapter-1.faiss.zip").
	Name string

	// Model is the embedding model that produced the vectors.
	// Empty for shards written before models were recorded.
	Model string

	// Dimensions is the vector length. Zero until the first real entry.
	Dimensions int

	// Entries are the indexed chunks, including any bootstrap placeholder.
	Entries []Entry
}

// Entry is one indexed chunk.
type Entry struct {
	// ID is unique within a shard.
	ID string

	// Text is the chunk text.
	Text string

	// Embedding is the vector for Text.
	Embedding []float32

	// Metadata always carries doc_id and created_at for real entries.
	Metadata Meta
}

// IsBootstrap reports whether the entry is the placeholder.
func (e *Entry) IsBootstrap() bool {
	return e.Metadata.Bool(MetaBootstrap)
}

// DocID returns the owning document identifier.
func (e *Entry) DocID() string {
	return e.Metadata.String(MetaDocID)
}

// NewBootstrapShard returns a shard holding only the placeholder entry.
func NewBootstrapShard(name string) *Shard {
	return &Shard{
		Name: name,
		Entries: []Entry{{
			ID:       "bootstrap",
			Text:     BootstrapText,
			Metadata: Meta{MetaBootstrap: true},
		}},
	}
}

// Len returns the number of entries, including the placeholder.
func (s *Shard) Len() int {
	return len(s.Entries)
}

// ContentLen returns the number of non-placeholder entries.
func (s *Shard) ContentLen() int {
	n := 0
	for i := range s.Entries {
		if !s.Entries[i].IsBootstrap() {
			n++
		}
	}
	return n
}

// ContentEntries returns all entries except the placeholder.
func (s *Shard) ContentEntries() []Entry {
	out := make([]Entry, 0, len(s.Entries))
	for i := range s.Entries {
		if !s.Entries[i].IsBootstrap() {
			out = append(out, s.Entries[i])
		}
	}
	return out
}

// Compatible checks whether vectors from model with the given dimensions
// can be added to this shard. Unstamped shards accept anything.
func (s *Shard) Compatible(model string, dimensions int) error {
	if s.Model != "" && model != "" && s.Model != model {
		return fmt.Errorf("shard %s built with %q, got %q: %w", s.Name, s.Model, model, ErrModelMismatch)
	}
	if s.Dimensions > 0 && dimensions > 0 && s.Dimensions != dimensions {
		return fmt.Errorf("shard %s has %d dimensions, got %d: %w", s.Name, s.Dimensions, dimensions, ErrModelMismatch)
	}
	return nil
}

// Stamp records the model and dimensions if the shard has none yet.
func (s *Shard) Stamp(model string, dimensions int) {
	if s.Model == "" {
		s.Model = model
	}
	if s.Dimensions == 0 {
		s.Dimensions = dimensions
	}
}

// Append adds entries after checking model compatibility.
// Entries are appended as-is: no de-duplication.
func (s *Shard) Append(model string, entries ...Entry) error {
	for i := range entries {
		if entries[i].IsBootstrap() {
			continue
		}
		dims := len(entries[i].Embedding)
		if err := s.Compatible(model, dims); err != nil {
			return err
		}
		s.Stamp(model, dims)
	}
	for i := range entries {
		if entries[i].IsBootstrap() && s.hasBootstrap() {
			continue
		}
		s.Entries = append(s.Entries, entries[i])
	}
	return nil
}

// Merge appends every entry of other into s. Duplicate content is kept.
func (s *Shard) Merge(other *Shard) error {
	if err := s.Compatible(other.Model, other.Dimensions); err != nil {
		return err
	}
	return s.Append(other.Model, other.Entries...)
}

func (s *Shard) hasBootstrap() bool {
	for i := range s.Entries {
		if s.Entries[i].IsBootstrap() {
			return true
		}
	}
	return false
}

// UpsertResult reports the outcome of adding texts to a document and the global shard.
type UpsertResult struct {
	// DocShardID is the store identifier of the per-document shard blob.
	DocShardID string

	// GlobalShardID is the store identifier of the global shard blob.
	GlobalShardID string

	// Added is the number of entries added to each shard.
	Added int
}

// RebuildResult reports the outcome of rebuilding the global shard.
type RebuildResult struct {
	// SourcesMerged is the number of per-document shards merged.
	SourcesMerged int

	// Skipped counts per-document shards that failed to load or merge.
	Skipped int

	// Entries is the number of non-placeholder entries in the new global shard.
	Entries int

	// GlobalShardID is the store identifier of the global shard blob.
	GlobalShardID string
}
