package vector

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.ShardCodec = (*Codec)(nil)

// Archive layout.
const (
	archiveDir     = "shard_index"
	indexMember    = "index.json"
	vectorsMember  = "vectors.gob"
	collectionName = "shard"
	formatVersion  = 1
)

// errNoEmbedder is returned if chromem ever asks to embed content itself.
// Every document handed to it carries a precomputed vector.
var errNoEmbedder = errors.New("vector: embeddings must be precomputed")

// indexFile is the JSON member of a shard archive.
type indexFile struct {
	Version    int          `json:"version"`
	Model      string       `json:"model,omitempty"`
	Dimensions int          `json:"dimensions,omitempty"`
	Entries    []indexEntry `json:"entries"`
}

type indexEntry struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Metadata domain.Meta `json:"metadata,omitempty"`

	// Vector is set when the entry has an embedding in the chromem export.
	Vector bool `json:"vector,omitempty"`
}

// Codec encodes shards as zip archives.
type Codec struct{}

// NewCodec creates a shard codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode writes the shard as a zip archive.
func (c *Codec) Encode(shard *domain.Shard) ([]byte, error) {
	if shard == nil {
		return nil, fmt.Errorf("encode nil shard: %w", domain.ErrInvalidInput)
	}

	idx := indexFile{
		Version:    formatVersion,
		Model:      shard.Model,
		Dimensions: shard.Dimensions,
		Entries:    make([]indexEntry, len(shard.Entries)),
	}
	for i, e := range shard.Entries {
		idx.Entries[i] = indexEntry{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: e.Metadata,
			Vector:   len(e.Embedding) > 0,
		}
	}

	indexJSON, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("marshal shard index: %w", err)
	}
	vectors, err := exportVectors(shard.Entries)
	if err != nil {
		return nil, fmt.Errorf("export vectors of %s: %w", shard.Name, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range []struct {
		name string
		data []byte
	}{
		{path.Join(archiveDir, indexMember), indexJSON},
		{path.Join(archiveDir, vectorsMember), vectors},
	} {
		w, err := zw.Create(m.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", m.name, err)
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a zip archive produced by Encode.
func (c *Codec) Decode(name string, data []byte) (*domain.Shard, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt(name, err)
	}

	indexJSON, err := readMember(zr, indexMember)
	if err != nil {
		return nil, corrupt(name, err)
	}
	var idx indexFile
	dec := json.NewDecoder(bytes.NewReader(indexJSON))
	dec.UseNumber()
	if err := dec.Decode(&idx); err != nil {
		return nil, corrupt(name, err)
	}
	if idx.Version != formatVersion {
		return nil, corrupt(name, fmt.Errorf("unsupported format version %d", idx.Version))
	}

	var col *chromem.Collection
	if hasVectors(idx.Entries) {
		raw, err := readMember(zr, vectorsMember)
		if err != nil {
			return nil, corrupt(name, err)
		}
		if col, err = importVectors(raw); err != nil {
			return nil, corrupt(name, err)
		}
	}

	shard := &domain.Shard{
		Name:       name,
		Model:      idx.Model,
		Dimensions: idx.Dimensions,
		Entries:    make([]domain.Entry, len(idx.Entries)),
	}
	for i, e := range idx.Entries {
		entry := domain.Entry{ID: e.ID, Text: e.Text, Metadata: restoreNumbers(e.Metadata)}
		if e.Vector {
			doc, err := col.GetByID(context.Background(), strconv.Itoa(i))
			if err != nil {
				return nil, corrupt(name, fmt.Errorf("entry %d: %w", i, err))
			}
			entry.Embedding = doc.Embedding
		}
		shard.Entries[i] = entry
	}
	return shard, nil
}

// restoreNumbers turns decoded json.Number values back into int64 when they
// are integral and float64 otherwise.
func restoreNumbers(m domain.Meta) domain.Meta {
	out := make(domain.Meta, len(m))
	for k, v := range m {
		out[k] = restoreNumber(v)
	}
	return out
}

func restoreNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		return map[string]any(restoreNumbers(t))
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = restoreNumber(x)
		}
		return out
	default:
		return v
	}
}

// exportVectors stores every embedded entry in a chromem collection keyed by
// its position and exports the database.
func exportVectors(entries []domain.Entry) ([]byte, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, refuseEmbedding)
	if err != nil {
		return nil, err
	}

	docs := make([]chromem.Document, 0, len(entries))
	for i, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(i),
			Embedding: e.Embedding,
			Content:   e.Text,
		})
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := db.ExportToWriter(&buf, false, "", collectionName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func importVectors(raw []byte) (*chromem.Collection, error) {
	db := chromem.NewDB()
	if err := db.ImportFromReader(bytes.NewReader(raw), ""); err != nil {
		return nil, err
	}
	col := db.GetCollection(collectionName, refuseEmbedding)
	if col == nil {
		return nil, fmt.Errorf("collection %q missing from export", collectionName)
	}
	return col, nil
}

// readMember returns the named member from shard_index/ or the archive root.
func readMember(zr *zip.Reader, member string) ([]byte, error) {
	for _, candidate := range []string{path.Join(archiveDir, member), member} {
		f, err := zr.Open(candidate)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", candidate, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("archive has no %s", member)
}

func hasVectors(entries []indexEntry) bool {
	for _, e := range entries {
		if e.Vector {
			return true
		}
	}
	return false
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}

func corrupt(name string, err error) error {
	return fmt.Errorf("decode shard %s: %w: %w", name, domain.ErrCorruptArtifact, err)
}
