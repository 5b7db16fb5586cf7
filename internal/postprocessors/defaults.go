package postprocessors

import (
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/postprocessors/chunker"
)

// DefaultSplitter is used when no strategy is configured.
const DefaultSplitter = "fixed"

// RegisterDefaults registers all built-in splitters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("fixed", buildFixed)
	r.Register("paragraph", buildParagraph)
}

// NewDefaultRegistry returns a registry with the built-in splitters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildFixed creates a fixed-window chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1500)
//   - overlap (int): Overlapping characters between chunks (default: 100)
func buildFixed(cfg map[string]any) (driven.Splitter, error) {
	return chunker.New(chunkerOptions(cfg)...), nil
}

// buildParagraph creates a paragraph-packing chunker with the same config keys.
func buildParagraph(cfg map[string]any) (driven.Splitter, error) {
	return chunker.NewParagraph(chunkerOptions(cfg)...), nil
}

func chunkerOptions(cfg map[string]any) []chunker.Option {
	var opts []chunker.Option
	if cfg == nil {
		return opts
	}
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}
	return opts
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
