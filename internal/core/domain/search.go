package domain

import "fmt"

// RetrievalMode selects how search candidates are ranked.
type RetrievalMode string

// Available retrieval modes.
const (
	// RetrievalSimilarity returns the top-k chunks by cosine similarity.
	RetrievalSimilarity RetrievalMode = "similarity"

	// RetrievalMMR reranks fetch_k candidates with maximal marginal relevance.
	RetrievalMMR RetrievalMode = "mmr"
)

// Retrieval defaults.
const (
	DefaultK         = 6
	DefaultLambda    = 0.5
	MinFetchK        = 12
	DefaultMode      = RetrievalMMR
	fetchKMultiplier = 2
)

// IsValid returns true if the retrieval mode is recognised.
func (m RetrievalMode) IsValid() bool {
	return m == RetrievalSimilarity || m == RetrievalMMR
}

// String returns the string representation.
func (m RetrievalMode) String() string {
	return string(m)
}

// ParseRetrievalMode parses a mode name. Empty selects the default.
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	if s == "" {
		return DefaultMode, nil
	}
	m := RetrievalMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("retrieval mode %q: %w", s, ErrInvalidInput)
	}
	return m, nil
}

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// K is the number of results to return. K <= 0 returns nothing.
	K int

	// Mode selects similarity or MMR ranking. Empty means DefaultMode.
	Mode RetrievalMode

	// Lambda trades relevance (1) against diversity (0) in MMR.
	// Zero means DefaultLambda unless LambdaSet is true.
	Lambda float64

	// LambdaSet marks Lambda as explicit, so that zero selects pure diversity.
	LambdaSet bool

	// FetchK is the MMR candidate pool size. Zero means max(12, 2k).
	FetchK int
}

// Normalized returns a copy with defaults filled in.
func (o SearchOptions) Normalized() SearchOptions {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Lambda == 0 && !o.LambdaSet {
		o.Lambda = DefaultLambda
	}
	o.LambdaSet = true
	if o.FetchK <= 0 {
		o.FetchK = max(MinFetchK, fetchKMultiplier*o.K)
	}
	if o.FetchK < o.K {
		o.FetchK = o.K
	}
	return o
}

// WithLambda returns a copy with an explicit lambda.
func (o SearchOptions) WithLambda(lambda float64) SearchOptions {
	o.Lambda = lambda
	o.LambdaSet = true
	return o
}

// Validate checks the options for out-of-range values.
func (o SearchOptions) Validate() error {
	if o.Mode != "" && !o.Mode.IsValid() {
		return fmt.Errorf("retrieval mode %q: %w", o.Mode, ErrInvalidInput)
	}
	if o.Lambda < 0 || o.Lambda > 1 {
		return fmt.Errorf("lambda %.2f outside [0,1]: %w", o.Lambda, ErrInvalidInput)
	}
	return nil
}

// ScoredChunk is a search hit with provenance.
type ScoredChunk struct {
	// Text is the chunk text.
	Text string

	// Score is the cosine similarity to the query (higher is closer).
	Score float64

	// Metadata is the entry metadata (doc_id, version_tag, source, ...).
	Metadata Meta

	// Shard is the name of the shard the chunk came from.
	Shard string
}

// DocID returns the owning document identifier.
func (c ScoredChunk) DocID() string {
	return c.Metadata.String(MetaDocID)
}

// VersionTag returns the version tag the chunk was indexed from, if any.
func (c ScoredChunk) VersionTag() string {
	return c.Metadata.String(MetaVersionTag)
}

// Candidate is a similarity hit returned by a vector index before reranking.
type Candidate struct {
	Entry      Entry
	Similarity float64
}
