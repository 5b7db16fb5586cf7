package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string   `json:"query" jsonschema:"text to search for in the manuscript"`
	K      int      `json:"k,omitempty" jsonschema:"number of chunks to return (default 6)"`
	Mode   string   `json:"mode,omitempty" jsonschema:"ranking mode: similarity or mmr (default mmr)"`
	Lambda *float64 `json:"lambda,omitempty" jsonschema:"MMR relevance weight between 0 and 1 (default 0.5)"`
	DocID  string   `json:"doc_id,omitempty" jsonschema:"restrict the search to one document"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput is one search hit.
type ChunkOutput struct {
	DocID      string  `json:"doc_id"`
	VersionTag string  `json:"version_tag,omitempty"`
	Source     string  `json:"source,omitempty"`
	Shard      string  `json:"shard"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocID   string `json:"doc_id" jsonschema:"document identifier"`
	Version int    `json:"version,omitempty" jsonschema:"1-based version number (default latest)"`
}

// DocumentOutput is the output schema for the get_document tool.
type DocumentOutput struct {
	DocID        string `json:"doc_id"`
	Version      int    `json:"version"`
	VersionCount int    `json:"version_count"`
	VersionTag   string `json:"version_tag"`
	Source       string `json:"source"`
	Canonical    bool   `json:"canonical,omitempty"`
	SavedAt      string `json:"saved_at"`
	Text         string `json:"text"`
}

// ListDocumentsInput is the (empty) input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"question about the manuscript"`
	K        int    `json:"k,omitempty" jsonschema:"number of context chunks (default 6)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string   `json:"answer"`
	Refs   []string `json:"refs"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the manuscript for passages relevant to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Read a document version (latest by default)",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all document identifiers",
	}, s.handleListDocuments)

	if s.ports.Asker != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using the manuscript as context",
		}, s.handleAsk)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is empty: %w", domain.ErrInvalidInput)
	}

	mode, err := domain.ParseRetrievalMode(input.Mode)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	k := input.K
	if k <= 0 {
		k = domain.DefaultK
	}
	opts := domain.SearchOptions{K: k, Mode: mode}
	if input.Lambda != nil {
		opts = opts.WithLambda(*input.Lambda)
	}

	var hits []domain.ScoredChunk
	if input.DocID != "" {
		hits, err = s.ports.Retriever.SearchDocument(ctx, input.DocID, input.Query, opts)
	} else {
		hits, err = s.ports.Retriever.SearchGlobal(ctx, input.Query, opts)
	}
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]ChunkOutput, len(hits)),
		Count:   len(hits),
	}
	for i, h := range hits {
		output.Results[i] = ChunkOutput{
			DocID:      h.DocID(),
			VersionTag: h.VersionTag(),
			Source:     h.Metadata.Source(),
			Shard:      h.Shard,
			Score:      h.Score,
			Text:       h.Text,
		}
	}
	return nil, output, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if input.DocID == "" {
		return nil, DocumentOutput{}, fmt.Errorf("doc_id is empty: %w", domain.ErrInvalidInput)
	}

	manifest, err := s.ports.Versions.Get(ctx, input.DocID)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	index := input.Version
	if index == 0 {
		index = len(manifest.Versions)
	}
	version, err := manifest.VersionAt(index)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	return nil, DocumentOutput{
		DocID:        manifest.ID,
		Version:      index,
		VersionCount: len(manifest.Versions),
		VersionTag:   domain.VersionTag(manifest.ID, index),
		Source:       version.Meta.Source(),
		Canonical:    version.Meta.Bool(domain.MetaCanonical),
		SavedAt:      time.Unix(version.TS, 0).UTC().Format(time.RFC3339),
		Text:         version.Text,
	}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	ids, err := s.ports.Versions.ListDocuments(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return nil, ListDocumentsOutput{Documents: ids, Count: len(ids)}, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	k := input.K
	if k <= 0 {
		k = domain.DefaultK
	}
	answer, err := s.ports.Asker.Ask(ctx, input.Question, domain.SearchOptions{K: k})
	if err != nil {
		return nil, AskOutput{}, err
	}
	refs := answer.Refs
	if refs == nil {
		refs = []string{}
	}
	return nil, AskOutput{Answer: answer.Text, Refs: refs}, nil
}
