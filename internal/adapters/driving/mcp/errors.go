// Package mcp exposes quill's manuscript search and version history to MCP
// clients over stdio or streamable HTTP.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")

// ErrMissingVersions is returned when the version repository is not provided.
var ErrMissingVersions = errors.New("mcp: version repository is required")
