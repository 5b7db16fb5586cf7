package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoRetriever indicates that no retriever was provided.
	ErrNoRetriever = errors.New("retriever is required")

	// ErrNoVersions indicates that no version repository was provided.
	ErrNoVersions = errors.New("version repository is required")
)
