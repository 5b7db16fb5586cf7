package mcp

import (
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls into.
type Ports struct {
	// Retriever answers search queries.
	Retriever driving.Retriever

	// Versions reads manuscripts and their history.
	Versions driving.VersionRepository

	// Asker answers questions from the manuscript. Optional; the ask
	// tool is only registered when set.
	Asker driving.Asker
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	if p.Versions == nil {
		return ErrMissingVersions
	}
	return nil
}
