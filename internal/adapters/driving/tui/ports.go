// Package tui provides an interactive terminal user interface for quill.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Retriever answers searches over the global shard.
	Retriever driving.Retriever

	// Versions lists documents and reads their version history.
	Versions driving.VersionRepository

	// Settings reads and stores configuration.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	retriever driving.Retriever,
	versions driving.VersionRepository,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Retriever: retriever,
		Versions:  versions,
		Settings:  settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	if p.Versions == nil {
		return ErrMissingVersions
	}
	if p.Settings == nil {
		return ErrMissingSettings
	}
	return nil
}
