package tui

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("tui: retriever is required")

// ErrMissingVersions is returned when the version repository is not provided.
var ErrMissingVersions = errors.New("tui: version repository is required")

// ErrMissingSettings is returned when the settings service is not provided.
var ErrMissingSettings = errors.New("tui: settings service is required")

// ErrInvalidPorts is returned when no ports are given at all.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
