// Package services implements the driving port interfaces.
// Services hold the versioning, indexing and retrieval logic and
// orchestrate calls to driven ports (adapters).
//
// Services are pure Go: third-party libraries live in adapters.
package services
