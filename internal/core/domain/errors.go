package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested manifest, blob or shard does not exist.
	// Callers recover by falling back to create or treating it as "no prior data".
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a manifest already exists for the document.
	// Callers switch to append.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnsupportedType indicates no normaliser handles the content type.
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptArtifact indicates a persisted manifest or shard failed to decode.
	// Shards degrade to empty when this happens; manifests surface it.
	ErrCorruptArtifact = errors.New("corrupt artifact")

	// ErrModelMismatch indicates a shard was produced by a different embedding
	// model or dimensionality than the one in use.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Revision and question answering are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Indexing and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrTranscriberUnavailable indicates no speech-to-text service is configured.
	ErrTranscriberUnavailable = errors.New("transcription service unavailable")

	// ErrStorageUnavailable indicates no blob store backend is configured.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Authentication Errors.

	// ErrAuthRequired indicates the storage backend needs authentication but none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
