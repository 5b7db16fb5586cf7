package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects where manifests, version blobs and shards live.
type StorageBackend string

// Available storage backends.
const (
	// StorageDrive stores blobs in a Google Drive folder tree.
	StorageDrive StorageBackend = "drive"

	// StorageLocal stores blobs in a local SQLite database.
	StorageLocal StorageBackend = "local"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageDrive || b == StorageLocal
}

// StorageSettings holds blob store configuration.
type StorageSettings struct {
	// Backend is the blob store in use.
	Backend StorageBackend

	// LocalDir is the directory for the local SQLite store.
	LocalDir string

	// DriveRootFolder is the name of the top-level Drive folder.
	DriveRootFolder string
}

// GoogleSettings holds OAuth client credentials for Drive.
type GoogleSettings struct {
	ClientID     string
	ClientSecret string
}

// IsConfigured returns true if client credentials are present.
func (g GoogleSettings) IsConfigured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds chat-completion configuration.
type LLMSettings struct {
	// Provider is the chat-completion provider.
	Provider AIProvider

	// Model is the chat model name.
	Model string

	// APIKey is the OpenAI API key.
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// IsConfigured returns true if the LLM can be reached.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	return !l.Provider.RequiresAPIKey() || l.APIKey != ""
}

// ChunkerSettings holds text splitting configuration.
type ChunkerSettings struct {
	// Strategy names the splitter ("fixed" or "paragraph").
	Strategy  string
	ChunkSize int
	Overlap   int
}

// Validate checks chunk size and overlap.
func (c ChunkerSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %d: %w", c.ChunkSize, ErrInvalidInput)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("overlap %d for chunk size %d: %w", c.Overlap, c.ChunkSize, ErrInvalidInput)
	}
	return nil
}

// SearchSettings holds retrieval defaults.
type SearchSettings struct {
	K      int
	Mode   RetrievalMode
	Lambda float64
}

// Options converts the settings into SearchOptions.
func (s SearchSettings) Options() SearchOptions {
	return SearchOptions{K: s.K, Mode: s.Mode}.WithLambda(s.Lambda)
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Google    GoogleSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunker   ChunkerSettings
	Search    SearchSettings

	// TranscriptionModel is the speech-to-text model name.
	TranscriptionModel string
}

// Default model names and sizes.
const (
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultLLMModel           = "gpt-4o-mini"
	DefaultTranscriptionModel = "whisper-1"
	DefaultDriveRootFolder    = "Agente_Livro"
	DefaultChunkStrategy      = "fixed"
	DefaultChunkSize          = 1500
	DefaultChunkOverlap       = 100
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty; they come from config or the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend:         StorageLocal,
			DriveRootFolder: DefaultDriveRootFolder,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModel,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModel,
		},
		Chunker: ChunkerSettings{
			Strategy:  DefaultChunkStrategy,
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Search: SearchSettings{
			K:      DefaultK,
			Mode:   DefaultMode,
			Lambda: DefaultLambda,
		},
		TranscriptionModel: DefaultTranscriptionModel,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: DefaultEmbeddingModel,
	}
}

// DefaultLLMModels returns default chat models for each provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: DefaultLLMModel,
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
