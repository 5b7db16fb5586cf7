package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStorageBackend     = "storage.backend"
	keyStorageLocalDir    = "storage.local_dir"
	keyDriveRootFolder    = "drive.root_folder"
	keyGoogleClientID     = "google.client_id"
	keyGoogleClientSecret = "google.client_secret"
	keyOpenAIAPIKey       = "openai.api_key"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyChunkStrategy      = "chunker.strategy"
	keyChunkSize          = "chunker.chunk_size"
	keyChunkOverlap       = "chunker.overlap"
	keySearchK            = "search.k"
	keySearchMode         = "search.mode"
	keySearchLambda       = "search.lambda"
	keyTranscriptionModel = "transcription.model"
)

// Environment variables that override configuration.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvEmbeddingModel     = "OPENAI_EMBEDDINGS_MODEL"
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
)

// SettingsService resolves application settings from the config store
// and the environment. Environment values win over stored ones.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	apiKey := s.getEnvOr(EnvOpenAIAPIKey, s.configStore.GetString(keyOpenAIAPIKey))

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	embedModel := s.getString(keyEmbedModel, "")
	if embedModel == "" {
		embedModel = domain.DefaultEmbeddingModels()[provider]
	}
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)
	llmModel := s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider])

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend:         s.getBackend(defaults.Storage.Backend),
			LocalDir:        s.configStore.GetString(keyStorageLocalDir),
			DriveRootFolder: s.getString(keyDriveRootFolder, defaults.Storage.DriveRootFolder),
		},
		Google: domain.GoogleSettings{
			ClientID:     s.getEnvOr(EnvGoogleClientID, s.configStore.GetString(keyGoogleClientID)),
			ClientSecret: s.getEnvOr(EnvGoogleClientSecret, s.configStore.GetString(keyGoogleClientSecret)),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: provider,
			Model:    s.getEnvOr(EnvEmbeddingModel, embedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    llmModel,
			APIKey:   apiKey,
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		},
		Chunker: domain.ChunkerSettings{
			Strategy:  s.getString(keyChunkStrategy, defaults.Chunker.Strategy),
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunker.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunker.Overlap),
		},
		Search: domain.SearchSettings{
			K:      s.getInt(keySearchK, defaults.Search.K),
			Mode:   s.getMode(defaults.Search.Mode),
			Lambda: s.getFloat(keySearchLambda, defaults.Search.Lambda),
		},
		TranscriptionModel: s.getString(keyTranscriptionModel, defaults.TranscriptionModel),
	}
	if provider.RequiresAPIKey() {
		settings.Embedding.APIKey = apiKey
	}

	return settings, nil
}

// Save persists application settings. Empty secrets are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageLocalDir, settings.Storage.LocalDir},
		{keyDriveRootFolder, settings.Storage.DriveRootFolder},
		{keyGoogleClientID, settings.Google.ClientID},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkStrategy, settings.Chunker.Strategy},
		{keyChunkSize, settings.Chunker.ChunkSize},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keySearchK, settings.Search.K},
		{keySearchMode, string(settings.Search.Mode)},
		{keySearchLambda, settings.Search.Lambda},
		{keyTranscriptionModel, settings.TranscriptionModel},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Google.ClientSecret != "" {
		if err := s.configStore.Set(keyGoogleClientSecret, settings.Google.ClientSecret); err != nil {
			return fmt.Errorf("save %s: %w", keyGoogleClientSecret, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyOpenAIAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyOpenAIAPIKey, err)
		}
	}
	return nil
}

// Set parses, validates and stores one configuration key.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	var stored any = value
	switch key {
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("invalid storage backend %q: %w", value, domain.ErrInvalidInput)
		}
	case keyEmbedProvider, keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("invalid provider %q for %s: %w", value, key, domain.ErrInvalidInput)
		}
	case keySearchMode:
		if _, err := domain.ParseRetrievalMode(value); err != nil {
			return err
		}
	case keyChunkSize, keyChunkOverlap, keySearchK:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer: %w", key, domain.ErrInvalidInput)
		}
		if err := s.validateChunker(key, n); err != nil {
			return err
		}
		stored = n
	case keySearchLambda:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%s must be between 0 and 1: %w", key, domain.ErrInvalidInput)
		}
		stored = f
	case keyStorageLocalDir, keyDriveRootFolder, keyGoogleClientID, keyGoogleClientSecret,
		keyOpenAIAPIKey, keyEmbedModel, keyEmbedBaseURL, keyLLMModel, keyLLMBaseURL,
		keyChunkStrategy, keyTranscriptionModel:
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	return s.configStore.Set(key, stored)
}

// SetAPIKey stores the OpenAI API key.
func (s *SettingsService) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty API key: %w", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyOpenAIAPIKey, key)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys returns the recognised configuration keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyStorageBackend, keyStorageLocalDir, keyDriveRootFolder,
		keyGoogleClientID, keyGoogleClientSecret, keyOpenAIAPIKey,
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL,
		keyLLMProvider, keyLLMModel, keyLLMBaseURL,
		keyChunkStrategy, keyChunkSize, keyChunkOverlap,
		keySearchK, keySearchMode, keySearchLambda,
		keyTranscriptionModel,
	}
	sort.Strings(keys)
	return keys
}

// validateChunker checks a new chunk size or overlap against the other value.
func (s *SettingsService) validateChunker(key string, n int) error {
	current, err := s.Get()
	if err != nil {
		return err
	}
	chunker := current.Chunker
	switch key {
	case keyChunkSize:
		chunker.ChunkSize = n
	case keyChunkOverlap:
		chunker.Overlap = n
	default:
		return nil
	}
	return chunker.Validate()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getEnvOr(name, fallback string) string {
	if s.getenv == nil {
		return fallback
	}
	if v := strings.TrimSpace(s.getenv(name)); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getMode(defaultVal domain.RetrievalMode) domain.RetrievalMode {
	val := s.configStore.GetString(keySearchMode)
	if val == "" {
		return defaultVal
	}
	mode, err := domain.ParseRetrievalMode(val)
	if err != nil {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
