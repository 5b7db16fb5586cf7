// Package ai builds the embedding, LLM and transcription adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/quill/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/quill/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/quill/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/quill/internal/adapters/driven/llm/openai"
	whisper "github.com/custodia-labs/quill/internal/adapters/driven/transcribe/openai"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the optional AI adapters. A nil field means the feature
// is not configured; Warnings says why.
type Services struct {
	Embedding   driven.EmbeddingService
	LLM         driven.LLMService
	Transcriber driven.Transcriber
	Warnings    []string
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		_ = s.Embedding.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// NewServices creates every adapter the settings allow. Nothing is contacted;
// a service that cannot be created is left nil with a warning.
func NewServices(settings *domain.AppSettings) *Services {
	out := &Services{}
	if settings == nil {
		out.Warnings = append(out.Warnings, "no settings")
		return out
	}

	embed, err := CreateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		out.Warnings = append(out.Warnings, fmt.Sprintf("embeddings disabled: %v", err))
	case embed == nil:
		out.Warnings = append(out.Warnings, "embeddings disabled: set openai.api_key or embedding.provider=ollama")
	default:
		out.Embedding = embed
	}

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		out.Warnings = append(out.Warnings, fmt.Sprintf("LLM disabled: %v", err))
	case llm == nil:
		out.Warnings = append(out.Warnings, "LLM disabled: set openai.api_key or llm.provider=ollama")
	default:
		out.LLM = llm
	}

	tr, err := CreateTranscriber(settings.LLM.APIKey, settings.TranscriptionModel)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("transcription disabled: %v", err))
	} else {
		out.Transcriber = tr
	}

	for _, w := range out.Warnings {
		logger.Debug("AI: %s", w)
	}
	return out
}

// CreateEmbeddingService creates the embedding service for the configured provider.
// Returns nil without error if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the chat service for the configured provider.
// Returns nil without error if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateTranscriber creates the Whisper transcriber. It needs an OpenAI key.
func CreateTranscriber(apiKey, model string) (driven.Transcriber, error) {
	tr, err := whisper.NewTranscriber(whisper.Config{APIKey: apiKey, Model: model})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// Pinger is satisfied by services that can check their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Validate pings each configured service and returns one result per name.
// A nil error means reachable.
func (s *Services) Validate(ctx context.Context) map[string]error {
	results := make(map[string]error)
	if s.Embedding != nil {
		results["embedding ("+s.Embedding.ModelName()+")"] = ping(ctx, s.Embedding)
	}
	if s.LLM != nil {
		results["llm ("+s.LLM.ModelName()+")"] = ping(ctx, s.LLM)
	}
	return results
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
