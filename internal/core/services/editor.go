package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
)

// Ensure EditorService implements the interfaces.
var (
	_ driving.Editor          = (*EditorService)(nil)
	_ driven.PromptStoreAware = (*EditorService)(nil)
)

// Editor generation parameters.
const (
	editorTemperature = 0.2
	editorMaxTokens   = 4096
	defaultLanguage   = "PT-BR"
)

// defaultEditorSystemPrompt is the fallback prompt when no PromptStore is configured.
const defaultEditorSystemPrompt = `Você é um editor de livros tradicional.
TAREFA: revisar o texto fornecido, mantendo o conteúdo factual e a organização original na medida do possível.
- NÃO invente fatos, personagens, eventos ou conteúdos novos.
- Corrija gramática, concordância, ortografia, pontuação e fluidez.
- Padronize aspas, travessões e formatação; quebre parágrafos muito longos quando fizer sentido.
- Preserve citações e nomes próprios. Mantenha o sentido.
- Se as instruções do usuário pedirem estilo/voz/audiência, aplique sem acrescentar novas ideias.
- Saída: somente o texto final revisado, sem explicações, sem markdown extra.`

// EditorService revises documents with an LLM and promotes earlier versions.
type EditorService struct {
	versions    driving.VersionRepository
	indexer     driving.Indexer
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewEditorService creates a new editor service.
// The llm is optional; without it Revise returns ErrLLMUnavailable.
func NewEditorService(
	versions driving.VersionRepository,
	indexer driving.Indexer,
	llm driven.LLMService,
) *EditorService {
	return &EditorService{
		versions: versions,
		indexer:  indexer,
		llm:      llm,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *EditorService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Revise returns the LLM revision of the latest version (or opts.Text).
func (s *EditorService) Revise(ctx context.Context, docID string, opts driving.ReviseOptions) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	original := opts.Text
	if original == "" {
		manifest, err := s.versions.Get(ctx, docID)
		if err != nil {
			return "", err
		}
		latest := manifest.Latest()
		if latest == nil {
			return "", fmt.Errorf("document %s has no versions: %w", docID, domain.ErrNotFound)
		}
		original = latest.Text
	}
	if strings.TrimSpace(original) == "" {
		return "", fmt.Errorf("nothing to revise in %s: %w", docID, domain.ErrInvalidInput)
	}

	logger.Debug("Revising %s (%d chars) with %s", docID, len(original), s.llm.ModelName())
	system := loadPrompt(s.promptStore, driven.PromptEditorSystem, defaultEditorSystemPrompt)
	revised, err := s.llm.Generate(ctx, system, BuildEditorPrompt(original, opts), driven.GenerateOptions{
		MaxTokens:   editorMaxTokens,
		Temperature: editorTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("revise %s: %w", docID, err)
	}
	return strings.TrimSpace(revised), nil
}

// ReviseAndSave revises, saves the result as an editor-llm version and indexes it.
func (s *EditorService) ReviseAndSave(
	ctx context.Context, docID string, opts driving.ReviseOptions,
) (string, *domain.ManifestRef, error) {
	revised, err := s.Revise(ctx, docID, opts)
	if err != nil {
		return "", nil, err
	}

	meta := domain.Meta{domain.MetaSource: domain.SourceEditorLLM}
	ref, _, err := s.indexer.SaveAndIndex(ctx, docID, revised, meta)
	return revised, ref, err
}

// Promote re-saves version index of docID as a new "picked" version and indexes it.
func (s *EditorService) Promote(
	ctx context.Context, docID string, index int, canonical bool,
) (*domain.ManifestRef, error) {
	manifest, err := s.versions.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	version, err := manifest.VersionAt(index)
	if err != nil {
		return nil, err
	}

	meta := domain.Meta{
		domain.MetaSource: domain.SourcePicked,
		"picked_from":     domain.VersionTag(docID, index),
	}
	if canonical {
		meta[domain.MetaCanonical] = true
	}

	logger.Debug("Promoting %s v%d (canonical=%t)", docID, index, canonical)
	ref, _, err := s.indexer.SaveAndIndex(ctx, docID, version.Text, meta)
	return ref, err
}

// BuildEditorPrompt assembles the user message for a revision.
func BuildEditorPrompt(original string, opts driving.ReviseOptions) string {
	language := opts.Language
	if language == "" {
		language = defaultLanguage
	}

	var b strings.Builder
	b.WriteString("Configurações desejadas para a edição:\n")
	fmt.Fprintf(&b, "- Idioma/norma: %s\n", language)
	if opts.Audience != "" {
		fmt.Fprintf(&b, "- Público-alvo: %s\n", opts.Audience)
	}
	if opts.Tone != "" {
		fmt.Fprintf(&b, "- Tom/voz: %s\n", opts.Tone)
	}
	if opts.Notes != "" {
		fmt.Fprintf(&b, "- Observações: %s\n", opts.Notes)
	}
	if opts.Instructions != "" {
		fmt.Fprintf(&b, "- Instruções específicas: %s\n", opts.Instructions)
	}
	b.WriteString("\n--- TEXTO ORIGINAL ---\n\n")
	b.WriteString(original)
	return b.String()
}
