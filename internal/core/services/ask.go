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

// Ensure AskService implements the interfaces.
var (
	_ driving.Asker           = (*AskService)(nil)
	_ driven.PromptStoreAware = (*AskService)(nil)
)

const (
	askTemperature = 0.2
	askMaxTokens   = 2048
)

// defaultAskSystemPrompt is the fallback prompt when no PromptStore is configured.
const defaultAskSystemPrompt = `Você é um assistente editorial.
Use o ACERVO global ([A#]) para conteúdo factual do conhecimento do usuário.
Cite as fontes com [A#]. Seja objetivo.`

// AskService answers questions grounded on the global shard.
type AskService struct {
	retriever   driving.Retriever
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewAskService creates a new ask service.
func NewAskService(retriever driving.Retriever, llm driven.LLMService) *AskService {
	return &AskService{retriever: retriever, llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *AskService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ask retrieves chunks from the global shard and generates an answer citing them.
// With no relevant chunks the question is sent on its own.
func (s *AskService) Ask(ctx context.Context, question string, opts domain.SearchOptions) (*driving.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	sources, err := s.retriever.SearchGlobal(ctx, question, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	logger.Debug("Answering with %d source chunk(s)", len(sources))

	system := loadPrompt(s.promptStore, driven.PromptAskSystem, defaultAskSystemPrompt)
	text, err := s.llm.Generate(ctx, system, BuildAskPrompt(question, sources), driven.GenerateOptions{
		MaxTokens:   askMaxTokens,
		Temperature: askTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &driving.Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
		Refs:    SourceRefs(sources),
	}, nil
}

// BuildAskPrompt assembles the user message with numbered [A#] context blocks.
func BuildAskPrompt(question string, sources []domain.ScoredChunk) string {
	if len(sources) == 0 {
		return question
	}

	blocks := make([]string, len(sources))
	for i, src := range sources {
		blocks[i] = fmt.Sprintf("[A%d] %s", i+1, src.Text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PERGUNTA: %s\n\n", question)
	b.WriteString("ACERVO (trechos relevantes):\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nINSTRUÇÕES:\n")
	b.WriteString("- Use o acervo [A#] para fundamentar fatos do conhecimento do usuário.\n")
	b.WriteString("- Cite as fontes com [A#].")
	return b.String()
}

// SourceRefs formats "[A#] doc_id • version_tag" citations.
func SourceRefs(sources []domain.ScoredChunk) []string {
	refs := make([]string, len(sources))
	for i, src := range sources {
		docID := src.DocID()
		if docID == "" {
			docID = "doc"
		}
		ref := fmt.Sprintf("[A%d] %s", i+1, docID)
		if tag := src.VersionTag(); tag != "" {
			ref += " • " + tag
		}
		refs[i] = ref
	}
	return refs
}
