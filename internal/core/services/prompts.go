package services

import (
	"strings"

	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// DefaultPrompts returns the built-in prompts keyed by prompt name.
// File-based prompt stores seed their files from it.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptEditorSystem: defaultEditorSystemPrompt,
		driven.PromptAskSystem:    defaultAskSystemPrompt,
		driven.PromptChatSystem:   defaultChatSystemPrompt,
		driven.PromptChatSummary:  defaultChatSummaryPrompt,
	}
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}
