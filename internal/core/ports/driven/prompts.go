package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptEditorSystem is the system prompt for book revision.
	// This prompt has no format placeholders.
	PromptEditorSystem = "editor_system"

	// PromptAskSystem is the system prompt for answering questions over indexed chunks.
	// This prompt has no format placeholders.
	PromptAskSystem = "ask_system"

	// PromptChatSystem is the system prompt for chat turns citing memory and manuscript chunks.
	// This prompt has no format placeholders.
	PromptChatSystem = "chat_system"

	// PromptChatSummary is the system prompt for updating a chat's rolling summary.
	// This prompt has no format placeholders.
	PromptChatSummary = "chat_summary"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses built-in default prompts.
	SetPromptStore(store PromptStore)
}
