// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML settings at ~/.quill/config.toml
//   - PromptStore: editable LLM system prompts under ~/.quill/prompts
package file
