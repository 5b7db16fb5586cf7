// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/quill/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.ScoredChunk
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewDocuments lists the documents in the store.
	ViewDocuments
	// ViewDocContent shows the text of one version.
	ViewDocContent
	// ViewDocDetails shows the version history of a document.
	ViewDocDetails
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewDocDetails:
		return "doc_details"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the document identifiers in the store.
type DocumentsLoaded struct {
	Documents []string
	Err       error
}

// DocumentSelected asks for the text of a document.
// Version is the 1-based version index; zero selects the latest.
type DocumentSelected struct {
	DocID   string
	Version int

	// From is the view to return to when the content view is closed.
	From ViewType
}

// DocumentContentLoaded carries the text of one version.
type DocumentContentLoaded struct {
	DocID   string
	Version int
	Tag     string
	Source  string
	Content string
	Err     error
}

// DocumentDetailsLoaded carries the manifest of a document.
type DocumentDetailsLoaded struct {
	DocID    string
	Manifest *domain.Manifest
	From     ViewType
	Err      error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals a setting was stored.
type SettingsSaved struct {
	Key string
	Err error
}
