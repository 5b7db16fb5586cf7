package driving

import "github.com/custodia-labs/quill/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current settings from configuration and environment.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set stores a single configuration key after validating it.
	Set(key, value string) error

	// SetAPIKey stores the OpenAI API key.
	SetAPIKey(key string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys returns the recognised configuration keys.
	Keys() []string
}
