package driven

// ConfigStore holds the flattened settings keys ("storage.backend",
// "search.lambda", ...). Getters convert between the types a store may
// decode a value as and return the zero value for a missing key.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integer values, so "lambda = 1" reads as 1.0.
	GetFloat(key string) float64

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save writes the current values to storage.
	Save() error

	// Load replaces the current values with what is in storage.
	Load() error

	// Path returns where the values are persisted.
	Path() string
}
