package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestSettingsShow_Defaults(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "[Storage]")
	assert.Contains(t, out, "Directory: (default)")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "[Search]")
	assert.Contains(t, out, "k: 6")
	assert.Contains(t, out, "Mode: mmr")
	assert.Contains(t, out, "Lambda: 0.50")
}

func TestSettingsShow_DriveBackend(t *testing.T) {
	m := setupTestServices(t)
	require.NoError(t, m.settings.Set("storage.backend", "drive"))
	require.NoError(t, m.settings.Set("drive.root_folder", "MeuLivro"))

	out, err := executeCommand(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend: drive")
	assert.Contains(t, out, "Root folder: MeuLivro")
	assert.Contains(t, out, "OAuth app: not configured")
}

func TestSettingsSet(t *testing.T) {
	m := setupTestServices(t)

	out, err := executeCommand(t, "settings", "set", "search.k", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "search.k = 8")

	s, err := m.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, s.Search.K)
}

func TestSettingsSet_MasksSecrets(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings", "set", "openai.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)
	assert.Contains(t, out, "openai.api_key = sk-1...cdef")
	assert.NotContains(t, out, "1234567890")

	out, err = executeCommand(t, "settings", "set", "google.client_secret", "supersecretvalue")
	require.NoError(t, err)
	assert.Contains(t, out, "google.client_secret = supe...alue")
}

func TestSettingsSet_Invalid(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "settings", "set", "nope", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "settings", "set", "search.mode", "bm25")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = executeCommand(t, "settings", "set", "search.k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestSettingsSetKey_FromStdin(t *testing.T) {
	m := setupTestServices(t)

	out, err := executeCommandWithInput(t, strings.NewReader("sk-abcdefgh12345678\n"), "settings", "set-key")
	require.NoError(t, err)
	assert.Contains(t, out, "API key stored (sk-a...5678).")

	s, err := m.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefgh12345678", s.LLM.APIKey)
}

func TestSettingsSetKey_Empty(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommandWithInput(t, strings.NewReader("\n"), "settings", "set-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is empty")
}

func TestSettingsKeys(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings", "keys")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "search.lambda")
	assert.Contains(t, lines, "storage.backend")
	assert.IsNonDecreasing(t, lines)
}

func TestSettingsCheck(t *testing.T) {
	m := setupTestServices(t)

	out, err := executeCommand(t, "settings", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No AI services configured.")

	m.health.results = map[string]error{
		"embedding (text-embedding-3-small)": nil,
		"llm (gpt-4o-mini)":                  errors.New("401 unauthorized"),
	}
	out, err = executeCommand(t, "settings", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 service(s) unreachable")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "FAILED: 401 unauthorized")
	assert.Less(t, strings.Index(out, "embedding"), strings.Index(out, "llm"))
}

func TestSettingsCommands_NotConfigured(t *testing.T) {
	SetServices(nil)
	t.Cleanup(func() { resetFlags(rootCmd) })

	for _, args := range [][]string{
		{"settings", "show"},
		{"settings", "set", "a", "b"},
		{"settings", "keys"},
		{"settings", "check"},
	} {
		_, err := executeCommand(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "not configured", args)
	}
}
