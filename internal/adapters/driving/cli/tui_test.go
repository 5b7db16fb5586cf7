package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
)

// stubTUIProgram replaces the program runner for the test.
func stubTUIProgram(t *testing.T, run func(app *tui.App) error) {
	t.Helper()
	orig := runTUIProgram
	runTUIProgram = run
	t.Cleanup(func() { runTUIProgram = orig })
}

func TestTUICommand_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"tui"})
	require.NoError(t, err)
	assert.Equal(t, "tui", cmd.Name())
}

func TestTUICommand_RunsApp(t *testing.T) {
	setupTestServices(t)

	var started *tui.App
	stubTUIProgram(t, func(app *tui.App) error {
		started = app
		return nil
	})

	_, err := executeCommand(t, "tui")
	require.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, messages.ViewMenu, started.CurrentView())
}

func TestTUICommand_ProgramError(t *testing.T) {
	setupTestServices(t)
	errTerminal := errors.New("no tty")
	stubTUIProgram(t, func(*tui.App) error { return errTerminal })

	_, err := executeCommand(t, "tui")
	assert.ErrorIs(t, err, errTerminal)
	assert.Contains(t, err.Error(), "TUI error")
}

func TestTUICommand_MissingServices(t *testing.T) {
	setupTestServices(t)
	SetServices(nil)
	stubTUIProgram(t, func(*tui.App) error {
		t.Fatal("program must not start without services")
		return nil
	})

	_, err := executeCommand(t, "tui")
	require.Error(t, err)
	assert.ErrorIs(t, err, tui.ErrMissingRetriever)
	assert.Contains(t, err.Error(), "failed to create TUI")
}

func TestTUICommand_RejectsArgs(t *testing.T) {
	setupTestServices(t)
	stubTUIProgram(t, func(*tui.App) error { return nil })

	_, err := executeCommand(t, "tui", "extra")
	assert.Error(t, err)
}
