// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
)

const (
	queryCharLimit = 512
	minInputWidth  = 20
	labelWidth     = 10
)

// SearchInput wraps a bubbles textinput with the query label.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewSearchInput creates a focused query input.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask the manuscript..."
	ti.Focus()
	ti.CharLimit = queryCharLimit
	ti.Width = 50

	return &SearchInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blink.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the underlying textinput.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the label and the input box.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render("Query: ")
	field := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current query.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue replaces the query.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus gives the input focus.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused reports whether the input has focus.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sizes the input to the terminal width minus the label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-labelWidth, minInputWidth)
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
}
