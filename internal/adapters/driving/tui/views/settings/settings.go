// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// ErrNoSettings is reported when the view has no settings service.
var ErrNoSettings = errors.New("settings service not available")

// Section tracks which part of the view has the keyboard.
type Section int

const (
	SectionOverview Section = iota
	SectionChoice
	SectionInput
)

// Configuration keys edited by the view.
//
//nolint:gosec // G101: key names, not credentials
const (
	KeySearchMode     = "search.mode"
	KeySearchK        = "search.k"
	KeySearchLambda   = "search.lambda"
	KeyEmbedProvider  = "embedding.provider"
	KeyEmbedModel     = "embedding.model"
	KeyLLMProvider    = "llm.provider"
	KeyLLMModel       = "llm.model"
	KeyStorageBackend = "storage.backend"
	KeyOpenAIAPIKey   = "openai.api_key"
)

type fieldKind int

const (
	kindChoice fieldKind = iota
	kindText
	kindSecret
)

// field is one editable setting.
type field struct {
	label   string
	key     string
	kind    fieldKind
	options []string
	current func(*domain.AppSettings) string
}

func defaultFields() []field {
	providers := []string{domain.AIProviderOpenAI.String(), domain.AIProviderOllama.String()}
	return []field{
		{
			label: "Retrieval mode", key: KeySearchMode, kind: kindChoice,
			options: []string{domain.RetrievalMMR.String(), domain.RetrievalSimilarity.String()},
			current: func(s *domain.AppSettings) string { return s.Search.Mode.String() },
		},
		{
			label: "Results (k)", key: KeySearchK, kind: kindText,
			current: func(s *domain.AppSettings) string { return strconv.Itoa(s.Search.K) },
		},
		{
			label: "MMR lambda", key: KeySearchLambda, kind: kindText,
			current: func(s *domain.AppSettings) string { return strconv.FormatFloat(s.Search.Lambda, 'f', -1, 64) },
		},
		{
			label: "Embedding provider", key: KeyEmbedProvider, kind: kindChoice, options: providers,
			current: func(s *domain.AppSettings) string { return s.Embedding.Provider.String() },
		},
		{
			label: "Embedding model", key: KeyEmbedModel, kind: kindText,
			current: func(s *domain.AppSettings) string { return s.Embedding.Model },
		},
		{
			label: "LLM provider", key: KeyLLMProvider, kind: kindChoice, options: providers,
			current: func(s *domain.AppSettings) string { return s.LLM.Provider.String() },
		},
		{
			label: "LLM model", key: KeyLLMModel, kind: kindText,
			current: func(s *domain.AppSettings) string { return s.LLM.Model },
		},
		{
			label: "Storage backend", key: KeyStorageBackend, kind: kindChoice,
			options: []string{string(domain.StorageLocal), string(domain.StorageDrive)},
			current: func(s *domain.AppSettings) string { return string(s.Storage.Backend) },
		},
		{
			label: "OpenAI API key", key: KeyOpenAIAPIKey, kind: kindSecret,
			current: func(s *domain.AppSettings) string {
				if s.LLM.APIKey != "" {
					return "configured"
				}
				return "not set"
			},
		},
	}
}

// View edits application settings one key at a time.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	fields   []field
	err      error
	notice   string

	section  Section
	selected int
	choice   int
	input    textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	input := textinput.New()
	input.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		fields:          defaultFields(),
		input:           input,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: ErrNoSettings}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// save stores one value. The API key goes through SetAPIKey.
func (v *View) save(key, value string) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Key: key, Err: ErrNoSettings}
		}
		if key == KeyOpenAIAPIKey {
			return messages.SettingsSaved{Key: key, Err: v.settingsService.SetAPIKey(value)}
		}
		return messages.SettingsSaved{Key: key, Err: v.settingsService.Set(key, value)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.err = nil
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = "Saved " + msg.Key
		v.closeEditor()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	if v.section == SectionInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.closeEditor()
		return v, nil
	}

	switch v.section {
	case SectionChoice:
		return v.handleChoiceKeys(msg)
	case SectionInput:
		return v.handleInputKeys(msg)
	case SectionOverview:
	}
	return v.handleOverviewKeys(msg)
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.fields)-1 {
			v.selected++
		}
	case "enter":
		return v, v.openEditor()
	}
	return v, nil
}

func (v *View) handleChoiceKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	f := v.fields[v.selected]
	switch msg.String() {
	case "up", "k":
		if v.choice > 0 {
			v.choice--
		}
	case "down", "j":
		if v.choice < len(f.options)-1 {
			v.choice++
		}
	case "enter":
		return v, v.save(f.key, f.options[v.choice])
	}
	return v, nil
}

func (v *View) handleInputKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		return v, v.save(v.fields[v.selected].key, v.input.Value())
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// openEditor starts editing the selected field, preselecting its current value.
func (v *View) openEditor() tea.Cmd {
	f := v.fields[v.selected]
	v.err = nil
	v.notice = ""

	current := ""
	if v.settings != nil {
		current = f.current(v.settings)
	}

	if f.kind == kindChoice {
		v.section = SectionChoice
		v.choice = 0
		for i, opt := range f.options {
			if opt == current {
				v.choice = i
			}
		}
		return nil
	}

	v.section = SectionInput
	v.input.Placeholder = f.label
	if f.kind == kindSecret {
		v.input.EchoMode = textinput.EchoPassword
		v.input.SetValue("")
	} else {
		v.input.EchoMode = textinput.EchoNormal
		v.input.SetValue(current)
	}
	return v.input.Focus()
}

func (v *View) closeEditor() {
	v.section = SectionOverview
	v.input.Blur()
	v.input.SetValue("")
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		if v.err == nil {
			b.WriteString(v.styles.Muted.Render("Loading settings..."))
			b.WriteString("\n\n")
		}
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	switch v.section {
	case SectionChoice:
		b.WriteString(v.renderChoice())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] save  [esc] cancel"))
	case SectionInput:
		b.WriteString(v.styles.Subtitle.Render(v.fields[v.selected].label))
		b.WriteString("\n\n")
		b.WriteString(v.styles.InputField.Render(v.input.View()))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[enter] save  [esc] cancel"))
	case SectionOverview:
		b.WriteString(v.renderOverview())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] edit  [esc] back"))
	}
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder
	for i, f := range v.fields {
		line := fmt.Sprintf("%-20s %s", f.label, f.current(v.settings))
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderChoice() string {
	f := v.fields[v.selected]
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(f.label))
	b.WriteString("\n\n")
	for i, opt := range f.options {
		if i == v.choice {
			b.WriteString(v.styles.Selected.Render("> " + opt))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.Width = max(width-10, 20)
}

// Reset returns the view to the overview.
func (v *View) Reset() {
	v.closeEditor()
	v.selected = 0
	v.err = nil
	v.notice = ""
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// SelectedKey returns the configuration key of the selected field.
func (v *View) SelectedKey() string {
	return v.fields[v.selected].key
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
