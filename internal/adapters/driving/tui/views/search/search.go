// Package search provides the global shard search view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// Result actions.
const (
	ActionShowText     = "Show version text"
	ActionShowVersions = "Show version history"
	ActionCancel       = "Cancel"
)

// ActionMenu is the action overlay opened on a result.
type ActionMenu struct {
	actions  []string
	selected int
	result   domain.ScoredChunk
}

// View holds the query input, the result list and the status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	retriever driving.Retriever
	versions  driving.VersionRepository
	settings  driving.SettingsService
	ctx       context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
	actionMenu *ActionMenu
}

// NewView creates a search view. settings may be nil, in which case the
// retrieval defaults are used.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retriever driving.Retriever,
	versions driving.VersionRepository,
	settings driving.SettingsService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		retriever:  retriever,
		versions:   versions,
		settings:   settings,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used by searches.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.actionMenu != nil {
		return v.handleActionMenuKey(msg)
	}

	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateSearching)
			v.statusbar.SetMessage("")
			v.focusInput = false
			v.input.Blur()
			return v, v.performSearch(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "n":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case "enter":
		if result := v.list.SelectedResult(); result != nil {
			v.actionMenu = &ActionMenu{
				actions: []string{ActionShowText, ActionShowVersions, ActionCancel},
				result:  *result,
			}
		}
	}
	return v, nil
}

func (v *View) handleActionMenuKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.actionMenu.selected > 0 {
			v.actionMenu.selected--
		}
	case "down", "j":
		if v.actionMenu.selected < len(v.actionMenu.actions)-1 {
			v.actionMenu.selected++
		}
	case "enter":
		action := v.actionMenu.actions[v.actionMenu.selected]
		result := v.actionMenu.result
		v.actionMenu = nil
		return v, v.executeAction(action, result)
	case "esc":
		v.actionMenu = nil
	}
	return v, nil
}

// executeAction navigates from a hit to the version it was indexed from.
func (v *View) executeAction(action string, result domain.ScoredChunk) tea.Cmd {
	docID := result.DocID()
	if docID == "" || action == ActionCancel {
		return nil
	}

	switch action {
	case ActionShowText:
		version, _ := result.Metadata.Int(domain.MetaVersionIndex)
		return func() tea.Msg {
			return messages.DocumentSelected{DocID: docID, Version: version, From: messages.ViewSearch}
		}
	case ActionShowVersions:
		return v.loadDetails(docID)
	}
	return nil
}

func (v *View) loadDetails(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.versions == nil {
			return messages.DocumentDetailsLoaded{DocID: docID, Err: ErrNoVersions}
		}
		m, err := v.versions.Get(v.ctx, docID)
		return messages.DocumentDetailsLoaded{DocID: docID, Manifest: m, From: messages.ViewSearch, Err: err}
	}
}

// options returns the configured retrieval options, falling back to the
// defaults when settings are unavailable.
func (v *View) options() domain.SearchOptions {
	if v.settings != nil {
		if s, err := v.settings.Get(); err == nil && s != nil {
			return s.Search.Options()
		}
	}
	return domain.SearchOptions{K: domain.DefaultK}
}

// performSearch queries the global shard.
func (v *View) performSearch(query string) tea.Cmd {
	opts := v.options()
	return func() tea.Msg {
		if v.retriever == nil {
			return messages.ErrorOccurred{Err: ErrNoRetriever}
		}
		results, err := v.retriever.SearchGlobal(v.ctx, query, opts)
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetResultCount(len(msg.Results))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Search the manuscript"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())

	if v.actionMenu != nil {
		sections = append(sections, "", v.renderActionMenu())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderActionMenu() string {
	lines := make([]string, 0, len(v.actionMenu.actions))
	for i, action := range v.actionMenu.actions {
		if i == v.actionMenu.selected {
			lines = append(lines, v.styles.Selected.Render("> "+action))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+action))
		}
	}
	return v.styles.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Ready reports whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.ScoredChunk {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused reports whether keys go to the query input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ActionMenuOpen reports whether the action overlay is visible.
func (v *View) ActionMenuOpen() bool {
	return v.actionMenu != nil
}

// Reset returns the view to an empty query in input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.err = nil
	v.actionMenu = nil
	v.statusbar.Clear()
}
