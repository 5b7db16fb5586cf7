// Package documents provides the document list view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// ErrNoVersions is reported when the view has no version repository.
var ErrNoVersions = errors.New("version repository not available")

// ActionOption is an entry of the document action menu.
type ActionOption int

const (
	ActionShowContent ActionOption = iota
	ActionShowVersions
	ActionCancel
)

// View lists the documents in the store.
type View struct {
	styles   *styles.Styles
	versions driving.VersionRepository
	ctx      context.Context

	documents    []string
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
}

// NewView creates a documents view.
func NewView(s *styles.Styles, versions driving.VersionRepository) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		versions: versions,
		ctx:      context.Background(),
	}
}

// WithContext sets the context used to load documents.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if v.versions == nil {
			return messages.DocumentsLoaded{Err: ErrNoVersions}
		}
		docs, err := v.versions.ListDocuments(v.ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) loadDetails(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.versions == nil {
			return messages.DocumentDetailsLoaded{DocID: docID, Err: ErrNoVersions}
		}
		m, err := v.versions.Get(v.ctx, docID)
		return messages.DocumentDetailsLoaded{DocID: docID, Manifest: m, From: messages.ViewDocuments, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDetailsLoaded:
		v.err = msg.Err
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowContent
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowContent {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		v.showingMenu = false
		return v, v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}
	return v, nil
}

func (v *View) handleMenuSelect() tea.Cmd {
	if v.selected >= len(v.documents) {
		return nil
	}
	docID := v.documents[v.selected]

	switch v.menuSelected {
	case ActionShowContent:
		return func() tea.Msg {
			return messages.DocumentSelected{DocID: docID, From: messages.ViewDocuments}
		}
	case ActionShowVersions:
		return v.loadDetails(docID)
	case ActionCancel:
	}
	return nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents yet. Create one with 'quill doc create'."))
	case v.showingMenu:
		b.WriteString(v.renderActionMenu())
		return b.String()
	default:
		visible := v.visibleItemCount()
		end := min(v.scrollOffset+visible, len(v.documents))
		for i := v.scrollOffset; i < end; i++ {
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + v.documents[i]))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + v.documents[i]))
			}
			b.WriteString("\n")
		}
		if len(v.documents) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderActionMenu() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Actions for: " + v.documents[v.selected]))
	b.WriteString("\n\n")

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowContent, "Show latest version"},
		{ActionShowVersions, "Show version history"},
		{ActionCancel, "Cancel"},
	}
	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the loaded document identifiers.
func (v *View) Documents() []string {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// IsShowingMenu reports whether the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
