// Package docdetails provides the version history view for the TUI.
package docdetails

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quill/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04"

// View lists the versions of one manifest, newest last.
type View struct {
	styles *styles.Styles

	manifest     *domain.Manifest
	back         messages.ViewType
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a version history view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, back: messages.ViewDocuments}
}

// SetManifest shows m and selects its latest version. back is the view
// esc returns to.
func (v *View) SetManifest(m *domain.Manifest, back messages.ViewType) {
	v.manifest = m
	v.back = back
	v.err = nil
	v.selected = 0
	if m != nil && len(m.Versions) > 0 {
		v.selected = len(m.Versions) - 1
	}
	v.scrollOffset = 0
	v.adjustScroll()
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the version history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

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
		if v.selected < v.count()-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if v.count() == 0 {
			return v, nil
		}
		docID, version := v.manifest.ID, v.selected+1
		return v, func() tea.Msg {
			return messages.DocumentSelected{DocID: docID, Version: version, From: messages.ViewDocDetails}
		}
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

func (v *View) count() int {
	if v.manifest == nil {
		return 0
	}
	return len(v.manifest.Versions)
}

func (v *View) visibleLines() int {
	return max(v.height-10, 1)
}

func (v *View) adjustScroll() {
	visible := v.visibleLines()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// View renders the manifest header and its versions.
func (v *View) View() string {
	var b strings.Builder

	title := "Version history"
	if v.manifest != nil {
		title = "Version history - " + v.manifest.ID
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 10), 60)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.manifest == nil:
		b.WriteString(v.styles.Muted.Render("No document selected."))
	case len(v.manifest.Versions) == 0:
		b.WriteString(v.formatField("Created", formatTS(v.manifest.CreatedAt)))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("No versions yet."))
	default:
		b.WriteString(v.formatField("Created", formatTS(v.manifest.CreatedAt)))
		b.WriteString("\n")
		b.WriteString(v.formatField("Versions", fmt.Sprintf("%d", len(v.manifest.Versions))))
		b.WriteString("\n\n")
		end := min(v.scrollOffset+v.visibleLines(), len(v.manifest.Versions))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderVersion(i))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] show text  [esc] back"))
	return b.String()
}

func (v *View) renderVersion(i int) string {
	version := v.manifest.Versions[i]
	tag := version.Meta.String(domain.MetaVersionTag)
	if tag == "" {
		tag = domain.VersionTag(v.manifest.ID, i+1)
	}
	marker := ""
	if version.Meta.Bool(domain.MetaCanonical) {
		marker = " *"
	}
	line := fmt.Sprintf("v%-3d %s  %-12s %s  %d chars%s",
		i+1, formatTS(version.TS), version.Meta.Source(), tag, len([]rune(version.Text)), marker)

	if i == v.selected {
		return v.styles.Selected.Render("> " + line)
	}
	return v.styles.Normal.Render("  " + line)
}

func (v *View) formatField(label, value string) string {
	return v.styles.Muted.Render(fmt.Sprintf("%-10s", label+":")) + " " + v.styles.Normal.Render(value)
}

func formatTS(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(timeLayout)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Manifest returns the manifest on display.
func (v *View) Manifest() *domain.Manifest {
	return v.manifest
}

// SelectedIndex returns the 0-based index of the selected version.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Back returns the view esc returns to.
func (v *View) Back() messages.ViewType {
	return v.back
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
