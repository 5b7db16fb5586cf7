// Package doccontent provides the version text view for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

// ErrNoVersions is reported when the view has no version repository.
var ErrNoVersions = errors.New("version repository not available")

// View shows the text of one document version.
type View struct {
	styles   *styles.Styles
	versions driving.VersionRepository
	ctx      context.Context

	docID        string
	version      int
	tag          string
	source       string
	back         messages.ViewType
	content      string
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a version text view.
func NewView(s *styles.Styles, versions driving.VersionRepository) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		versions: versions,
		ctx:      context.Background(),
		back:     messages.ViewDocuments,
		width:    80,
		height:   24,
	}
}

// WithContext sets the context used to read manifests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument selects the version to show and returns the command that loads it.
func (v *View) SetDocument(sel messages.DocumentSelected) tea.Cmd {
	v.docID = sel.DocID
	v.version = sel.Version
	v.tag = ""
	v.source = ""
	v.back = sel.From
	v.content = ""
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadContent(sel.DocID, sel.Version)
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadContent reads the manifest and picks the requested version, or the
// latest one when version is zero.
func (v *View) loadContent(docID string, version int) tea.Cmd {
	return func() tea.Msg {
		if v.versions == nil {
			return messages.DocumentContentLoaded{DocID: docID, Err: ErrNoVersions}
		}
		m, err := v.versions.Get(v.ctx, docID)
		if err != nil {
			return messages.DocumentContentLoaded{DocID: docID, Err: err}
		}

		var picked *domain.Version
		if version > 0 {
			if picked, err = m.VersionAt(version); err != nil {
				return messages.DocumentContentLoaded{DocID: docID, Err: err}
			}
		} else if picked = m.Latest(); picked != nil {
			version = len(m.Versions)
		}
		if picked == nil {
			return messages.DocumentContentLoaded{DocID: docID}
		}

		tag := picked.Meta.String(domain.MetaVersionTag)
		if tag == "" {
			tag = domain.VersionTag(docID, version)
		}
		return messages.DocumentContentLoaded{
			DocID:   docID,
			Version: version,
			Tag:     tag,
			Source:  picked.Meta.Source(),
			Content: picked.Text,
		}
	}
}

// Update handles messages for the content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentContentLoaded:
		if msg.DocID != v.docID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.version = msg.Version
		v.tag = msg.Tag
		v.source = msg.Source
		v.content = msg.Content
		v.wrapContent()
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
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

// wrapContent splits the text into lines no wider than the view, counting runes.
func (v *View) wrapContent() {
	if v.content == "" {
		v.lines = nil
		return
	}

	width := max(v.width-4, 20)
	raw := strings.Split(v.content, "\n")
	v.lines = make([]string, 0, len(raw))
	for _, line := range raw {
		runes := []rune(line)
		for len(runes) > width {
			v.lines = append(v.lines, string(runes[:width]))
			runes = runes[width:]
		}
		v.lines = append(v.lines, string(runes))
	}
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func (v *View) visibleLines() int {
	return max(v.height-7, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the version text.
func (v *View) View() string {
	var b strings.Builder

	title := v.docID
	if title == "" {
		title = "Document"
	}
	b.WriteString(v.styles.Title.Render(title))
	if v.tag != "" {
		b.WriteString("  ")
		b.WriteString(v.styles.Subtitle.Render(v.tag))
		b.WriteString(v.styles.Muted.Render(" (" + v.source + ")"))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 10), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			percent := v.scrollOffset * 100 / v.maxScrollOffset()
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
				percent, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and rewraps the text.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// DocID returns the document on display.
func (v *View) DocID() string {
	return v.docID
}

// Version returns the 1-based index of the version on display.
func (v *View) Version() int {
	return v.version
}

// Tag returns the version tag on display.
func (v *View) Tag() string {
	return v.tag
}

// Content returns the version text.
func (v *View) Content() string {
	return v.content
}

// Lines returns the wrapped text.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Back returns the view esc returns to.
func (v *View) Back() messages.ViewType {
	return v.back
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
