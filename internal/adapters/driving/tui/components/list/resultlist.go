// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/quill/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/quill/internal/core/domain"
)

// linesPerResult is the height of one rendered hit: title, version and preview.
const linesPerResult = 3

// ResultList displays retrieved chunks in a navigable list.
type ResultList struct {
	results  []domain.ScoredChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates an empty result list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update moves the selection on arrow and j/k keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of results around the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	visible := max((r.height-4)/linesPerResult, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

// renderResult formats one hit as its citation, version and a preview.
func (r *ResultList) renderResult(index int, hit *domain.ScoredChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	docID := hit.DocID()
	if docID == "" {
		docID = "(unknown document)"
	}
	titleWidth := max(r.width-20, 10)
	title := Truncate(fmt.Sprintf("[A%d] %s", index+1, docID), titleWidth)
	score := fmt.Sprintf("%.2f", hit.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, titleWidth, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, titleWidth, title)) +
			r.styles.Muted.Render(score)
	}

	var versionLine string
	if tag := hit.VersionTag(); tag != "" {
		versionLine = "\n" + r.styles.Subtitle.Render("    "+tag)
	}

	preview := Truncate(strings.Join(strings.Fields(hit.Text), " "), max(r.width-6, 20))
	return titleLine + versionLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// Truncate shortens s to at most width runes, ending with "...".
func Truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// SetResults replaces the results and resets the selection.
func (r *ResultList) SetResults(results []domain.ScoredChunk) {
	r.results = results
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.ScoredChunk {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index when it is in range.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the selected result, or nil for an empty list.
func (r *ResultList) SelectedResult() *domain.ScoredChunk {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}
