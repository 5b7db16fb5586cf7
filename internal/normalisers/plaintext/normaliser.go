package plaintext

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles plain text documents and transcripts.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise cleans whitespace and derives a title from the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawText) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	return &domain.NormalisedText{
		Title: TitleFromName(raw.Name),
		Text:  NormalizeText(string(raw.Content)),
	}, nil
}

// NormalizeText converts line endings to \n, collapses runs of spaces and
// tabs, limits blank lines to one and trims the result.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// TitleFromName turns a file name into a human-readable title.
func TitleFromName(name string) string {
	if name == "" {
		return ""
	}
	filename := filepath.Base(name)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return strings.TrimSpace(filename)
}
