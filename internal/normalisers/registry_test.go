package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/normalisers/plaintext"
)

func TestNewDefaultRegistry_SupportedMIMETypes(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"text/markdown", "text/plain", "text/x-markdown"}, r.SupportedMIMETypes())
}

func TestRegistry_Normalise_ByExtension(t *testing.T) {
	r := NewDefaultRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawText{
		Name:    "chapter.md",
		Content: []byte("# Title\n\n**Bold** text"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Title", result.Title)
	assert.Equal(t, "Title\n\nBold text", result.Text)
}

func TestRegistry_Normalise_FallsBackToPlainText(t *testing.T) {
	r := NewDefaultRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawText{
		Name:     "notes.rtf",
		MIMEType: "application/rtf",
		Content:  []byte("**kept**  as is"),
	})
	require.NoError(t, err)
	assert.Equal(t, "**kept** as is", result.Text)
}

func TestRegistry_Normalise_Empty(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawText{Name: "a.txt"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(&upperNormaliser{})

	result, err := r.Normalise(context.Background(), &domain.RawText{MIMEType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "upper", result.Title)
}

func TestMIMETypeFor(t *testing.T) {
	assert.Equal(t, "text/markdown", MIMETypeFor("a.MD"))
	assert.Equal(t, "text/plain", MIMETypeFor("a.txt"))
	assert.Equal(t, "", MIMETypeFor("noext"))
}

type upperNormaliser struct{}

func (u *upperNormaliser) SupportedMIMETypes() []string { return []string{"text/plain"} }
func (u *upperNormaliser) Priority() int                { return 90 }
func (u *upperNormaliser) Normalise(_ context.Context, raw *domain.RawText) (*domain.NormalisedText, error) {
	return &domain.NormalisedText{Title: "upper", Text: string(raw.Content)}, nil
}
