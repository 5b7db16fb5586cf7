package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

func TestEditorService_Revise(t *testing.T) {
	p := newPipeline()
	llm := &mockLLMService{response: "  Texto revisado.  "}
	editor := NewEditorService(p.versions, p.indexer, llm)
	ctx := context.Background()

	_, err := p.versions.Save(ctx, "doc", "texto original", nil)
	require.NoError(t, err)

	revised, err := editor.Revise(ctx, "doc", driving.ReviseOptions{Audience: "jovens", Tone: "leve"})
	require.NoError(t, err)
	assert.Equal(t, "Texto revisado.", revised)

	assert.Equal(t, defaultEditorSystemPrompt, llm.system)
	assert.Contains(t, llm.user, "- Idioma/norma: PT-BR")
	assert.Contains(t, llm.user, "- Público-alvo: jovens")
	assert.Contains(t, llm.user, "- Tom/voz: leve")
	assert.NotContains(t, llm.user, "Observações")
	assert.Contains(t, llm.user, "--- TEXTO ORIGINAL ---\n\ntexto original")
	assert.Equal(t, 0.2, llm.opts.Temperature)
	assert.Equal(t, 4096, llm.opts.MaxTokens)

	m, _ := p.versions.Get(ctx, "doc")
	assert.Len(t, m.Versions, 1, "Revise does not save")
}

func TestEditorService_Revise_ExplicitText(t *testing.T) {
	p := newPipeline()
	llm := &mockLLMService{response: "ok"}
	editor := NewEditorService(p.versions, p.indexer, llm)

	_, err := editor.Revise(context.Background(), "unsaved", driving.ReviseOptions{Text: "rascunho"})
	require.NoError(t, err)
	assert.Contains(t, llm.user, "rascunho")
}

func TestEditorService_Revise_Errors(t *testing.T) {
	p := newPipeline()
	ctx := context.Background()

	_, err := NewEditorService(p.versions, p.indexer, nil).Revise(ctx, "doc", driving.ReviseOptions{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	editor := NewEditorService(p.versions, p.indexer, &mockLLMService{response: "x"})
	_, err = editor.Revise(ctx, "missing", driving.ReviseOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = p.versions.Create(ctx, "empty", "", nil)
	require.NoError(t, err)
	_, err = editor.Revise(ctx, "empty", driving.ReviseOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = editor.Revise(ctx, "doc", driving.ReviseOptions{Text: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	failing := NewEditorService(p.versions, p.indexer, &mockLLMService{err: assert.AnError})
	_, err = failing.Revise(ctx, "doc", driving.ReviseOptions{Text: "x"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEditorService_PromptStoreOverride(t *testing.T) {
	p := newPipeline()
	llm := &mockLLMService{response: "ok"}
	editor := NewEditorService(p.versions, p.indexer, llm)
	editor.SetPromptStore(mapPromptStore{driven.PromptEditorSystem: "custom editor"})

	_, err := editor.Revise(context.Background(), "doc", driving.ReviseOptions{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "custom editor", llm.system)

	editor.SetPromptStore(mapPromptStore{})
	_, err = editor.Revise(context.Background(), "doc", driving.ReviseOptions{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, defaultEditorSystemPrompt, llm.system)
}

func TestEditorService_ReviseAndSave(t *testing.T) {
	p := newPipeline()
	editor := NewEditorService(p.versions, p.indexer, &mockLLMService{response: "revisado"})
	ctx := context.Background()

	_, err := p.versions.Save(ctx, "doc", "original", nil)
	require.NoError(t, err)

	revised, ref, err := editor.ReviseAndSave(ctx, "doc", driving.ReviseOptions{})
	require.NoError(t, err)
	assert.Equal(t, "revisado", revised)
	assert.Equal(t, 2, ref.VersionCount)
	assert.Equal(t, "doc__editor-llm__002.txt", ref.VersionBlob)
}

func TestEditorService_Promote(t *testing.T) {
	p := newPipeline()
	editor := NewEditorService(p.versions, p.indexer, nil)
	ctx := context.Background()

	_, _ = p.versions.Save(ctx, "doc", "first", nil)
	_, _ = p.versions.Save(ctx, "doc", "second", nil)

	ref, err := editor.Promote(ctx, "doc", 1, true)
	require.NoError(t, err)
	assert.Equal(t, 3, ref.VersionCount)
	assert.Equal(t, "doc__picked__003.txt", ref.VersionBlob)

	m, err := p.versions.Get(ctx, "doc")
	require.NoError(t, err)
	latest := m.Latest()
	assert.Equal(t, "first", latest.Text)
	assert.Equal(t, domain.SourcePicked, latest.Meta.Source())
	assert.Equal(t, "doc_v1", latest.Meta.String("picked_from"))
	assert.True(t, latest.Meta.Bool(domain.MetaCanonical))

	_, err = editor.Promote(ctx, "doc", 9, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuildEditorPrompt_AllFields(t *testing.T) {
	prompt := BuildEditorPrompt("texto", driving.ReviseOptions{
		Language:     "EN-US",
		Audience:     "adults",
		Tone:         "formal",
		Notes:        "keep names",
		Instructions: "shorten",
	})

	assert.Equal(t, "Configurações desejadas para a edição:\n"+
		"- Idioma/norma: EN-US\n"+
		"- Público-alvo: adults\n"+
		"- Tom/voz: formal\n"+
		"- Observações: keep names\n"+
		"- Instruções específicas: shorten\n"+
		"\n--- TEXTO ORIGINAL ---\n\ntexto", prompt)
}
