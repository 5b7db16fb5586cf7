package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

func TestAskService_Ask(t *testing.T) {
	f := newRetrievalFixture(t)
	f.upsert(t, "cap-1", "the dragon sleeps", "the king rules")
	llm := &mockLLMService{response: " O dragão dorme [A1]. "}
	svc := NewAskService(f.svc, llm)

	answer, err := svc.Ask(context.Background(), "  where is the dragon?  ", domain.SearchOptions{K: 1})
	require.NoError(t, err)
	assert.Equal(t, "O dragão dorme [A1].", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "the dragon sleeps", answer.Sources[0].Text)
	assert.Equal(t, []string{"[A1] cap-1 • cap-1_v1"}, answer.Refs)

	assert.Equal(t, defaultAskSystemPrompt, llm.system)
	assert.Contains(t, llm.user, "PERGUNTA: where is the dragon?")
	assert.Contains(t, llm.user, "[A1] the dragon sleeps")
	assert.Contains(t, llm.user, "INSTRUÇÕES:")
}

func TestAskService_Ask_NoContextSendsQuestion(t *testing.T) {
	f := newRetrievalFixture(t)
	llm := &mockLLMService{response: "Olá!"}
	svc := NewAskService(f.svc, llm)

	answer, err := svc.Ask(context.Background(), "oi", domain.SearchOptions{K: 4})
	require.NoError(t, err)
	assert.Equal(t, "oi", llm.user)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, answer.Refs)
}

func TestAskService_Ask_Errors(t *testing.T) {
	f := newRetrievalFixture(t)
	ctx := context.Background()

	_, err := NewAskService(f.svc, &mockLLMService{}).Ask(ctx, "  ", domain.SearchOptions{K: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewAskService(f.svc, nil).Ask(ctx, "q", domain.SearchOptions{K: 1})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	_, err = NewAskService(f.svc, &mockLLMService{}).Ask(ctx, "q", domain.SearchOptions{K: 1, Lambda: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewAskService(f.svc, &mockLLMService{err: assert.AnError}).Ask(ctx, "q", domain.SearchOptions{K: 1})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAskService_PromptStore(t *testing.T) {
	f := newRetrievalFixture(t)
	llm := &mockLLMService{response: "ok"}
	svc := NewAskService(f.svc, llm)
	svc.SetPromptStore(mapPromptStore{driven.PromptAskSystem: "custom ask"})

	_, err := svc.Ask(context.Background(), "q", domain.SearchOptions{K: 1})
	require.NoError(t, err)
	assert.Equal(t, "custom ask", llm.system)
}

func TestSourceRefs(t *testing.T) {
	refs := SourceRefs([]domain.ScoredChunk{
		{Metadata: domain.Meta{domain.MetaDocID: "a", domain.MetaVersionTag: "a_v2"}},
		{Metadata: domain.Meta{domain.MetaDocID: "b"}},
		{Metadata: domain.Meta{}},
	})
	assert.Equal(t, []string{"[A1] a • a_v2", "[A2] b", "[A3] doc"}, refs)
}
