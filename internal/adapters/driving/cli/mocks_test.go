package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/quill/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/core/services"
	"github.com/custodia-labs/quill/internal/normalisers"
)

// testMocks holds the services installed by setupTestServices.
type testMocks struct {
	versions      *services.VersionService
	settings      *services.SettingsService
	indexer       *mockIndexer
	shards        *mockShards
	retriever     *mockRetriever
	asker         *mockAsker
	chats         *mockChats
	editor        *mockEditor
	transcription *mockTranscription
	driveAuth     *mockDriveAuth
	health        *mockHealth
}

// setupTestServices installs in-memory and mock services and restores
// the previous state and flag defaults when the test ends.
func setupTestServices(t *testing.T) *testMocks {
	t.Helper()
	for _, env := range []string{"OPENAI_API_KEY", "OPENAI_EMBEDDINGS_MODEL", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"} {
		t.Setenv(env, "")
	}

	versions := services.NewVersionService(memory.NewBlobStore())
	m := &testMocks{
		versions:      versions,
		settings:      services.NewSettingsService(memory.NewConfigStore()),
		indexer:       &mockIndexer{versions: versions},
		shards:        &mockShards{},
		retriever:     &mockRetriever{},
		asker:         &mockAsker{},
		chats:         &mockChats{},
		editor:        &mockEditor{versions: versions},
		transcription: &mockTranscription{},
		driveAuth:     &mockDriveAuth{},
		health:        &mockHealth{},
	}

	SetServices(&Services{
		Versions:      m.versions,
		Indexer:       m.indexer,
		Shards:        m.shards,
		Retriever:     m.retriever,
		Asker:         m.asker,
		Chats:         m.chats,
		Editor:        m.editor,
		Transcription: m.transcription,
		DriveAuth:     m.driveAuth,
		Settings:      m.settings,
		Health:        m.health,
		Normalisers:   normalisers.NewDefaultRegistry(),
	})
	t.Cleanup(func() {
		SetServices(nil)
		resetFlags(rootCmd)
	})
	return m
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset first so values do not leak between calls.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandWithInput(t, nil, args...)
}

func executeCommandWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), in, args...)
}

// executeCommandContext runs the root command under ctx.
func executeCommandContext(t *testing.T, ctx context.Context, in io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	rootCmd.SetContext(ctx)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetContext(context.Background())
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// mockIndexer saves through the real version service and records indexing.
type mockIndexer struct {
	versions driving.VersionRepository
	indexed  []indexCall
	err      error
}

type indexCall struct {
	docID string
	text  string
	meta  domain.Meta
}

func (m *mockIndexer) IndexVersion(
	_ context.Context, docID, text string, meta domain.Meta,
) (*domain.UpsertResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.indexed = append(m.indexed, indexCall{docID: docID, text: text, meta: meta})
	return &domain.UpsertResult{Added: 2}, nil
}

func (m *mockIndexer) SaveAndIndex(
	ctx context.Context, docID, text string, meta domain.Meta,
) (*domain.ManifestRef, *domain.UpsertResult, error) {
	ref, err := m.versions.Save(ctx, docID, text, meta)
	if err != nil {
		return nil, nil, err
	}
	res, err := m.IndexVersion(ctx, docID, text, meta)
	return ref, res, err
}

type mockShards struct {
	result *domain.RebuildResult
	err    error
}

func (m *mockShards) LoadOrCreate(context.Context, string) (*domain.Shard, bool, error) {
	return nil, false, domain.ErrNotFound
}

func (m *mockShards) Upsert(context.Context, string, []string, []domain.Meta) (*domain.UpsertResult, error) {
	return &domain.UpsertResult{}, nil
}

func (m *mockShards) LoadMemory(context.Context, string) (*domain.Shard, bool, error) {
	return nil, false, domain.ErrNotFound
}

func (m *mockShards) AppendMemory(context.Context, string, []string, []domain.Meta) (string, error) {
	return "", nil
}

func (m *mockShards) RebuildGlobal(context.Context) (*domain.RebuildResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RebuildResult{}, nil
	}
	return m.result, nil
}

type mockRetriever struct {
	hits  []domain.ScoredChunk
	err   error
	scope string
	opts  domain.SearchOptions
	query string
}

func (m *mockRetriever) record(scope, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	m.scope, m.query, m.opts = scope, query, opts
	return m.hits, m.err
}

func (m *mockRetriever) Search(_ context.Context, shard, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	return m.record(shard, query, opts)
}

func (m *mockRetriever) SearchShards(
	_ context.Context, shards []string, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	scope := "shards:"
	for i, s := range shards {
		if i > 0 {
			scope += ","
		}
		scope += s
	}
	return m.record(scope, query, opts)
}

func (m *mockRetriever) SearchGlobal(_ context.Context, query string, opts domain.SearchOptions) ([]domain.ScoredChunk, error) {
	return m.record("global", query, opts)
}

func (m *mockRetriever) SearchDocument(
	_ context.Context, docID, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record("doc:"+docID, query, opts)
}

func (m *mockRetriever) SearchMemory(
	_ context.Context, chatID, query string, opts domain.SearchOptions,
) ([]domain.ScoredChunk, error) {
	return m.record("memory:"+chatID, query, opts)
}

type mockAsker struct {
	answer   *driving.Answer
	err      error
	question string
	opts     domain.SearchOptions
}

func (m *mockAsker) Ask(_ context.Context, question string, opts domain.SearchOptions) (*driving.Answer, error) {
	m.question, m.opts = question, opts
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return &driving.Answer{Text: "Sem contexto."}, nil
	}
	return m.answer, nil
}

type mockChats struct {
	chats   []domain.Chat
	turns   []domain.ChatTurn
	summary string
	reply   *driving.ChatReply
	err     error
	title   string
	sent    []string
	opts    driving.ChatOptions
}

func (m *mockChats) Create(_ context.Context, title string) (*domain.Chat, error) {
	m.title = title
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Chat{ID: "20240305-100000_chat", Title: title}, nil
}

func (m *mockChats) List(context.Context) ([]domain.Chat, error) {
	return m.chats, m.err
}

func (m *mockChats) Get(_ context.Context, chatID string) (*domain.Chat, error) {
	for i := range m.chats {
		if m.chats[i].ID == chatID {
			return &m.chats[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChats) History(context.Context, string) ([]domain.ChatTurn, error) {
	return m.turns, nil
}

func (m *mockChats) Summary(context.Context, string) (string, error) {
	return m.summary, nil
}

func (m *mockChats) Send(_ context.Context, _, message string, opts driving.ChatOptions) (*driving.ChatReply, error) {
	m.sent = append(m.sent, message)
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.reply == nil {
		return &driving.ChatReply{Text: "Resposta."}, nil
	}
	return m.reply, nil
}

type mockEditor struct {
	versions driving.VersionRepository
	revised  string
	err      error
	opts     driving.ReviseOptions
}

func (m *mockEditor) Revise(_ context.Context, _ string, opts driving.ReviseOptions) (string, error) {
	m.opts = opts
	return m.revised, m.err
}

func (m *mockEditor) ReviseAndSave(
	ctx context.Context, docID string, opts driving.ReviseOptions,
) (string, *domain.ManifestRef, error) {
	m.opts = opts
	if m.err != nil {
		return "", nil, m.err
	}
	ref, err := m.versions.Save(ctx, docID, m.revised, domain.Meta{domain.MetaSource: domain.SourceEditorLLM})
	return m.revised, ref, err
}

func (m *mockEditor) Promote(ctx context.Context, docID string, index int, canonical bool) (*domain.ManifestRef, error) {
	manifest, err := m.versions.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	v, err := manifest.VersionAt(index)
	if err != nil {
		return nil, err
	}
	meta := domain.Meta{domain.MetaSource: domain.SourcePicked}
	if canonical {
		meta[domain.MetaCanonical] = true
	}
	return m.versions.Append(ctx, docID, v.Text, meta)
}

type mockTranscription struct {
	mu     sync.Mutex
	req    driving.TranscribeRequest
	audio  []byte
	result *driving.TranscriptionResult
	err    error
	saved  bool
}

func (m *mockTranscription) capture(req driving.TranscribeRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.req = req
	m.audio, _ = io.ReadAll(req.Audio)
}

func (m *mockTranscription) Transcribe(_ context.Context, req driving.TranscribeRequest) (*driving.TranscriptionResult, error) {
	m.capture(req)
	return m.result, m.err
}

func (m *mockTranscription) TranscribeAndSave(
	_ context.Context, req driving.TranscribeRequest,
) (*driving.TranscriptionResult, error) {
	m.capture(req)
	m.saved = true
	return m.result, m.err
}

type mockDriveAuth struct {
	flow         *driving.OAuthFlowState
	startErr     error
	completeCode string
	token        *domain.OAuthToken
	disconnected bool
}

func (m *mockDriveAuth) StartFlow(context.Context) (*driving.OAuthFlowState, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.flow, nil
}

func (m *mockDriveAuth) CompleteFlow(_ context.Context, _ *driving.OAuthFlowState, code string) error {
	m.completeCode = code
	return nil
}

func (m *mockDriveAuth) Status() (*domain.OAuthToken, error) {
	if m.token == nil {
		return nil, domain.ErrAuthRequired
	}
	return m.token, nil
}

func (m *mockDriveAuth) Disconnect() error {
	m.disconnected = true
	m.token = nil
	return nil
}

type mockHealth struct {
	results map[string]error
}

func (m *mockHealth) Validate(context.Context) map[string]error {
	return m.results
}
