package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// mockEmbeddingService embeds text as keyword counts over a fixed vocabulary,
// so texts sharing words are similar.
type mockEmbeddingService struct {
	mu         sync.Mutex
	model      string
	vocab      []string
	embedErr   error
	embedCalls int
	batchCalls int
}

func newMockEmbedder(vocab ...string) *mockEmbeddingService {
	if len(vocab) == 0 {
		vocab = []string{"dragon", "castle", "river", "king", "sword"}
	}
	return &mockEmbeddingService{model: "mock-embed", vocab: vocab}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	v := make([]float32, len(m.vocab)+1)
	lower := strings.ToLower(text)
	for i, w := range m.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	v[len(m.vocab)] = 0.01
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.vocab) + 1 }
func (m *mockEmbeddingService) ModelName() string            { return m.model }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

func (m *mockEmbeddingService) calls() (embed, batch int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls, m.batchCalls
}

// mockLLMService records the last prompt and returns a canned response.
// Queued replies are served first, in order.
type mockLLMService struct {
	response string
	err      error
	system   string
	user     string
	opts     driven.GenerateOptions
	calls    int
	replies  []mockReply
	prompts  []string
}

type mockReply struct {
	text string
	err  error
}

func (m *mockLLMService) Generate(_ context.Context, system, user string, opts driven.GenerateOptions) (string, error) {
	m.calls++
	m.system, m.user, m.opts = system, user, opts
	m.prompts = append(m.prompts, user)
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		return r.text, r.err
	}
	return m.response, m.err
}

func (m *mockLLMService) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.GenerateOptions) (string, error) {
	return m.response, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockTranscriber returns a fixed transcript and records the request.
type mockTranscriber struct {
	text     string
	language string
	err      error
	audio    string
	filename string
}

func (m *mockTranscriber) Transcribe(_ context.Context, audio io.Reader, filename, _ string) (*driven.Transcript, error) {
	data, _ := io.ReadAll(audio)
	m.audio, m.filename = string(data), filename
	if m.err != nil {
		return nil, m.err
	}
	return &driven.Transcript{Text: m.text, Language: m.language}, nil
}

func (m *mockTranscriber) ModelName() string { return "mock-whisper" }

// mockNormalisers trims text and reports the file name as title.
type mockNormalisers struct{}

func (mockNormalisers) Normalise(_ context.Context, raw *domain.RawText) (*domain.NormalisedText, error) {
	return &domain.NormalisedText{Title: raw.Name, Text: strings.Join(strings.Fields(string(raw.Content)), " ")}, nil
}
func (mockNormalisers) Register(driven.Normaliser)   {}
func (mockNormalisers) SupportedMIMETypes() []string { return []string{"text/plain"} }

// jsonCodec is a ShardCodec storing shards as JSON.
type jsonCodec struct{}

func (jsonCodec) Encode(shard *domain.Shard) ([]byte, error) {
	return json.Marshal(shard)
}

func (jsonCodec) Decode(name string, data []byte) (*domain.Shard, error) {
	var shard domain.Shard
	if err := json.Unmarshal(data, &shard); err != nil {
		return nil, fmt.Errorf("shard %s: %w: %w", name, domain.ErrCorruptArtifact, err)
	}
	for i := range shard.Entries {
		if shard.Entries[i].Metadata == nil {
			shard.Entries[i].Metadata = domain.Meta{}
		}
	}
	return &shard, nil
}

// bruteIndex is a SimilarityIndex scanning all content entries by cosine.
type bruteIndex struct {
	calls int
}

func (b *bruteIndex) Nearest(_ context.Context, shard *domain.Shard, query []float32, n int) ([]domain.Candidate, error) {
	b.calls++
	entries := shard.ContentEntries()
	out := make([]domain.Candidate, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Candidate{Entry: e, Similarity: CosineSimilarity(query, e.Embedding)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// recordingObserver collects corrupt shard names.
type recordingObserver struct {
	names []string
}

func (r *recordingObserver) ShardCorrupt(name string, _ error) {
	r.names = append(r.names, name)
}

// fixedSplitter splits on "|".
type fixedSplitter struct{}

func (fixedSplitter) Name() string { return "pipe" }
func (fixedSplitter) Split(text string) []string {
	if text == "" {
		return []string{" "}
	}
	return strings.Split(text, "|")
}

// mapPromptStore serves prompts from a map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}
func (m mapPromptStore) Reload() {}

// memoryTokenStore keeps a token in memory.
type memoryTokenStore struct {
	token   *domain.OAuthToken
	saveErr error
}

func (m *memoryTokenStore) Load() (*domain.OAuthToken, error) {
	if m.token == nil {
		return nil, domain.ErrAuthRequired
	}
	return m.token, nil
}

func (m *memoryTokenStore) Save(token *domain.OAuthToken) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *memoryTokenStore) Clear() error {
	m.token = nil
	return nil
}

// mockOAuthClient records the request and returns a fixed token.
type mockOAuthClient struct {
	challenge   string
	redirectURI string
	verifier    string
	code        string
	err         error
}

func (m *mockOAuthClient) AuthURL(state, challenge, redirectURI string) string {
	m.challenge, m.redirectURI = challenge, redirectURI
	return "https://auth.example/authorize?state=" + state
}

func (m *mockOAuthClient) Exchange(_ context.Context, code, verifier, _ string) (*domain.OAuthToken, error) {
	m.code, m.verifier = code, verifier
	if m.err != nil {
		return nil, m.err
	}
	return &domain.OAuthToken{AccessToken: "access", RefreshToken: "refresh"}, nil
}

// sequence returns an ID generator producing id-1, id-2, ...
func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}
