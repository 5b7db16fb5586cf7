package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/naming"
)

// Ensure ChatService implements the interfaces.
var (
	_ driving.ChatService     = (*ChatService)(nil)
	_ driven.PromptStoreAware = (*ChatService)(nil)
)

const (
	chatTemperature = 0.2
	chatMaxTokens   = 2048

	summaryMaxTokens    = 512
	summaryFallbackTail = 800
	summaryFallbackMax  = 2000
)

// defaultChatSystemPrompt is the fallback chat prompt when no PromptStore is configured.
const defaultChatSystemPrompt = `Você é um assistente editorial.
Use primeiro a MEMÓRIA do chat ([M#]) para manter coerência de longo prazo.
Use o ACERVO global ([A#]) para conteúdo factual do conhecimento do usuário.
Cite as fontes com [M#] e [A#]. Seja objetivo.`

// defaultChatSummaryPrompt is the fallback summariser prompt.
const defaultChatSummaryPrompt = `Você resume conversas para manter contexto longo. Seja conciso e factual.`

// smalltalk matches greetings that need no retrieval.
var smalltalk = regexp.MustCompile(`^(oi|ol[áa]|bom dia|boa tarde|boa noite|tudo bem|e a[ií])(?:$|[\s[:punct:]])`)

// ChatService keeps persistent chats: an index, a JSON-lines history and a
// rolling summary per chat in the chats folder, plus a memory shard per chat.
type ChatService struct {
	store       driven.BlobStore
	shards      driving.ShardManager
	retriever   driving.Retriever
	llm         driven.LLMService
	promptStore driven.PromptStore
	now         func() time.Time

	// mu serialises read-modify-write of the index and histories.
	mu sync.Mutex
}

// NewChatService creates a new chat service.
func NewChatService(
	store driven.BlobStore,
	shards driving.ShardManager,
	retriever driving.Retriever,
	llm driven.LLMService,
) *ChatService {
	return &ChatService{
		store:     store,
		shards:    shards,
		retriever: retriever,
		llm:       llm,
		now:       time.Now,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Create starts a chat with an empty history and summary.
func (s *ChatService) Create(ctx context.Context, title string) (*domain.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultChatTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}

	at := s.now()
	chat := domain.Chat{
		ID:        naming.ChatID(title, at),
		Title:     title,
		CreatedAt: at.Unix(),
		UpdatedAt: at.Unix(),
	}
	for _, c := range chats {
		if c.ID == chat.ID {
			return nil, fmt.Errorf("chat %s: %w", chat.ID, domain.ErrAlreadyExists)
		}
	}

	if _, err := s.store.Put(ctx, driven.FolderChats, naming.ChatSummaryName(chat.ID), []byte{}, mimeText); err != nil {
		return nil, fmt.Errorf("write summary %s: %w", chat.ID, err)
	}
	if _, err := s.store.Put(ctx, driven.FolderChats, naming.ChatHistoryName(chat.ID), []byte{}, mimeJSON); err != nil {
		return nil, fmt.Errorf("write history %s: %w", chat.ID, err)
	}
	if err := s.writeIndex(ctx, append(chats, chat)); err != nil {
		return nil, err
	}

	logger.Info("Created chat %s", chat.ID)
	return &chat, nil
}

// List returns every chat, most recently updated first.
func (s *ChatService) List(ctx context.Context) ([]domain.Chat, error) {
	s.mu.Lock()
	chats, err := s.readIndex(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt > chats[j].UpdatedAt
	})
	return chats, nil
}

// Get returns one chat from the index.
func (s *ChatService) Get(ctx context.Context, chatID string) (*domain.Chat, error) {
	if err := validateDocID(chatID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	chats, err := s.readIndex(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for i := range chats {
		if chats[i].ID == chatID {
			return &chats[i], nil
		}
	}
	return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
}

// History returns the turns of a chat. Unreadable lines are skipped.
func (s *ChatService) History(ctx context.Context, chatID string) ([]domain.ChatTurn, error) {
	if err := validateDocID(chatID); err != nil {
		return nil, err
	}
	data, err := s.getOptional(ctx, naming.ChatHistoryName(chatID))
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", chatID, err)
	}
	return decodeHistory(data), nil
}

// Summary returns the rolling summary of a chat.
func (s *ChatService) Summary(ctx context.Context, chatID string) (string, error) {
	if err := validateDocID(chatID); err != nil {
		return "", err
	}
	data, err := s.getOptional(ctx, naming.ChatSummaryName(chatID))
	if err != nil {
		return "", fmt.Errorf("read summary %s: %w", chatID, err)
	}
	return string(data), nil
}

// Send records the user message, answers it from the chat memory and the
// global shard, then updates the history, summary and memory shard.
func (s *ChatService) Send(
	ctx context.Context, chatID, message string, opts driving.ChatOptions,
) (*driving.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("empty message: %w", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if _, err := s.Get(ctx, chatID); err != nil {
		return nil, err
	}
	opts = normalizeChatOptions(opts)

	summary, err := s.Summary(ctx, chatID)
	if err != nil {
		return nil, err
	}

	userTurn := domain.ChatTurn{TS: s.now().Unix(), Role: domain.RoleUser, Content: message}
	if err := s.appendTurn(ctx, chatID, userTurn); err != nil {
		return nil, err
	}

	var memory, sources []domain.ScoredChunk
	if !IsSmalltalk(message) {
		memory = s.recallMemory(ctx, chatID, message, opts.MemoryK)
		sources = s.recallKnowledge(ctx, message, opts.KnowledgeK)
	}
	logger.Debug("Chat %s: %d memory and %d source chunk(s)", chatID, len(memory), len(sources))

	system := loadPrompt(s.promptStore, driven.PromptChatSystem, defaultChatSystemPrompt)
	text, err := s.llm.Generate(ctx, system, BuildChatPrompt(message, summary, memory, sources), driven.GenerateOptions{
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}
	text = strings.TrimSpace(text)

	assistantTurn := domain.ChatTurn{TS: s.now().Unix(), Role: domain.RoleAssistant, Content: text}
	if err := s.appendTurn(ctx, chatID, assistantTurn); err != nil {
		return nil, err
	}
	if err := s.touch(ctx, chatID); err != nil {
		return nil, err
	}

	history, err := s.History(ctx, chatID)
	if err != nil {
		return nil, err
	}
	summary = s.updateSummary(ctx, chatID, summary, history)
	s.remember(ctx, chatID, userTurn, assistantTurn, len(history))

	return &driving.ChatReply{
		Text:       text,
		Memory:     memory,
		MemoryRefs: MemoryRefs(memory),
		Sources:    sources,
		SourceRefs: SourceRefs(sources),
		Summary:    summary,
	}, nil
}

// IsSmalltalk reports whether a message is a greeting or too short to search for.
func IsSmalltalk(message string) bool {
	t := strings.ToLower(strings.TrimSpace(message))
	return smalltalk.MatchString(t) || len(strings.Fields(t)) <= 2
}

// BuildChatPrompt assembles the user message with the summary, [M#] memory
// blocks and [A#] manuscript blocks. With no retrieved chunks the message is
// sent on its own.
func BuildChatPrompt(message, summary string, memory, sources []domain.ScoredChunk) string {
	if len(memory) == 0 && len(sources) == 0 {
		return message
	}

	var blocks []string
	if summary != "" {
		blocks = append(blocks, "RESUMO DO CHAT:\n"+summary)
	}
	if len(memory) > 0 {
		blocks = append(blocks, "MEMÓRIA (trechos relevantes):\n"+numbered("M", memory))
	}
	if len(sources) > 0 {
		blocks = append(blocks, "ACERVO (trechos relevantes):\n"+numbered("A", sources))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PERGUNTA: %s\n\n", message)
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nINSTRUÇÕES:\n")
	b.WriteString("- Priorize a coerência com a memória [M#].\n")
	b.WriteString("- Use o acervo [A#] para fundamentar fatos do conhecimento do usuário.\n")
	b.WriteString("- Cite as fontes com [M#] e [A#].")
	return b.String()
}

// MemoryRefs formats "[M#] turn=N • ts=T" citations.
func MemoryRefs(memory []domain.ScoredChunk) []string {
	refs := make([]string, len(memory))
	for i, m := range memory {
		turn := "?"
		if v, ok := m.Metadata[domain.MetaTurnIndex]; ok && v != nil {
			turn = fmt.Sprint(v)
		}
		ts := ""
		if v, ok := m.Metadata[domain.MetaTS]; ok && v != nil {
			ts = fmt.Sprint(v)
		}
		refs[i] = fmt.Sprintf("[M%d] turn=%s • ts=%s", i+1, turn, ts)
	}
	return refs
}

// BuildSummaryPrompt assembles the summariser input from the previous summary
// and the recent turns.
func BuildSummaryPrompt(previous string, turns []domain.ChatTurn) string {
	if previous == "" {
		previous = "(vazio)"
	}
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("- %s: %s", t.Role, t.Content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "RESUMO ATUAL:\n%s\n\n", previous)
	b.WriteString("MENSAGENS RECENTES:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nAtualize o resumo de modo a reter decisões, preferências, glossário e objetivos. Máx ~200-250 palavras.")
	return b.String()
}

func numbered(tag string, chunks []domain.ScoredChunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("[%s%d] %s", tag, i+1, c.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func normalizeChatOptions(opts driving.ChatOptions) driving.ChatOptions {
	if opts.MemoryK <= 0 {
		opts.MemoryK = domain.DefaultMemoryK
	}
	if opts.KnowledgeK <= 0 {
		opts.KnowledgeK = domain.DefaultKnowledgeK
	}
	return opts
}

// recallMemory searches the chat memory. Failures are logged and yield no chunks.
func (s *ChatService) recallMemory(ctx context.Context, chatID, query string, k int) []domain.ScoredChunk {
	opts := domain.SearchOptions{
		K:      k,
		Mode:   domain.RetrievalMMR,
		FetchK: max(domain.MinMemoryFetchK, 2*k),
	}.WithLambda(domain.DefaultLambda)

	chunks, err := s.retriever.SearchMemory(ctx, chatID, query, opts)
	if err != nil {
		logger.Warn("Could not recall memory of %s: %v", chatID, err)
		return nil
	}
	return chunks
}

// recallKnowledge searches the global shard. Failures are logged and yield no chunks.
func (s *ChatService) recallKnowledge(ctx context.Context, query string, k int) []domain.ScoredChunk {
	opts := domain.SearchOptions{K: k, Mode: domain.RetrievalMMR}.WithLambda(domain.DefaultLambda)

	chunks, err := s.retriever.SearchGlobal(ctx, query, opts)
	if err != nil {
		logger.Warn("Could not search the manuscript: %v", err)
		return nil
	}
	return chunks
}

// updateSummary asks the LLM for a new rolling summary over the last turns.
// On failure it keeps the previous summary plus the tail of the turns.
func (s *ChatService) updateSummary(ctx context.Context, chatID, previous string, history []domain.ChatTurn) string {
	recent := history
	if len(recent) > domain.SummaryWindow {
		recent = recent[len(recent)-domain.SummaryWindow:]
	}

	system := loadPrompt(s.promptStore, driven.PromptChatSummary, defaultChatSummaryPrompt)
	summary, err := s.llm.Generate(ctx, system, BuildSummaryPrompt(previous, recent), driven.GenerateOptions{
		MaxTokens:   summaryMaxTokens,
		Temperature: chatTemperature,
	})
	summary = strings.TrimSpace(summary)
	if err != nil {
		logger.Warn("Could not summarise chat %s, keeping a tail: %v", chatID, err)
		summary = fallbackSummary(previous, recent)
	}

	if _, err := s.store.Put(ctx, driven.FolderChats, naming.ChatSummaryName(chatID), []byte(summary), mimeText); err != nil {
		logger.Warn("Could not save summary of %s: %v", chatID, err)
	}
	return summary
}

func fallbackSummary(previous string, turns []domain.ChatTurn) string {
	contents := make([]string, len(turns))
	for i, t := range turns {
		contents[i] = t.Content
	}
	tail := lastRunes(strings.Join(contents, " "), summaryFallbackTail)
	return lastRunes(previous+"\n"+tail, summaryFallbackMax)
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// remember appends both turns to the chat memory shard. turns is the history
// length after the exchange was written.
func (s *ChatService) remember(ctx context.Context, chatID string, user, assistant domain.ChatTurn, turns int) {
	texts := []string{user.Content, assistant.Content}
	metas := []domain.Meta{
		{domain.MetaChatID: chatID, domain.MetaRole: user.Role, domain.MetaTurnIndex: turns - 1, domain.MetaTS: user.TS},
		{domain.MetaChatID: chatID, domain.MetaRole: assistant.Role, domain.MetaTurnIndex: turns, domain.MetaTS: assistant.TS},
	}
	if _, err := s.shards.AppendMemory(ctx, chatID, texts, metas); err != nil {
		logger.Warn("Could not update memory of %s: %v", chatID, err)
	}
}

func (s *ChatService) appendTurn(ctx context.Context, chatID string, turn domain.ChatTurn) error {
	line, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := naming.ChatHistoryName(chatID)
	data, err := s.getOptional(ctx, name)
	if err != nil {
		return fmt.Errorf("read history %s: %w", chatID, err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, line...)
	data = append(data, '\n')

	if _, err := s.store.Put(ctx, driven.FolderChats, name, data, mimeJSON); err != nil {
		return fmt.Errorf("write history %s: %w", chatID, err)
	}
	return nil
}

// touch sets the chat's updated_at to now.
func (s *ChatService) touch(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	for i := range chats {
		if chats[i].ID == chatID {
			chats[i].UpdatedAt = s.now().Unix()
			return s.writeIndex(ctx, chats)
		}
	}
	return nil
}

// readIndex returns the chat index. A missing index is empty; an unreadable
// one is ErrCorruptArtifact so that it is never overwritten.
func (s *ChatService) readIndex(ctx context.Context) ([]domain.Chat, error) {
	data, err := s.getOptional(ctx, naming.ChatIndexName)
	if err != nil {
		return nil, fmt.Errorf("read chat index: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Chat{}, nil
	}

	var chats []domain.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("chat index: %w: %w", domain.ErrCorruptArtifact, err)
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

func (s *ChatService) writeIndex(ctx context.Context, chats []domain.Chat) error {
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat index: %w", err)
	}
	if _, err := s.store.Put(ctx, driven.FolderChats, naming.ChatIndexName, data, mimeJSON); err != nil {
		return fmt.Errorf("write chat index: %w", err)
	}
	return nil
}

// getOptional reads a blob from the chats folder, treating absence as empty.
func (s *ChatService) getOptional(ctx context.Context, name string) ([]byte, error) {
	data, err := s.store.Get(ctx, driven.FolderChats, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func decodeHistory(data []byte) []domain.ChatTurn {
	turns := []domain.ChatTurn{}
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var turn domain.ChatTurn
		if err := json.Unmarshal(line, &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns
}
