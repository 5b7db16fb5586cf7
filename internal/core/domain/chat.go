package domain

// Chat metadata keys recorded on memory shard entries.
const (
	MetaChatID    = "chat_id"
	MetaRole      = "role"
	MetaTurnIndex = "turn_index"
	MetaTS        = "ts"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat defaults.
const (
	DefaultChatTitle  = "Meu chat"
	DefaultMemoryK    = 4
	DefaultKnowledgeK = 6
	MinMemoryFetchK   = 8

	// SummaryWindow is the number of recent turns fed to the rolling summary.
	SummaryWindow = 8
)

// Chat is an entry of the chat index.
type Chat struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ChatTurn is one line of a chat history.
type ChatTurn struct {
	TS      int64  `json:"ts"`
	Role    string `json:"role"`
	Content string `json:"content"`
}
