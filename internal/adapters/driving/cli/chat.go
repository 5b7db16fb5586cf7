package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk with the assistant in persistent chats",
	Long: `Chats keep their history, a rolling summary and a memory shard of past
turns. Each message is answered from the chat memory ([M#]) and the
manuscript ([A#]).`,
}

var chatNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Start a chat",
	RunE:  runChatNew,
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runChatList,
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history [chat-id]",
	Short: "Print the summary and turns of a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatHistory,
}

var chatSendCmd = &cobra.Command{
	Use:   "send [chat-id] [message]",
	Short: "Send a message to a chat",
	Long: `Sends the message and prints the reply with its memory and manuscript
citations. Without a message, lines are read from stdin and each one is sent
in turn until EOF or "/exit".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChatSend,
}

// Chat flags.
var (
	chatMemoryK    int
	chatKnowledgeK int
)

func init() {
	chatSendCmd.Flags().IntVar(&chatMemoryK, "k-mem", domain.DefaultMemoryK, "memory chunks to recall")
	chatSendCmd.Flags().IntVar(&chatKnowledgeK, "k-global", domain.DefaultKnowledgeK, "manuscript chunks to retrieve")

	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatSendCmd)
	rootCmd.AddCommand(chatCmd)
}

func requireChats() error {
	if chatService == nil {
		return notConfigured("chat service", "set an LLM provider with 'quill settings'")
	}
	return nil
}

func runChatNew(cmd *cobra.Command, args []string) error {
	if err := requireChats(); err != nil {
		return err
	}

	chat, err := chatService.Create(commandContext(cmd), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	cmd.Printf("Created chat %s (%s).\n", chat.ID, chat.Title)
	return nil
}

func runChatList(cmd *cobra.Command, _ []string) error {
	if err := requireChats(); err != nil {
		return err
	}

	chats, err := chatService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list chats: %w", err)
	}
	if len(chats) == 0 {
		cmd.Println("No chats yet. Start one with 'quill chat new'.")
		return nil
	}
	for _, c := range chats {
		updated := time.Unix(c.UpdatedAt, 0).Format("2006-01-02 15:04")
		cmd.Printf("%-40s %s  %s\n", c.ID, updated, c.Title)
	}
	return nil
}

func runChatHistory(cmd *cobra.Command, args []string) error {
	if err := requireChats(); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	chat, err := chatService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to read chat: %w", err)
	}
	summary, err := chatService.Summary(ctx, chat.ID)
	if err != nil {
		return fmt.Errorf("failed to read summary: %w", err)
	}
	turns, err := chatService.History(ctx, chat.ID)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	cmd.Printf("%s\n\n", chat.Title)
	if summary != "" {
		cmd.Printf("Summary:\n%s\n\n", summary)
	}
	for _, t := range turns {
		cmd.Printf("[%s] %s\n", t.Role, t.Content)
	}
	return nil
}

func runChatSend(cmd *cobra.Command, args []string) error {
	if err := requireChats(); err != nil {
		return err
	}

	chatID := args[0]
	opts := driving.ChatOptions{MemoryK: chatMemoryK, KnowledgeK: chatKnowledgeK}
	if len(args) > 1 {
		return sendChatMessage(cmd, chatID, strings.Join(args[1:], " "), opts)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" {
			return nil
		}
		if err := sendChatMessage(cmd, chatID, line, opts); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func sendChatMessage(cmd *cobra.Command, chatID, message string, opts driving.ChatOptions) error {
	reply, err := chatService.Send(commandContext(cmd), chatID, message, opts)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	cmd.Println(reply.Text)
	if len(reply.MemoryRefs) > 0 {
		cmd.Println("Memory: " + strings.Join(reply.MemoryRefs, "  •  "))
	}
	if len(reply.SourceRefs) > 0 {
		cmd.Println("Sources: " + strings.Join(reply.SourceRefs, "  •  "))
	}
	return nil
}
