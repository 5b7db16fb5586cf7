package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/quill/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change quill settings. Values are stored in config.toml in the
config directory; OPENAI_API_KEY, GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET
override the stored values.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration key",
	Long:  `Sets one configuration key. Run 'quill settings keys' for the list.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the OpenAI API key",
	Long:  `Prompts for the OpenAI API key without echoing it and stores it.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsSetKey,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the AI backends are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.Backend == domain.StorageDrive {
		cmd.Printf("  Root folder: %s\n", settings.Storage.DriveRootFolder)
		cmd.Printf("  OAuth app: %s\n", configuredLabel(settings.Google.IsConfigured()))
	} else {
		dir := settings.Storage.LocalDir
		if dir == "" {
			dir = "(default)"
		}
		cmd.Printf("  Directory: %s\n", dir)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if !settings.Embedding.Provider.RequiresAPIKey() || settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", orDefault(settings.Embedding.BaseURL))
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if !settings.LLM.Provider.RequiresAPIKey() || settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", orDefault(settings.LLM.BaseURL))
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Transcription]")
	cmd.Printf("  Model: %s\n", settings.TranscriptionModel)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Strategy: %s\n", settings.Chunker.Strategy)
	cmd.Printf("  Chunk size: %d\n", settings.Chunker.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunker.Overlap)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  k: %d\n", settings.Search.K)
	cmd.Printf("  Mode: %s\n", settings.Search.Mode)
	cmd.Printf("  Lambda: %.2f\n", settings.Search.Lambda)

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	display := value
	if strings.Contains(key, "secret") || strings.HasSuffix(key, "api_key") {
		display = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, display)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter OpenAI API key: ")
	key := readPassword(cmd.InOrStdin())
	cmd.Println()
	if key == "" {
		return errors.New("API key is empty")
	}

	if err := settingsService.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("API key stored (%s).\n", maskAPIKey(key))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	keys := settingsService.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Println(k)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if healthChecker == nil {
		return notConfigured("AI services", "set openai.api_key or use the ollama provider")
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), 30*time.Second)
	defer cancel()

	results := healthChecker.Validate(ctx)
	if len(results) == 0 {
		cmd.Println("No AI services configured.")
		return nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		if err := results[name]; err != nil {
			failed++
			cmd.Printf("  %-40s FAILED: %v\n", name, err)
			continue
		}
		cmd.Printf("  %-40s OK\n", name)
	}
	if failed > 0 {
		return fmt.Errorf("%d service(s) unreachable", failed)
	}
	return nil
}

// readPassword reads a line without echo when stdin is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
