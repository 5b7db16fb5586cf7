// Package cli provides the quill command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services wired into the commands. Any of them may be nil; commands
// report "not configured" when a service they need is missing.
var (
	versionRepo     driving.VersionRepository
	indexer         driving.Indexer
	shardManager    driving.ShardManager
	retriever       driving.Retriever
	asker           driving.Asker
	chatService     driving.ChatService
	editor          driving.Editor
	transcription   driving.Transcription
	driveAuth       driving.DriveAuth
	settingsService driving.SettingsService
	healthChecker   HealthChecker
	normaliserReg   driven.NormaliserRegistry
)

// HealthChecker pings the configured AI backends.
type HealthChecker interface {
	Validate(ctx context.Context) map[string]error
}

// Services groups the driving ports the commands call into.
type Services struct {
	Versions      driving.VersionRepository
	Indexer       driving.Indexer
	Shards        driving.ShardManager
	Retriever     driving.Retriever
	Asker         driving.Asker
	Chats         driving.ChatService
	Editor        driving.Editor
	Transcription driving.Transcription
	DriveAuth     driving.DriveAuth
	Settings      driving.SettingsService
	Health        HealthChecker
	Normalisers   driven.NormaliserRegistry

	// Close releases stores and clients. Optional.
	Close func() error
}

// Options are the global flag values handed to the bootstrap function.
type Options struct {
	ConfigDir string
	Verbose   bool
}

// Bootstrap builds the services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap     Bootstrap
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Book editing assistant",
	Long: `quill keeps every version of your manuscript, indexes it for
semantic search and helps revise it with an LLM.

Versions and vector shards are stored locally (SQLite) or in a Google
Drive folder tree, depending on storage.backend.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.quill)")
}

// SetServices installs the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	versionRepo = s.Versions
	indexer = s.Indexer
	shardManager = s.Shards
	retriever = s.Retriever
	asker = s.Asker
	chatService = s.Chats
	editor = s.Editor
	transcription = s.Transcription
	driveAuth = s.DriveAuth
	settingsService = s.Settings
	healthChecker = s.Health
	normaliserReg = s.Normalisers
	closeServices = s.Close
}

// SetVersion sets the version reported by "quill version" and the MCP server.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. The bootstrap function, when non-nil,
// builds the services after flags are parsed.
func Execute(ctx context.Context, b Bootstrap) error {
	bootstrap = b
	defer func() {
		if err := releaseServices(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}
	s, err := bootstrap(commandContext(cmd), Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("initialising services: %w", err)
	}
	SetServices(s)
	return nil
}

func releaseServices() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// commandContext returns the command context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// notConfigured reports a missing service with a hint for the user.
func notConfigured(service, hint string) error {
	if hint == "" {
		return fmt.Errorf("%s not configured", service)
	}
	return fmt.Errorf("%s not configured (%s)", service, hint)
}

var errNoText = errors.New("no text given: use --text or --file")
