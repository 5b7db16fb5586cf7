package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/quill/internal/adapters/driven/ai"
	"github.com/custodia-labs/quill/internal/adapters/driven/config/file"
	"github.com/custodia-labs/quill/internal/adapters/driven/oauth"
	"github.com/custodia-labs/quill/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/quill/internal/adapters/driven/vector"
	"github.com/custodia-labs/quill/internal/adapters/driving/cli"
	"github.com/custodia-labs/quill/internal/connectors/google"
	"github.com/custodia-labs/quill/internal/connectors/google/drive"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/services"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/normalisers"
	"github.com/custodia-labs/quill/internal/postprocessors"
)

// bootstrap builds the services from the config directory. A Drive
// backend without a stored token still bootstraps; the storage-backed
// services are left out so "quill drive connect" can run.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configDir, err := resolveConfigDir(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	tokens, err := oauth.NewFileTokenStore(configDir)
	if err != nil {
		return nil, err
	}
	oauthClient := google.NewOAuthClient(settings.Google.ClientID, settings.Google.ClientSecret)

	aiServices := ai.NewServices(settings)
	normaliserRegistry := normalisers.NewDefaultRegistry()

	out := &cli.Services{
		Settings:    settingsService,
		DriveAuth:   services.NewAuthService(oauthClient, tokens),
		Health:      aiServices,
		Normalisers: normaliserRegistry,
	}

	store, closeStore, err := openBlobStore(ctx, settings, configDir, oauthClient, tokens)
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		logger.Warn("Google Drive is not connected; run 'quill drive connect' (%v)", err)
	case err != nil:
		aiServices.Close()
		return nil, err
	}

	out.Close = func() error {
		aiServices.Close()
		if closeStore != nil {
			return closeStore()
		}
		return nil
	}
	if store == nil {
		return out, nil
	}

	splitter, err := postprocessors.NewDefaultRegistry().Build(settings.Chunker.Strategy, map[string]any{
		"chunk_size": settings.Chunker.ChunkSize,
		"overlap":    settings.Chunker.Overlap,
	})
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("chunker.strategy: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"), services.DefaultPrompts())
	if err != nil {
		_ = out.Close()
		return nil, err
	}

	versions := services.NewVersionService(store)
	shards := services.NewShardService(store, vector.NewCodec(), aiServices.Embedding, uuid.NewString)
	corrupt := vector.NewLogObserver()
	shards.SetObserver(corrupt)
	indexing := services.NewIndexingService(versions, shards, splitter)
	retrieval := services.NewRetrievalService(shards, vector.NewIndex(), aiServices.Embedding)

	editorService := services.NewEditorService(versions, indexing, aiServices.LLM)
	askService := services.NewAskService(retrieval, aiServices.LLM)
	chatService := services.NewChatService(store, shards, retrieval, aiServices.LLM)
	for _, aware := range []driven.PromptStoreAware{editorService, askService, chatService} {
		aware.SetPromptStore(prompts)
	}

	out.Versions = versions
	out.Indexer = indexing
	out.Shards = shards
	out.Retriever = retrieval
	out.Editor = editorService
	out.Asker = askService
	out.Chats = chatService
	out.Transcription = services.NewTranscriptionService(aiServices.Transcriber, normaliserRegistry, store, indexing)

	closeAll := out.Close
	out.Close = func() error {
		if names := corrupt.Corrupt(); len(names) > 0 {
			logger.Warn("%d shard(s) were read as empty: %s. Re-index with 'quill index upsert <doc>' and 'quill index rebuild'.",
				len(names), strings.Join(names, ", "))
		}
		return closeAll()
	}
	return out, nil
}

// openBlobStore opens the configured storage backend. The returned close
// function may be nil.
func openBlobStore(
	ctx context.Context,
	settings *domain.AppSettings,
	configDir string,
	client *google.OAuthClient,
	tokens driven.TokenStore,
) (driven.BlobStore, func() error, error) {
	switch settings.Storage.Backend {
	case domain.StorageDrive:
		if !settings.Google.IsConfigured() {
			return nil, nil, fmt.Errorf("google.client_id and google.client_secret are not set: %w", domain.ErrAuthRequired)
		}
		ts, err := google.NewTokenSource(ctx, client, tokens)
		if err != nil {
			return nil, nil, err
		}
		svc, err := google.NewDriveService(ctx, ts)
		if err != nil {
			return nil, nil, fmt.Errorf("creating drive client: %w", err)
		}
		store := drive.NewBlobStore(svc, settings.Storage.DriveRootFolder)
		if err := store.EnsureFolders(ctx); err != nil {
			return nil, nil, fmt.Errorf("preparing drive folders: %w", err)
		}
		logger.Debug("Storage: Google Drive folder %s", settings.Storage.DriveRootFolder)
		return store, nil, nil

	default:
		dir := settings.Storage.LocalDir
		if dir == "" {
			dir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening local store: %w", err)
		}
		logger.Debug("Storage: %s", store.Path())
		return store, store.Close, nil
	}
}

// resolveConfigDir returns dir, or ~/.quill when empty.
func resolveConfigDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".quill"), nil
}
