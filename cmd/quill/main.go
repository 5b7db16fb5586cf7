// Command quill is a book editing assistant: versioned manuscript storage,
// semantic search, LLM revision and audio transcription.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/quill/internal/adapters/driving/cli"
	"github.com/custodia-labs/quill/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(context.Background(), bootstrap); err != nil {
		logger.Debug("exit: %v", err)
		os.Exit(1)
	}
}
