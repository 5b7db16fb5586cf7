package cli

import (
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/adapters/driving/watch"
	"github.com/custodia-labs/quill/internal/core/domain"
)

var (
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import text files dropped into a directory",
	Long: `Watches a directory and imports every new or changed .txt/.md file as a
new version of the document named after the file (e.g. "Capítulo 1.txt"
becomes capitulo-1), then indexes it. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "import files already in the directory first")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before importing a file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexer == nil {
		return notConfigured("indexer", "check storage and embedding settings")
	}
	if normaliserReg == nil {
		return errors.New("normalisers not configured")
	}

	dir := args[0]
	if err := watch.Check(dir); err != nil {
		return err
	}

	w := watch.New(dir, indexer, normaliserReg,
		watch.WithVersions(versionRepo),
		watch.WithDebounce(watchDebounce),
		watch.WithReporter(func(res watch.Result) {
			name := filepath.Base(res.Path)
			if res.Err != nil {
				cmd.PrintErrf("  %s: %v\n", name, res.Err)
				return
			}
			cmd.Printf("  %s -> %s\n", name, domain.VersionTag(res.DocID, res.Ref.VersionCount))
		}),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watchExisting {
		cmd.Printf("Importing existing files from %s...\n", dir)
		if err := w.ImportExisting(ctx); err != nil {
			return err
		}
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return w.Run(ctx)
}
