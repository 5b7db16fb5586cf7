package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

var (
	reviseOpts driving.ReviseOptions
	reviseSave bool
	reviseFile string
)

var reviseCmd = &cobra.Command{
	Use:   "revise [doc-id]",
	Short: "Revise a document with the LLM editor",
	Long: `Sends the latest version (or --file) to the LLM editor and prints the
revised text. With --save the revision becomes a new "editor-llm" version
and is indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRevise,
}

func init() {
	reviseCmd.Flags().StringVar(&reviseOpts.Language, "language", "", "language or norm (default PT-BR)")
	reviseCmd.Flags().StringVar(&reviseOpts.Audience, "audience", "", "target readership")
	reviseCmd.Flags().StringVar(&reviseOpts.Tone, "tone", "", "desired voice")
	reviseCmd.Flags().StringVar(&reviseOpts.Notes, "notes", "", "free-form remarks")
	reviseCmd.Flags().StringVar(&reviseOpts.Instructions, "instructions", "", "specific editing instructions")
	reviseCmd.Flags().StringVarP(&reviseFile, "file", "f", "", "revise this file instead of the latest version")
	reviseCmd.Flags().BoolVar(&reviseSave, "save", false, "save the revision as a new version")
	rootCmd.AddCommand(reviseCmd)
}

func runRevise(cmd *cobra.Command, args []string) error {
	if editor == nil {
		return notConfigured("editor service", "set an LLM provider with 'quill settings'")
	}

	docID := args[0]
	opts := reviseOpts
	if reviseFile != "" {
		text, err := readTextInput(cmd, "", reviseFile, true)
		if err != nil {
			return err
		}
		opts.Text = text
	}

	ctx := commandContext(cmd)
	if !reviseSave {
		revised, err := editor.Revise(ctx, docID, opts)
		if err != nil {
			return fmt.Errorf("revision failed: %w", err)
		}
		cmd.Println(revised)
		return nil
	}

	revised, ref, err := editor.ReviseAndSave(ctx, docID, opts)
	if err != nil {
		if ref != nil {
			return fmt.Errorf("revision saved as %s but indexing failed: %w",
				domain.VersionTag(docID, ref.VersionCount), err)
		}
		return fmt.Errorf("revision failed: %w", err)
	}
	cmd.Println(revised)
	cmd.Println()
	cmd.Printf("Saved %s.\n", domain.VersionTag(docID, ref.VersionCount))
	return nil
}
