package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/domain"
)

var askK int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the manuscript",
	Long: `Retrieves the most relevant chunks from the global shard and asks the LLM
to answer using them. Sources are cited as [A1], [A2], ...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "k", "k", domain.DefaultK, "number of context chunks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if asker == nil {
		return notConfigured("ask service", "set an LLM provider with 'quill settings'")
	}

	question := strings.Join(args, " ")
	opts, err := searchOptions(cmd, askK, "", 0)
	if err != nil {
		return err
	}
	answer, err := asker.Ask(commandContext(cmd), question, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Refs) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, ref := range answer.Refs {
			cmd.Printf("  %s\n", ref)
		}
	}
	return nil
}
