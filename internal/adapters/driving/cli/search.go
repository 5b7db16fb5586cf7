package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/domain"
)

var (
	searchK      int
	searchMode   string
	searchLambda float64
	searchDoc    string
	searchShards []string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the manuscript",
	Long: `Embeds the query and searches the global shard. Results are reranked
with maximal marginal relevance unless --mode similarity is given.

--doc restricts the search to one document; --shard (repeatable) searches
named shards and merges the results by score.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", domain.DefaultK, "number of results")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(domain.DefaultMode), "ranking: similarity or mmr")
	searchCmd.Flags().Float64Var(&searchLambda, "lambda", domain.DefaultLambda, "MMR relevance weight in [0,1]")
	searchCmd.Flags().StringVar(&searchDoc, "doc", "", "search one document")
	searchCmd.Flags().StringSliceVar(&searchShards, "shard", nil, "search these shards")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return notConfigured("search service", "check storage and embedding settings")
	}

	query := strings.Join(args, " ")
	opts, err := searchOptions(cmd, searchK, searchMode, searchLambda)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	var results []domain.ScoredChunk
	switch {
	case searchDoc != "":
		results, err = retriever.SearchDocument(ctx, searchDoc, query, opts)
	case len(searchShards) > 0:
		results, err = retriever.SearchShards(ctx, searchShards, query, opts)
	default:
		results, err = retriever.SearchGlobal(ctx, query, opts)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

// searchOptions builds the options from flags, taking unset flags from the
// search.* settings when a settings service is available.
func searchOptions(cmd *cobra.Command, k int, mode string, lambda float64) (domain.SearchOptions, error) {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			flags := cmd.Flags()
			if !flags.Changed("k") && s.Search.K > 0 {
				k = s.Search.K
			}
			if flags.Lookup("mode") != nil && !flags.Changed("mode") && s.Search.Mode != "" {
				mode = string(s.Search.Mode)
			}
			if flags.Lookup("lambda") != nil && !flags.Changed("lambda") {
				lambda = s.Search.Lambda
			}
		}
	}

	m, err := domain.ParseRetrievalMode(mode)
	if err != nil {
		return domain.SearchOptions{}, err
	}
	return domain.SearchOptions{K: k, Mode: m}.WithLambda(lambda), nil
}

type searchResultJSON struct {
	DocID      string      `json:"doc_id"`
	VersionTag string      `json:"version_tag,omitempty"`
	Shard      string      `json:"shard"`
	Score      float64     `json:"score"`
	Text       string      `json:"text"`
	Metadata   domain.Meta `json:"metadata,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredChunk) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			DocID:      r.DocID(),
			VersionTag: r.VersionTag(),
			Shard:      r.Shard,
			Score:      r.Score,
			Text:       r.Text,
			Metadata:   r.Metadata,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		label := r.DocID()
		if tag := r.VersionTag(); tag != "" {
			label += " • " + tag
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, label, r.Score)
		cmd.Printf("      %s\n", snippet(r.Text, 200))
		cmd.Println()
	}
}

// snippet flattens whitespace and cuts text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
