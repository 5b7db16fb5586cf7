package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the vector shards",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the global shard from the document shards",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

var indexUpsertCmd = &cobra.Command{
	Use:   "upsert [doc-id]",
	Short: "Index a document's latest version (or a file)",
	Long: `Chunks and embeds the latest version of a document into its shard and
the global shard. With --file the file content is indexed instead, tagged
with the latest version's metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexUpsert,
}

var indexFile string

func init() {
	indexUpsertCmd.Flags().StringVarP(&indexFile, "file", "f", "", "index this file instead of the latest version")

	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexUpsertCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if shardManager == nil {
		return notConfigured("shard manager", "check storage and embedding settings")
	}

	cmd.Println("Rebuilding global shard...")
	res, err := shardManager.RebuildGlobal(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Merged %d document shard(s), %d entries.\n", res.SourcesMerged, res.Entries)
	if res.Skipped > 0 {
		cmd.Printf("Skipped %d unreadable shard(s); run with --verbose for details.\n", res.Skipped)
	}
	return nil
}

func runIndexUpsert(cmd *cobra.Command, args []string) error {
	if indexer == nil {
		return notConfigured("indexer", "check storage and embedding settings")
	}
	if versionRepo == nil {
		return notConfigured("version repository", "check storage settings")
	}

	docID := args[0]
	ctx := commandContext(cmd)

	manifest, err := versionRepo.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	latest := manifest.Latest()
	if latest == nil && indexFile == "" {
		return fmt.Errorf("document %s has no versions: %w", docID, domain.ErrNotFound)
	}

	meta := domain.Meta{domain.MetaSource: domain.SourceUnknown}
	text := ""
	if latest != nil {
		meta = latest.Meta.Clone()
		text = latest.Text
		index := len(manifest.Versions)
		meta[domain.MetaVersionIndex] = index
		meta[domain.MetaVersionTag] = domain.VersionTag(docID, index)
	}
	if indexFile != "" {
		if text, err = readTextInput(cmd, "", indexFile, true); err != nil {
			return err
		}
	}

	res, err := indexer.IndexVersion(ctx, docID, text, meta)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	cmd.Printf("Indexed %d chunk(s) into %s.\n", res.Added, docID)
	return nil
}
