package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	Short:   "Manage manuscript documents",
	Long:    `Create documents, append versions, read history and promote earlier versions.`,
}

var documentCreateCmd = &cobra.Command{
	Use:   "create [doc-id]",
	Short: "Create a document",
	Long: `Creates a document manifest. With --text or --file the content becomes
version 1 and is indexed; otherwise the manifest starts empty.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentCreate,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Print a document version",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentAppendCmd = &cobra.Command{
	Use:   "append [doc-id]",
	Short: "Append a new version",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentAppend,
}

var documentHistoryCmd = &cobra.Command{
	Use:   "history [doc-id]",
	Short: "List the versions of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentHistory,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentPromoteCmd = &cobra.Command{
	Use:   "promote [doc-id] [version]",
	Short: "Re-save an earlier version as the newest",
	Long: `Copies version N of a document into a new version tagged "picked"
and indexes it. --canonical marks it as the canonical text.`,
	Args: cobra.ExactArgs(2),
	RunE: runDocumentPromote,
}

// Document flags.
var (
	docText      string
	docFile      string
	docSource    string
	docNoIndex   bool
	docVersion   int
	docJSON      bool
	docCanonical bool
)

func init() {
	for _, c := range []*cobra.Command{documentCreateCmd, documentAppendCmd} {
		c.Flags().StringVarP(&docText, "text", "t", "", "version text")
		c.Flags().StringVarP(&docFile, "file", "f", "", "read version text from file (- for stdin)")
		c.Flags().StringVarP(&docSource, "source", "s", domain.SourceManualEdit, "origin tag stored with the version")
		c.Flags().BoolVar(&docNoIndex, "no-index", false, "save without indexing")
	}
	documentGetCmd.Flags().IntVar(&docVersion, "version", 0, "1-based version number (default latest)")
	documentGetCmd.Flags().BoolVar(&docJSON, "json", false, "print the whole manifest as JSON")
	documentPromoteCmd.Flags().BoolVar(&docCanonical, "canonical", false, "mark the promoted version as canonical")

	documentCmd.AddCommand(documentCreateCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentAppendCmd)
	documentCmd.AddCommand(documentHistoryCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentPromoteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentCreate(cmd *cobra.Command, args []string) error {
	if versionRepo == nil {
		return notConfigured("version repository", "check storage settings")
	}

	docID := args[0]
	ctx := commandContext(cmd)

	text, err := readTextInput(cmd, docText, docFile, false)
	if err != nil {
		return err
	}

	meta := domain.Meta{domain.MetaSource: docSource}
	ref, err := versionRepo.Create(ctx, docID, text, meta)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	cmd.Printf("Created %s (%d version(s)).\n", ref.DocID, ref.VersionCount)

	if ref.VersionCount > 0 {
		return indexWritten(cmd, docID, text, meta, ref)
	}
	return nil
}

func runDocumentAppend(cmd *cobra.Command, args []string) error {
	if versionRepo == nil {
		return notConfigured("version repository", "check storage settings")
	}

	docID := args[0]
	ctx := commandContext(cmd)

	text, err := readTextInput(cmd, docText, docFile, true)
	if err != nil {
		return err
	}

	meta := domain.Meta{domain.MetaSource: docSource}
	ref, err := versionRepo.Append(ctx, docID, text, meta)
	if err != nil {
		return fmt.Errorf("failed to append version: %w", err)
	}
	cmd.Printf("Saved %s (%d versions).\n", domain.VersionTag(docID, ref.VersionCount), ref.VersionCount)

	return indexWritten(cmd, docID, text, meta, ref)
}

// indexWritten indexes a version that was just written, unless --no-index.
func indexWritten(cmd *cobra.Command, docID, text string, meta domain.Meta, ref *domain.ManifestRef) error {
	if docNoIndex {
		return nil
	}
	if indexer == nil {
		cmd.Println("Indexing skipped: indexer not configured.")
		return nil
	}

	indexMeta := meta.Clone()
	indexMeta[domain.MetaVersionIndex] = ref.VersionCount
	indexMeta[domain.MetaVersionTag] = domain.VersionTag(docID, ref.VersionCount)

	res, err := indexer.IndexVersion(commandContext(cmd), docID, text, indexMeta)
	if err != nil {
		return fmt.Errorf("version saved but indexing failed: %w", err)
	}
	cmd.Printf("Indexed %d chunk(s).\n", res.Added)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if versionRepo == nil {
		return notConfigured("version repository", "check storage settings")
	}

	manifest, err := versionRepo.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if docJSON {
		data, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	index := docVersion
	if index == 0 {
		index = len(manifest.Versions)
	}
	if index == 0 {
		cmd.Printf("Document %s has no versions.\n", manifest.ID)
		return nil
	}
	v, err := manifest.VersionAt(index)
	if err != nil {
		return err
	}
	cmd.Println(v.Text)
	return nil
}

func runDocumentHistory(cmd *cobra.Command, args []string) error {
	if versionRepo == nil {
		return notConfigured("version repository", "check storage settings")
	}

	manifest, err := versionRepo.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s (created %s)\n\n", manifest.ID, manifest.CreatedTime().Format("2006-01-02 15:04:05"))
	if len(manifest.Versions) == 0 {
		cmd.Println("  No versions.")
		return nil
	}
	for i, v := range manifest.Versions {
		cmd.Println("  " + formatVersionLine(manifest.ID, i+1, v))
	}
	cmd.Printf("\nTotal: %d versions\n", len(manifest.Versions))
	return nil
}

// formatVersionLine renders one history line, marking canonical versions.
func formatVersionLine(docID string, index int, v domain.Version) string {
	tag := v.Meta.String(domain.MetaVersionTag)
	if tag == "" {
		tag = domain.VersionTag(docID, index)
	}
	line := fmt.Sprintf("v%d — %s — %s — %s",
		index, time.Unix(v.TS, 0).Format("2006-01-02 15:04"), v.Meta.Source(), tag)
	if v.Meta.Bool(domain.MetaCanonical) {
		line += " (canonical)"
	}
	return line
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if versionRepo == nil {
		return notConfigured("version repository", "check storage settings")
	}

	ids, err := versionRepo.ListDocuments(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for _, id := range ids {
		cmd.Printf("  %s\n", id)
	}
	cmd.Printf("\nTotal: %d documents\n", len(ids))
	return nil
}

func runDocumentPromote(cmd *cobra.Command, args []string) error {
	if editor == nil {
		return notConfigured("editor service", "")
	}

	docID := args[0]
	var index int
	if _, err := fmt.Sscanf(args[1], "%d", &index); err != nil || index < 1 {
		return fmt.Errorf("invalid version %q: %w", args[1], domain.ErrInvalidInput)
	}

	ref, err := editor.Promote(commandContext(cmd), docID, index, docCanonical)
	if err != nil {
		return fmt.Errorf("failed to promote version: %w", err)
	}
	cmd.Printf("Promoted %s to %s.\n",
		domain.VersionTag(docID, index), domain.VersionTag(docID, ref.VersionCount))
	return nil
}

// readTextInput returns --text, or the content of --file ("-" reads stdin).
func readTextInput(cmd *cobra.Command, text, file string, required bool) (string, error) {
	if text != "" && file != "" {
		return "", errors.New("use either --text or --file, not both")
	}
	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		text = string(data)
	}
	if required && text == "" {
		return "", errNoText
	}
	return text, nil
}
