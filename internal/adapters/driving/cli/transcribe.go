package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/core/ports/driving"
)

var (
	transcribeTitle    string
	transcribeLanguage string
	transcribeDoc      string
	transcribeKeyword  string
	transcribeNoSave   bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio-file]",
	Short: "Transcribe an audio file into a document version",
	Long: `Sends the audio to the speech-to-text model, stores the raw transcript
and saves the normalised text as a new "whisper" version of the document,
which is then indexed.

The document id comes from --doc, else from --title, else from the file name.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribeTitle, "title", "", "transcript title")
	transcribeCmd.Flags().StringVarP(&transcribeLanguage, "language", "l", "", "ISO-639-1 language hint (e.g. pt)")
	transcribeCmd.Flags().StringVar(&transcribeDoc, "doc", "", "save into this document")
	transcribeCmd.Flags().StringVar(&transcribeKeyword, "keyword", "", "suffix for the stored transcript name")
	transcribeCmd.Flags().BoolVar(&transcribeNoSave, "no-save", false, "print the transcript without saving")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if transcription == nil {
		return notConfigured("transcription service", "set openai.api_key")
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	filename := filepath.Base(path)
	title := transcribeTitle
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	req := driving.TranscribeRequest{
		Audio:    f,
		Filename: filename,
		Language: transcribeLanguage,
		Title:    title,
		DocID:    transcribeDoc,
		Keyword:  transcribeKeyword,
	}

	ctx := commandContext(cmd)
	cmd.Printf("Transcribing %s...\n", filename)
	if transcribeNoSave {
		res, err := transcription.Transcribe(ctx, req)
		if err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
		cmd.Println(res.Text)
		return nil
	}

	res, err := transcription.TranscribeAndSave(ctx, req)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	if res.Language != "" {
		cmd.Printf("Language: %s\n", res.Language)
	}
	if res.TranscriptName != "" {
		cmd.Printf("Transcript: %s\n", res.TranscriptName)
	}
	if res.Ref != nil {
		cmd.Printf("Saved %s as version %d.\n", res.DocID, res.Ref.VersionCount)
	}
	return nil
}
