package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// TranscribeRequest describes an audio file to transcribe.
type TranscribeRequest struct {
	// Audio is the audio content.
	Audio io.Reader

	// Filename is the original file name; its extension selects the format.
	Filename string

	// Language is an optional ISO-639-1 hint.
	Language string

	// Title names the transcript; the document ID is derived from it when DocID is empty.
	Title string

	// DocID saves into an existing or explicit document.
	DocID string

	// Keyword is appended to the stored transcript file name.
	Keyword string
}

// TranscriptionResult is the outcome of a transcription.
type TranscriptionResult struct {
	Text     string
	Language string
	DocID    string

	// TranscriptName is the raw transcript blob, set when saved.
	TranscriptName string

	Ref *domain.ManifestRef
}

// Transcription converts audio into document versions.
type Transcription interface {
	// Transcribe returns the normalised transcript without saving it.
	Transcribe(ctx context.Context, req TranscribeRequest) (*TranscriptionResult, error)

	// TranscribeAndSave transcribes, stores the raw transcript, saves a version and indexes it.
	TranscribeAndSave(ctx context.Context, req TranscribeRequest) (*TranscriptionResult, error)
}
