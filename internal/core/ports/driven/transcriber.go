package driven

import (
	"context"
	"io"
)

// Transcriber converts speech audio to text.
type Transcriber interface {
	// Transcribe sends the audio and returns the raw transcript.
	// filename is used to infer the audio format. language may be empty for auto-detection.
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*Transcript, error)

	// ModelName returns the speech model in use.
	ModelName() string
}

// Transcript is the raw output of a Transcriber.
type Transcript struct {
	// Text is the transcribed text, before normalisation.
	Text string

	// Language is the detected or requested language, if reported.
	Language string

	// Duration is the audio length in seconds, if reported.
	Duration float64
}
