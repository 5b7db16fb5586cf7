package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/core/ports/driving"
	"github.com/custodia-labs/quill/internal/logger"
	"github.com/custodia-labs/quill/internal/naming"
)

// Ensure TranscriptionService implements the interface.
var _ driving.Transcription = (*TranscriptionService)(nil)

// mimeMarkdown is the content type of stored transcripts.
const mimeMarkdown = "text/markdown"

// TranscriptionService turns audio into normalised text and document versions.
type TranscriptionService struct {
	transcriber driven.Transcriber
	normalisers driven.NormaliserRegistry
	store       driven.BlobStore
	indexer     driving.Indexer
	now         func() time.Time
}

// NewTranscriptionService creates a new transcription service.
// The transcriber is optional; without it Transcribe returns ErrTranscriberUnavailable.
func NewTranscriptionService(
	transcriber driven.Transcriber,
	normalisers driven.NormaliserRegistry,
	store driven.BlobStore,
	indexer driving.Indexer,
) *TranscriptionService {
	return &TranscriptionService{
		transcriber: transcriber,
		normalisers: normalisers,
		store:       store,
		indexer:     indexer,
		now:         time.Now,
	}
}

// Transcribe sends the audio to the transcriber and normalises the text.
func (s *TranscriptionService) Transcribe(
	ctx context.Context, req driving.TranscribeRequest,
) (*driving.TranscriptionResult, error) {
	if s.transcriber == nil {
		return nil, domain.ErrTranscriberUnavailable
	}
	if req.Audio == nil {
		return nil, fmt.Errorf("no audio: %w", domain.ErrInvalidInput)
	}

	logger.Debug("Transcribing %s with %s", req.Filename, s.transcriber.ModelName())
	raw, err := s.transcriber.Transcribe(ctx, req.Audio, req.Filename, req.Language)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", req.Filename, err)
	}

	normalised, err := s.normalisers.Normalise(ctx, &domain.RawText{
		Name:     req.Filename,
		MIMEType: mimeText,
		Content:  []byte(raw.Text),
	})
	if err != nil {
		return nil, err
	}

	language := raw.Language
	if language == "" {
		language = req.Language
	}

	docID := req.DocID
	if docID == "" {
		docID = naming.SlugFromText(transcriptTitle(req, normalised.Text))
	}

	return &driving.TranscriptionResult{
		Text:     normalised.Text,
		Language: language,
		DocID:    docID,
	}, nil
}

// TranscribeAndSave transcribes, keeps the transcript in the transcripts
// folder and saves it as a whisper version of the document.
func (s *TranscriptionService) TranscribeAndSave(
	ctx context.Context, req driving.TranscribeRequest,
) (*driving.TranscriptionResult, error) {
	result, err := s.Transcribe(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, fmt.Errorf("empty transcript for %s: %w", req.Filename, domain.ErrInvalidInput)
	}

	name := naming.TranscriptName(transcriptTitle(req, result.Text), s.now(), req.Keyword)
	if _, err := s.store.Put(ctx, driven.FolderTranscripts, name, []byte(result.Text), mimeMarkdown); err != nil {
		return nil, fmt.Errorf("store transcript %s: %w", name, err)
	}
	result.TranscriptName = name
	logger.Debug("Stored transcript %s", name)

	meta := domain.Meta{
		domain.MetaSource: domain.SourceWhisper,
		"transcript":      name,
	}
	if result.Language != "" {
		meta["language"] = result.Language
	}

	ref, _, err := s.indexer.SaveAndIndex(ctx, result.DocID, result.Text, meta)
	if err != nil {
		return result, err
	}
	result.Ref = ref
	return result, nil
}

// transcriptTitle prefers the requested title and falls back to a slug of
// the transcript's first words.
func transcriptTitle(req driving.TranscribeRequest, text string) string {
	if strings.TrimSpace(req.Title) != "" {
		return req.Title
	}
	return naming.SlugFromText(text)
}
