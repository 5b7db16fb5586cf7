// Package openai provides a speech-to-text adapter using the OpenAI
// audio transcriptions endpoint (Whisper).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/logger"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = domain.DefaultTranscriptionModel
	DefaultTimeout = 10 * time.Minute

	// MaxUploadBytes is the API's upload limit.
	MaxUploadBytes = 25 << 20
)

// Config holds configuration for the transcriber.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the speech model (default: whisper-1).
	Model string

	// Timeout is the request timeout (default: 10m).
	Timeout time.Duration
}

// Transcriber uploads audio to /audio/transcriptions.
type Transcriber struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// verbose_json carries the detected language and the duration.
type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewTranscriber creates a new Whisper transcriber.
func NewTranscriber(cfg Config) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrTranscriberUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Transcriber{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Transcribe uploads the audio and returns the raw transcript.
func (t *Transcriber) Transcribe(
	ctx context.Context, audio io.Reader, filename, language string,
) (*driven.Transcript, error) {
	if filename == "" {
		filename = "audio.mp3"
	}

	body, contentType, err := t.multipartBody(audio, filepath.Base(filename), language)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	logger.Debug("Whisper: uploading %s (%d bytes)", filename, body.Len())
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out transcriptionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, statusError(resp.StatusCode, string(raw))
	}
	if out.Error != nil {
		return nil, statusError(resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, string(raw))
	}

	lang := out.Language
	if lang == "" {
		lang = language
	}
	return &driven.Transcript{Text: out.Text, Language: lang, Duration: out.Duration}, nil
}

// ModelName returns the speech model in use.
func (t *Transcriber) ModelName() string {
	return t.model
}

func (t *Transcriber) multipartBody(audio io.Reader, filename, language string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"model":           t.model,
		"response_format": "verbose_json",
	}
	if language != "" {
		fields["language"] = language
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(audio, MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	if n == 0 {
		return nil, "", fmt.Errorf("audio %s is empty: %w", filename, domain.ErrInvalidInput)
	}
	if n > MaxUploadBytes {
		return nil, "", fmt.Errorf("audio %s exceeds %d MB: %w", filename, MaxUploadBytes>>20, domain.ErrInvalidInput)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// statusError reports a failed request; 429 wraps domain.ErrRateLimited.
func statusError(code int, msg string) error {
	msg = strings.TrimSpace(msg)
	if code == http.StatusTooManyRequests {
		return fmt.Errorf("whisper error (status %d): %s: %w", code, msg, domain.ErrRateLimited)
	}
	return fmt.Errorf("whisper error (status %d): %s", code, msg)
}
