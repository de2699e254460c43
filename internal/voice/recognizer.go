package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os/exec"
	"strings"
	"time"

	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
)

const defaultRecognizeTimeout = 15 * time.Second

// Recorder captures one utterance as WAV audio.
type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// CommandRecorder runs an external capture command (arecord by default)
// and takes WAV data from its stdout.
type CommandRecorder struct {
	argv []string
}

// NewCommandRecorder creates a recorder for argv.
func NewCommandRecorder(argv []string) *CommandRecorder {
	return &CommandRecorder{argv: argv}
}

// Record runs the capture command to completion.
func (r *CommandRecorder) Record(ctx context.Context) ([]byte, error) {
	if len(r.argv) == 0 {
		return nil, fmt.Errorf("%w: no record command", ErrDisabled)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...) //nolint:gosec // argv comes from operator configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("recording with %s: %w: %s", r.argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// HTTPTranscriber posts audio to an OpenAI-compatible
// /v1/audio/transcriptions endpoint (OpenAI, whisper.cpp server, LocalAI).
type HTTPTranscriber struct {
	endpoint   string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
}

// NewHTTPTranscriber creates a transcriber from configuration.
func NewHTTPTranscriber(cfg config.RecognizerConfig) *HTTPTranscriber {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRecognizeTimeout
	}
	return &HTTPTranscriber{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transcription struct {
	Text string `json:"text"`
}

// Transcribe uploads audio as multipart form data and returns the text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="utterance.wav"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	fields := map[string]string{"model": t.model, "language": t.language, "response_format": "json"}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("building request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("speech service: reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech service: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out transcription
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("speech service: decoding: %w", err)
	}
	return out.Text, nil
}

// Recognizer listens for one spoken command.
type Recognizer struct {
	recorder    Recorder
	transcriber Transcriber
}

// NewRecognizer combines a recorder and a transcriber.
func NewRecognizer(recorder Recorder, transcriber Transcriber) *Recognizer {
	return &Recognizer{recorder: recorder, transcriber: transcriber}
}

// Listen records one utterance and returns its text.
// Every failure, including silence, wraps ErrRecognitionFailed.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	if r == nil {
		return "", ErrDisabled
	}
	audio, err := r.recorder.Record(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: no audio captured", ErrRecognitionFailed)
	}

	text, err := r.transcriber.Transcribe(ctx, audio, "audio/wav")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: audio unclear", ErrRecognitionFailed)
	}
	return text, nil
}
