// Package stt runs speech recognition on an audio artifact.
//
// Adapter validates the audio file, delegates to a Backend, and classifies
// every failure as a transcription failure. Backends live in subpackages:
// whisperx runs WhisperX locally, awstranscribe uses Amazon Transcribe.
package stt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"tubescribe/internal/logging"
	"tubescribe/internal/services"
	"tubescribe/internal/timedtext"
)

const stageName = "transcribing"

// Result is the recognizer output.
type Result struct {
	Segments []timedtext.Segment
	// Language is the detected or requested language code.
	Language string
}

// Backend is a recognition collaborator.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath, languageHint string) (Result, error)
}

// Adapter wraps a Backend with input validation and error classification.
type Adapter struct {
	backend Backend
	logger  *slog.Logger
}

// NewAdapter returns an Adapter over backend.
func NewAdapter(backend Backend, logger *slog.Logger) *Adapter {
	return &Adapter{backend: backend, logger: logging.NewComponentLogger(logger, "stt")}
}

// Backend returns the name of the configured backend.
func (a *Adapter) Backend() string {
	if a == nil || a.backend == nil {
		return ""
	}
	return a.backend.Name()
}

// Transcribe recognizes speech in audioPath. Missing or empty audio is
// rejected before the backend runs. The call blocks until the backend
// finishes.
func (a *Adapter) Transcribe(ctx context.Context, audioPath, languageHint string) (Result, error) {
	if a == nil || a.backend == nil {
		return Result{}, services.Wrap(services.ErrTranscriptionFailed, stageName, "backend", "no recognition backend configured", nil)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTranscriptionFailed, stageName, "validate audio", audioPath, err)
	}
	if info.IsDir() {
		return Result{}, services.Wrap(services.ErrTranscriptionFailed, stageName, "validate audio", fmt.Sprintf("%s is a directory", audioPath), nil)
	}
	if info.Size() == 0 {
		return Result{}, services.Wrap(services.ErrTranscriptionFailed, stageName, "validate audio", fmt.Sprintf("%s is empty", audioPath), nil)
	}

	logger := logging.WithContext(ctx, a.logger)
	hint := strings.TrimSpace(languageHint)
	logger.Info("speech recognition started",
		logging.String("backend", a.backend.Name()),
		logging.String("language_hint", hint),
		logging.Int64("audio_bytes", info.Size()),
	)
	started := time.Now()

	result, err := a.backend.Transcribe(ctx, audioPath, hint)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTranscriptionFailed, stageName, a.backend.Name(), "recognition failed", err)
	}
	if result.Language == "" {
		result.Language = hint
	}
	logger.Info("speech recognition finished",
		logging.String("backend", a.backend.Name()),
		logging.String("language", result.Language),
		logging.Int("segments", len(result.Segments)),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return result, nil
}
