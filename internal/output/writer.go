// Package output persists transcripts as {id}.txt and {id}.srt.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"tubescribe/internal/logging"
	"tubescribe/internal/services"
	"tubescribe/internal/timedtext"
	"tubescribe/internal/videoid"
)

const (
	stageName      = "writing"
	lockRetryDelay = 50 * time.Millisecond
	// PlainTextExt and TimedTextExt are the artifact suffixes.
	PlainTextExt = ".txt"
	TimedTextExt = ".srt"
)

// Paths names the files written for one video.
type Paths struct {
	PlainText string
	TimedText string
}

// PathsFor returns the artifact paths for videoID under dir.
func PathsFor(dir, videoID string) Paths {
	return Paths{
		PlainText: filepath.Join(dir, videoID+PlainTextExt),
		TimedText: filepath.Join(dir, videoID+TimedTextExt),
	}
}

// Writer renders and stores transcripts.
type Writer struct {
	outputDir string
	lockDir   string
	logger    *slog.Logger
}

// NewWriter returns a Writer targeting outputDir. Per-identifier locks live in
// lockDir; an empty lockDir disables locking.
func NewWriter(outputDir, lockDir string, logger *slog.Logger) *Writer {
	return &Writer{outputDir: outputDir, lockDir: lockDir, logger: logging.NewComponentLogger(logger, "output")}
}

// OutputDir returns the directory artifacts are written to.
func (w *Writer) OutputDir() string { return w.outputDir }

// Write renders result and replaces {videoID}.txt and {videoID}.srt. Both
// files are staged as temporaries before either is renamed into place. If the
// second rename fails the previous plain text file is put back, or the new one
// removed when there was none.
func (w *Writer) Write(ctx context.Context, videoID string, result timedtext.Result) (Paths, error) {
	if !videoid.Safe(videoID) {
		return Paths{}, services.Wrap(services.ErrInvalidReference, stageName, "validate", fmt.Sprintf("unusable video id %q", videoID), nil)
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return Paths{}, services.Wrap(services.ErrWriteFailure, stageName, "create output dir", w.outputDir, err)
	}

	unlock, err := w.lock(ctx, videoID)
	if err != nil {
		return Paths{}, err
	}
	defer unlock()

	artifact := timedtext.Render(result)
	paths := PathsFor(w.outputDir, videoID)

	textTmp, err := writeTemp(w.outputDir, videoID+PlainTextExt, artifact.PlainText)
	if err != nil {
		return Paths{}, services.Wrap(services.ErrWriteFailure, stageName, "write plain text", paths.PlainText, err)
	}
	srtTmp, err := writeTemp(w.outputDir, videoID+TimedTextExt, artifact.TimedText)
	if err != nil {
		_ = os.Remove(textTmp)
		return Paths{}, services.Wrap(services.ErrWriteFailure, stageName, "write timed text", paths.TimedText, err)
	}

	previous, err := setAside(w.outputDir, paths.PlainText)
	if err != nil {
		_ = os.Remove(textTmp)
		_ = os.Remove(srtTmp)
		return Paths{}, services.Wrap(services.ErrWriteFailure, stageName, "set aside plain text", paths.PlainText, err)
	}
	if err := os.Rename(textTmp, paths.PlainText); err != nil {
		_ = os.Remove(textTmp)
		_ = os.Remove(srtTmp)
		w.restore(ctx, previous, paths.PlainText)
		return Paths{}, services.Wrap(services.ErrWriteFailure, stageName, "rename plain text", paths.PlainText, err)
	}
	if err := os.Rename(srtTmp, paths.TimedText); err != nil {
		_ = os.Remove(srtTmp)
		w.restore(ctx, previous, paths.PlainText)
		return Paths{}, services.Wrap(services.ErrWriteFailure, stageName, "rename timed text", paths.TimedText, err)
	}
	if previous != "" {
		_ = os.Remove(previous)
	}

	logging.WithContext(ctx, w.logger).Info("transcript written",
		logging.String("text_path", paths.PlainText),
		logging.String("srt_path", paths.TimedText),
		logging.Int("entries", len(result.Entries)),
	)
	return paths, nil
}

func (w *Writer) lock(ctx context.Context, videoID string) (func(), error) {
	if w.lockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(w.lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrWriteFailure, stageName, "create lock dir", w.lockDir, err)
	}
	lock := flock.New(filepath.Join(w.lockDir, videoID+".lock"))
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(services.ErrWriteFailure, stageName, "acquire lock", videoID, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrWriteFailure, stageName, "acquire lock", videoID+" is locked", nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			w.logger.Warn("failed to release output lock", logging.String("video_id", videoID), logging.Error(err))
		}
	}, nil
}

// setAside moves an existing file at path to a hidden sibling and returns the
// new location, or "" when nothing was there.
func setAside(dir, path string) (string, error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".prev-*")
	if err != nil {
		return "", err
	}
	aside := f.Name()
	f.Close()
	if err := os.Rename(path, aside); err != nil {
		os.Remove(aside)
		return "", err
	}
	return aside, nil
}

// restore undoes a partial write: previous goes back to path, or path is
// removed when previous is empty.
func (w *Writer) restore(ctx context.Context, previous, path string) {
	var err error
	if previous == "" {
		err = os.Remove(path)
		if os.IsNotExist(err) {
			err = nil
		}
	} else {
		err = os.Rename(previous, path)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, w.logger), "failed to roll back partial transcript", "output_rollback_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "plain text may not match timed text"),
			logging.String(logging.FieldErrorHint, "rerun the transcription for this video"),
		)
	}
}

func writeTemp(dir, name, content string) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := f.Name()
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmpPath, nil
}
