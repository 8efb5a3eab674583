package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"tubescribe/internal/logging"
	"tubescribe/internal/media/ffprobe"
	"tubescribe/internal/services"
)

const (
	stageName         = "acquiring_audio"
	defaultSampleRate = 16000
	watchURLPrefix    = "https://www.youtube.com/watch?v="
)

// Config captures the external tools and scratch location.
type Config struct {
	YTDLPBinary   string
	FFmpegBinary  string
	FFprobeBinary string
	ScratchDir    string
	SampleRate    int
}

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Acquirer downloads and transcodes audio.
type Acquirer struct {
	cfg    Config
	run    CommandRunner
	prober *ffprobe.Prober
	logger *slog.Logger
}

// NewAcquirer constructs an Acquirer. A nil runner executes real commands and
// a nil prober runs the configured ffprobe binary.
func NewAcquirer(cfg Config, runner CommandRunner, prober *ffprobe.Prober, logger *slog.Logger) *Acquirer {
	if strings.TrimSpace(cfg.YTDLPBinary) == "" {
		cfg.YTDLPBinary = "yt-dlp"
	}
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if runner == nil {
		runner = runCommand
	}
	if prober == nil {
		prober = ffprobe.NewProber(cfg.FFprobeBinary, nil)
	}
	return &Acquirer{cfg: cfg, run: runner, prober: prober, logger: logging.NewComponentLogger(logger, "audio")}
}

// Artifact is a scratch audio file scoped to one pipeline run.
type Artifact struct {
	Path            string
	Dir             string
	VideoID         string
	DurationSeconds float64

	once sync.Once
	err  error
}

// Release deletes the scratch directory. It is safe to call more than once
// and on a nil Artifact.
func (a *Artifact) Release() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		if a.Dir != "" {
			a.err = os.RemoveAll(a.Dir)
		}
	})
	return a.err
}

// Acquire produces a mono WAV file for reference in a new scratch directory.
func (a *Acquirer) Acquire(ctx context.Context, reference, videoID string) (*Artifact, error) {
	logger := logging.WithContext(ctx, a.logger)

	if a.cfg.ScratchDir != "" {
		if err := os.MkdirAll(a.cfg.ScratchDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrAudioUnavailable, stageName, "scratch dir", a.cfg.ScratchDir, err)
		}
	}
	dir, err := os.MkdirTemp(a.cfg.ScratchDir, "tubescribe-"+videoID+"-")
	if err != nil {
		return nil, services.Wrap(services.ErrAudioUnavailable, stageName, "scratch dir", "create", err)
	}
	artifact := &Artifact{Dir: dir, VideoID: videoID}

	fail := func(op, msg string, cause error) (*Artifact, error) {
		if rmErr := artifact.Release(); rmErr != nil {
			logging.WarnWithContext(logger, "scratch cleanup failed", "scratch_cleanup_failed",
				logging.String("dir", dir),
				logging.Error(rmErr),
				logging.String(logging.FieldImpact, "temporary audio left on disk"),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
			)
		}
		return nil, services.Wrap(services.ErrAudioUnavailable, stageName, op, msg, cause)
	}

	source, err := a.download(ctx, downloadTarget(reference, videoID), dir, videoID)
	if err != nil {
		return fail("yt-dlp", "download best audio stream", err)
	}
	logger.Debug("audio downloaded", logging.String("source", filepath.Base(source)))

	dest := filepath.Join(dir, videoID+".wav")
	if err := a.run(ctx, a.cfg.FFmpegBinary, a.transcodeArgs(source, dest)...); err != nil {
		return fail("ffmpeg", "transcode to wav", err)
	}
	_ = os.Remove(source)

	probe, err := a.prober.Inspect(ctx, dest)
	if err != nil {
		return fail("ffprobe", "inspect transcoded audio", err)
	}
	if probe.AudioStreamCount() == 0 {
		return fail("ffprobe", "transcoded file has no audio stream", nil)
	}

	artifact.Path = dest
	artifact.DurationSeconds = probe.DurationSeconds()
	logger.Info("audio ready",
		logging.String("path", dest),
		logging.Any("duration_seconds", artifact.DurationSeconds),
	)
	return artifact, nil
}

func (a *Acquirer) download(ctx context.Context, target, dir, videoID string) (string, error) {
	pattern := filepath.Join(dir, videoID+".source.%(ext)s")
	args := []string{
		"-f", "bestaudio/best",
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--no-warnings",
		"-o", pattern,
		target,
	}
	if err := a.run(ctx, a.cfg.YTDLPBinary, args...); err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(dir, videoID+".source.*"))
	if err != nil {
		return "", err
	}
	for _, match := range matches {
		if info, statErr := os.Stat(match); statErr == nil && !info.IsDir() && info.Size() > 0 {
			return match, nil
		}
	}
	return "", errors.New("downloader produced no audio file")
}

func (a *Acquirer) transcodeArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(a.cfg.SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// downloadTarget returns what yt-dlp should fetch: the caller's URL as given,
// or the canonical watch URL for a bare identifier.
func downloadTarget(reference, videoID string) string {
	ref := strings.TrimSpace(reference)
	if strings.Contains(ref, "://") {
		return ref
	}
	return watchURLPrefix + videoID
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
