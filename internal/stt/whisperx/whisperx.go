// Package whisperx runs WhisperX through uvx as a speech recognition backend.
package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "tubescribe/internal/language"
	"tubescribe/internal/stt"
	"tubescribe/internal/timedtext"
)

// Service provides WhisperX transcription.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

var _ stt.Backend = (*Service)(nil)

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Name identifies the backend.
func (s *Service) Name() string { return "whisperx" }

// Model returns the configured model name.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 defaults torch.load to weights_only, which WhisperX/pyannote
	// checkpoints cannot load.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs WhisperX on audioPath and loads the JSON it writes into a
// private directory beside the audio.
func (s *Service) Transcribe(ctx context.Context, audioPath, languageHint string) (stt.Result, error) {
	if audioPath == "" {
		return stt.Result{}, errors.New("whisperx: source path required")
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisperx-")
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisperx: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	if err := s.run(ctx, UVXCommand, s.buildArgs(audioPath, outputDir, languageHint)...); err != nil {
		return stt.Result{}, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	payload, err := LoadPayload(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return stt.Result{}, err
	}

	segments := make([]timedtext.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, timedtext.Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	language := strings.TrimSpace(payload.Language)
	if language == "" {
		language = langpkg.ToISO2(languageHint)
	}
	return stt.Result{Segments: segments, Language: language}, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--task", "transcribe",
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Payload is the JSON document WhisperX writes.
type Payload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadPayload loads a WhisperX JSON file.
func LoadPayload(jsonPath string) (Payload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Payload{}, fmt.Errorf("whisperx: read output: %w", err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("whisperx: parse json: %w", err)
	}
	return payload, nil
}
