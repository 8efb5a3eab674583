package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tubescribe/internal/audio"
	"tubescribe/internal/captions"
	"tubescribe/internal/captions/youtube"
	"tubescribe/internal/config"
	"tubescribe/internal/history"
	"tubescribe/internal/logging"
	"tubescribe/internal/media/ffprobe"
	"tubescribe/internal/output"
	"tubescribe/internal/pipeline"
	"tubescribe/internal/services"
	"tubescribe/internal/stt"
	"tubescribe/internal/stt/awstranscribe"
	"tubescribe/internal/stt/whisperx"
)

func newCaptionClient(cfg *config.Config, logger *slog.Logger) (*youtube.Client, error) {
	client, err := youtube.New(youtube.Config{
		BaseURL:    cfg.Captions.BaseURL,
		UserAgent:  cfg.Captions.UserAgent,
		Timeout:    time.Duration(cfg.Captions.RequestTimeout) * time.Second,
		MaxRetries: cfg.Captions.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "caption client", "", err)
	}
	return client, nil
}

func (c *commandContext) newSTTBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stt.Backend, error) {
	if c.sttBackend != nil {
		return c.sttBackend, nil
	}
	switch cfg.STT.Backend {
	case config.BackendAWS:
		svc, err := awstranscribe.New(ctx, awstranscribe.Config{
			Region:       cfg.AWS.Region,
			Bucket:       cfg.AWS.Bucket,
			KeyPrefix:    cfg.AWS.KeyPrefix,
			PollInterval: time.Duration(cfg.AWS.PollInterval) * time.Second,
			KeepUploads:  cfg.AWS.KeepUploads,
		}, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "", "aws backend", "", err)
		}
		return svc, nil
	case config.BackendWhisperX, "":
		return whisperx.NewService(whisperx.Config{
			Model:       cfg.STT.Model,
			CUDAEnabled: cfg.STT.CUDAEnabled,
			VADMethod:   cfg.STT.VADMethod,
			HFToken:     cfg.STT.HFToken,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "", "stt backend",
			fmt.Sprintf("unsupported backend %q", cfg.STT.Backend), nil)
	}
}

// openHistory opens the run ledger when enabled. Failures disable the ledger
// for this invocation instead of aborting it.
func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
			logging.String(logging.FieldErrorHint, "delete the history database if the schema changed"),
		)
		return nil
	}
	return store
}

// buildController wires a pipeline for cfg. The returned cleanup closes the
// run ledger.
func (c *commandContext) buildController(ctx context.Context, cfg *config.Config, logger *slog.Logger, observer pipeline.Observer) (*pipeline.Controller, string, func(), error) {
	client, err := newCaptionClient(cfg, logger)
	if err != nil {
		return nil, "", nil, err
	}
	backend, err := c.newSTTBackend(ctx, cfg, logger)
	if err != nil {
		return nil, "", nil, err
	}
	var prober *ffprobe.Prober
	if c.probeOutput != nil {
		prober = ffprobe.NewProber(cfg.Audio.FFprobeBinary, c.probeOutput)
	}
	acquirer := audio.NewAcquirer(audio.Config{
		YTDLPBinary:   cfg.Audio.YTDLPBinary,
		FFmpegBinary:  cfg.Audio.FFmpegBinary,
		FFprobeBinary: cfg.Audio.FFprobeBinary,
		ScratchDir:    cfg.Paths.ScratchDir,
		SampleRate:    cfg.Audio.SampleRate,
	}, c.audioRunner, prober, logger)

	deps := pipeline.Dependencies{
		Captions: captions.NewSelector(client, logger),
		Audio:    acquirer,
		STT:      stt.NewAdapter(backend, logger),
		Writer:   output.NewWriter(cfg.Paths.OutputDir, cfg.LockDir(), logger),
		Observer: observer,
		Logger:   logger,
	}
	store := openHistory(cfg, logger)
	if store != nil {
		deps.History = store
	}
	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	ctrl, err := pipeline.NewController(deps)
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return ctrl, backend.Name(), cleanup, nil
}
