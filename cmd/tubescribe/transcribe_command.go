package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubescribe/internal/config"
	"tubescribe/internal/language"
	"tubescribe/internal/pipeline"
	"tubescribe/internal/services"
	"tubescribe/internal/timedtext"
)

type transcribeOptions struct {
	langs          []string
	outdir         string
	forceSTT       bool
	preferCaptions bool
	model          string
	langHint       string
	backend        string
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var opts transcribeOptions

	cmd := &cobra.Command{
		Use:   "transcribe <url-or-id>",
		Short: "Write a transcript from captions, or from speech-to-text when none exist",
		Long: `Resolve a video reference, fetch the best caption track for the preferred
languages, and write {id}.txt and {id}.srt. When no caption track can be
fetched, the audio is downloaded and transcribed instead.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := opts.apply(cmd, *base)
			if err != nil {
				return err
			}
			return runTranscribe(cmd, ctx, cfg, args[0], opts.forceSTT)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.langs, "langs", nil, "Caption language preferences in priority order (e.g. id,en)")
	flags.StringVarP(&opts.outdir, "outdir", "o", "", "Directory for the .txt and .srt files")
	flags.BoolVar(&opts.forceSTT, "force-stt", false, "Skip captions and always transcribe the audio")
	flags.BoolVar(&opts.preferCaptions, "prefer-captions", true, "Use caption tracks when available (default; --force-stt takes precedence)")
	flags.StringVar(&opts.model, "model", "", "Speech-to-text model size (e.g. base, small, large-v3)")
	flags.StringVar(&opts.langHint, "lang-hint", "", "Language hint for speech-to-text (e.g. id, en-US)")
	flags.StringVar(&opts.backend, "backend", "", "Speech-to-text backend (whisperx or aws)")

	return cmd
}

// apply layers flag overrides onto a copy of cfg and revalidates it.
func (o transcribeOptions) apply(cmd *cobra.Command, cfg config.Config) (*config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("langs") {
		prefs, err := language.ParsePreferences(o.langs)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "", "--langs", "", err)
		}
		cfg.Captions.Languages = prefs
	}
	if flags.Changed("outdir") {
		dir, err := config.ExpandPath(strings.TrimSpace(o.outdir))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "", "--outdir", "", err)
		}
		cfg.Paths.OutputDir = dir
	}
	if flags.Changed("model") {
		cfg.STT.Model = strings.TrimSpace(o.model)
	}
	if flags.Changed("lang-hint") {
		cfg.STT.LanguageHint = strings.TrimSpace(o.langHint)
	}
	if flags.Changed("backend") {
		cfg.STT.Backend = strings.ToLower(strings.TrimSpace(o.backend))
	}
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "options", "", err)
	}
	return &cfg, nil
}

func runTranscribe(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, reference string, forceSTT bool) error {
	logger, err := ctx.logger(cmd, cfg)
	if err != nil {
		return err
	}
	out := newPrinter(cmd.OutOrStdout())

	var backendName string
	observer := pipeline.ObserverFunc(func(_ context.Context, t pipeline.Transition) {
		switch t.To {
		case pipeline.StateNoCaptions:
			out.status(statusInfo, "Captions unavailable. Falling back to speech-to-text (%s).", backendName)
		case pipeline.StateAcquiringAudio:
			if forceSTT {
				out.status(statusInfo, "Speech-to-text forced (%s). Downloading audio.", backendName)
			}
		}
	})

	ctrl, name, cleanup, err := ctx.buildController(cmd.Context(), cfg, logger, observer)
	if err != nil {
		return err
	}
	defer cleanup()
	backendName = name

	outcome, err := ctrl.Run(cmd.Context(), pipeline.Request{
		Reference:    reference,
		Languages:    cfg.Captions.Languages,
		ForceSTT:     forceSTT,
		LanguageHint: cfg.STT.LanguageHint,
	})
	if err != nil {
		return err
	}

	switch outcome.Result.Origin {
	case timedtext.OriginCaption:
		origin := ""
		if outcome.Caption != nil {
			origin = outcome.Caption.Origin.String() + ", "
		}
		out.status(statusOK, "Captions found (%s%s). Saved to:", origin, outcome.Result.SourceLanguage)
	default:
		detected := ""
		if outcome.Result.SourceLanguage != "" {
			detected = fmt.Sprintf(" (language %s)", outcome.Result.SourceLanguage)
		}
		out.status(statusOK, "Speech-to-text result%s saved to:", detected)
	}
	out.item(outcome.Paths.PlainText)
	out.item(outcome.Paths.TimedText)
	if len(outcome.Result.Entries) == 0 {
		out.status(statusWarn, "Transcript is empty.")
	}
	return nil
}
