package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tubescribe/internal/audio"
	"tubescribe/internal/captions"
	"tubescribe/internal/history"
	"tubescribe/internal/language"
	"tubescribe/internal/logging"
	"tubescribe/internal/output"
	"tubescribe/internal/services"
	"tubescribe/internal/stt"
	"tubescribe/internal/timedtext"
	"tubescribe/internal/videoid"
)

// CaptionSelector finds the best caption track for a video.
type CaptionSelector interface {
	Select(ctx context.Context, videoID string, prefs []string) (captions.Selection, bool, error)
}

// AudioSource downloads scratch audio for a video.
type AudioSource interface {
	Acquire(ctx context.Context, reference, videoID string) (*audio.Artifact, error)
}

// Transcriber runs speech recognition on a local audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (stt.Result, error)
	Backend() string
}

// TranscriptWriter persists a transcript.
type TranscriptWriter interface {
	Write(ctx context.Context, videoID string, result timedtext.Result) (output.Paths, error)
}

// RunRecorder stores a finished run.
type RunRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Dependencies wires the collaborators of a Controller. History and Observer
// are optional.
type Dependencies struct {
	Captions CaptionSelector
	Audio    AudioSource
	STT      Transcriber
	Writer   TranscriptWriter
	History  RunRecorder
	Observer Observer
	Logger   *slog.Logger
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Request is one invocation of the pipeline.
type Request struct {
	Reference string
	// Languages is the ordered caption preference list. It may be empty only
	// when ForceSTT is set.
	Languages    []string
	ForceSTT     bool
	LanguageHint string
}

// Outcome reports what a run did. On failure it still carries the run ID,
// the states visited, and whatever was resolved before the failure.
type Outcome struct {
	RunID   string
	VideoID string
	States  []State
	Result  timedtext.Result
	Paths   output.Paths
	// Fallback is set when the run took the speech-to-text branch because
	// no caption could be fetched.
	Fallback bool
	// Caption describes the selected track on the caption branch.
	Caption *captions.Selection
	Started time.Time
	Elapsed time.Duration
}

// Final returns the last state visited.
func (o Outcome) Final() State {
	if len(o.States) == 0 {
		return StateStart
	}
	return o.States[len(o.States)-1]
}

// Controller runs the transcript pipeline.
type Controller struct {
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
}

// NewController validates deps and returns a Controller.
func NewController(deps Dependencies) (*Controller, error) {
	var missing []string
	if deps.Captions == nil {
		missing = append(missing, "captions")
	}
	if deps.Audio == nil {
		missing = append(missing, "audio")
	}
	if deps.STT == nil {
		missing = append(missing, "stt")
	}
	if deps.Writer == nil {
		missing = append(missing, "writer")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init",
			"missing dependencies: "+strings.Join(missing, ", "), nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
		now:    now,
	}, nil
}

// run holds the per-invocation state. It never outlives Controller.Run.
type run struct {
	c       *Controller
	req     Request
	prefs   []string
	machine *machine
	outcome Outcome
	logger  *slog.Logger
}

// Run executes one request to completion. The returned error preserves the
// originating failure; errors.Is against the services sentinels classifies it.
func (c *Controller) Run(ctx context.Context, req Request) (Outcome, error) {
	r := &run{
		c:       c,
		req:     req,
		machine: newMachine(),
		outcome: Outcome{RunID: uuid.NewString(), Started: c.now()},
	}
	ctx = services.WithRunID(ctx, r.outcome.RunID)
	r.logger = logging.WithContext(ctx, c.logger)

	err := r.execute(ctx)
	if err != nil {
		r.fail(ctx, err)
	}
	r.outcome.States = r.machine.states()
	r.outcome.Elapsed = c.now().Sub(r.outcome.Started)
	c.record(ctx, req, r.outcome, err)
	return r.outcome, err
}

func (r *run) execute(ctx context.Context) error {
	ctx, err := r.enter(ctx, StateResolvingID)
	if err != nil {
		return err
	}
	id, err := videoid.Resolve(r.req.Reference)
	if err != nil {
		return err
	}
	prefs, err := r.validatePreferences()
	if err != nil {
		return err
	}
	r.prefs = prefs
	r.outcome.VideoID = id
	ctx = services.WithVideoID(ctx, id)
	r.logger = logging.WithContext(ctx, r.c.logger)
	r.logger.Info("transcript run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("reference", strings.TrimSpace(r.req.Reference)),
		logging.Any("languages", prefs),
		logging.Bool("force_stt", r.req.ForceSTT),
	)

	var result timedtext.Result
	if r.req.ForceSTT {
		r.logger.Info("caption search skipped", logging.Args(
			logging.DecisionAttrs("caption_search", "skipped", "speech-to-text forced")...)...)
		result, err = r.speechToText(ctx, id)
	} else {
		var found bool
		result, found, err = r.selectCaptions(ctx, id)
		if err == nil && !found {
			r.outcome.Fallback = true
			result, err = r.speechToText(ctx, id)
		}
	}
	if err != nil {
		return err
	}

	if ctx, err = r.enter(ctx, StateNormalizing); err != nil {
		return err
	}
	result.Entries = timedtext.Normalize(result.Entries)
	r.outcome.Result = result

	if ctx, err = r.enter(ctx, StateWriting); err != nil {
		return err
	}
	paths, err := r.c.deps.Writer.Write(ctx, id, result)
	if err != nil {
		return err
	}
	r.outcome.Paths = paths

	if _, err = r.enter(ctx, StateDone); err != nil {
		return err
	}
	r.logger.Info("transcript run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("origin", string(result.Origin)),
		logging.String("language", result.SourceLanguage),
		logging.Int("entries", len(result.Entries)),
		logging.Duration("elapsed", r.c.now().Sub(r.outcome.Started)),
	)
	return nil
}

func (r *run) validatePreferences() ([]string, error) {
	prefs, err := language.ParsePreferences(r.req.Languages)
	if err == nil {
		return prefs, nil
	}
	if errors.Is(err, language.ErrNoPreferences) && r.req.ForceSTT {
		return nil, nil
	}
	return nil, services.Wrap(services.ErrValidation, string(StateResolvingID), "languages", "invalid language preferences", err)
}

func (r *run) selectCaptions(ctx context.Context, id string) (timedtext.Result, bool, error) {
	ctx, err := r.enter(ctx, StateSelectingCaptions)
	if err != nil {
		return timedtext.Result{}, false, err
	}
	selection, found, err := r.c.deps.Captions.Select(ctx, id, r.prefs)
	if err != nil {
		return timedtext.Result{}, false, err
	}
	if !found {
		if _, err := r.enter(ctx, StateNoCaptions); err != nil {
			return timedtext.Result{}, false, err
		}
		r.logger.Info("no caption available, falling back to speech-to-text", logging.Args(
			logging.DecisionAttrs("transcript_source", "speech_to_text", "no caption track could be fetched")...)...)
		return timedtext.Result{}, false, nil
	}
	if _, err := r.enter(ctx, StateCaptionsFound); err != nil {
		return timedtext.Result{}, false, err
	}
	r.outcome.Caption = &selection
	r.logger.Info("caption track selected", logging.Args(append(
		logging.DecisionAttrs("transcript_source", "caption", selection.Origin.String()),
		logging.String("language", selection.Language),
		logging.String("track_language", selection.Track.LanguageCode),
		logging.Int("entries", len(selection.Entries)),
	)...)...)
	return timedtext.Result{
		Entries:        selection.Entries,
		SourceLanguage: selection.Language,
		Origin:         timedtext.OriginCaption,
	}, true, nil
}

func (r *run) speechToText(ctx context.Context, id string) (timedtext.Result, error) {
	audioCtx, err := r.enter(ctx, StateAcquiringAudio)
	if err != nil {
		return timedtext.Result{}, err
	}
	artifact, err := r.c.deps.Audio.Acquire(audioCtx, r.req.Reference, id)
	if err != nil {
		return timedtext.Result{}, err
	}
	defer r.release(artifact)

	sttCtx, err := r.enter(ctx, StateTranscribing)
	if err != nil {
		return timedtext.Result{}, err
	}
	transcript, err := r.c.deps.STT.Transcribe(sttCtx, artifact.Path, r.req.LanguageHint)
	if err != nil {
		return timedtext.Result{}, err
	}
	return timedtext.Result{
		Entries:        timedtext.FromSegments(transcript.Segments),
		SourceLanguage: transcript.Language,
		Origin:         timedtext.OriginSpeechToText,
	}, nil
}

func (r *run) release(artifact *audio.Artifact) {
	if err := artifact.Release(); err != nil {
		logging.WarnWithContext(r.logger, "scratch audio cleanup failed", "scratch_cleanup_failed",
			logging.String("dir", artifact.Dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "temporary audio left on disk"),
			logging.String(logging.FieldErrorHint, "remove the directory manually"),
		)
	}
}

// enter advances the machine, tags ctx with the new stage, and notifies the
// observer.
func (r *run) enter(ctx context.Context, to State) (context.Context, error) {
	from, err := r.machine.advance(to)
	if err != nil {
		return ctx, err
	}
	ctx = services.WithStage(ctx, string(to))
	r.logger.Debug("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from", string(from)),
		logging.String("to", string(to)),
	)
	if obs := r.c.deps.Observer; obs != nil {
		obs.StateChanged(ctx, Transition{
			RunID:   r.outcome.RunID,
			VideoID: r.outcome.VideoID,
			From:    from,
			To:      to,
			At:      r.c.now(),
		})
	}
	return ctx, nil
}

func (r *run) fail(ctx context.Context, cause error) {
	stage := r.machine.current
	if !stage.Terminal() {
		_, _ = r.enter(ctx, StateFailed)
	}
	attrs := []logging.Attr{
		logging.String("failed_stage", string(stage)),
		logging.String("failure_kind", services.FailureKind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldImpact, "no transcript written"),
	}
	if hint := failureHint(cause); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logging.ErrorWithContext(r.logger, "transcript run failed", "run_failed", attrs...)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidReference):
		return "pass a watch URL, short link, or 11-character video id"
	case errors.Is(err, services.ErrValidation):
		return "check --langs"
	case errors.Is(err, services.ErrAudioUnavailable):
		return "check that yt-dlp and ffmpeg are installed and the video is public"
	case errors.Is(err, services.ErrTranscriptionFailed):
		return "check the speech-to-text backend configuration"
	case errors.Is(err, services.ErrWriteFailure):
		return "check that the output directory is writable"
	default:
		return ""
	}
}

func (c *Controller) record(ctx context.Context, req Request, outcome Outcome, runErr error) {
	if c.deps.History == nil {
		return
	}
	entry := history.Run{
		RunID:      outcome.RunID,
		VideoID:    outcome.VideoID,
		Reference:  strings.TrimSpace(req.Reference),
		Status:     history.StatusDone,
		Origin:     string(outcome.Result.Origin),
		Language:   outcome.Result.SourceLanguage,
		EntryCount: len(outcome.Result.Entries),
		TextPath:   outcome.Paths.PlainText,
		SRTPath:    outcome.Paths.TimedText,
		StartedAt:  outcome.Started,
		FinishedAt: outcome.Started.Add(outcome.Elapsed),
	}
	if outcome.Result.Origin == timedtext.OriginSpeechToText {
		entry.Backend = c.deps.STT.Backend()
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.FailureKind = services.FailureKind(runErr)
		entry.ErrorMessage = runErr.Error()
	}
	// Record even when the caller's context was cancelled mid-run.
	if err := c.deps.History.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "run history not recorded", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history"),
			logging.String(logging.FieldErrorHint, "check the state directory"),
		)
	}
}
