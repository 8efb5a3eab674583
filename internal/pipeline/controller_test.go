package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"tubescribe/internal/audio"
	"tubescribe/internal/captions"
	"tubescribe/internal/history"
	"tubescribe/internal/logging"
	"tubescribe/internal/output"
	"tubescribe/internal/services"
	"tubescribe/internal/stt"
	"tubescribe/internal/timedtext"
)

const testID = "dQw4w9WgXcQ"

type fakeSelector struct {
	selection captions.Selection
	found     bool
	err       error
	calls     int
	prefs     []string
}

func (f *fakeSelector) Select(_ context.Context, _ string, prefs []string) (captions.Selection, bool, error) {
	f.calls++
	f.prefs = prefs
	return f.selection, f.found, f.err
}

type fakeAudio struct {
	t         *testing.T
	err       error
	calls     int
	artifacts []*audio.Artifact
}

func (f *fakeAudio) Acquire(_ context.Context, _ string, videoID string) (*audio.Artifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	dir := f.t.TempDir()
	scratch := filepath.Join(dir, "scratch")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		f.t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(scratch, videoID+".wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		f.t.Fatalf("write audio: %v", err)
	}
	artifact := &audio.Artifact{Path: path, Dir: scratch, VideoID: videoID}
	f.artifacts = append(f.artifacts, artifact)
	return artifact, nil
}

type fakeSTT struct {
	result stt.Result
	err    error
	calls  int
	hint   string
}

func (f *fakeSTT) Transcribe(_ context.Context, audioPath, hint string) (stt.Result, error) {
	f.calls++
	f.hint = hint
	if _, err := os.Stat(audioPath); err != nil {
		return stt.Result{}, err
	}
	return f.result, f.err
}

func (f *fakeSTT) Backend() string { return "fake" }

type failingWriter struct{}

func (failingWriter) Write(context.Context, string, timedtext.Result) (output.Paths, error) {
	return output.Paths{}, services.Wrap(services.ErrWriteFailure, "writing", "write", "disk full", nil)
}

type memoryHistory struct {
	mu   sync.Mutex
	runs []history.Run
	err  error
}

func (m *memoryHistory) Record(_ context.Context, run history.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return m.err
}

type harness struct {
	selector *fakeSelector
	audio    *fakeAudio
	stt      *fakeSTT
	history  *memoryHistory
	outDir   string
	observed []State
	ctrl     *Controller
}

func newHarness(t *testing.T, writer TranscriptWriter) *harness {
	t.Helper()
	h := &harness{
		selector: &fakeSelector{},
		audio:    &fakeAudio{t: t},
		stt: &fakeSTT{result: stt.Result{
			Segments: []timedtext.Segment{{Start: 0, End: 2, Text: " spoken words "}},
			Language: "id",
		}},
		history: &memoryHistory{},
		outDir:  filepath.Join(t.TempDir(), "out"),
	}
	if writer == nil {
		writer = output.NewWriter(h.outDir, "", logging.NewNop())
	}
	ctrl, err := NewController(Dependencies{
		Captions: h.selector,
		Audio:    h.audio,
		STT:      h.stt,
		Writer:   writer,
		History:  h.history,
		Observer: ObserverFunc(func(_ context.Context, tr Transition) {
			h.observed = append(h.observed, tr.To)
		}),
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	h.ctrl = ctrl
	return h
}

func TestRunCaptionPath(t *testing.T) {
	h := newHarness(t, nil)
	h.selector.found = true
	h.selector.selection = captions.Selection{
		Entries:  []timedtext.Entry{{Start: 1, End: 2, Text: "halo"}, {Start: 2, End: 3, Text: ""}},
		Language: "id",
		Origin:   captions.OriginManual,
		Track:    captions.Track{LanguageCode: "id", Origin: captions.OriginManual},
	}

	outcome, err := h.ctrl.Run(context.Background(), Request{
		Reference: "https://www.youtube.com/watch?v=" + testID,
		Languages: []string{"id", "en"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []State{StateStart, StateResolvingID, StateSelectingCaptions, StateCaptionsFound, StateNormalizing, StateWriting, StateDone}
	if !reflect.DeepEqual(outcome.States, want) {
		t.Fatalf("states = %v, want %v", outcome.States, want)
	}
	if !reflect.DeepEqual(h.observed, want[1:]) {
		t.Fatalf("observer saw %v", h.observed)
	}
	if h.audio.calls != 0 || h.stt.calls != 0 {
		t.Fatalf("speech-to-text branch should not run: audio=%d stt=%d", h.audio.calls, h.stt.calls)
	}
	if outcome.Result.Origin != timedtext.OriginCaption || outcome.Result.SourceLanguage != "id" {
		t.Fatalf("unexpected result %+v", outcome.Result)
	}
	if outcome.Fallback {
		t.Fatal("fallback should be false on caption path")
	}
	text, err := os.ReadFile(filepath.Join(h.outDir, testID+".txt"))
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	if string(text) != "halo" {
		t.Fatalf("text = %q", text)
	}
	srt, err := os.ReadFile(filepath.Join(h.outDir, testID+".srt"))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "[...]") {
		t.Fatalf("srt missing placeholder: %q", srt)
	}
	if len(h.history.runs) != 1 || h.history.runs[0].Status != history.StatusDone || h.history.runs[0].Origin != "caption" {
		t.Fatalf("unexpected history %+v", h.history.runs)
	}
}

func TestRunFallsBackToSpeechToText(t *testing.T) {
	h := newHarness(t, nil)
	h.selector.found = false

	outcome, err := h.ctrl.Run(context.Background(), Request{
		Reference:    testID,
		Languages:    []string{"id"},
		LanguageHint: "id",
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []State{StateStart, StateResolvingID, StateSelectingCaptions, StateNoCaptions, StateAcquiringAudio, StateTranscribing, StateNormalizing, StateWriting, StateDone}
	if !reflect.DeepEqual(outcome.States, want) {
		t.Fatalf("states = %v, want %v", outcome.States, want)
	}
	if !outcome.Fallback {
		t.Fatal("expected fallback flag")
	}
	if outcome.Result.Origin != timedtext.OriginSpeechToText || outcome.Result.SourceLanguage != "id" {
		t.Fatalf("unexpected result %+v", outcome.Result)
	}
	if h.stt.hint != "id" {
		t.Fatalf("hint = %q", h.stt.hint)
	}
	text, _ := os.ReadFile(outcome.Paths.PlainText)
	if string(text) != "spoken words" {
		t.Fatalf("text = %q", text)
	}
	assertReleased(t, h.audio)
	if got := h.history.runs[0].Backend; got != "fake" {
		t.Fatalf("history backend = %q", got)
	}
}

func TestRunForcedSpeechToTextSkipsSelector(t *testing.T) {
	h := newHarness(t, nil)
	h.selector.found = true
	h.selector.selection = captions.Selection{Entries: []timedtext.Entry{{Start: 0, End: 1, Text: "manual"}}}

	outcome, err := h.ctrl.Run(context.Background(), Request{Reference: testID, ForceSTT: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if h.selector.calls != 0 {
		t.Fatalf("selector called %d times", h.selector.calls)
	}
	want := []State{StateStart, StateResolvingID, StateAcquiringAudio, StateTranscribing, StateNormalizing, StateWriting, StateDone}
	if !reflect.DeepEqual(outcome.States, want) {
		t.Fatalf("states = %v, want %v", outcome.States, want)
	}
	if outcome.Fallback {
		t.Fatal("forced runs are not fallbacks")
	}
	assertReleased(t, h.audio)
}

func TestRunInvalidReference(t *testing.T) {
	h := newHarness(t, nil)
	outcome, err := h.ctrl.Run(context.Background(), Request{Reference: "not a video", Languages: []string{"en"}})
	if !errors.Is(err, services.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if outcome.Final() != StateFailed {
		t.Fatalf("final = %s", outcome.Final())
	}
	if h.selector.calls != 0 {
		t.Fatal("selector must not run for invalid references")
	}
	if got := h.history.runs[0].FailureKind; got != services.KindInvalidReference {
		t.Fatalf("history failure kind = %q", got)
	}
}

func TestRunRejectsEmptyLanguagesWithoutForce(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.ctrl.Run(context.Background(), Request{Reference: testID})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRunAudioFailureIsFatal(t *testing.T) {
	h := newHarness(t, nil)
	h.audio.err = services.Wrap(services.ErrAudioUnavailable, "acquiring_audio", "yt-dlp", "boom", nil)

	outcome, err := h.ctrl.Run(context.Background(), Request{Reference: testID, Languages: []string{"en"}})
	if !errors.Is(err, services.ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable, got %v", err)
	}
	want := []State{StateStart, StateResolvingID, StateSelectingCaptions, StateNoCaptions, StateAcquiringAudio, StateFailed}
	if !reflect.DeepEqual(outcome.States, want) {
		t.Fatalf("states = %v, want %v", outcome.States, want)
	}
	if h.stt.calls != 0 {
		t.Fatal("stt must not run without audio")
	}
	assertNoOutputs(t, h.outDir)
}

func TestRunTranscriptionFailureReleasesAudio(t *testing.T) {
	h := newHarness(t, nil)
	h.stt.err = services.Wrap(services.ErrTranscriptionFailed, "transcribing", "backend", "crash", nil)

	_, err := h.ctrl.Run(context.Background(), Request{Reference: testID, ForceSTT: true})
	if !errors.Is(err, services.ErrTranscriptionFailed) {
		t.Fatalf("expected ErrTranscriptionFailed, got %v", err)
	}
	assertReleased(t, h.audio)
	assertNoOutputs(t, h.outDir)
}

func TestRunWriteFailure(t *testing.T) {
	h := newHarness(t, failingWriter{})
	h.selector.found = true

	outcome, err := h.ctrl.Run(context.Background(), Request{Reference: testID, Languages: []string{"en"}})
	if !errors.Is(err, services.ErrWriteFailure) {
		t.Fatalf("expected ErrWriteFailure, got %v", err)
	}
	if outcome.States[len(outcome.States)-2] != StateWriting {
		t.Fatalf("expected failure from writing, states=%v", outcome.States)
	}
}

func TestRunSelectorCancellation(t *testing.T) {
	h := newHarness(t, nil)
	h.selector.err = context.Canceled

	_, err := h.ctrl.Run(context.Background(), Request{Reference: testID, Languages: []string{"en"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.audio.calls != 0 {
		t.Fatal("cancellation must not trigger fallback")
	}
	if len(h.history.runs) != 1 || h.history.runs[0].Status != history.StatusFailed {
		t.Fatalf("cancelled run should still be recorded: %+v", h.history.runs)
	}
}

func TestRunHistoryFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, nil)
	h.selector.found = true
	h.history.err = errors.New("database is locked")

	if _, err := h.ctrl.Run(context.Background(), Request{Reference: testID, Languages: []string{"en"}}); err != nil {
		t.Fatalf("history errors must not fail the run: %v", err)
	}
}

func TestNewControllerRequiresDependencies(t *testing.T) {
	_, err := NewController(Dependencies{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	for _, name := range []string{"captions", "audio", "stt", "writer"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q should name %s", err, name)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateStart, StateResolvingID, true},
		{StateResolvingID, StateAcquiringAudio, true},
		{StateCaptionsFound, StateAcquiringAudio, false},
		{StateNormalizing, StateSelectingCaptions, false},
		{StateTranscribing, StateFailed, true},
		{StateDone, StateFailed, false},
		{StateFailed, StateStart, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func assertReleased(t *testing.T, f *fakeAudio) {
	t.Helper()
	if len(f.artifacts) == 0 {
		t.Fatal("no audio was acquired")
	}
	for _, artifact := range f.artifacts {
		if _, err := os.Stat(artifact.Dir); !os.IsNotExist(err) {
			t.Fatalf("scratch dir %s still exists (err=%v)", artifact.Dir, err)
		}
	}
}

func assertNoOutputs(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no outputs, found %d", len(entries))
	}
}
