package pipeline

import (
	"context"
	"fmt"
	"time"
)

// State is a pipeline step.
type State string

const (
	StateStart             State = "start"
	StateResolvingID       State = "resolving_id"
	StateSelectingCaptions State = "selecting_captions"
	StateCaptionsFound     State = "captions_found"
	StateNoCaptions        State = "no_captions"
	StateAcquiringAudio    State = "acquiring_audio"
	StateTranscribing      State = "transcribing"
	StateNormalizing       State = "normalizing"
	StateWriting           State = "writing"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// transitions lists the forward moves allowed from each state. Failed is
// reachable from every non-terminal state and is not listed.
var transitions = map[State][]State{
	StateStart:             {StateResolvingID},
	StateResolvingID:       {StateSelectingCaptions, StateAcquiringAudio},
	StateSelectingCaptions: {StateCaptionsFound, StateNoCaptions},
	StateCaptionsFound:     {StateNormalizing},
	StateNoCaptions:        {StateAcquiringAudio},
	StateAcquiringAudio:    {StateTranscribing},
	StateTranscribing:      {StateNormalizing},
	StateNormalizing:       {StateWriting},
	StateWriting:           {StateDone},
}

// CanTransition reports whether the machine may move from one state to another.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is one state change observed during a run.
type Transition struct {
	RunID   string
	VideoID string
	From    State
	To      State
	At      time.Time
}

// Observer receives every transition of a run, in order, on the run's goroutine.
type Observer interface {
	StateChanged(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

// StateChanged calls f.
func (f ObserverFunc) StateChanged(ctx context.Context, t Transition) { f(ctx, t) }

// machine tracks the current state and the trail of visited states.
type machine struct {
	current State
	trail   []State
}

func newMachine() *machine {
	return &machine{current: StateStart, trail: []State{StateStart}}
}

func (m *machine) advance(to State) (State, error) {
	from := m.current
	if !CanTransition(from, to) {
		return from, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	m.current = to
	m.trail = append(m.trail, to)
	return from, nil
}

func (m *machine) states() []State {
	return append([]State(nil), m.trail...)
}
