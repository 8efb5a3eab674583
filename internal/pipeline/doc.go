// Package pipeline sequences one transcript acquisition run.
//
// A run resolves the caller's reference to a video identifier, tries the
// caption tracks in priority order, and falls back to downloading audio and
// running speech recognition when no caption can be fetched (or when the
// caller forces it). Both branches converge on normalization and the output
// writer. The Controller walks an explicit state machine so every run can be
// reported as the ordered list of states it visited.
//
// Scratch audio is owned by the run and released on every exit path. Runs
// for different identifiers share no mutable state and may execute
// concurrently.
package pipeline
