// Package language provides language code normalization for caption track
// matching and speech-to-text hints.
//
// Caller preferences are parsed as BCP 47 tags so malformed input is rejected
// before a run starts. ISO 639 conversions are consolidated here so the
// caption selector, recognition backends, and CLI agree on one mapping.
package language
