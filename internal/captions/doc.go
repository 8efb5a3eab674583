// Package captions models caption tracks and selects the best one for a video.
//
// A Service lists the tracks a caption provider reports for a video and
// fetches their timed entries, optionally through a machine translation.
// Selector walks those tracks in a fixed priority order: manual tracks for
// each language preference, then auto-generated tracks, then translations.
// The first successful fetch wins. Per-candidate failures only advance the
// search, so a video without usable captions yields a negative result rather
// than an error.
package captions
