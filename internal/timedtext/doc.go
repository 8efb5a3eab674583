// Package timedtext holds the canonical timed-text model and its renderers.
//
// Caption entries (start plus duration) and recognizer segments (start plus
// end) are both converted into Entry values with clean single-line text,
// clamped timing, and stable start ordering. Render turns a Result into the
// plain-text and SubRip artifacts written for each video.
package timedtext
