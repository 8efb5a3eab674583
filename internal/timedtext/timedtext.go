package timedtext

import (
	"math"
	"sort"
	"strings"
)

// Placeholder replaces empty cue text in SubRip output.
const Placeholder = "[...]"

// Origin identifies where a transcript came from.
type Origin string

const (
	OriginCaption      Origin = "caption"
	OriginSpeechToText Origin = "speech_to_text"
)

// Entry is one canonical timed snippet.
type Entry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// CaptionEntry is a caption snippet as served by a caption service.
type CaptionEntry struct {
	Start    float64
	Duration float64
	Text     string
}

// Segment is a recognizer segment.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is the canonical output of a pipeline run.
type Result struct {
	Entries        []Entry
	SourceLanguage string
	Origin         Origin
}

// Artifact holds the rendered file contents for a Result.
type Artifact struct {
	PlainText string
	TimedText string
}

// FromCaptions converts caption entries into canonical entries.
func FromCaptions(items []CaptionEntry) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		start := finite(item.Start)
		entries = append(entries, Entry{Start: start, End: start + finite(item.Duration), Text: item.Text})
	}
	return Normalize(entries)
}

// FromSegments converts recognizer segments into canonical entries.
func FromSegments(segments []Segment) []Entry {
	entries := make([]Entry, 0, len(segments))
	for _, seg := range segments {
		entries = append(entries, Entry{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return Normalize(entries)
}

// Normalize returns a cleaned copy of entries: text collapsed to one trimmed
// line, start clamped to zero, end clamped to start, and entries stably
// ordered by start. Normalizing canonical entries returns them unchanged.
func Normalize(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		start := math.Max(finite(e.Start), 0)
		end := math.Max(finite(e.End), start)
		out[i] = Entry{Start: start, End: end, Text: CleanText(e.Text)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// CleanText collapses embedded line breaks to spaces and trims the result.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
