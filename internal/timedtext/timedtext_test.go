package timedtext

import (
	"math"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{3661.5, "01:01:01,500"},
		{59.999, "00:00:59,999"},
		{1.001, "00:00:01,001"},
		{-4, "00:00:00,000"},
		{math.NaN(), "00:00:00,000"},
		{360000, "100:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromCaptionsComputesEndAndCleansText(t *testing.T) {
	entries := FromCaptions([]CaptionEntry{
		{Start: 2, Duration: 1.5, Text: "second\nline "},
		{Start: 0.5, Duration: 1, Text: "  first\r\nline"},
		{Start: 2, Duration: -1, Text: "tie"},
	})
	want := []Entry{
		{Start: 0.5, End: 1.5, Text: "first line"},
		{Start: 2, End: 3.5, Text: "second line"},
		{Start: 2, End: 2, Text: "tie"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestFromSegmentsClampsTiming(t *testing.T) {
	entries := FromSegments([]Segment{{Start: -1, End: -2, Text: "x"}, {Start: 3, End: 1, Text: "y"}})
	if entries[0].Start != 0 || entries[0].End != 0 {
		t.Fatalf("expected clamped first entry, got %+v", entries[0])
	}
	if entries[1].End != 3 {
		t.Fatalf("expected end clamped to start, got %+v", entries[1])
	}
}

func TestRenderSRT(t *testing.T) {
	entries := []Entry{
		{Start: 0, End: 1.25, Text: "hello"},
		{Start: 1.25, End: 2, Text: "   "},
		{Start: 3661.5, End: 3662, Text: "world"},
	}
	want := "1\n00:00:00,000 --> 00:00:01,250\nhello\n" +
		"\n2\n00:00:01,250 --> 00:00:02,000\n[...]\n" +
		"\n3\n01:01:01,500 --> 01:01:02,000\nworld\n"
	if got := RenderSRT(entries); got != want {
		t.Fatalf("RenderSRT mismatch:\n got %q\nwant %q", got, want)
	}
	if got := RenderSRT(nil); got != "" {
		t.Fatalf("expected empty render for no entries, got %q", got)
	}
}

func TestRenderPlainSkipsEmptyText(t *testing.T) {
	entries := []Entry{{Text: "a"}, {Text: ""}, {Text: " b "}}
	if got := RenderPlain(entries); got != "a\nb" {
		t.Fatalf("RenderPlain = %q", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := []Entry{
		{Start: 5, End: 6, Text: "later"},
		{Start: 1.1, End: 2.2, Text: "multi\nline"},
		{Start: 1.1, End: 1.5, Text: ""},
	}
	once := Normalize(raw)
	first := RenderSRT(once)
	twice := Normalize(once)
	if second := RenderSRT(twice); second != first {
		t.Fatalf("render not idempotent:\n%q\n%q", first, second)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("normalize changed canonical entry %d: %+v -> %+v", i, once[i], twice[i])
		}
	}
	if once[0].Text != "multi line" || once[1].Text != "" {
		t.Fatalf("expected stable ordering for equal starts, got %+v", once)
	}
}

func TestRender(t *testing.T) {
	art := Render(Result{Entries: []Entry{{Start: 0, End: 1, Text: "hi"}}, Origin: OriginCaption})
	if art.PlainText != "hi" {
		t.Fatalf("unexpected plain text %q", art.PlainText)
	}
	if art.TimedText != "1\n00:00:00,000 --> 00:00:01,000\nhi\n" {
		t.Fatalf("unexpected timed text %q", art.TimedText)
	}
}
