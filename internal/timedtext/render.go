package timedtext

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Hours are not wrapped, so
// values past 99 hours widen the hour field.
func FormatTimestamp(seconds float64) string {
	seconds = finite(seconds)
	if seconds < 0 {
		seconds = 0
	}
	// Nudge by a microsecond so values like 59.999 that land just below the
	// millisecond boundary in binary floating point keep their last digit.
	total := int64(math.Floor(seconds*1000 + 1e-3))
	h := total / 3_600_000
	m := (total % 3_600_000) / 60_000
	s := (total % 60_000) / 1000
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}

// RenderSRT renders entries as SubRip cues separated by blank lines. Empty
// text is replaced with Placeholder. No entries renders as "".
func RenderSRT(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		text := CleanText(e.Text)
		if text == "" {
			text = Placeholder
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(e.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(e.End))
		b.WriteByte('\n')
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderPlain joins non-empty entry text with newlines.
func RenderPlain(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if text := CleanText(e.Text); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// Render derives both artifacts from a Result.
func Render(result Result) Artifact {
	return Artifact{
		PlainText: RenderPlain(result.Entries),
		TimedText: RenderSRT(result.Entries),
	}
}
