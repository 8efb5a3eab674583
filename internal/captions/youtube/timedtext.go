package youtube

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"tubescribe/internal/timedtext"
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

type transcriptXML struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",innerxml"`
	} `xml:"text"`
}

// parseTimedText decodes the timedtext XML format:
//
//	<transcript><text start="1.2" dur="3.4">Hello &amp;amp; welcome</text></transcript>
func parseTimedText(data []byte) ([]timedtext.CaptionEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("youtube: empty timedtext response")
	}
	var doc transcriptXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("youtube: decode timedtext: %w", err)
	}
	entries := make([]timedtext.CaptionEntry, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		start, err := strconv.ParseFloat(strings.TrimSpace(t.Start), 64)
		if err != nil {
			return nil, fmt.Errorf("youtube: timedtext start %q: %w", t.Start, err)
		}
		dur := 0.0
		if raw := strings.TrimSpace(t.Dur); raw != "" {
			if dur, err = strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("youtube: timedtext dur %q: %w", t.Dur, err)
			}
		}
		entries = append(entries, timedtext.CaptionEntry{Start: start, Duration: dur, Text: decodeText(t.Body)})
	}
	return entries, nil
}

// decodeText undoes the double escaping timedtext applies to cue text and
// strips inline markup such as <font>.
func decodeText(raw string) string {
	text := html.UnescapeString(raw)
	text = markupPattern.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}
