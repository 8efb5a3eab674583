package awstranscribe

import (
	"strconv"
	"strings"

	"tubescribe/internal/timedtext"
)

const maxWordsPerSegment = 40

// resultDocument is the JSON document a transcription job writes.
type resultDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []item `json:"items"`
	} `json:"results"`
	Status string `json:"status"`
}

type item struct {
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Type         string `json:"type"`
	Alternatives []struct {
		Confidence string `json:"confidence"`
		Content    string `json:"content"`
	} `json:"alternatives"`
}

func (it item) content() string {
	if len(it.Alternatives) == 0 {
		return ""
	}
	return it.Alternatives[0].Content
}

// segmentItems groups pronunciation items into segments, closing a segment
// at sentence-ending punctuation or after maxWordsPerSegment words.
// Punctuation attaches to the preceding word without a space.
func segmentItems(items []item) []timedtext.Segment {
	var (
		segments []timedtext.Segment
		text     strings.Builder
		start    float64
		end      float64
		words    int
	)
	flush := func() {
		if words == 0 {
			return
		}
		segments = append(segments, timedtext.Segment{Start: start, End: end, Text: text.String()})
		text.Reset()
		words = 0
	}

	for _, it := range items {
		content := it.content()
		switch it.Type {
		case "pronunciation":
			if words == 0 {
				start = parseSeconds(it.StartTime)
			} else {
				text.WriteByte(' ')
			}
			text.WriteString(content)
			end = parseSeconds(it.EndTime)
			words++
			if words >= maxWordsPerSegment {
				flush()
			}
		case "punctuation":
			if words == 0 {
				continue
			}
			text.WriteString(content)
			if content == "." || content == "?" || content == "!" {
				flush()
			}
		}
	}
	flush()
	return segments
}

func parseSeconds(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}
