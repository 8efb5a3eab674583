package youtube

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tubescribe/internal/captions"
)

const playerResponseMarker = "ytInitialPlayerResponse"

var errPlayerResponseMissing = errors.New("youtube: player response not found in watch page")

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks        []captionTrack        `json:"captionTracks"`
			TranslationLanguages []translationLanguage `json:"translationLanguages"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL        string    `json:"baseUrl"`
	Name           textValue `json:"name"`
	LanguageCode   string    `json:"languageCode"`
	Kind           string    `json:"kind"`
	IsTranslatable bool      `json:"isTranslatable"`
}

type translationLanguage struct {
	LanguageCode string    `json:"languageCode"`
	LanguageName textValue `json:"languageName"`
}

type textValue struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t textValue) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, run := range t.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// extractPlayerResponse locates the inline player response script in a watch
// page and decodes it.
func extractPlayerResponse(page []byte) (*playerResponse, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("youtube: parse watch page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, playerResponseMarker) {
			return true
		}
		if obj, ok := extractJSONObject(text, playerResponseMarker); ok {
			raw = obj
			return false
		}
		return true
	})
	if raw == "" {
		return nil, errPlayerResponseMissing
	}

	var player playerResponse
	if err := json.Unmarshal([]byte(raw), &player); err != nil {
		return nil, fmt.Errorf("youtube: decode player response: %w", err)
	}
	return &player, nil
}

// extractJSONObject returns the balanced JSON object that follows marker's
// assignment in script.
func extractJSONObject(script, marker string) (string, bool) {
	idx := strings.Index(script, marker)
	for idx >= 0 {
		rest := script[idx+len(marker):]
		eq := strings.Index(rest, "=")
		brace := strings.Index(rest, "{")
		if eq >= 0 && brace > eq && strings.TrimSpace(rest[:eq]) == "" {
			if obj, ok := balancedObject(rest[brace:]); ok {
				return obj, true
			}
		}
		next := strings.Index(rest, marker)
		if next < 0 {
			break
		}
		idx += len(marker) + next
	}
	return "", false
}

func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func (p *playerResponse) tracks() ([]captions.Track, error) {
	status := strings.ToUpper(strings.TrimSpace(p.PlayabilityStatus.Status))
	if status != "" && status != "OK" {
		reason := strings.TrimSpace(p.PlayabilityStatus.Reason)
		if reason == "" {
			reason = status
		}
		return nil, fmt.Errorf("%w: %s", captions.ErrVideoUnavailable, reason)
	}
	renderer := p.Captions.Renderer
	if len(renderer.CaptionTracks) == 0 {
		return nil, captions.ErrCaptionsDisabled
	}

	translations := make([]string, 0, len(renderer.TranslationLanguages))
	for _, lang := range renderer.TranslationLanguages {
		if code := strings.TrimSpace(lang.LanguageCode); code != "" {
			translations = append(translations, code)
		}
	}

	tracks := make([]captions.Track, 0, len(renderer.CaptionTracks))
	for _, ct := range renderer.CaptionTracks {
		code := strings.TrimSpace(ct.LanguageCode)
		if code == "" || strings.TrimSpace(ct.BaseURL) == "" {
			continue
		}
		origin := captions.OriginManual
		if strings.EqualFold(ct.Kind, "asr") {
			origin = captions.OriginAutoGenerated
		}
		track := captions.Track{
			LanguageCode: code,
			Name:         ct.Name.String(),
			Origin:       origin,
			Translatable: ct.IsTranslatable,
			BaseURL:      ct.BaseURL,
		}
		if ct.IsTranslatable {
			track.TranslationLanguages = append([]string(nil), translations...)
		}
		tracks = append(tracks, track)
	}
	if len(tracks) == 0 {
		return nil, captions.ErrCaptionsDisabled
	}
	return tracks, nil
}
