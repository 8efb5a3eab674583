package captions

import (
	"context"
	"errors"

	"tubescribe/internal/timedtext"
)

// Origin describes how a caption track was produced.
type Origin int

const (
	OriginManual Origin = iota
	OriginAutoGenerated
	OriginTranslated
)

func (o Origin) String() string {
	switch o {
	case OriginManual:
		return "manual"
	case OriginAutoGenerated:
		return "auto"
	case OriginTranslated:
		return "translated"
	default:
		return "unknown"
	}
}

// Track is caption track metadata reported by a Service. Entries are fetched
// on demand.
type Track struct {
	LanguageCode         string
	Name                 string
	Origin               Origin
	Translatable         bool
	TranslationLanguages []string
	BaseURL              string
}

var (
	// ErrCaptionsDisabled reports that the video has captions turned off or none at all.
	ErrCaptionsDisabled = errors.New("captions disabled for video")
	// ErrVideoUnavailable reports that the provider refused to serve the video.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrNotTranslatable reports a translation request the track cannot satisfy.
	ErrNotTranslatable = errors.New("track not translatable")
)

// Service is a caption provider.
type Service interface {
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	Fetch(ctx context.Context, track Track) ([]timedtext.CaptionEntry, error)
	Translate(ctx context.Context, track Track, language string) ([]timedtext.CaptionEntry, error)
}
