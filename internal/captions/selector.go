package captions

import (
	"context"
	"fmt"
	"log/slog"

	"tubescribe/internal/language"
	"tubescribe/internal/logging"
	"tubescribe/internal/timedtext"
)

// Candidate is one fetch attempt in selection order.
type Candidate struct {
	Track Track
	// Language is the preference that matched, or the translation target.
	Language string
	// Origin is the origin the attempt yields; OriginTranslated for translations.
	Origin Origin
}

// Label renders the candidate for logs and tables.
func (c Candidate) Label() string {
	if c.Origin == OriginTranslated {
		return fmt.Sprintf("translated:%s->%s", c.Track.LanguageCode, c.Language)
	}
	return fmt.Sprintf("%s:%s", c.Origin, c.Track.LanguageCode)
}

// Selection is a successfully fetched caption track.
type Selection struct {
	Entries  []timedtext.Entry
	Language string
	Origin   Origin
	Track    Track
}

// Plan returns the ordered attempts for tracks under prefs:
//  1. manual tracks whose code has the preference as prefix, per preference;
//  2. the same for auto-generated tracks;
//  3. for each translatable track, a translation into every preference that
//     differs from the track's own language.
//
// Within a pass, tracks keep the order the service reported them in.
func Plan(tracks []Track, prefs []string) []Candidate {
	var plan []Candidate
	for _, origin := range []Origin{OriginManual, OriginAutoGenerated} {
		for _, pref := range prefs {
			for _, track := range tracks {
				if track.Origin != origin || !language.HasPrefix(track.LanguageCode, pref) {
					continue
				}
				plan = append(plan, Candidate{Track: track, Language: pref, Origin: origin})
			}
		}
	}
	for _, track := range tracks {
		if !track.Translatable {
			continue
		}
		for _, pref := range prefs {
			if pref == "" || language.Equal(pref, track.LanguageCode) {
				continue
			}
			plan = append(plan, Candidate{Track: track, Language: pref, Origin: OriginTranslated})
		}
	}
	return plan
}

// Selector picks a caption track for a video.
type Selector struct {
	service Service
	logger  *slog.Logger
}

// NewSelector constructs a Selector over service.
func NewSelector(service Service, logger *slog.Logger) *Selector {
	return &Selector{service: service, logger: logging.NewComponentLogger(logger, "captions")}
}

// Tracks lists the tracks the service reports for videoID.
func (s *Selector) Tracks(ctx context.Context, videoID string) ([]Track, error) {
	return s.service.ListTracks(ctx, videoID)
}

// Select returns the first candidate in Plan order that fetches successfully.
// The boolean is false when no caption is available: listing failed, the
// video has no tracks, or every candidate failed. The error is non-nil only
// when ctx is done.
func (s *Selector) Select(ctx context.Context, videoID string, prefs []string) (Selection, bool, error) {
	logger := logging.WithContext(ctx, s.logger)

	tracks, err := s.service.ListTracks(ctx, videoID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Selection{}, false, ctxErr
		}
		logger.Info("caption tracks unavailable",
			logging.String(logging.FieldEventType, "caption_list_failed"),
			logging.Error(err),
		)
		return Selection{}, false, nil
	}
	if len(tracks) == 0 {
		logger.Info("no caption tracks reported", logging.String(logging.FieldEventType, "caption_none"))
		return Selection{}, false, nil
	}

	plan := Plan(tracks, prefs)
	for i, candidate := range plan {
		if err := ctx.Err(); err != nil {
			return Selection{}, false, err
		}
		var (
			items    []timedtext.CaptionEntry
			fetchErr error
		)
		if candidate.Origin == OriginTranslated {
			items, fetchErr = s.service.Translate(ctx, candidate.Track, candidate.Language)
		} else {
			items, fetchErr = s.service.Fetch(ctx, candidate.Track)
		}
		if fetchErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Selection{}, false, ctxErr
			}
			attrs := logging.DecisionAttrs("caption_candidate", "skipped", fetchErr.Error())
			attrs = append(attrs,
				logging.String("candidate", candidate.Label()),
				logging.Int("attempt", i+1),
				logging.Int("attempts_total", len(plan)),
			)
			logger.Debug("caption candidate failed", logging.Args(attrs...)...)
			continue
		}
		selection := Selection{
			Entries:  timedtext.FromCaptions(items),
			Language: candidate.Language,
			Origin:   candidate.Origin,
			Track:    candidate.Track,
		}
		attrs := logging.DecisionAttrs("caption_candidate", "selected", candidate.Origin.String())
		attrs = append(attrs,
			logging.String("candidate", candidate.Label()),
			logging.String("language", candidate.Language),
			logging.Int("entries", len(selection.Entries)),
		)
		logger.Info("caption track selected", logging.Args(attrs...)...)
		return selection, true, nil
	}

	logger.Info("no caption candidate succeeded",
		logging.String(logging.FieldEventType, "caption_exhausted"),
		logging.Int("tracks", len(tracks)),
		logging.Int("attempts", len(plan)),
	)
	return Selection{}, false, nil
}
