// Package youtube implements a caption service over the public watch page and
// timedtext endpoints.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tubescribe/internal/captions"
	"tubescribe/internal/logging"
	"tubescribe/internal/timedtext"
)

const (
	defaultBaseURL     = "https://www.youtube.com"
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultHTTPTimeout = 30 * time.Second
	maxBodyBytes       = 16 << 20
)

// Config describes the caption client configuration.
type Config struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client lists and fetches caption tracks.
type Client struct {
	baseURL        *url.URL
	userAgent      string
	http           *http.Client
	maxRetries     int
	initialBackoff time.Duration
	logger         *slog.Logger
}

var _ captions.Service = (*Client)(nil)

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("youtube: parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("youtube: base url %q must be absolute", base)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = DefaultInitialBackoff
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:        baseURL,
		userAgent:      userAgent,
		http:           client,
		maxRetries:     retries,
		initialBackoff: backoff,
		logger:         logging.NewComponentLogger(cfg.Logger, "youtube"),
	}, nil
}

// ListTracks returns the caption tracks advertised on the video's watch page.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]captions.Track, error) {
	if c == nil {
		return nil, errors.New("youtube: client is nil")
	}
	endpoint := c.baseURL.JoinPath("watch")
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("hl", "en")
	endpoint.RawQuery = params.Encode()

	var page []byte
	err := c.withRetry(ctx, "list_tracks", func() error {
		var getErr error
		page, getErr = c.get(ctx, endpoint.String(), "text/html,application/xhtml+xml")
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("youtube: fetch watch page: %w", err)
	}

	player, err := extractPlayerResponse(page)
	if err != nil {
		return nil, err
	}
	return player.tracks()
}

// Fetch downloads the timed entries for track.
func (c *Client) Fetch(ctx context.Context, track captions.Track) ([]timedtext.CaptionEntry, error) {
	return c.fetchTimedText(ctx, track, "")
}

// Translate downloads track machine-translated into language.
func (c *Client) Translate(ctx context.Context, track captions.Track, language string) ([]timedtext.CaptionEntry, error) {
	language = strings.TrimSpace(language)
	if !track.Translatable || language == "" {
		return nil, fmt.Errorf("%w: %s", captions.ErrNotTranslatable, track.LanguageCode)
	}
	if len(track.TranslationLanguages) > 0 && !containsFold(track.TranslationLanguages, language) {
		return nil, fmt.Errorf("%w: %s cannot be translated to %s", captions.ErrNotTranslatable, track.LanguageCode, language)
	}
	return c.fetchTimedText(ctx, track, language)
}

func (c *Client) fetchTimedText(ctx context.Context, track captions.Track, translateTo string) ([]timedtext.CaptionEntry, error) {
	if c == nil {
		return nil, errors.New("youtube: client is nil")
	}
	if strings.TrimSpace(track.BaseURL) == "" {
		return nil, fmt.Errorf("youtube: track %s has no url", track.LanguageCode)
	}
	target, err := c.baseURL.Parse(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("youtube: parse track url: %w", err)
	}
	query := target.Query()
	query.Del("fmt")
	if translateTo != "" {
		query.Set("tlang", translateTo)
	}
	target.RawQuery = query.Encode()

	var body []byte
	err = c.withRetry(ctx, "fetch_timedtext", func() error {
		var getErr error
		body, getErr = c.get(ctx, target.String(), "text/xml,application/xml")
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("youtube: fetch timedtext: %w", err)
	}
	return parseTimedText(body)
}

func (c *Client) get(ctx context.Context, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("youtube: build request: %w", err)
	}
	c.applyHeaders(req, accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(body))}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("youtube: read body: %w", err)
	}
	return data, nil
}

func (c *Client) applyHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Skips the EU consent interstitial.
	req.Header.Set("Cookie", "CONSENT=YES+1")
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
