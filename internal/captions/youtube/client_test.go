package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tubescribe/internal/captions"
)

const watchPageTemplate = `<!DOCTYPE html><html><head><title>video</title>
<script>var ytcfg = {"x": 1};</script>
<script nonce="abc">var ytInitialPlayerResponse = %s;var meta = {"a":"}"};</script>
</head><body></body></html>`

func playerJSON(base string) string {
	return `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{` +
		`"captionTracks":[` +
		`{"baseUrl":"` + base + `/api/timedtext?v=vid&lang=en&fmt=srv3","name":{"simpleText":"English"},"languageCode":"en","isTranslatable":true},` +
		`{"baseUrl":"` + base + `/api/timedtext?v=vid&lang=id&kind=asr","name":{"runs":[{"text":"Indonesian (auto)"}]},"languageCode":"id","kind":"asr","isTranslatable":false}` +
		`],"translationLanguages":[{"languageCode":"id","languageName":{"simpleText":"Indonesian"}},{"languageCode":"fr"}]}}}`
}

const transcriptXMLBody = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0.5" dur="1.25">Hello &amp;amp; welcome</text>` +
	`<text start="2" dur="2">it&amp;#39;s &lt;font color=&quot;#fff&quot;&gt;here&lt;/font&gt;</text>` +
	`<text start="4.5">tail</text></transcript>`

func newTestServer(t *testing.T, player func(base string) string) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			if r.URL.Query().Get("v") != "vid" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			fmt.Fprintf(w, watchPageTemplate, player(server.URL))
		case "/api/timedtext":
			queries = append(queries, r.URL.RawQuery)
			w.Header().Set("Content-Type", "text/xml")
			_, _ = w.Write([]byte(transcriptXMLBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &queries
}

func newTestClient(t *testing.T, base string) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: base, MaxRetries: 2, InitialBackoff: time.Millisecond})
	if err != nil {
		t.Fatalf("New client failed: %v", err)
	}
	return client
}

func TestListTracksParsesPlayerResponse(t *testing.T) {
	server, _ := newTestServer(t, playerJSON)
	client := newTestClient(t, server.URL)

	tracks, err := client.ListTracks(context.Background(), "vid")
	if err != nil {
		t.Fatalf("ListTracks returned error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	en, id := tracks[0], tracks[1]
	if en.LanguageCode != "en" || en.Origin != captions.OriginManual || !en.Translatable || en.Name != "English" {
		t.Fatalf("unexpected en track %+v", en)
	}
	if strings.Join(en.TranslationLanguages, ",") != "id,fr" {
		t.Fatalf("unexpected translation languages %v", en.TranslationLanguages)
	}
	if id.Origin != captions.OriginAutoGenerated || id.Translatable || id.Name != "Indonesian (auto)" {
		t.Fatalf("unexpected id track %+v", id)
	}
}

func TestFetchDecodesTimedText(t *testing.T) {
	server, queries := newTestServer(t, playerJSON)
	client := newTestClient(t, server.URL)

	tracks, err := client.ListTracks(context.Background(), "vid")
	if err != nil {
		t.Fatalf("ListTracks returned error: %v", err)
	}
	entries, err := client.Fetch(context.Background(), tracks[0])
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Text != "Hello & welcome" || entries[0].Start != 0.5 || entries[0].Duration != 1.25 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Text != "it's here" {
		t.Fatalf("expected markup stripped, got %q", entries[1].Text)
	}
	if entries[2].Duration != 0 {
		t.Fatalf("expected missing dur to be zero, got %v", entries[2].Duration)
	}
	if strings.Contains((*queries)[0], "fmt=") {
		t.Fatalf("expected fmt parameter dropped, got %q", (*queries)[0])
	}
}

func TestTranslateAddsTargetLanguage(t *testing.T) {
	server, queries := newTestServer(t, playerJSON)
	client := newTestClient(t, server.URL)

	tracks, err := client.ListTracks(context.Background(), "vid")
	if err != nil {
		t.Fatalf("ListTracks returned error: %v", err)
	}
	if _, err := client.Translate(context.Background(), tracks[0], "id"); err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !strings.Contains((*queries)[0], "tlang=id") {
		t.Fatalf("expected tlang in query, got %q", (*queries)[0])
	}
	if _, err := client.Translate(context.Background(), tracks[0], "de"); !errors.Is(err, captions.ErrNotTranslatable) {
		t.Fatalf("expected ErrNotTranslatable for unlisted language, got %v", err)
	}
	if _, err := client.Translate(context.Background(), tracks[1], "en"); !errors.Is(err, captions.ErrNotTranslatable) {
		t.Fatalf("expected ErrNotTranslatable for non-translatable track, got %v", err)
	}
	if len(*queries) != 1 {
		t.Fatalf("expected rejected translations to skip the network, got %d requests", len(*queries))
	}
}

func TestListTracksCaptionsDisabled(t *testing.T) {
	server, _ := newTestServer(t, func(string) string {
		return `{"playabilityStatus":{"status":"OK"}}`
	})
	client := newTestClient(t, server.URL)
	if _, err := client.ListTracks(context.Background(), "vid"); !errors.Is(err, captions.ErrCaptionsDisabled) {
		t.Fatalf("expected ErrCaptionsDisabled, got %v", err)
	}
}

func TestListTracksVideoUnavailable(t *testing.T) {
	server, _ := newTestServer(t, func(string) string {
		return `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm your age"}}`
	})
	client := newTestClient(t, server.URL)
	_, err := client.ListTracks(context.Background(), "vid")
	if !errors.Is(err, captions.ErrVideoUnavailable) {
		t.Fatalf("expected ErrVideoUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "Sign in") {
		t.Fatalf("expected reason in error, got %v", err)
	}
}

func TestListTracksMissingPlayerResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>nothing here</body></html>"))
	}))
	defer server.Close()
	client := newTestClient(t, server.URL)
	if _, err := client.ListTracks(context.Background(), "vid"); !errors.Is(err, errPlayerResponseMissing) {
		t.Fatalf("expected missing player response error, got %v", err)
	}
}

func TestRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(transcriptXMLBody))
	}))
	defer server.Close()
	client := newTestClient(t, server.URL)

	track := captions.Track{LanguageCode: "en", BaseURL: server.URL + "/api/timedtext"}
	if _, err := client.Fetch(context.Background(), track); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	client := newTestClient(t, server.URL)

	track := captions.Track{LanguageCode: "en", BaseURL: server.URL + "/api/timedtext"}
	if _, err := client.Fetch(context.Background(), track); err == nil {
		t.Fatal("expected error for 404")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", hits.Load())
	}
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&statusError{code: 429}, true},
		{&statusError{code: 502}, true},
		{&statusError{code: 403}, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetriable(tc.err); got != tc.want {
			t.Fatalf("IsRetriable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestBackoffForStaysBounded(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{6, MaxBackoff},
		{40, MaxBackoff},
		{1000, MaxBackoff},
	}
	for _, tc := range cases {
		if got := backoffFor(time.Second, tc.attempt); got != tc.want {
			t.Fatalf("backoffFor(1s, %d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
	if got := backoffFor(0, 1); got != DefaultInitialBackoff {
		t.Fatalf("backoffFor(0, 1) = %v, want %v", got, DefaultInitialBackoff)
	}
}

func TestExtractJSONObjectSkipsBracesInStrings(t *testing.T) {
	script := `window.ytInitialPlayerResponse = {"a":"{not}","b":{"c":"\"}"}};foo()`
	obj, ok := extractJSONObject(script, playerResponseMarker)
	if !ok {
		t.Fatal("expected object")
	}
	if obj != `{"a":"{not}","b":{"c":"\"}"}}` {
		t.Fatalf("unexpected object %q", obj)
	}
}
