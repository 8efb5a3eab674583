package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubescribe/internal/stt"
	"tubescribe/internal/timedtext"
)

const testVideoID = "dQw4w9WgXcQ"

const watchPage = `<!DOCTYPE html><html><head>
<script>var ytInitialPlayerResponse = %s;</script>
</head><body></body></html>`

const captionXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0" dur="1.5">Halo semua</text>` +
	`<text start="1.5" dur="2">apa kabar</text></transcript>`

func playerWithTracks(base string) string {
	return `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
		`{"baseUrl":"` + base + `/api/timedtext?v=` + testVideoID + `&lang=id","name":{"simpleText":"Indonesian"},"languageCode":"id"},` +
		`{"baseUrl":"` + base + `/api/timedtext?v=` + testVideoID + `&lang=en&kind=asr","name":{"simpleText":"English (auto)"},"languageCode":"en","kind":"asr"}` +
		`]}}}`
}

func playerWithoutTracks(string) string {
	return `{"playabilityStatus":{"status":"OK"}}`
}

func newCaptionServer(t *testing.T, player func(base string) string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, watchPage, player(server.URL))
		case "/api/timedtext":
			w.Header().Set("Content-Type", "text/xml")
			_, _ = w.Write([]byte(captionXML))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type cliTestEnv struct {
	configPath string
	outputDir  string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, baseURL string) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("TUBESCRIBE_LANGS", "")
	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "outputs"),
		baseDir:    base,
	}
	content := fmt.Sprintf(`[paths]
output_dir = %q
scratch_dir = %q
state_dir = %q
log_dir = ""

[captions]
languages = ["id", "en"]
base_url = %q
request_timeout = 5
max_retries = 0

[logging]
level = "error"
`, env.outputDir, filepath.Join(base, "scratch"), filepath.Join(base, "state"), baseURL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string, seams ...func(*commandContext)) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(seams...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}

// fakeTools stands in for yt-dlp and ffmpeg by creating the files they would
// produce.
func fakeTools(t *testing.T) func(*commandContext) {
	return func(c *commandContext) {
		c.audioRunner = func(_ context.Context, name string, args ...string) error {
			switch name {
			case "yt-dlp":
				for i, arg := range args {
					if arg == "-o" && i+1 < len(args) {
						target := strings.ReplaceAll(args[i+1], "%(ext)s", "webm")
						return os.WriteFile(target, []byte("audio"), 0o644)
					}
				}
				return fmt.Errorf("yt-dlp called without -o")
			case "ffmpeg":
				return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
			default:
				t.Fatalf("unexpected command %s", name)
				return nil
			}
		}
		c.probeOutput = func(context.Context, string, ...string) ([]byte, error) {
			return []byte(`{"streams":[{"index":0,"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"16000","channels":1}],"format":{"duration":"3.5"}}`), nil
		}
		c.sttBackend = fakeBackend{}
	}
}

type fakeBackend struct{}

func (fakeBackend) Name() string { return "fake" }

func (fakeBackend) Transcribe(context.Context, string, string) (stt.Result, error) {
	return stt.Result{
		Segments: []timedtext.Segment{
			{Start: 0, End: 1.25, Text: "recognized speech"},
			{Start: 1.25, End: 2, Text: "  "},
		},
		Language: "en",
	}, nil
}
