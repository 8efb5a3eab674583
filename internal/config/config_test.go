package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tubescribe/internal/config"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN", "AWS_REGION", "TUBESCRIBE_LANGS", "TUBESCRIBE_AWS_BUCKET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearConfigEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "tubescribe")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) || filepath.Base(cfg.Paths.OutputDir) != "outputs" {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if got := strings.Join(cfg.Captions.Languages, ","); got != "id,en" {
		t.Fatalf("unexpected default languages: %q", got)
	}
	if cfg.STT.Backend != config.BackendWhisperX {
		t.Fatalf("expected whisperx backend by default, got %q", cfg.STT.Backend)
	}
	if cfg.STT.Model != "base" {
		t.Fatalf("expected base model by default, got %q", cfg.STT.Model)
	}
	if cfg.STT.VADMethod != "silero" {
		t.Fatalf("expected silero VAD by default, got %q", cfg.STT.VADMethod)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.LockDir() != filepath.Join(wantState, "locks") {
		t.Fatalf("unexpected lock dir: %q", cfg.LockDir())
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	clearConfigEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/transcripts"
log_dir = ""

[captions]
languages = ["EN", "pt_br", "en"]
base_url = "http://127.0.0.1:9999/"

[stt]
backend = "AWS"
model = "small"
language_hint = "en-US"

[aws]
bucket = "my-bucket"
key_prefix = "/jobs"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "transcripts") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.LogPath() != "" {
		t.Fatalf("expected file logging disabled, got %q", cfg.LogPath())
	}
	if got := strings.Join(cfg.Captions.Languages, ","); got != "en,pt-BR" {
		t.Fatalf("unexpected languages: %q", got)
	}
	if cfg.Captions.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Captions.BaseURL)
	}
	if cfg.STT.Backend != config.BackendAWS {
		t.Fatalf("expected aws backend, got %q", cfg.STT.Backend)
	}
	if cfg.AWS.KeyPrefix != "jobs/" {
		t.Fatalf("unexpected key prefix: %q", cfg.AWS.KeyPrefix)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[stt]\nflavour = \"spicy\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestEnvFallbacks(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HF_TOKEN", " hf-secret ")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("TUBESCRIBE_LANGS", "en,fr")
	t.Setenv("TUBESCRIBE_AWS_BUCKET", "env-bucket")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.STT.HFToken != "hf-secret" {
		t.Fatalf("expected HF token from env, got %q", cfg.STT.HFToken)
	}
	if cfg.AWS.Region != "eu-west-1" {
		t.Fatalf("expected region from env, got %q", cfg.AWS.Region)
	}
	if got := strings.Join(cfg.Captions.Languages, ","); got != "en,fr" {
		t.Fatalf("expected languages from env, got %q", got)
	}
	if cfg.AWS.Bucket != "env-bucket" {
		t.Fatalf("expected bucket from env, got %q", cfg.AWS.Bucket)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown backend",
			mutate: func(c *config.Config) { c.STT.Backend = "vosk" },
			want:   "stt.backend",
		},
		{
			name:   "aws without bucket",
			mutate: func(c *config.Config) { c.STT.Backend = config.BackendAWS; c.AWS.Bucket = "" },
			want:   "aws.bucket",
		},
		{
			name:   "aws bad bucket",
			mutate: func(c *config.Config) { c.STT.Backend = config.BackendAWS; c.AWS.Bucket = "Bad_Bucket" },
			want:   "not a valid S3 bucket",
		},
		{
			name:   "no languages",
			mutate: func(c *config.Config) { c.Captions.Languages = nil },
			want:   "captions.languages",
		},
		{
			name:   "pyannote without token",
			mutate: func(c *config.Config) { c.STT.VADMethod = "pyannote"; c.STT.HFToken = "" },
			want:   "stt.hf_token",
		},
		{
			name:   "bad level",
			mutate: func(c *config.Config) { c.Logging.Level = "loud" },
			want:   "logging.level",
		},
		{
			name:   "non http base url",
			mutate: func(c *config.Config) { c.Captions.BaseURL = "ftp://example.com" },
			want:   "captions.base_url",
		},
		{
			name:   "too many retries",
			mutate: func(c *config.Config) { c.Captions.MaxRetries = 64 },
			want:   "captions.max_retries",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.OutputDir = t.TempDir()
			cfg.Paths.StateDir = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}
