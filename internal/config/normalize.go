package config

import (
	"fmt"
	"os"
	"strings"

	"tubescribe/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCaptions(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeSTT()
	c.normalizeAWS()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = os.TempDir()
	}
	if c.Paths.ScratchDir, err = expandPath(strings.TrimSpace(c.Paths.ScratchDir)); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	// An empty log_dir disables file logging.
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCaptions() error {
	if value, ok := os.LookupEnv("TUBESCRIBE_LANGS"); ok && strings.TrimSpace(value) != "" {
		c.Captions.Languages = []string{value}
	}
	prefs, err := language.ParsePreferences(c.Captions.Languages)
	if err != nil {
		return fmt.Errorf("captions.languages: %w", err)
	}
	c.Captions.Languages = prefs
	c.Captions.BaseURL = strings.TrimRight(strings.TrimSpace(c.Captions.BaseURL), "/")
	if c.Captions.BaseURL == "" {
		c.Captions.BaseURL = defaultCaptionBaseURL
	}
	c.Captions.UserAgent = strings.TrimSpace(c.Captions.UserAgent)
	if c.Captions.UserAgent == "" {
		c.Captions.UserAgent = defaultCaptionUserAgent
	}
	if c.Captions.RequestTimeout <= 0 {
		c.Captions.RequestTimeout = defaultCaptionRequestTimeout
	}
	if c.Captions.MaxRetries < 0 {
		c.Captions.MaxRetries = 0
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.YTDLPBinary = strings.TrimSpace(c.Audio.YTDLPBinary)
	if c.Audio.YTDLPBinary == "" {
		c.Audio.YTDLPBinary = defaultYTDLPBinary
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeSTT() {
	c.STT.Backend = strings.ToLower(strings.TrimSpace(c.STT.Backend))
	if c.STT.Backend == "" {
		c.STT.Backend = defaultSTTBackend
	}
	c.STT.Model = strings.TrimSpace(c.STT.Model)
	if c.STT.Model == "" {
		c.STT.Model = defaultSTTModel
	}
	c.STT.LanguageHint = strings.TrimSpace(c.STT.LanguageHint)
	c.STT.VADMethod = strings.ToLower(strings.TrimSpace(c.STT.VADMethod))
	if c.STT.VADMethod == "" {
		c.STT.VADMethod = defaultVADMethod
	}
	c.STT.HFToken = strings.TrimSpace(c.STT.HFToken)
	if c.STT.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.STT.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.STT.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAWS() {
	c.AWS.Region = strings.TrimSpace(c.AWS.Region)
	if value, ok := os.LookupEnv("AWS_REGION"); ok && strings.TrimSpace(value) != "" && c.AWS.Region == defaultAWSRegion {
		c.AWS.Region = strings.TrimSpace(value)
	}
	if c.AWS.Region == "" {
		c.AWS.Region = defaultAWSRegion
	}
	c.AWS.Bucket = strings.TrimSpace(c.AWS.Bucket)
	if c.AWS.Bucket == "" {
		if value, ok := os.LookupEnv("TUBESCRIBE_AWS_BUCKET"); ok {
			c.AWS.Bucket = strings.TrimSpace(value)
		}
	}
	c.AWS.KeyPrefix = strings.TrimLeft(strings.TrimSpace(c.AWS.KeyPrefix), "/")
	if c.AWS.KeyPrefix != "" && !strings.HasSuffix(c.AWS.KeyPrefix, "/") {
		c.AWS.KeyPrefix += "/"
	}
	if c.AWS.PollInterval <= 0 {
		c.AWS.PollInterval = defaultAWSPollInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
