package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateSTT(); err != nil {
		return err
	}
	if err := c.validateAWS(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if len(c.Captions.Languages) == 0 {
		return errors.New("captions.languages must include at least one language")
	}
	if !strings.HasPrefix(c.Captions.BaseURL, "http://") && !strings.HasPrefix(c.Captions.BaseURL, "https://") {
		return fmt.Errorf("captions.base_url must be an http(s) URL, got %q", c.Captions.BaseURL)
	}
	if c.Captions.RequestTimeout <= 0 {
		return errors.New("captions.request_timeout must be positive (seconds)")
	}
	if c.Captions.MaxRetries > maxCaptionRetries {
		return fmt.Errorf("captions.max_retries must be at most %d, got %d", maxCaptionRetries, c.Captions.MaxRetries)
	}
	return nil
}

func (c *Config) validateSTT() error {
	switch c.STT.Backend {
	case BackendWhisperX, BackendAWS:
	default:
		return fmt.Errorf("stt.backend must be %q or %q, got %q", BackendWhisperX, BackendAWS, c.STT.Backend)
	}
	switch c.STT.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("stt.vad_method must be \"silero\" or \"pyannote\", got %q", c.STT.VADMethod)
	}
	if c.STT.Backend == BackendWhisperX && c.STT.VADMethod == "pyannote" && c.STT.HFToken == "" {
		return errors.New("stt.hf_token must be set when stt.vad_method is pyannote (or export HF_TOKEN)")
	}
	return nil
}

func (c *Config) validateAWS() error {
	if c.STT.Backend != BackendAWS {
		return nil
	}
	if c.AWS.Bucket == "" {
		return errors.New("aws.bucket must be set when stt.backend is aws (or export TUBESCRIBE_AWS_BUCKET)")
	}
	if !bucketNamePattern.MatchString(c.AWS.Bucket) {
		return fmt.Errorf("aws.bucket %q is not a valid S3 bucket name", c.AWS.Bucket)
	}
	if c.AWS.PollInterval <= 0 {
		return errors.New("aws.poll_interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
