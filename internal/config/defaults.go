package config

import "os"

const (
	defaultConfigPath            = "~/.config/tubescribe/config.toml"
	defaultOutputDir             = "outputs"
	defaultStateDir              = "~/.local/share/tubescribe"
	defaultLogDir                = "~/.local/share/tubescribe/logs"
	defaultCaptionBaseURL        = "https://www.youtube.com"
	defaultCaptionUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultCaptionRequestTimeout = 30
	defaultCaptionMaxRetries     = 3
	maxCaptionRetries            = 10
	defaultYTDLPBinary           = "yt-dlp"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultSampleRate            = 16000
	defaultSTTBackend            = BackendWhisperX
	defaultSTTModel              = "base"
	defaultVADMethod             = "silero"
	defaultAWSRegion             = "us-east-1"
	defaultAWSKeyPrefix          = "tubescribe/"
	defaultAWSPollInterval       = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Recognition backends accepted by stt.backend.
const (
	BackendWhisperX = "whisperx"
	BackendAWS      = "aws"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			ScratchDir: os.TempDir(),
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Captions: Captions{
			Languages:      []string{"id", "en"},
			BaseURL:        defaultCaptionBaseURL,
			UserAgent:      defaultCaptionUserAgent,
			RequestTimeout: defaultCaptionRequestTimeout,
			MaxRetries:     defaultCaptionMaxRetries,
		},
		Audio: Audio{
			YTDLPBinary:   defaultYTDLPBinary,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			SampleRate:    defaultSampleRate,
		},
		STT: STT{
			Backend:   defaultSTTBackend,
			Model:     defaultSTTModel,
			VADMethod: defaultVADMethod,
		},
		AWS: AWS{
			Region:       defaultAWSRegion,
			KeyPrefix:    defaultAWSKeyPrefix,
			PollInterval: defaultAWSPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
		},
	}
}
