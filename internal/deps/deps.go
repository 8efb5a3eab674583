// Package deps reports whether the external tools tubescribe shells out to
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"tubescribe/internal/config"
	"tubescribe/internal/stt/whisperx"
)

// Requirement defines an external dependency tubescribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the speech-to-text fallback needs under
// cfg. The caption path needs none of them, so they only become blocking once
// a video has no usable captions.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "yt-dlp", Command: cfg.Audio.YTDLPBinary, Description: "downloads audio for speech-to-text"},
		{Name: "ffmpeg", Command: cfg.Audio.FFmpegBinary, Description: "transcodes audio to 16-bit mono WAV"},
		{Name: "ffprobe", Command: cfg.Audio.FFprobeBinary, Description: "verifies the transcoded audio"},
	}
	reqs = append(reqs, Requirement{
		Name:        "uvx",
		Command:     whisperx.UVXCommand,
		Description: "runs WhisperX locally",
		Optional:    cfg.STT.Backend != config.BackendWhisperX,
	})
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch path, err := exec.LookPath(cmd); {
		case cmd == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		default:
			status.Available = true
			status.Detail = path
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
