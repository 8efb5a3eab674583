package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidReference    = errors.New("invalid reference")
	ErrAudioUnavailable    = errors.New("audio unavailable")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrWriteFailure        = errors.New("write failure")
	ErrExternalTool        = errors.New("external tool error")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrTransient           = errors.New("transient failure")
)

// Failure kinds reported by FailureKind.
const (
	KindInvalidReference    = "invalid_reference"
	KindAudioUnavailable    = "audio_unavailable"
	KindTranscriptionFailed = "transcription_failed"
	KindWriteFailure        = "write_failure"
	KindValidation          = "validation"
	KindConfiguration       = "configuration"
	KindUnknown             = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps a pipeline error to the taxonomy kind recorded in run
// history and reported by the CLI. Taxonomy markers win over the generic ones
// so a wrapped tool failure inside audio acquisition still reports as
// audio_unavailable.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidReference):
		return KindInvalidReference
	case errors.Is(err, ErrAudioUnavailable):
		return KindAudioUnavailable
	case errors.Is(err, ErrTranscriptionFailed):
		return KindTranscriptionFailed
	case errors.Is(err, ErrWriteFailure):
		return KindWriteFailure
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindUnknown
	}
}

// IsUsageError reports whether err stems from bad caller input rather than a
// runtime failure.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrInvalidReference) || errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
