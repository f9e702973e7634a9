package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks rejected input (empty story, bad scene count).
	ErrValidation = errors.New("validation error")
	// ErrRemote marks a failed remote API call. Stages treat it as a signal
	// to fall back to the local synthesizer, never as a run failure.
	ErrRemote = errors.New("remote api error")
	// ErrAssetWrite marks a failure to persist a generated asset.
	ErrAssetWrite = errors.New("asset write error")
	// ErrAssembly marks a failure while producing the final video.
	ErrAssembly = errors.New("assembly error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing run or asset.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrAssetWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorKind names the sentinel classification of an error for persistence
// and presentation.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrRemote):
		return "remote"
	case errors.Is(err, ErrAssetWrite):
		return "asset_write"
	case errors.Is(err, ErrAssembly):
		return "assembly"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

// Message returns the human-readable portion of a wrapped error, with the
// sentinel prefix stripped.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, sentinel := range []error{ErrValidation, ErrRemote, ErrAssetWrite, ErrAssembly, ErrConfiguration, ErrNotFound} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return msg
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
