package errmsg

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Every error produced by the core wraps exactly one of these
// markers so callers can classify it with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrStorageFull       = errors.New("storage full")
	ErrPlayback          = errors.New("playback error")
)

// Wrap tags err with marker and an operation description. When err is nil the
// returned error carries only the marker and the message.
func Wrap(marker error, op Op, message string, err error) error {
	detail := buildDetail(op, message)
	if marker == nil {
		marker = ErrRemoteUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Validation builds a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err must abort the calling operation.
// Remote outages degrade to local storage and storage-full conditions keep the
// in-memory change, so only validation and not-found errors are fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

// Kind returns a short classification of err for structured logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrStorageFull):
		return "storage_full"
	case errors.Is(err, ErrPlayback):
		return "playback"
	default:
		return "internal"
	}
}

func buildDetail(op Op, message string) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(string(op)); s != "" {
		parts = append(parts, s)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
