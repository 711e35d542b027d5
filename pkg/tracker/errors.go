package tracker

import "errors"

const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
)

// TrackerError carries a stable code alongside the message so callers
// can map registry failures to responses without string matching.
type TrackerError struct {
	Code    string
	Message string
}

func (e *TrackerError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is an unknown-session error.
func IsNotFound(err error) bool {
	var te *TrackerError
	return errors.As(err, &te) && te.Code == ErrCodeNotFound
}
