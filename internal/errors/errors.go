package errors

import (
	"errors"
	"fmt"
)

// ===== SESSION ERRORS =====

var (
	// Fatal to the triggering request; the caller resets to its loading
	// state and re-routes the learner, no automatic retry.
	ErrNoActiveSection = errors.New("no active section selected")

	ErrSessionNotFound  = errors.New("quiz session not found")
	ErrQuestionNotFound = errors.New("question not found on the loaded page")
	ErrQuizCompleted    = errors.New("quiz already completed")

	// Submission errors
	ErrSubmitInFlight     = errors.New("a submission is already in flight")
	ErrRetakeLimitReached = errors.New("retake limit reached")
	ErrNotReviewable      = errors.New("no graded attempt to review")

	// Media capture errors; each maps to its own remediation message.
	ErrMediaPermissionDenied = errors.New("microphone permission denied")
	ErrMediaDeviceNotFound   = errors.New("no microphone device found")
	ErrMediaDeviceBusy       = errors.New("microphone device is busy")
	ErrMediaUnsupported      = errors.New("audio capture is not supported in this environment")

	// Soft failure: recognition downgrades silently to "no result".
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")
)

// TransportError wraps a failed exchange with the remote quiz API:
// network failure or non-2xx status. Recoverable, retry is learner-initiated.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: quiz api returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func NewTransportError(op string, status int, err error) *TransportError {
	return &TransportError{Op: op, Status: status, Err: err}
}

// ProtocolError wraps a malformed or non-JSON response body. Treated
// the same as a transport failure by callers.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func NewProtocolError(op string, err error) *ProtocolError {
	return &ProtocolError{Op: op, Err: err}
}

// IncompleteError is the local completeness gate refusing a submission.
// No network call has been made when this is returned.
type IncompleteError struct {
	Answered int
	Total    int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d out of %d questions answered", e.Answered, e.Total)
}

// RejectedError is a server-side business-rule refusal of a submission
// (success=false), e.g. the retake limit was reached mid-flight. Not a
// transport failure and never auto-retried.
type RejectedError struct {
	Message          string
	RetakesExhausted bool
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return "submission rejected: " + e.Message
	}
	return "submission rejected"
}

func (e *RejectedError) Unwrap() error {
	if e.RetakesExhausted {
		return ErrRetakeLimitReached
	}
	return nil
}

// ===== CLASSIFICATION HELPERS =====

// IsRecoverable reports whether the learner may simply retry the action.
func IsRecoverable(err error) bool {
	var te *TransportError
	var pe *ProtocolError
	return errors.As(err, &te) || errors.As(err, &pe)
}

// IsFatalToRequest reports whether the error must replace the quiz body
// with an error state instead of a notification.
func IsFatalToRequest(err error) bool {
	return errors.Is(err, ErrNoActiveSection)
}

// IsMediaError reports whether the error belongs to the device
// acquisition family.
func IsMediaError(err error) bool {
	return errors.Is(err, ErrMediaPermissionDenied) ||
		errors.Is(err, ErrMediaDeviceNotFound) ||
		errors.Is(err, ErrMediaDeviceBusy) ||
		errors.Is(err, ErrMediaUnsupported)
}

// MediaRemediation returns the user-facing remediation text for a media
// acquisition failure, or an empty string for non-media errors.
func MediaRemediation(err error) string {
	switch {
	case errors.Is(err, ErrMediaPermissionDenied):
		return "Microphone access was denied. Allow microphone access in your browser settings and try again."
	case errors.Is(err, ErrMediaDeviceNotFound):
		return "No microphone was found. Connect a microphone and try again."
	case errors.Is(err, ErrMediaDeviceBusy):
		return "Your microphone is in use by another application. Close it and try again."
	case errors.Is(err, ErrMediaUnsupported):
		return "Audio recording is not supported in this browser. Try a different browser."
	default:
		return ""
	}
}
