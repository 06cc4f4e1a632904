package supervisor

import (
	"errors"
	"fmt"

	"teleprompter-tracker/internal/service/stt"
)

// Fatal conditions. A run that surfaces one of these has been stopped.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrAudioCapture     = errors.New("audio capture unavailable")
	ErrRestartLoop      = errors.New("speech recognition restart loop")
	ErrRestartFailed    = errors.New("speech recognition restart failed")
)

// ErrAlreadyRunning is returned by Start while a run is active.
var ErrAlreadyRunning = errors.New("supervisor already running")

// EngineError is an error event reported by the recognition engine.
type EngineError struct {
	Code    stt.ErrorCode
	Message string
}

// NewEngineError converts a recognizer error event.
func NewEngineError(e *stt.Error) *EngineError {
	return &EngineError{Code: e.Code, Message: e.Message}
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("speech engine error: %s", e.Code)
	}
	return fmt.Sprintf("speech engine error: %s: %s", e.Code, e.Message)
}

// Fatal returns true if the error ends the run.
func (e *EngineError) Fatal() bool {
	return e.Unwrap() != nil
}

// Transient returns true for errors the engine recovers from on its own.
func (e *EngineError) Transient() bool {
	return e.Code == stt.ErrorNetwork
}

// Unwrap exposes the fatal condition behind the code, if any.
func (e *EngineError) Unwrap() error {
	switch e.Code {
	case stt.ErrorAudioCapture:
		return ErrAudioCapture
	case stt.ErrorNotAllowed, stt.ErrorServiceNotAllowed:
		return ErrPermissionDenied
	default:
		return nil
	}
}

// IsFatal classifies an error surfaced by the supervisor.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrAudioCapture) ||
		errors.Is(err, ErrRestartLoop) ||
		errors.Is(err, ErrRestartFailed)
}
