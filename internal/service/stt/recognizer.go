// Package stt defines the interface for continuous speech recognition engines.
//
// The tracker does not process audio. A Recognizer is a black box that, once
// started, emits start, result, error and end events to a Listener. Real
// engines end their sessions on their own from time to time; restarting them
// is the supervisor's job, not the recognizer's.
package stt

import (
	"context"
	"fmt"
)

// ErrorCode identifies the class of a recognition error.
type ErrorCode string

const (
	// ErrorNetwork - transient connectivity loss, the engine recovers on its own.
	ErrorNetwork ErrorCode = "network"
	// ErrorAudioCapture - no usable microphone or audio source.
	ErrorAudioCapture ErrorCode = "audio-capture"
	// ErrorNotAllowed - the user denied microphone access.
	ErrorNotAllowed ErrorCode = "not-allowed"
	// ErrorServiceNotAllowed - the recognition service refused the request.
	ErrorServiceNotAllowed ErrorCode = "service-not-allowed"
	// ErrorOther - any other engine error.
	ErrorOther ErrorCode = "other"
)

// ParseErrorCode maps an engine error string to an ErrorCode.
// Unknown values map to ErrorOther.
func ParseErrorCode(s string) ErrorCode {
	switch c := ErrorCode(s); c {
	case ErrorNetwork, ErrorAudioCapture, ErrorNotAllowed, ErrorServiceNotAllowed:
		return c
	default:
		return ErrorOther
	}
}

// Options configures a recognition session.
type Options struct {
	Locale         string // BCP-47 language tag, e.g. "en-US"
	InterimResults bool   // Emit provisional results while the speaker talks
	Continuous     bool   // Keep listening across pauses
}

// DefaultOptions returns the options a teleprompter session runs with.
func DefaultOptions() Options {
	return Options{
		Locale:         "en-US",
		InterimResults: true,
		Continuous:     true,
	}
}

// Error is an error event reported by a recognizer.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("speech recognition error: %s", e.Code)
	}
	return fmt.Sprintf("speech recognition error: %s: %s", e.Code, e.Message)
}

// Listener receives events from a Recognizer.
type Listener interface {
	// OnStart is called when the engine begins listening.
	OnStart()

	// OnResult is called with the highest-ranked transcript of a result.
	// isFinal distinguishes committed results from interim ones.
	OnResult(transcript string, isFinal bool)

	// OnError is called when the engine reports an error.
	OnError(err *Error)

	// OnEnd is called when the engine stops listening, whether asked to or not.
	OnEnd()
}

// Recognizer defines the interface for speech recognition engines
// (a platform recognizer, Google Cloud Speech, a scripted fake).
//
// Events must be delivered one at a time and never from inside Start or Stop:
// callers may hold locks while calling either.
type Recognizer interface {
	// Authorize asks for microphone (or service) access.
	// It returns false without error when access was denied.
	Authorize(ctx context.Context) (bool, error)

	// Start begins a recognition session that reports to l.
	Start(ctx context.Context, opts Options, l Listener) error

	// Stop asks the engine to end the current session. The engine answers
	// with an OnEnd event.
	Stop() error
}
