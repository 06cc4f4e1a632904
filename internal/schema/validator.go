// Package schema validates tracker events before they leave the process.
package schema

import (
	"errors"
	"fmt"

	"teleprompter-tracker/internal/models"
)

// ErrInvalidEvent is wrapped by every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks an event produced by the tracker.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case models.PositionUpdated:
		return v.validatePosition(e)
	case *models.PositionUpdated:
		return v.validatePosition(*e)
	case models.SessionEvent:
		return v.validateSession(e)
	case *models.SessionEvent:
		return v.validateSession(*e)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidEvent, event)
	}
}

func (v *Validator) validatePosition(e models.PositionUpdated) error {
	if e.EventType != models.EventPositionUpdated {
		return invalid("unexpected event type %q", e.EventType)
	}
	if e.TrackerID == "" {
		return invalid("missing tracker id")
	}
	for name, idx := range map[string]int{"start": e.Start, "search": e.Search, "end": e.End, "bounds": e.Bounds} {
		if idx < -1 {
			return invalid("%s index %d out of range", name, idx)
		}
	}
	if e.Start >= 0 && e.End >= 0 && e.End < e.Start {
		return invalid("end %d before start %d", e.End, e.Start)
	}
	if e.Start >= 0 && e.Search >= 0 && e.Search < e.Start {
		return invalid("search %d before start %d", e.Search, e.Start)
	}
	return nil
}

func (v *Validator) validateSession(e models.SessionEvent) error {
	switch e.EventType {
	case models.EventSessionStarted, models.EventSessionEnded:
	case models.EventSessionError:
		if e.Error == "" {
			return invalid("error event without message")
		}
	default:
		return invalid("unexpected event type %q", e.EventType)
	}
	if e.TrackerID == "" {
		return invalid("missing tracker id")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...))
}
