// Package schema checks outcome events before they leave the process.
package schema

import (
	"errors"
	"fmt"

	"voice-query-client/internal/models"
)

// ErrInvalidEvent is wrapped by every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

var failureKinds = map[string]bool{
	"status":    true,
	"network":   true,
	"malformed": true,
}

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks the required envelope fields of an outcome event.
func (v *Validator) Validate(event any) error {
	switch e := event.(type) {
	case *models.SubmissionSucceeded:
		if e == nil {
			return fmt.Errorf("%w: nil event", ErrInvalidEvent)
		}
		if err := envelope(e.EventType, models.EventSubmissionSucceeded, e.EventID, e.AttemptID, e.Timestamp); err != nil {
			return err
		}
	case *models.SubmissionFailed:
		if e == nil {
			return fmt.Errorf("%w: nil event", ErrInvalidEvent)
		}
		if err := envelope(e.EventType, models.EventSubmissionFailed, e.EventID, e.AttemptID, e.Timestamp); err != nil {
			return err
		}
		if !failureKinds[e.Kind] {
			return fmt.Errorf("%w: unknown failure kind %q", ErrInvalidEvent, e.Kind)
		}
		if e.Error == "" {
			return fmt.Errorf("%w: missing error", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidEvent, event)
	}
	return nil
}

func envelope(eventType, want, eventID string, attemptID uint64, timestamp int64) error {
	switch {
	case eventType != want:
		return fmt.Errorf("%w: eventType %q, expected %q", ErrInvalidEvent, eventType, want)
	case eventID == "":
		return fmt.Errorf("%w: missing eventId", ErrInvalidEvent)
	case attemptID == 0:
		return fmt.Errorf("%w: missing attemptId", ErrInvalidEvent)
	case timestamp <= 0:
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	return nil
}
