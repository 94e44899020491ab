package schema

import (
	"errors"
	"testing"

	"voice-query-client/internal/models"
)

func validSucceeded() *models.SubmissionSucceeded {
	return &models.SubmissionSucceeded{
		EventType: models.EventSubmissionSucceeded,
		EventID:   "evt-1",
		AttemptID: 1,
		Timestamp: 1700000000000,
	}
}

func validFailed() *models.SubmissionFailed {
	return &models.SubmissionFailed{
		EventType: models.EventSubmissionFailed,
		EventID:   "evt-2",
		AttemptID: 2,
		Kind:      "status",
		Error:     "processing service returned status 500",
		Timestamp: 1700000000000,
	}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   any
		wantErr bool
	}{
		{"succeeded", validSucceeded(), false},
		{"failed", validFailed(), false},
		{"wrong event type", func() any { e := validSucceeded(); e.EventType = models.EventSubmissionFailed; return e }(), true},
		{"missing event id", func() any { e := validSucceeded(); e.EventID = ""; return e }(), true},
		{"missing attempt", func() any { e := validFailed(); e.AttemptID = 0; return e }(), true},
		{"missing timestamp", func() any { e := validFailed(); e.Timestamp = 0; return e }(), true},
		{"unknown kind", func() any { e := validFailed(); e.Kind = "timeout"; return e }(), true},
		{"missing error", func() any { e := validFailed(); e.Error = ""; return e }(), true},
		{"nil succeeded", (*models.SubmissionSucceeded)(nil), true},
		{"unsupported", map[string]string{"text": "hi"}, true},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Errorf("expected ErrInvalidEvent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
