package submission

import (
	"errors"
	"fmt"
)

// Failure kinds reported in metrics and outcome events.
const (
	KindStatus    = "status"
	KindNetwork   = "network"
	KindMalformed = "malformed"
)

// ErrSuperseded is returned for an attempt whose outcome was dropped because
// a newer submission started while it was in flight.
var ErrSuperseded = errors.New("submission superseded by a newer attempt")

// SubmissionError reports a failed round trip to the processing service.
// StatusCode is set for non-2xx responses and zero otherwise.
type SubmissionError struct {
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("processing service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a 2xx body that is not a processing result.
// It is always wrapped in a SubmissionError.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a submission failure.
func ErrorKind(err error) string {
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return KindMalformed
	}
	var subErr *SubmissionError
	if errors.As(err, &subErr) && subErr.StatusCode != 0 {
		return KindStatus
	}
	return KindNetwork
}

// StatusCode extracts the HTTP status of a failed submission, or zero.
func StatusCode(err error) int {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr.StatusCode
	}
	return 0
}
