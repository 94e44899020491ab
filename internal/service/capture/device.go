// Package capture owns the recording lifecycle: opening a capture device,
// buffering the chunks it delivers and turning a finalized session into an
// AudioPayload for submission.
package capture

import (
	"context"
	"errors"
	"fmt"
)

// EventKind identifies an entry in a device event stream.
type EventKind int

const (
	// EventChunk carries encoded audio. Empty chunks are ignored.
	EventChunk EventKind = iota
	// EventFinalize ends the stream after the last chunk.
	EventFinalize
	// EventError ends the stream because the device failed mid-recording.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventFinalize:
		return "finalize"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", k)
	}
}

// Event is one entry of the ordered stream a Handle delivers.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// Chunk builds a chunk event.
func Chunk(data []byte) Event { return Event{Kind: EventChunk, Data: data} }

// Finalize builds the terminating event of a clean stream.
func Finalize() Event { return Event{Kind: EventFinalize} }

// Failure builds the terminating event of a failed stream.
func Failure(err error) Event { return Event{Kind: EventError, Err: err} }

// Device is a source of encoded audio, e.g. a microphone behind an external
// recorder or PortAudio.
type Device interface {
	// Name identifies the device in logs and metrics.
	Name() string

	// MediaType is the container the device encodes to, e.g. audio/webm.
	MediaType() string

	// Open acquires the device. An error means the capability is unavailable
	// (permission denied, no such device, recorder missing).
	Open(ctx context.Context) (Handle, error)
}

// Handle is an open capture stream, exclusively owned by one session.
//
// Events delivers chunks in capture order and is terminated by exactly one
// finalize or error event, after which the channel is closed. Stop asks the
// device to flush and finalize; it does not block until the finalize event.
type Handle interface {
	Events() <-chan Event
	Stop() error
}

// ErrStreamClosed is reported when a device closes its event stream without
// a finalize or error event.
var ErrStreamClosed = errors.New("capture stream closed without finalize")

// ErrAlreadyRecording is returned by Start while a session is recording.
var ErrAlreadyRecording = errors.New("already recording")

// CapabilityError is raised when the capture device cannot be opened or is
// lost while recording.
type CapabilityError struct {
	Device string
	Err    error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capture device %s unavailable: %v", e.Device, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}
