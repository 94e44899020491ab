package capture

import (
	"bytes"
	"sync"
	"time"

	"voice-query-client/internal/models"
)

// Session is one recording: the device handle plus the chunks it delivered.
type Session struct {
	id        string
	mediaType string
	handle    Handle
	lifecycle *Lifecycle
	startedAt time.Time

	mu     sync.Mutex
	chunks [][]byte
	bytes  int64
}

// NewSession creates a session in RECORDING state with an empty chunk sequence.
func NewSession(id, mediaType string, handle Handle) *Session {
	return &Session{
		id:        id,
		mediaType: mediaType,
		handle:    handle,
		lifecycle: NewLifecycle(),
		startedAt: time.Now(),
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// State returns the session lifecycle state.
func (s *Session) State() State {
	return s.lifecycle.State()
}

// Append stores a copy of data at the end of the chunk sequence.
// Empty chunks and chunks arriving after the session ended are ignored.
func (s *Session) Append(data []byte) bool {
	if len(data) == 0 || !s.lifecycle.AcceptsChunks() {
		return false
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)

	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.bytes += int64(len(chunk))
	s.mu.Unlock()
	return true
}

// Len returns the number of buffered chunks.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Bytes returns the number of buffered bytes.
func (s *Session) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Elapsed returns the time since the session started.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}

// Payload concatenates the chunks in delivery order. An empty session yields
// an empty, non-nil payload.
func (s *Session) Payload() models.AudioPayload {
	s.mu.Lock()
	data := bytes.Join(s.chunks, nil)
	s.mu.Unlock()

	if data == nil {
		data = []byte{}
	}
	return models.AudioPayload{
		Data:      data,
		MediaType: s.mediaType,
		Source:    models.SourceRecording,
	}
}

// discard releases the buffered chunks of a dropped session.
func (s *Session) discard() {
	s.mu.Lock()
	s.chunks = nil
	s.mu.Unlock()
}
