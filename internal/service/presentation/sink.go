// Package presentation owns the UI state. Capture and submission report to
// the Sink; renderers subscribe to snapshots of it.
package presentation

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"voice-query-client/internal/models"
	"voice-query-client/internal/observability/logging"
	"voice-query-client/internal/observability/metrics"
	"voice-query-client/internal/service/timer"
)

// Status texts.
const (
	StatusReady          = "Ready"
	StatusRecording      = "Recording..."
	StatusProcessing     = "Processing..."
	StatusProcessingFile = "Processing file..."
	StatusUploading      = "Uploading audio..."
	StatusDone           = "Done"
	StatusFailed         = "Failed to process audio"
	StatusMicUnavailable = "Microphone access denied or unavailable"
)

// Player plays a synthesized reply. Playback errors are never surfaced.
type Player interface {
	Play(url string) error
}

// Sink applies capture and submission outcomes to a UIState and fans out
// snapshots. The last write wins.
type Sink struct {
	baseURL string
	player  Player
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu     sync.Mutex
	state  models.UIState
	subs   map[int]chan models.UIState
	nextID int
}

// NewSink creates a sink that resolves audio URLs against baseURL.
func NewSink(baseURL string, player Player) *Sink {
	return &Sink{
		baseURL: strings.TrimRight(baseURL, "/"),
		player:  player,
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("presentation"),
		state: models.UIState{
			Status:        StatusReady,
			Timer:         timer.Zero,
			RecordEnabled: true,
		},
		subs: make(map[int]chan models.UIState),
	}
}

// Snapshot returns a copy of the current state.
func (s *Sink) Snapshot() models.UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives the current state and then every
// change. Slow readers only see the latest snapshot. Call the returned
// function to unsubscribe.
func (s *Sink) Subscribe() (<-chan models.UIState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan models.UIState, 1)
	ch <- s.state
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// ResolveAudioURL prefixes a path-absolute audio URL with the base address.
func (s *Sink) ResolveAudioURL(audioURL string) string {
	return s.baseURL + audioURL
}

// CaptureStarted: recording is running.
func (s *Sink) CaptureStarted() {
	s.update(func(st *models.UIState) {
		st.Status = StatusRecording
		st.RecordEnabled = false
		st.StopEnabled = true
	})
}

// CaptureStopped: recording ended and the payload is on its way.
func (s *Sink) CaptureStopped() {
	s.update(func(st *models.UIState) {
		st.Status = StatusProcessing
		st.RecordEnabled = true
		st.StopEnabled = false
		st.Timer = timer.Zero
	})
}

// CaptureFailed: the device could not be opened or was lost.
func (s *Sink) CaptureFailed(err error) {
	s.logger.Debug().Err(err).Msg("Capture failed")
	s.update(func(st *models.UIState) {
		st.Status = StatusMicUnavailable
		st.RecordEnabled = true
		st.StopEnabled = false
		st.Timer = timer.Zero
	})
}

// FileSelected: a user file is about to be submitted.
func (s *Sink) FileSelected() {
	s.update(func(st *models.UIState) { st.Status = StatusProcessingFile })
}

// Uploading: the request is about to be sent.
func (s *Sink) Uploading() {
	s.update(func(st *models.UIState) { st.Status = StatusUploading })
}

// Succeeded shows the result, starts playback of the reply if there is one
// and finally reports Done.
func (s *Sink) Succeeded(result models.ProcessingResult) {
	var src string
	if result.HasAudio() {
		src = s.ResolveAudioURL(result.AudioURL)
	}

	s.update(func(st *models.UIState) {
		st.Transcript = result.Transcript
		st.Answer = result.Answer
		if src != "" {
			st.AudioSource = src
		}
	})

	if src != "" && s.player != nil {
		err := s.player.Play(src)
		s.metrics.RecordPlayback(err)
		if err != nil {
			s.logger.Debug().Err(err).Str("src", src).Msg("Playback rejected")
		}
	}

	s.update(func(st *models.UIState) { st.Status = StatusDone })
}

// Failed reports a failed submission. Transcript, answer and audio source
// keep their previous values.
func (s *Sink) Failed(err error) {
	s.logger.Debug().Err(err).Msg("Submission failed")
	s.update(func(st *models.UIState) { st.Status = StatusFailed })
}

// SetTimer updates the elapsed time display.
func (s *Sink) SetTimer(text string) {
	s.update(func(st *models.UIState) { st.Timer = text })
}

func (s *Sink) update(fn func(st *models.UIState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state
	fn(&s.state)
	if s.state == before {
		return
	}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state
	}
}
