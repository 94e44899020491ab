package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voice-query-client/internal/models"
	"voice-query-client/internal/observability/logging"
	"voice-query-client/internal/observability/metrics"
)

// Limits bounds a single recording session. When a limit is reached the
// session is stopped as if the user pressed stop, and what was captured so
// far is submitted. Zero disables a limit.
type Limits struct {
	MaxAudioBytes int64         // Max buffered audio per session
	MaxDuration   time.Duration // Max session duration
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 25 * 1024 * 1024, // 25MB, well above ten minutes of opus in webm
		MaxDuration:   10 * time.Minute,
	}
}

// Timer is the elapsed-time display driven by the recording lifecycle.
type Timer interface {
	Start()
	Reset()
}

// Submitter receives the payload of every finalized session.
type Submitter interface {
	Submit(ctx context.Context, payload models.AudioPayload) (*models.ProcessingResult, error)
}

// Presenter receives capture lifecycle notifications.
type Presenter interface {
	CaptureStarted()
	CaptureStopped()
	CaptureFailed(err error)
}

// Controller drives recording sessions: Idle → Recording → Idle.
//
// Each session consumes its device event stream on its own goroutine. A
// finalize event turns the session into a payload that is handed to the
// Submitter; an error event drops the session and reports a CapabilityError.
// The timer is reset on every path that leaves Recording.
type Controller struct {
	device    Device
	timer     Timer
	submitter Submitter
	presenter Presenter
	limits    Limits
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	// ctx outlives the request that started a session; submissions run under it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	current  *Session
	starting bool
}

// NewController creates a controller with default session limits.
func NewController(device Device, timer Timer, submitter Submitter, presenter Presenter) *Controller {
	return NewControllerWithLimits(device, timer, submitter, presenter, DefaultLimits())
}

// NewControllerWithLimits creates a controller with custom session limits.
func NewControllerWithLimits(device Device, timer Timer, submitter Submitter, presenter Presenter, limits Limits) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		device:    device,
		timer:     timer,
		submitter: submitter,
		presenter: presenter,
		limits:    limits,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("capture"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State returns StateRecording while a session is capturing and StateIdle
// otherwise. A session waiting for its finalize event counts as idle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.State() == StateRecording {
		return StateRecording
	}
	return StateIdle
}

// Session returns the most recently started session, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Start opens the device and begins a new session with an empty chunk
// sequence. ctx only bounds the device open (permission prompt).
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.starting || (c.current != nil && c.current.State() == StateRecording) {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.starting = true
	c.mu.Unlock()

	handle, err := c.device.Open(ctx)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		c.mu.Unlock()
		capErr := &CapabilityError{Device: c.device.Name(), Err: err}
		c.metrics.RecordCaptureError(c.device.Name(), "open")
		c.logger.Warn().Err(err).Str("device", c.device.Name()).Msg("Capture device unavailable")
		c.presenter.CaptureFailed(capErr)
		return capErr
	}
	session := NewSession(uuid.NewString(), c.device.MediaType(), handle)
	c.current = session
	c.wg.Add(1)
	c.mu.Unlock()

	c.metrics.RecordRecordingStart()
	c.timer.Start()
	c.presenter.CaptureStarted()

	logger := logging.WithSession(session.ID(), c.device.Name())
	logger.Info().
		Str("mediaType", c.device.MediaType()).
		Msg("Recording started")

	go c.consume(session)
	return nil
}

// Stop asks the current session's device to finalize. It is a no-op unless
// a session is recording.
func (c *Controller) Stop() error {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	return c.stopSession(s, "user")
}

// Close cancels in-flight submissions, releases the device and waits for
// session goroutines to exit.
func (c *Controller) Close() {
	c.cancel()

	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s != nil && !s.State().IsTerminal() {
		if err := s.handle.Stop(); err != nil {
			c.logger.Debug().Err(err).Msg("Device stop during close failed")
		}
	}
	c.wg.Wait()
}

func (c *Controller) stopSession(s *Session, reason string) error {
	if _, err := s.lifecycle.Fire(TriggerStop); err != nil {
		return nil
	}

	// UI first: the finalize event may race ahead of the return from handle.Stop.
	if c.isCurrent(s) {
		c.timer.Reset()
		c.presenter.CaptureStopped()
	}

	logger := logging.WithSession(s.ID(), c.device.Name())
	logger.Info().
		Str("reason", reason).
		Int("chunks", s.Len()).
		Int64("bytes", s.Bytes()).
		Msg("Recording stop requested")

	if err := s.handle.Stop(); err != nil {
		return fmt.Errorf("stop capture device: %w", err)
	}
	return nil
}

func (c *Controller) consume(s *Session) {
	defer c.wg.Done()

	if c.limits.MaxDuration > 0 {
		t := time.AfterFunc(c.limits.MaxDuration, func() {
			if s.State() == StateRecording {
				c.metrics.RecordLimitExceeded("max_duration")
				_ = c.stopSession(s, "max duration reached")
			}
		})
		defer t.Stop()
	}

	events := s.handle.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				c.fail(s, ErrStreamClosed)
				return
			}
			switch ev.Kind {
			case EventChunk:
				if s.Append(ev.Data) {
					c.metrics.RecordChunk(len(ev.Data))
					c.checkBytes(s)
				}
			case EventFinalize:
				c.finalize(s)
				return
			case EventError:
				c.fail(s, ev.Err)
				return
			}
		case <-c.ctx.Done():
			c.drop(s)
			return
		}
	}
}

func (c *Controller) checkBytes(s *Session) {
	if c.limits.MaxAudioBytes <= 0 || s.State() != StateRecording {
		return
	}
	if n := s.Bytes(); n > c.limits.MaxAudioBytes {
		c.metrics.RecordLimitExceeded("max_audio_bytes")
		_ = c.stopSession(s, fmt.Sprintf("max audio bytes exceeded: %d > %d", n, c.limits.MaxAudioBytes))
	}
}

func (c *Controller) finalize(s *Session) {
	logger := logging.WithSession(s.ID(), c.device.Name())

	from, err := s.lifecycle.Fire(TriggerFinalize)
	if err != nil {
		logger.Warn().Err(err).Msg("Finalize ignored")
		return
	}
	payload := s.Payload()
	c.metrics.RecordRecordingEnd(true, s.Elapsed().Seconds())

	// The device ended on its own (track ended, file exhausted).
	if from == StateRecording && c.isCurrent(s) {
		c.timer.Reset()
		c.presenter.CaptureStopped()
	}

	logger.Info().
		Int("chunks", s.Len()).
		Int("payloadBytes", payload.Size()).
		Dur("duration", s.Elapsed().Round(time.Millisecond)).
		Msg("Recording finalized")

	if _, err := c.submitter.Submit(c.ctx, payload); err != nil {
		logger.Debug().Err(err).Msg("Submission of recording did not succeed")
	}
}

func (c *Controller) fail(s *Session, err error) {
	from, ferr := s.lifecycle.Fire(TriggerFail)
	if ferr != nil {
		return
	}
	s.discard()
	c.metrics.RecordRecordingEnd(false, s.Elapsed().Seconds())
	c.metrics.RecordCaptureError(c.device.Name(), "recording")

	capErr := &CapabilityError{Device: c.device.Name(), Err: err}
	logger := logging.WithSession(s.ID(), c.device.Name())
	logger.Warn().
		Err(err).
		Str("previousState", from.String()).
		Msg("Capture device lost - session DROPPED")

	if c.isCurrent(s) {
		c.timer.Reset()
		c.presenter.CaptureFailed(capErr)
	}
}

// drop discards a session cut short by Close.
func (c *Controller) drop(s *Session) {
	from, err := s.lifecycle.Fire(TriggerFail)
	if err != nil {
		return
	}
	s.discard()
	if from == StateRecording && c.isCurrent(s) {
		c.timer.Reset()
	}

	logger := logging.WithSession(s.ID(), c.device.Name())
	logger.Info().Str("previousState", from.String()).Msg("Session dropped on shutdown")
}

func (c *Controller) isCurrent(s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == s
}
