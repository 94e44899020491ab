package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"voice-query-client/internal/service/capture"
)

const stderrTailBytes = 2048

// Command records by running an external encoder that writes the container
// stream to stdout, e.g. ffmpeg or arecord.
type Command struct {
	argv       []string
	mediaType  string
	chunkBytes int
	grace      time.Duration
}

// NewCommand creates a recorder-process device.
func NewCommand(argv []string, mediaType string, chunkBytes int, grace time.Duration) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("recorder command is empty")
	}
	if mediaType == "" {
		mediaType = "audio/webm"
	}
	if chunkBytes <= 0 {
		chunkBytes = 4096
	}
	if grace <= 0 {
		grace = 2 * time.Second
	}
	return &Command{argv: argv, mediaType: mediaType, chunkBytes: chunkBytes, grace: grace}, nil
}

func (c *Command) Name() string      { return KindCommand + ":" + c.argv[0] }
func (c *Command) MediaType() string { return c.mediaType }

// Open starts the recorder. A missing executable is reported here, so the
// capability error surfaces before any UI transition.
func (c *Command) Open(ctx context.Context) (capture.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Not CommandContext: ctx only bounds the open, the recorder outlives it.
	cmd := exec.Command(c.argv[0], c.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recorder stdout: %w", err)
	}
	tail := &tailWriter{max: stderrTailBytes}
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recorder %s: %w", c.argv[0], err)
	}

	h := &commandHandle{
		cmd:    cmd,
		tail:   tail,
		grace:  c.grace,
		events: make(chan capture.Event, 64),
	}
	go h.run(stdout, c.chunkBytes)
	return h, nil
}

type commandHandle struct {
	cmd    *exec.Cmd
	tail   *tailWriter
	grace  time.Duration
	events chan capture.Event

	mu      sync.Mutex
	stopped bool
	kill    *time.Timer
}

func (h *commandHandle) Events() <-chan capture.Event { return h.events }

// Stop interrupts the recorder so it flushes the container trailer, and
// kills it if it has not exited after the grace period.
func (h *commandHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return nil
	}
	h.stopped = true

	if err := h.cmd.Process.Signal(os.Interrupt); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		// Interrupt is unsupported on some platforms.
		if kerr := h.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			return fmt.Errorf("kill recorder: %w", kerr)
		}
		return nil
	}
	h.kill = time.AfterFunc(h.grace, func() {
		_ = h.cmd.Process.Kill()
	})
	return nil
}

func (h *commandHandle) run(stdout io.Reader, chunkBytes int) {
	defer close(h.events)

	buf := make([]byte, chunkBytes)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.events <- capture.Chunk(chunk)
		}
		if err != nil {
			break
		}
	}

	waitErr := h.cmd.Wait()

	h.mu.Lock()
	stopped := h.stopped
	if h.kill != nil {
		h.kill.Stop()
	}
	h.mu.Unlock()

	// After an interrupt the exit status is whatever the recorder uses for
	// SIGINT; the stream is complete either way.
	if waitErr == nil || stopped {
		h.events <- capture.Finalize()
		return
	}
	if msg := strings.TrimSpace(h.tail.String()); msg != "" {
		waitErr = fmt.Errorf("%w: %s", waitErr, msg)
	}
	h.events <- capture.Failure(fmt.Errorf("recorder exited: %w", waitErr))
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = w.buf[over:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}
