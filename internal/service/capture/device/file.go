package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"voice-query-client/internal/models"
	"voice-query-client/internal/service/capture"
)

// File replays an encoded audio file as a capture stream, one chunk per
// interval. It finalizes on EOF or when stopped, like a microphone track
// that ends.
type File struct {
	path       string
	mediaType  string
	chunkBytes int
	interval   time.Duration
}

// NewFile creates a file-backed device. An empty mediaType is derived from
// the file extension.
func NewFile(path, mediaType string, chunkBytes int, interval time.Duration) *File {
	if mediaType == "" {
		mediaType = models.MediaTypeFor(path)
	}
	if chunkBytes <= 0 {
		chunkBytes = 4096
	}
	return &File{path: path, mediaType: mediaType, chunkBytes: chunkBytes, interval: interval}
}

func (f *File) Name() string      { return KindFile }
func (f *File) MediaType() string { return f.mediaType }

func (f *File) Open(ctx context.Context) (capture.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	h := &fileHandle{
		events: make(chan capture.Event, 16),
		stop:   make(chan struct{}),
	}
	go h.run(file, f.chunkBytes, f.interval)
	return h, nil
}

type fileHandle struct {
	events chan capture.Event
	stop   chan struct{}
	once   sync.Once
}

func (h *fileHandle) Events() <-chan capture.Event { return h.events }

func (h *fileHandle) Stop() error {
	h.once.Do(func() { close(h.stop) })
	return nil
}

func (h *fileHandle) run(file *os.File, chunkBytes int, interval time.Duration) {
	defer close(h.events)
	defer file.Close()

	buf := make([]byte, chunkBytes)
	for {
		select {
		case <-h.stop:
			h.events <- capture.Finalize()
			return
		default:
		}

		n, err := file.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.events <- capture.Chunk(chunk)
		}
		if errors.Is(err, io.EOF) {
			h.events <- capture.Finalize()
			return
		}
		if err != nil {
			h.events <- capture.Failure(fmt.Errorf("read audio file: %w", err))
			return
		}

		if interval > 0 {
			select {
			case <-h.stop:
				h.events <- capture.Finalize()
				return
			case <-time.After(interval):
			}
		}
	}
}
