//go:build portaudio

package device

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"voice-query-client/internal/service/capture"
)

const framesPerBuffer = 1024

func init() {
	Register(KindPortAudio, func(cfg Config) (capture.Device, error) {
		return NewPortAudio(cfg.SampleRate, cfg.Channels), nil
	})
}

// PortAudio records 16-bit PCM from the default input and delivers it as a
// single WAV chunk when stopped.
type PortAudio struct {
	rate     int
	channels int
}

// NewPortAudio creates a device for the default PortAudio input.
func NewPortAudio(rate, channels int) *PortAudio {
	if rate <= 0 {
		rate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return &PortAudio{rate: rate, channels: channels}
}

func (p *PortAudio) Name() string      { return KindPortAudio }
func (p *PortAudio) MediaType() string { return "audio/wav" }

func (p *PortAudio) Open(ctx context.Context) (capture.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	in := make([]int16, framesPerBuffer*p.channels)
	stream, err := portaudio.OpenDefaultStream(p.channels, 0, float64(p.rate), framesPerBuffer, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	h := &portAudioHandle{
		device: p,
		stream: stream,
		in:     in,
		events: make(chan capture.Event, 2),
		stop:   make(chan struct{}),
	}
	go h.run()
	return h, nil
}

type portAudioHandle struct {
	device *PortAudio
	stream *portaudio.Stream
	in     []int16
	events chan capture.Event
	stop   chan struct{}
	once   sync.Once
}

func (h *portAudioHandle) Events() <-chan capture.Event { return h.events }

func (h *portAudioHandle) Stop() error {
	h.once.Do(func() { close(h.stop) })
	return nil
}

func (h *portAudioHandle) run() {
	defer close(h.events)

	var samples []int16
	var readErr error
Loop:
	for {
		select {
		case <-h.stop:
			break Loop
		default:
		}
		if err := h.stream.Read(); err != nil {
			readErr = err
			break
		}
		samples = append(samples, h.in...)
	}

	_ = h.stream.Stop()
	_ = h.stream.Close()
	portaudio.Terminate()

	if readErr != nil {
		h.events <- capture.Failure(fmt.Errorf("read input stream: %w", readErr))
		return
	}

	data, err := encodeWAV(samples, h.device.rate, h.device.channels)
	if err != nil {
		h.events <- capture.Failure(err)
		return
	}
	h.events <- capture.Chunk(data)
	h.events <- capture.Finalize()
}

// encodeWAV needs a seekable writer for the header sizes, hence the temp file.
func encodeWAV(samples []int16, rate, channels int) ([]byte, error) {
	f, err := os.CreateTemp("", "voice-query-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return os.ReadFile(f.Name())
}
