// Package device provides the capture devices the client can record from:
// an external recorder process, an audio file replayed in chunks and, when
// built with the portaudio tag, the default PortAudio input.
package device

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"voice-query-client/internal/service/capture"
)

// Device kinds.
const (
	KindCommand   = "command"
	KindFile      = "file"
	KindPortAudio = "portaudio"
)

// DefaultRecorder records the default PulseAudio source as webm on stdout.
var DefaultRecorder = []string{
	"ffmpeg", "-hide_banner", "-loglevel", "error",
	"-f", "pulse", "-i", "default",
	"-c:a", "libopus", "-f", "webm", "-",
}

// Config selects and parameterizes a capture device.
type Config struct {
	Kind string

	// command
	Command   []string
	StopGrace time.Duration

	// file
	Path          string
	ChunkInterval time.Duration

	// portaudio
	SampleRate int
	Channels   int

	MediaType  string
	ChunkBytes int
}

// DefaultConfig returns the recorder-process configuration.
func DefaultConfig() Config {
	return Config{
		Kind:          KindCommand,
		Command:       DefaultRecorder,
		StopGrace:     2 * time.Second,
		ChunkInterval: 100 * time.Millisecond,
		SampleRate:    16000,
		Channels:      1,
		MediaType:     "audio/webm",
		ChunkBytes:    4096,
	}
}

// Factory builds a device from its configuration.
type Factory func(cfg Config) (capture.Device, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		KindCommand: func(cfg Config) (capture.Device, error) {
			return NewCommand(cfg.Command, cfg.MediaType, cfg.ChunkBytes, cfg.StopGrace)
		},
		KindFile: func(cfg Config) (capture.Device, error) {
			if cfg.Path == "" {
				return nil, fmt.Errorf("file device requires a path")
			}
			return NewFile(cfg.Path, cfg.MediaType, cfg.ChunkBytes, cfg.ChunkInterval), nil
		},
	}
)

// Register makes a device kind available to New. Optional devices register
// themselves from init.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = f
}

// Kinds returns the registered device kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds the device selected by cfg.Kind.
func New(cfg Config) (capture.Device, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown capture device %q (available: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(cfg)
}
