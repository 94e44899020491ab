package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"voice-query-client/internal/config"
	"voice-query-client/internal/events"
	"voice-query-client/internal/notify"
	"voice-query-client/internal/observability/logging"
	"voice-query-client/internal/service/capture"
	"voice-query-client/internal/service/capture/device"
	"voice-query-client/internal/service/playback"
	"voice-query-client/internal/service/presentation"
	"voice-query-client/internal/service/submission"
	"voice-query-client/internal/service/timer"
)

// Application holds the wired client: capture feeds submission, both report
// to the presentation sink.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Sink      *presentation.Sink
	Timer     *timer.Display
	Client    *submission.Client
	Pipeline  *submission.Pipeline
	Capture   *capture.Controller
	Publisher *events.Publisher
	Notifier  *notify.Notifier

	player  *playback.Command
	logFile *os.File
	cancel  context.CancelFunc
}

// New configures logging and constructs every component from cfg.
func New(cfg *config.Config) (*Application, error) {
	a := &Application{Cfg: cfg}

	logCfg := logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	}
	if path := cfg.Observability.LogFile; path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logCfg.Output = f
	}
	logging.Init(logCfg)
	a.Logger = logging.Logger().With().
		Str("service", "voice-query-client").
		Str("component", "application").
		Logger()

	var player presentation.Player = playback.Noop{}
	if cfg.Playback.Enabled {
		a.player = playback.NewCommand(cfg.Playback.Command)
		player = a.player
	}
	a.Sink = presentation.NewSink(cfg.Service.BaseURL, player)
	a.Timer = timer.New(a.Sink.SetTimer)

	client, err := submission.NewClient(submission.Config{
		BaseURL:   cfg.Service.BaseURL,
		Timeout:   cfg.Submission.Timeout,
		UserAgent: cfg.Submission.UserAgent,
	})
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("processing client: %w", err)
	}
	a.Client = client

	a.Publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicResult:  cfg.Kafka.TopicResult,
		TopicFailure: cfg.Kafka.TopicFailure,
		Principal:    cfg.Kafka.Principal,
	})
	a.Pipeline = submission.NewPipeline(a.Client, a.Sink, a.Publisher)

	dev, err := device.New(DeviceConfig(cfg.Capture))
	if err != nil {
		a.Publisher.Close()
		a.closeLog()
		return nil, fmt.Errorf("capture device: %w", err)
	}
	a.Capture = capture.NewControllerWithLimits(dev, a.Timer, a.Pipeline, a.Sink, capture.Limits{
		MaxAudioBytes: cfg.Capture.MaxAudioBytes,
		MaxDuration:   cfg.Capture.MaxDuration,
	})

	a.Notifier = notify.New(notify.Config{
		Desktop:   cfg.Notify.Desktop,
		Clipboard: cfg.Notify.Clipboard,
	})

	a.Logger.Info().
		Str("baseUrl", cfg.Service.BaseURL).
		Str("device", dev.Name()).
		Bool("kafka", a.Publisher.Enabled()).
		Bool("playback", cfg.Playback.Enabled).
		Msg("Voice query client created")
	return a, nil
}

// DeviceConfig maps the capture section onto a device configuration.
func DeviceConfig(c config.CaptureConfig) device.Config {
	return device.Config{
		Kind:          c.Device,
		Command:       c.Command,
		StopGrace:     c.StopGrace,
		Path:          c.File,
		ChunkInterval: c.ChunkInterval,
		SampleRate:    c.SampleRate,
		Channels:      c.Channels,
		MediaType:     c.MediaType,
		ChunkBytes:    c.ChunkBytes,
	}
}

// Start launches background work that is not tied to a request.
func (a *Application) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Notifier.Enabled() {
		states, unsubscribe := a.Sink.Subscribe()
		go func() {
			defer unsubscribe()
			a.Notifier.Watch(ctx, states)
		}()
	}

	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Voice query client starting")
	return nil
}

// WaitPlayback blocks until a reply started by the player has finished.
func (a *Application) WaitPlayback() {
	if a.player != nil {
		a.player.Wait()
	}
}

// Shutdown stops recording, cancels the submission in flight and releases
// the player and Kafka writers.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Voice query client shutting down")

	if a.cancel != nil {
		a.cancel()
	}
	a.Capture.Close()
	a.Pipeline.Close()
	if a.player != nil {
		a.player.Close()
	}
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Kafka publisher close failed")
	}
	a.closeLog()
}

func (a *Application) closeLog() {
	if a.logFile != nil {
		logging.Init(logging.Config{
			Level:  a.Cfg.Observability.LogLevel,
			Format: a.Cfg.Observability.LogFormat,
		})
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
