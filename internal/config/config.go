package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the processing service address baked in at build time:
//
//	go build -ldflags "-X voice-query-client/internal/config.DefaultBaseURL=https://api.example.com"
var DefaultBaseURL = "http://127.0.0.1:8000"

// Config is the complete client configuration.
type Config struct {
	Service       ServiceConfig       `yaml:"service" toml:"service"`
	Capture       CaptureConfig       `yaml:"capture" toml:"capture"`
	Submission    SubmissionConfig    `yaml:"submission" toml:"submission"`
	Playback      PlaybackConfig      `yaml:"playback" toml:"playback"`
	Kafka         KafkaConfig         `yaml:"kafka" toml:"kafka"`
	HTTP          HTTPConfig          `yaml:"http" toml:"http"`
	Notify        NotifyConfig        `yaml:"notify" toml:"notify"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
}

type ServiceConfig struct {
	BaseURL   string `yaml:"base_url" toml:"base_url"`
	Principal string `yaml:"principal" toml:"principal"`
}

// CaptureConfig selects the recording device and bounds a session.
type CaptureConfig struct {
	Device        string        `yaml:"device" toml:"device"` // command, file or portaudio
	Command       []string      `yaml:"command" toml:"command"`
	File          string        `yaml:"file" toml:"file"`
	MediaType     string        `yaml:"media_type" toml:"media_type"`
	ChunkBytes    int           `yaml:"chunk_bytes" toml:"chunk_bytes"`
	ChunkInterval time.Duration `yaml:"chunk_interval" toml:"chunk_interval"`
	StopGrace     time.Duration `yaml:"stop_grace" toml:"stop_grace"`
	SampleRate    int           `yaml:"sample_rate" toml:"sample_rate"`
	Channels      int           `yaml:"channels" toml:"channels"`
	MaxAudioBytes int64         `yaml:"max_audio_bytes" toml:"max_audio_bytes"`
	MaxDuration   time.Duration `yaml:"max_duration" toml:"max_duration"`
}

type SubmissionConfig struct {
	Timeout   time.Duration `yaml:"timeout" toml:"timeout"` // 0 disables the client timeout
	UserAgent string        `yaml:"user_agent" toml:"user_agent"`
}

type PlaybackConfig struct {
	Enabled bool     `yaml:"enabled" toml:"enabled"`
	Command []string `yaml:"command" toml:"command"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled"`
	Brokers      []string `yaml:"brokers" toml:"brokers"`
	TopicResult  string   `yaml:"topic_result" toml:"topic_result"`
	TopicFailure string   `yaml:"topic_failure" toml:"topic_failure"`
	Principal    string   `yaml:"principal" toml:"principal"`
}

// HTTPConfig is the local control API used by `serve`.
type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type NotifyConfig struct {
	Desktop   bool `yaml:"desktop" toml:"desktop"`
	Clipboard bool `yaml:"clipboard" toml:"clipboard"`
}

type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"` // json or console
	LogFile   string `yaml:"log_file" toml:"log_file"`     // empty logs to stderr
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:   DefaultBaseURL,
			Principal: "voice-query-client",
		},
		Capture: CaptureConfig{
			Device: "command",
			Command: []string{
				"ffmpeg", "-hide_banner", "-loglevel", "error",
				"-f", "pulse", "-i", "default",
				"-c:a", "libopus", "-f", "webm", "-",
			},
			MediaType:     "audio/webm",
			ChunkBytes:    4096,
			ChunkInterval: 100 * time.Millisecond,
			StopGrace:     2 * time.Second,
			SampleRate:    16000,
			Channels:      1,
			MaxAudioBytes: 25 * 1024 * 1024,
			MaxDuration:   10 * time.Minute,
		},
		Submission: SubmissionConfig{
			UserAgent: "voice-query-client",
		},
		Playback: PlaybackConfig{
			Enabled: true,
			Command: []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "error"},
		},
		Kafka: KafkaConfig{
			TopicResult:  "voicequery.submission.result",
			TopicFailure: "voicequery.submission.failure",
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8090",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Load builds the configuration from defaults, the optional file at path
// (.yaml, .yml or .toml) and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		_, err = toml.Decode(string(data), c)
	default:
		return fmt.Errorf("unsupported config file type %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Service.BaseURL = envOrDefault("VQ_BASE_URL", c.Service.BaseURL)
	c.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", c.Service.Principal)

	c.Capture.Device = envOrDefault("CAPTURE_DEVICE", c.Capture.Device)
	c.Capture.Command = envOrDefaultFields("CAPTURE_COMMAND", c.Capture.Command)
	c.Capture.File = envOrDefault("CAPTURE_FILE", c.Capture.File)
	c.Capture.MediaType = envOrDefault("CAPTURE_MEDIA_TYPE", c.Capture.MediaType)
	c.Capture.MaxAudioBytes = envOrDefaultInt64("CAPTURE_MAX_AUDIO_BYTES", c.Capture.MaxAudioBytes)
	c.Capture.MaxDuration = envOrDefaultDuration("CAPTURE_MAX_DURATION", c.Capture.MaxDuration)
	c.Capture.SampleRate = envOrDefaultInt("CAPTURE_SAMPLE_RATE", c.Capture.SampleRate)

	c.Submission.Timeout = envOrDefaultDuration("SUBMISSION_TIMEOUT", c.Submission.Timeout)

	c.Playback.Enabled = envOrDefaultBool("PLAYBACK_ENABLED", c.Playback.Enabled)
	c.Playback.Command = envOrDefaultFields("PLAYBACK_COMMAND", c.Playback.Command)

	c.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = envOrDefaultList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.TopicResult = envOrDefault("KAFKA_TOPIC_RESULT", c.Kafka.TopicResult)
	c.Kafka.TopicFailure = envOrDefault("KAFKA_TOPIC_FAILURE", c.Kafka.TopicFailure)
	c.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", c.Kafka.Principal)

	c.HTTP.Addr = envOrDefault("HTTP_ADDR", c.HTTP.Addr)

	c.Notify.Desktop = envOrDefaultBool("NOTIFY_DESKTOP", c.Notify.Desktop)
	c.Notify.Clipboard = envOrDefaultBool("NOTIFY_CLIPBOARD", c.Notify.Clipboard)

	c.Observability.LogLevel = envOrDefault("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = envOrDefault("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.LogFile = envOrDefault("LOG_FILE", c.Observability.LogFile)
}

func (c *Config) normalize() {
	c.Service.BaseURL = strings.TrimRight(strings.TrimSpace(c.Service.BaseURL), "/")
	if c.Kafka.Principal == "" {
		c.Kafka.Principal = c.Service.Principal
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Service.Validate(); err != nil {
		return fmt.Errorf("service config: %w", err)
	}
	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}
	if err := c.Submission.Validate(); err != nil {
		return fmt.Errorf("submission config: %w", err)
	}
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka config: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}
	return nil
}

func (s *ServiceConfig) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", s.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host: %q", s.BaseURL)
	}
	return nil
}

func (c *CaptureConfig) Validate() error {
	switch c.Device {
	case "command":
		if len(c.Command) == 0 {
			return fmt.Errorf("command cannot be empty for the command device")
		}
	case "file":
		if c.File == "" {
			return fmt.Errorf("file cannot be empty for the file device")
		}
	case "portaudio":
		if c.SampleRate < 8000 {
			return fmt.Errorf("sample_rate must be at least 8000, got %d", c.SampleRate)
		}
		if c.Channels < 1 || c.Channels > 2 {
			return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
		}
	default:
		return fmt.Errorf("unknown device %q", c.Device)
	}
	if c.ChunkBytes < 1 {
		return fmt.Errorf("chunk_bytes must be positive, got %d", c.ChunkBytes)
	}
	if c.MaxAudioBytes < 0 {
		return fmt.Errorf("max_audio_bytes cannot be negative, got %d", c.MaxAudioBytes)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max_duration cannot be negative, got %v", c.MaxDuration)
	}
	return nil
}

func (s *SubmissionConfig) Validate() error {
	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %v", s.Timeout)
	}
	return nil
}

func (p *PlaybackConfig) Validate() error {
	if p.Enabled && len(p.Command) == 0 {
		return fmt.Errorf("command cannot be empty when playback is enabled")
	}
	return nil
}

func (k *KafkaConfig) Validate() error {
	if !k.Enabled {
		return nil
	}
	if len(k.Brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty when kafka is enabled")
	}
	if k.TopicResult == "" || k.TopicFailure == "" {
		return fmt.Errorf("topic_result and topic_failure are required when kafka is enabled")
	}
	return nil
}

func (h *HTTPConfig) Validate() error {
	if h.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	return nil
}

func (o *ObservabilityConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(o.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if o.LogFormat != "json" && o.LogFormat != "console" {
		return fmt.Errorf("log_format must be json or console, got %q", o.LogFormat)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultList splits a comma separated value.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// envOrDefaultFields splits a command line on whitespace.
func envOrDefaultFields(key string, def []string) []string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return strings.Fields(v)
	}
	return def
}
