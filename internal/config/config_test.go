package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"VQ_BASE_URL", "SERVICE_PRINCIPAL",
	"CAPTURE_DEVICE", "CAPTURE_COMMAND", "CAPTURE_FILE", "CAPTURE_MEDIA_TYPE",
	"CAPTURE_MAX_AUDIO_BYTES", "CAPTURE_MAX_DURATION", "CAPTURE_SAMPLE_RATE",
	"SUBMISSION_TIMEOUT", "PLAYBACK_ENABLED", "PLAYBACK_COMMAND",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_RESULT", "KAFKA_TOPIC_FAILURE", "KAFKA_PRINCIPAL",
	"HTTP_ADDR", "NOTIFY_DESKTOP", "NOTIFY_CLIPBOARD", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected default base URL, got %s", cfg.Service.BaseURL)
	}
	if cfg.Service.Principal != "voice-query-client" {
		t.Errorf("expected default principal 'voice-query-client', got %s", cfg.Service.Principal)
	}
	if cfg.Capture.Device != "command" || cfg.Capture.Command[0] != "ffmpeg" {
		t.Errorf("expected ffmpeg command device, got %s %v", cfg.Capture.Device, cfg.Capture.Command)
	}
	if cfg.Capture.MediaType != "audio/webm" {
		t.Errorf("expected audio/webm, got %s", cfg.Capture.MediaType)
	}
	if cfg.Capture.MaxAudioBytes != 25*1024*1024 {
		t.Errorf("expected default max audio bytes 25MB, got %d", cfg.Capture.MaxAudioBytes)
	}
	if cfg.Capture.MaxDuration != 10*time.Minute {
		t.Errorf("expected default max duration 10m, got %v", cfg.Capture.MaxDuration)
	}
	if cfg.Submission.Timeout != 0 {
		t.Errorf("expected no submission timeout by default, got %v", cfg.Submission.Timeout)
	}
	if !cfg.Playback.Enabled {
		t.Error("expected playback enabled by default")
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled by default")
	}
	if cfg.Kafka.Principal != "voice-query-client" {
		t.Errorf("expected kafka principal to default to service principal, got %s", cfg.Kafka.Principal)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VQ_BASE_URL", "https://voice.example.com/")
	t.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	t.Setenv("CAPTURE_DEVICE", "file")
	t.Setenv("CAPTURE_FILE", "/tmp/question.webm")
	t.Setenv("CAPTURE_MAX_AUDIO_BYTES", "10485760")
	t.Setenv("CAPTURE_MAX_DURATION", "2m")
	t.Setenv("SUBMISSION_TIMEOUT", "45s")
	t.Setenv("PLAYBACK_ENABLED", "false")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.BaseURL != "https://voice.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Service.BaseURL)
	}
	if cfg.Service.Principal != "custom-principal" || cfg.Kafka.Principal != "custom-principal" {
		t.Errorf("unexpected principals: %s / %s", cfg.Service.Principal, cfg.Kafka.Principal)
	}
	if cfg.Capture.Device != "file" || cfg.Capture.File != "/tmp/question.webm" {
		t.Errorf("unexpected capture device: %+v", cfg.Capture)
	}
	if cfg.Capture.MaxAudioBytes != 10485760 || cfg.Capture.MaxDuration != 2*time.Minute {
		t.Errorf("unexpected limits: %d / %v", cfg.Capture.MaxAudioBytes, cfg.Capture.MaxDuration)
	}
	if cfg.Submission.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.Submission.Timeout)
	}
	if cfg.Playback.Enabled {
		t.Error("expected playback disabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" || cfg.Observability.LogFormat != "json" {
		t.Errorf("unexpected observability: %+v", cfg.Observability)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAPTURE_MAX_AUDIO_BYTES", "invalid")
	t.Setenv("CAPTURE_MAX_DURATION", "invalid")
	t.Setenv("SUBMISSION_TIMEOUT", "soon")
	t.Setenv("PLAYBACK_ENABLED", "maybe")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Capture.MaxAudioBytes != 25*1024*1024 {
		t.Errorf("expected default max audio bytes on invalid input, got %d", cfg.Capture.MaxAudioBytes)
	}
	if cfg.Capture.MaxDuration != 10*time.Minute {
		t.Errorf("expected default max duration on invalid input, got %v", cfg.Capture.MaxDuration)
	}
	if cfg.Submission.Timeout != 0 {
		t.Errorf("expected default timeout on invalid input, got %v", cfg.Submission.Timeout)
	}
	if !cfg.Playback.Enabled {
		t.Error("expected default playback on invalid input")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "client.yaml", `
service:
  base_url: http://host:8000/
capture:
  device: command
  command: [arecord, -f, cd, -t, wav]
  media_type: audio/wav
  max_duration: 90s
submission:
  timeout: 30s
kafka:
  enabled: true
  brokers: [localhost:9092]
notify:
  clipboard: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.BaseURL != "http://host:8000" {
		t.Errorf("expected http://host:8000, got %s", cfg.Service.BaseURL)
	}
	if cfg.Capture.Command[0] != "arecord" || cfg.Capture.MediaType != "audio/wav" {
		t.Errorf("unexpected capture: %+v", cfg.Capture)
	}
	if cfg.Capture.MaxDuration != 90*time.Second || cfg.Submission.Timeout != 30*time.Second {
		t.Errorf("unexpected durations: %v / %v", cfg.Capture.MaxDuration, cfg.Submission.Timeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Capture.ChunkBytes != 4096 || cfg.Kafka.TopicResult != "voicequery.submission.result" {
		t.Errorf("expected defaults for absent keys, got %d / %s", cfg.Capture.ChunkBytes, cfg.Kafka.TopicResult)
	}
	if !cfg.Kafka.Enabled || !cfg.Notify.Clipboard {
		t.Errorf("expected kafka and clipboard enabled: %+v %+v", cfg.Kafka, cfg.Notify)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "client.toml", `
[service]
base_url = "https://voice.example.com"

[capture]
device = "file"
file = "question.ogg"
max_duration = "5m"

[observability]
log_format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.BaseURL != "https://voice.example.com" {
		t.Errorf("unexpected base URL %s", cfg.Service.BaseURL)
	}
	if cfg.Capture.Device != "file" || cfg.Capture.File != "question.ogg" {
		t.Errorf("unexpected capture: %+v", cfg.Capture)
	}
	if cfg.Capture.MaxDuration != 5*time.Minute {
		t.Errorf("expected 5m, got %v", cfg.Capture.MaxDuration)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected json, got %s", cfg.Observability.LogFormat)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "client.yaml", "service:\n  base_url: http://file-host:8000\n")
	t.Setenv("VQ_BASE_URL", "http://env-host:8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.BaseURL != "http://env-host:8000" {
		t.Errorf("expected env to win, got %s", cfg.Service.BaseURL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
		wantErr string
	}{
		{name: "unsupported extension", file: "client.json", content: "{}", wantErr: "unsupported config file type"},
		{name: "bad yaml", file: "client.yaml", content: "service: [", wantErr: "failed to parse"},
		{name: "bad base url", env: map[string]string{"VQ_BASE_URL": "ftp://host"}, wantErr: "base_url"},
		{name: "unknown device", env: map[string]string{"CAPTURE_DEVICE": "theremin"}, wantErr: "unknown device"},
		{name: "file device without file", env: map[string]string{"CAPTURE_DEVICE": "file"}, wantErr: "file cannot be empty"},
		{name: "kafka without brokers", env: map[string]string{"KAFKA_ENABLED": "true"}, wantErr: "brokers"},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}, wantErr: "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.content)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.envValue)

			got := envOrDefaultBool("TEST_BOOL_VAR", tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultList(t *testing.T) {
	t.Setenv("TEST_LIST_VAR", " a:1 ,, b:2 ")
	got := envOrDefaultList("TEST_LIST_VAR", nil)
	if len(got) != 2 || got[0] != "a:1" || got[1] != "b:2" {
		t.Errorf("unexpected list %v", got)
	}

	t.Setenv("TEST_LIST_VAR", "")
	if got := envOrDefaultList("TEST_LIST_VAR", []string{"def"}); len(got) != 1 || got[0] != "def" {
		t.Errorf("expected default, got %v", got)
	}
}
