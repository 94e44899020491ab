package device

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  string
	}{
		{
			name:     "command",
			cfg:      Config{Kind: KindCommand, Command: []string{"ffmpeg", "-i", "x"}},
			wantName: "command:ffmpeg",
		},
		{
			name:     "file",
			cfg:      Config{Kind: KindFile, Path: "clip.webm"},
			wantName: "file",
		},
		{
			name:    "file without path",
			cfg:     Config{Kind: KindFile},
			wantErr: "requires a path",
		},
		{
			name:    "unknown kind",
			cfg:     Config{Kind: "theremin"},
			wantErr: "unknown capture device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := New(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dev.Name() != tt.wantName {
				t.Errorf("expected name %s, got %s", tt.wantName, dev.Name())
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Kind != KindCommand {
		t.Errorf("expected default kind command, got %s", cfg.Kind)
	}
	if cfg.MediaType != "audio/webm" {
		t.Errorf("expected audio/webm, got %s", cfg.MediaType)
	}
	if _, err := New(cfg); err != nil {
		t.Errorf("default config must build a device: %v", err)
	}
}
