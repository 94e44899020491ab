package playback

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommand_PlayPassesURL(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	out := filepath.Join(t.TempDir(), "played")
	p := NewCommand([]string{"sh", "-c", `printf '%s' "$1" > "$0"`, out})
	defer p.Close()

	if err := p.Play("http://host:8000/audio/42.wav"); err != nil {
		t.Fatalf("play: %v", err)
	}

	p.Wait()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("player was not invoked: %v", err)
	}
	if string(data) != "http://host:8000/audio/42.wav" {
		t.Errorf("unexpected url %q", data)
	}
}

func TestCommand_MissingPlayer(t *testing.T) {
	p := NewCommand([]string{"definitely-not-a-player-binary"})
	defer p.Close()

	err := p.Play("http://host/audio/1.wav")
	if err == nil || !strings.Contains(err.Error(), "start player") {
		t.Errorf("expected start error, got %v", err)
	}
}

func TestCommand_EmptyURL(t *testing.T) {
	p := NewCommand(nil)
	defer p.Close()

	if err := p.Play(""); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestCommand_PlayAfterClose(t *testing.T) {
	p := NewCommand([]string{"sh", "-c", "true"})
	p.Close()

	if err := p.Play("http://host/audio/1.wav"); err == nil {
		t.Error("expected error after close")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Play("http://host/audio/1.wav"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
