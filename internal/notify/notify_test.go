package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voice-query-client/internal/models"
	"voice-query-client/internal/service/presentation"
)

type recorded struct {
	notes []string
	clips []string
}

func newTestNotifier(cfg Config) (*Notifier, *recorded) {
	rec := &recorded{}
	n := New(cfg)
	n.notify = func(_, body string) error {
		rec.notes = append(rec.notes, body)
		return nil
	}
	n.writeClip = func(text string) error {
		rec.clips = append(rec.clips, text)
		return nil
	}
	return n, rec
}

func TestNotifier_Done(t *testing.T) {
	n, rec := newTestNotifier(Config{Desktop: true, Clipboard: true})

	n.Handle(
		models.UIState{Status: presentation.StatusUploading},
		models.UIState{Status: presentation.StatusDone, Answer: "Paris"},
	)

	if len(rec.notes) != 1 || rec.notes[0] != "Paris" {
		t.Errorf("expected notification with answer, got %v", rec.notes)
	}
	if len(rec.clips) != 1 || rec.clips[0] != "Paris" {
		t.Errorf("expected answer on clipboard, got %v", rec.clips)
	}
}

func TestNotifier_SameStatusIgnored(t *testing.T) {
	n, rec := newTestNotifier(Config{Desktop: true, Clipboard: true})

	done := models.UIState{Status: presentation.StatusDone, Answer: "Paris"}
	n.Handle(done, done)

	if len(rec.notes) != 0 || len(rec.clips) != 0 {
		t.Errorf("expected no side effects, got %v %v", rec.notes, rec.clips)
	}
}

func TestNotifier_Failures(t *testing.T) {
	for _, status := range []string{presentation.StatusFailed, presentation.StatusMicUnavailable} {
		n, rec := newTestNotifier(Config{Desktop: true, Clipboard: true})

		n.Handle(models.UIState{}, models.UIState{Status: status, Answer: "old answer"})

		if len(rec.notes) != 1 || rec.notes[0] != status {
			t.Errorf("%s: unexpected notes %v", status, rec.notes)
		}
		if len(rec.clips) != 0 {
			t.Errorf("%s: clipboard must not change on failure, got %v", status, rec.clips)
		}
	}
}

func TestNotifier_Disabled(t *testing.T) {
	n, rec := newTestNotifier(Config{})

	n.Handle(models.UIState{}, models.UIState{Status: presentation.StatusDone, Answer: "x"})

	if n.Enabled() || len(rec.notes) != 0 || len(rec.clips) != 0 {
		t.Errorf("expected nothing when disabled, got %v %v", rec.notes, rec.clips)
	}
}

func TestNotifier_ClipboardErrorIgnored(t *testing.T) {
	n, rec := newTestNotifier(Config{Desktop: true, Clipboard: true})
	n.writeClip = func(string) error { return errors.New("no display") }

	n.Handle(models.UIState{}, models.UIState{Status: presentation.StatusDone, Answer: "a"})

	if len(rec.notes) != 1 {
		t.Errorf("expected notification despite clipboard error, got %v", rec.notes)
	}
}

func TestNotifier_Watch(t *testing.T) {
	n, rec := newTestNotifier(Config{Desktop: true})
	states := make(chan models.UIState, 3)
	states <- models.UIState{Status: presentation.StatusReady}
	states <- models.UIState{Status: presentation.StatusUploading}
	states <- models.UIState{Status: presentation.StatusDone, Answer: strings.Repeat("a", 300)}
	close(states)

	done := make(chan struct{})
	go func() {
		n.Watch(context.Background(), states)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after channel close")
	}
	if len(rec.notes) != 1 || len([]rune(rec.notes[0])) != maxBodyRunes {
		t.Errorf("expected one truncated notification, got %d notes", len(rec.notes))
	}
}
