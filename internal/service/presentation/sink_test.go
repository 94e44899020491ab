package presentation

import (
	"errors"
	"testing"
	"time"

	"voice-query-client/internal/models"
)

type testPlayer struct {
	urls []string
	err  error
}

func (p *testPlayer) Play(url string) error {
	p.urls = append(p.urls, url)
	return p.err
}

func TestSink_InitialState(t *testing.T) {
	s := NewSink("http://host:8000", nil)
	st := s.Snapshot()

	if st.Status != StatusReady || st.Timer != "00:00" {
		t.Errorf("unexpected initial state: %+v", st)
	}
	if !st.RecordEnabled || st.StopEnabled {
		t.Errorf("expected record enabled and stop disabled, got %+v", st)
	}
}

func TestSink_ResultWithoutAudio(t *testing.T) {
	player := &testPlayer{}
	s := NewSink("http://host:8000", player)
	s.Succeeded(models.ProcessingResult{AudioURL: "/audio/1.wav"})

	s.Succeeded(models.ProcessingResult{Transcript: "hello", Answer: "world"})
	st := s.Snapshot()

	if st.Transcript != "hello" || st.Answer != "world" || st.Status != StatusDone {
		t.Errorf("unexpected state: %+v", st)
	}
	if st.AudioSource != "http://host:8000/audio/1.wav" {
		t.Errorf("audio source must be left unmodified, got %q", st.AudioSource)
	}
	if len(player.urls) != 1 {
		t.Errorf("expected no second playback attempt, got %v", player.urls)
	}
}

func TestSink_ResultWithAudio(t *testing.T) {
	for _, base := range []string{"http://host:8000", "http://host:8000/"} {
		player := &testPlayer{}
		s := NewSink(base, player)

		s.Succeeded(models.ProcessingResult{Transcript: "t", Answer: "a", AudioURL: "/audio/42.wav"})

		want := "http://host:8000/audio/42.wav"
		if got := s.Snapshot().AudioSource; got != want {
			t.Errorf("base %q: expected %s, got %s", base, want, got)
		}
		if len(player.urls) != 1 || player.urls[0] != want {
			t.Errorf("base %q: expected playback of %s, got %v", base, want, player.urls)
		}
	}
}

func TestSink_PlaybackErrorIgnored(t *testing.T) {
	player := &testPlayer{err: errors.New("autoplay blocked")}
	s := NewSink("http://host:8000", player)

	s.Succeeded(models.ProcessingResult{AudioURL: "/audio/1.wav"})

	if st := s.Snapshot(); st.Status != StatusDone {
		t.Errorf("expected Done despite playback error, got %s", st.Status)
	}
}

func TestSink_FailureKeepsPreviousResult(t *testing.T) {
	s := NewSink("http://host:8000", &testPlayer{})
	s.Succeeded(models.ProcessingResult{Transcript: "before", Answer: "kept", AudioURL: "/audio/7.wav"})

	s.Uploading()
	s.Failed(errors.New("processing service returned status 500"))
	st := s.Snapshot()

	if st.Status != StatusFailed {
		t.Errorf("expected %q, got %q", StatusFailed, st.Status)
	}
	if st.Transcript != "before" || st.Answer != "kept" || st.AudioSource != "http://host:8000/audio/7.wav" {
		t.Errorf("previous result must be preserved, got %+v", st)
	}
}

func TestSink_CaptureTransitions(t *testing.T) {
	s := NewSink("http://host:8000", nil)

	s.CaptureStarted()
	s.SetTimer("00:03")
	st := s.Snapshot()
	if st.Status != StatusRecording || st.RecordEnabled || !st.StopEnabled || st.Timer != "00:03" {
		t.Errorf("unexpected recording state: %+v", st)
	}

	s.CaptureStopped()
	st = s.Snapshot()
	if st.Status != StatusProcessing || !st.RecordEnabled || st.StopEnabled || st.Timer != "00:00" {
		t.Errorf("unexpected stopped state: %+v", st)
	}

	s.CaptureFailed(errors.New("permission denied"))
	if got := s.Snapshot().Status; got != StatusMicUnavailable {
		t.Errorf("expected %q, got %q", StatusMicUnavailable, got)
	}

	s.FileSelected()
	if got := s.Snapshot().Status; got != StatusProcessingFile {
		t.Errorf("expected %q, got %q", StatusProcessingFile, got)
	}
}

func TestSink_Subscribe(t *testing.T) {
	s := NewSink("http://host:8000", nil)
	ch, cancel := s.Subscribe()

	if st := <-ch; st.Status != StatusReady {
		t.Fatalf("expected current state first, got %+v", st)
	}

	// Unread snapshots are coalesced to the latest.
	s.CaptureStarted()
	s.SetTimer("00:01")
	s.SetTimer("00:02")

	select {
	case st := <-ch:
		if st.Timer != "00:02" || st.Status != StatusRecording {
			t.Errorf("expected latest snapshot, got %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	s.Uploading() // must not panic on the closed channel
}
