package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voice-query-client/internal/events"
	"voice-query-client/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, logLevel, baseURL = "", "", ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "voice-query "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"transcript":"how tall is everest","answer":"8849 m","audio_url":"/audio/7.wav"}`)
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "q.webm")
	if err := os.WriteFile(audio, []byte("webm"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	out, err := execute(t, "send", "--log-level", "error", "--base-url", srv.URL+"/", audio)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, want := range []string{
		"Transcript: how tall is everest",
		"Answer:     8849 m",
		"Audio:      " + srv.URL + "/audio/7.wav",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSend_MissingFile(t *testing.T) {
	_, err := execute(t, "send", "--log-level", "error", filepath.Join(t.TempDir(), "nope.webm"))
	if err == nil || !strings.Contains(err.Error(), "read audio file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	_, err := execute(t, "send", "--log-level", "loud", "x.webm")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPrintOutcome(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local).UnixMilli()
	out := &bytes.Buffer{}

	printOutcome(out, events.Outcome{Succeeded: &models.SubmissionSucceeded{
		AttemptID: 2, Source: models.SourceRecording, Transcript: "hi", Answer: "hello", LatencyMs: 120, Timestamp: ts,
	}})
	printOutcome(out, events.Outcome{Failed: &models.SubmissionFailed{
		AttemptID: 3, Source: models.SourceFile, Kind: "status", StatusCode: 502, Error: "bad gateway", Timestamp: ts,
	}})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "10:30:00 #2") || !strings.Contains(lines[0], `"hi" -> "hello"`) {
		t.Errorf("unexpected success line %q", lines[0])
	}
	if !strings.Contains(lines[1], "failed") || !strings.Contains(lines[1], "status 502: bad gateway") {
		t.Errorf("unexpected failure line %q", lines[1])
	}
}
