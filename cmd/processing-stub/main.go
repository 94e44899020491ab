// processing-stub is a stand-in for the remote processing service. It answers
// /process with a canned transcript and answer and serves a short tone as the
// spoken reply, so the client can be exercised end to end without the real
// backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voice-query-client/internal/observability/logging"
)

const (
	sampleRate = 16000
	toneHz     = 440
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "Listen address")
	failStatus := flag.Int("fail-status", 0, "Answer /process with this status instead of a result")
	delay := flag.Duration("delay", 0, "Delay before answering /process")
	noAudio := flag.Bool("no-audio", false, "Omit audio_url from results")
	flag.Parse()

	logging.Init(logging.Config{Level: "debug", Format: "console"})

	tone, err := writeTone(time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to synthesize reply tone")
	}
	defer os.Remove(tone)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/process", func(w http.ResponseWriter, r *http.Request) {
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n, _ := io.Copy(io.Discard, file)
		file.Close()

		log.Info().
			Str("filename", hdr.Filename).
			Str("contentType", hdr.Header.Get("Content-Type")).
			Int64("bytes", n).
			Msg("Audio received")

		if *delay > 0 {
			select {
			case <-time.After(*delay):
			case <-r.Context().Done():
				return
			}
		}
		if *failStatus != 0 {
			http.Error(w, "simulated failure", *failStatus)
			return
		}

		result := map[string]string{
			"transcript": fmt.Sprintf("received %d bytes of %s", n, hdr.Header.Get("Content-Type")),
			"answer":     "This is a canned answer from the processing stub.",
		}
		if !*noAudio {
			result["audio_url"] = "/audio/" + uuid.NewString() + ".wav"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	})
	r.Get("/audio/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		http.ServeFile(w, r, tone)
	})

	log.Info().Str("addr", *addr).Msg("Processing stub listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("Processing stub stopped")
	}
}

// writeTone encodes a 16-bit mono sine wave into a temporary WAV file.
func writeTone(d time.Duration) (string, error) {
	f, err := os.CreateTemp("", "processing-stub-*.wav")
	if err != nil {
		return "", err
	}
	defer f.Close()

	samples := int(d.Seconds() * sampleRate)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, samples),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(math.Sin(2*math.Pi*toneHz*float64(i)/sampleRate) * 0.3 * math.MaxInt16)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}
