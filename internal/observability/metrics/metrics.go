// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_query_client"

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	// Recording metrics
	RecordingsStarted   prometheus.Counter
	RecordingsActive    prometheus.Gauge
	RecordingsFinalized prometheus.Counter
	RecordingDuration   prometheus.Histogram
	CaptureErrors       *prometheus.CounterVec

	// Audio metrics
	AudioChunksReceived prometheus.Counter
	AudioBytesCaptured  prometheus.Counter
	SessionLimitHit     *prometheus.CounterVec

	// Submission metrics
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionErrors   *prometheus.CounterVec
	SubmissionsStale   prometheus.Counter
	SubmissionLatency  prometheus.Histogram
	PayloadBytes       prometheus.Histogram
	SubmissionInFlight prometheus.Gauge

	// Playback metrics
	PlaybackAttempts *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Control API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_started_total",
			Help:      "Total number of recording sessions started",
		}),
		RecordingsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recordings_active",
			Help:      "Number of recording sessions currently capturing or finalizing",
		}),
		RecordingsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_finalized_total",
			Help:      "Total number of recording sessions finalized into a payload",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_seconds",
			Help:      "Wall-clock duration of recording sessions in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		CaptureErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Total number of capability errors raised by the capture device",
		}, []string{"device", "phase"}),

		AudioChunksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_received_total",
			Help:      "Total non-empty audio chunks appended to recording sessions",
		}),
		AudioBytesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_captured_total",
			Help:      "Total audio bytes appended to recording sessions",
		}),
		SessionLimitHit: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_limit_exceeded_total",
			Help:      "Total number of recordings stopped by a session limit",
		}, []string{"limit_type"}),

		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of submissions issued to the processing service",
		}, []string{"source"}),
		SubmissionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_errors_total",
			Help:      "Total number of failed submissions",
		}, []string{"kind"}),
		SubmissionsStale: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_stale_total",
			Help:      "Total number of outcomes dropped because a newer submission was issued",
		}),
		SubmissionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_latency_seconds",
			Help:      "Round-trip latency of the processing request in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		PayloadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payload_bytes",
			Help:      "Size of submitted audio payloads in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		SubmissionInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submissions_in_flight",
			Help:      "Number of submissions awaiting a response",
		}),

		PlaybackAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_attempts_total",
			Help:      "Total number of playback attempts for synthesized replies",
		}, []string{"result"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of control API requests",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Control API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordRecordingStart records a new recording session.
func (m *Metrics) RecordRecordingStart() {
	m.RecordingsStarted.Inc()
	m.RecordingsActive.Inc()
}

// RecordRecordingEnd records a recording session leaving the device.
func (m *Metrics) RecordRecordingEnd(finalized bool, durationSeconds float64) {
	m.RecordingsActive.Dec()
	m.RecordingDuration.Observe(durationSeconds)
	if finalized {
		m.RecordingsFinalized.Inc()
	}
}

// RecordCaptureError records a capability error. Phase is "open" or "recording".
func (m *Metrics) RecordCaptureError(device, phase string) {
	m.CaptureErrors.WithLabelValues(device, phase).Inc()
}

// RecordChunk records an appended audio chunk.
func (m *Metrics) RecordChunk(bytes int) {
	m.AudioChunksReceived.Inc()
	m.AudioBytesCaptured.Add(float64(bytes))
}

// RecordLimitExceeded records when a session limit stopped a recording.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.SessionLimitHit.WithLabelValues(limitType).Inc()
}

// RecordSubmissionStart records a submission leaving for the processing service.
func (m *Metrics) RecordSubmissionStart(source string, payloadBytes int) {
	m.SubmissionsTotal.WithLabelValues(source).Inc()
	m.PayloadBytes.Observe(float64(payloadBytes))
	m.SubmissionInFlight.Inc()
}

// RecordSubmissionEnd records the outcome of a submission. An empty kind means success.
func (m *Metrics) RecordSubmissionEnd(kind string, latencySeconds float64) {
	m.SubmissionInFlight.Dec()
	m.SubmissionLatency.Observe(latencySeconds)
	if kind != "" {
		m.SubmissionErrors.WithLabelValues(kind).Inc()
	}
}

// RecordStaleOutcome records an outcome dropped in favour of a newer submission.
func (m *Metrics) RecordStaleOutcome() {
	m.SubmissionsStale.Inc()
}

// RecordPlayback records a playback attempt.
func (m *Metrics) RecordPlayback(err error) {
	if err != nil {
		m.PlaybackAttempts.WithLabelValues("rejected").Inc()
		return
	}
	m.PlaybackAttempts.WithLabelValues("started").Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a control API request.
func (m *Metrics) RecordHTTPRequest(method, route, code string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
