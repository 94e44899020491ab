package submission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voice-query-client/internal/models"
	"voice-query-client/internal/observability/logging"
	"voice-query-client/internal/observability/metrics"
)

// Processor performs the network round trip. *Client implements it.
type Processor interface {
	Process(ctx context.Context, payload models.AudioPayload) (*models.ProcessingResult, error)
}

// Presenter receives submission progress and outcomes.
type Presenter interface {
	FileSelected()
	Uploading()
	Succeeded(result models.ProcessingResult)
	Failed(err error)
}

// Publisher forwards applied outcomes, e.g. to Kafka.
type Publisher interface {
	PublishResult(ctx context.Context, event *models.SubmissionSucceeded) error
	PublishFailure(ctx context.Context, event *models.SubmissionFailed) error
}

// Pipeline turns payloads into processing requests and applies the outcome.
//
// Every Submit is an attempt with a monotonic ID and its own context. A new
// attempt cancels the one in flight; an outcome whose attempt is no longer
// the latest is dropped instead of overwriting newer state.
type Pipeline struct {
	processor Processor
	presenter Presenter
	publisher Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu      sync.Mutex
	attempt uint64
	cancel  context.CancelFunc

	presentMu sync.Mutex
}

// NewPipeline creates a pipeline. publisher may be nil.
func NewPipeline(processor Processor, presenter Presenter, publisher Publisher) *Pipeline {
	return &Pipeline{
		processor: processor,
		presenter: presenter,
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("submission"),
	}
}

// Attempt returns the ID of the latest attempt.
func (p *Pipeline) Attempt() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempt
}

// Submit runs one attempt: report uploading, issue the request, apply the
// outcome. It returns ErrSuperseded if a newer attempt started meanwhile.
func (p *Pipeline) Submit(ctx context.Context, payload models.AudioPayload) (*models.ProcessingResult, error) {
	attempt, actx := p.begin(ctx)
	defer p.end(attempt)
	return p.run(ctx, actx, attempt, payload)
}

// SubmitFile submits a user-selected audio file through the same path as a
// recording. An empty path means no file was selected and is a no-op. The
// selection is an attempt of its own, so a file that cannot be read
// supersedes a submission still in flight.
func (p *Pipeline) SubmitFile(ctx context.Context, path string) (*models.ProcessingResult, error) {
	if path == "" {
		return nil, nil
	}
	attempt, actx := p.begin(ctx)
	defer p.end(attempt)
	p.present(attempt, p.presenter.FileSelected)

	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("read audio file: %w", err)
		if !p.present(attempt, func() { p.presenter.Failed(err) }) {
			return nil, ErrSuperseded
		}
		logger := logging.WithAttempt(attempt, models.SourceFile)
		logger.Warn().Err(err).Msg("Selected file unreadable")
		return nil, err
	}
	return p.run(ctx, actx, attempt, models.AudioPayload{
		Data:      data,
		MediaType: models.MediaTypeFor(path),
		Source:    models.SourceFile,
	})
}

// SubmitUpload submits audio that arrived over the control API. It reports
// a file selection first, like SubmitFile.
func (p *Pipeline) SubmitUpload(ctx context.Context, filename, mediaType string, data []byte) (*models.ProcessingResult, error) {
	attempt, actx := p.begin(ctx)
	defer p.end(attempt)
	p.present(attempt, p.presenter.FileSelected)

	if mediaType == "" || mediaType == models.DefaultMediaType {
		mediaType = models.MediaTypeFor(filename)
	}
	return p.run(ctx, actx, attempt, models.AudioPayload{
		Data:      data,
		MediaType: mediaType,
		Source:    models.SourceFile,
	})
}

func (p *Pipeline) run(ctx, actx context.Context, attempt uint64, payload models.AudioPayload) (*models.ProcessingResult, error) {
	logger := logging.WithAttempt(attempt, payload.Source)

	p.present(attempt, p.presenter.Uploading)
	p.metrics.RecordSubmissionStart(payload.Source, payload.Size())
	logger.Info().
		Str("mediaType", payload.MediaType).
		Int("payloadBytes", payload.Size()).
		Msg("Submitting audio")

	start := time.Now()
	result, err := p.processor.Process(actx, payload)
	latency := time.Since(start)

	applied := p.present(attempt, func() {
		if err != nil {
			p.presenter.Failed(err)
		} else {
			p.presenter.Succeeded(*result)
		}
	})
	if !applied {
		p.metrics.RecordStaleOutcome()
		logger.Info().
			Err(err).
			Uint64("latestAttempt", p.Attempt()).
			Msg("Dropping outcome of superseded submission")
		return nil, ErrSuperseded
	}

	if err != nil {
		kind := ErrorKind(err)
		p.metrics.RecordSubmissionEnd(kind, latency.Seconds())
		logger.Warn().
			Err(err).
			Str("kind", kind).
			Dur("latency", latency).
			Msg("Submission failed")
		p.publishFailure(ctx, attempt, payload, err, kind, latency)
		return nil, err
	}

	p.metrics.RecordSubmissionEnd("", latency.Seconds())
	logger.Info().
		Int("transcriptLen", len(result.Transcript)).
		Int("answerLen", len(result.Answer)).
		Bool("hasAudio", result.HasAudio()).
		Dur("latency", latency).
		Msg("Submission succeeded")
	p.publishResult(ctx, attempt, payload, result, latency)
	return result, nil
}

// present calls apply only while attempt is the latest. Presentation is
// serialized on presentMu rather than mu, so begin never waits on a
// presenter (which may start playback). An attempt that begins while apply
// runs presents after it.
func (p *Pipeline) present(attempt uint64, apply func()) bool {
	p.presentMu.Lock()
	defer p.presentMu.Unlock()
	if p.Attempt() != attempt {
		return false
	}
	apply()
	return true
}

// Close cancels the attempt in flight, if any.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) begin(ctx context.Context) (uint64, context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.attempt++
	actx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	return p.attempt, actx
}

func (p *Pipeline) end(attempt uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if attempt == p.attempt && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) publishResult(ctx context.Context, attempt uint64, payload models.AudioPayload, result *models.ProcessingResult, latency time.Duration) {
	if p.publisher == nil {
		return
	}
	event := &models.SubmissionSucceeded{
		EventType:    models.EventSubmissionSucceeded,
		EventID:      uuid.NewString(),
		AttemptID:    attempt,
		Source:       payload.Source,
		MediaType:    payload.MediaType,
		PayloadBytes: payload.Size(),
		Transcript:   result.Transcript,
		Answer:       result.Answer,
		AudioURL:     result.AudioURL,
		LatencyMs:    latency.Milliseconds(),
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := p.publisher.PublishResult(context.WithoutCancel(ctx), event); err != nil {
		p.logger.Warn().Err(err).Uint64("attemptId", attempt).Msg("Failed to publish submission result")
	}
}

func (p *Pipeline) publishFailure(ctx context.Context, attempt uint64, payload models.AudioPayload, cause error, kind string, latency time.Duration) {
	if p.publisher == nil || errors.Is(cause, context.Canceled) {
		return
	}
	event := &models.SubmissionFailed{
		EventType:    models.EventSubmissionFailed,
		EventID:      uuid.NewString(),
		AttemptID:    attempt,
		Source:       payload.Source,
		MediaType:    payload.MediaType,
		PayloadBytes: payload.Size(),
		StatusCode:   StatusCode(cause),
		Kind:         kind,
		Error:        cause.Error(),
		LatencyMs:    latency.Milliseconds(),
		Timestamp:    time.Now().UnixMilli(),
	}
	if err := p.publisher.PublishFailure(context.WithoutCancel(ctx), event); err != nil {
		p.logger.Warn().Err(err).Uint64("attemptId", attempt).Msg("Failed to publish submission failure")
	}
}
