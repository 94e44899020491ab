// Package events publishes submission outcomes.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-query-client/internal/models"
	"voice-query-client/internal/observability/metrics"
	"voice-query-client/internal/schema"
)

// Publisher publishes submission outcomes to separate Kafka topics for
// results and failures.
type Publisher struct {
	writerResult  *kafka.Writer
	writerFailure *kafka.Writer
	principal     string
	topicResult   string
	topicFailure  string
	enabled       bool
	validator     *schema.Validator
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicResult  string
	TopicFailure string
	Principal    string
	Enabled      bool
}

// New creates a Kafka outcome publisher. Without brokers, or when disabled,
// events are only logged.
func New(cfg *Config) *Publisher {
	p := &Publisher{
		validator: schema.New(),
		metrics:   metrics.DefaultMetrics,
	}

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return p
	}

	p.principal = cfg.Principal
	p.topicResult = cfg.TopicResult
	p.topicFailure = cfg.TopicFailure

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	p.writerResult = newWriter(cfg.Brokers, cfg.TopicResult, transport)
	p.writerFailure = newWriter(cfg.Brokers, cfg.TopicFailure, transport)
	p.enabled = true

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicResult", cfg.TopicResult).
		Str("topicFailure", cfg.TopicFailure).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return p
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// Enabled reports whether events are written to Kafka.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// PublishResult publishes an applied processing result.
func (p *Publisher) PublishResult(ctx context.Context, event *models.SubmissionSucceeded) error {
	if err := p.validator.Validate(event); err != nil {
		return err
	}
	return p.publish(ctx, p.writerResult, p.topicResult, event.EventType, attemptKey(event.AttemptID), event)
}

// PublishFailure publishes an applied submission failure.
func (p *Publisher) PublishFailure(ctx context.Context, event *models.SubmissionFailed) error {
	if err := p.validator.Validate(event); err != nil {
		return err
	}
	return p.publish(ctx, p.writerFailure, p.topicFailure, event.EventType, attemptKey(event.AttemptID), event)
}

func attemptKey(attempt uint64) string {
	return strconv.FormatUint(attempt, 10)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerResult != nil {
		if e := p.writerResult.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing result writer")
			err = e
		}
	}
	if p.writerFailure != nil {
		if e := p.writerFailure.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing failure writer")
			err = e
		}
	}
	return err
}
