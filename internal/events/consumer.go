package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"voice-query-client/internal/models"
)

// Outcome is one decoded event from the result or failure topic. Exactly one
// of Succeeded and Failed is set.
type Outcome struct {
	Topic     string
	Succeeded *models.SubmissionSucceeded
	Failed    *models.SubmissionFailed
}

// ConsumerConfig selects the topics to follow.
type ConsumerConfig struct {
	Brokers      []string
	TopicResult  string
	TopicFailure string
	// Since replays messages newer than now-Since. Zero reads only new
	// messages.
	Since time.Duration
}

// Consume reads both outcome topics until ctx is done and calls fn for
// every decodable event. Partition 0 only; outcomes are low volume.
func Consume(ctx context.Context, cfg ConsumerConfig, fn func(Outcome)) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	deliver := func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		fn(o)
	}
	for _, topic := range []string{cfg.TopicResult, cfg.TopicFailure} {
		if topic == "" {
			continue
		}
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			consumeTopic(ctx, cfg, topic, deliver)
		}(topic)
	}
	wg.Wait()
	return ctx.Err()
}

func consumeTopic(ctx context.Context, cfg ConsumerConfig, topic string, fn func(Outcome)) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	start := time.Now()
	if cfg.Since > 0 {
		start = start.Add(-cfg.Since)
	}
	if err := reader.SetOffsetAt(ctx, start); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to seek, reading from last committed offset")
	}

	log.Info().Str("topic", topic).Time("since", start).Msg("Consuming outcome events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("topic", topic).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		outcome, err := DecodeOutcome(topic, msg.Headers, msg.Value)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Int64("offset", msg.Offset).Msg("Skipping undecodable event")
			continue
		}
		fn(outcome)
	}
}

// DecodeOutcome decodes a message by its eventType header, falling back to
// the eventType field of the payload.
func DecodeOutcome(topic string, headers []kafka.Header, value []byte) (Outcome, error) {
	eventType := ""
	for _, h := range headers {
		if h.Key == "eventType" {
			eventType = string(h.Value)
			break
		}
	}
	if eventType == "" {
		var envelope struct {
			EventType string `json:"eventType"`
		}
		if err := json.Unmarshal(value, &envelope); err != nil {
			return Outcome{}, fmt.Errorf("decode envelope: %w", err)
		}
		eventType = envelope.EventType
	}

	out := Outcome{Topic: topic}
	switch eventType {
	case models.EventSubmissionSucceeded:
		out.Succeeded = &models.SubmissionSucceeded{}
		if err := json.Unmarshal(value, out.Succeeded); err != nil {
			return Outcome{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
	case models.EventSubmissionFailed:
		out.Failed = &models.SubmissionFailed{}
		if err := json.Unmarshal(value, out.Failed); err != nil {
			return Outcome{}, fmt.Errorf("decode %s: %w", eventType, err)
		}
	default:
		return Outcome{}, fmt.Errorf("unknown event type %q", eventType)
	}
	return out, nil
}
