package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"voice-query-client/internal/events"
	"voice-query-client/internal/observability/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow submission outcomes published to Kafka",
	Long: `Print every submission outcome published to the result and failure
topics, from any client sharing the brokers.

Examples:
  voice-query watch
  voice-query watch --since 1h   # replay the last hour first`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchSince time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchSince, "since", 0, "Replay outcomes newer than this")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("no kafka brokers configured (kafka.brokers or KAFKA_BROKERS)")
	}

	out := cmd.OutOrStdout()
	err = events.Consume(cmd.Context(), events.ConsumerConfig{
		Brokers:      cfg.Kafka.Brokers,
		TopicResult:  cfg.Kafka.TopicResult,
		TopicFailure: cfg.Kafka.TopicFailure,
		Since:        watchSince,
	}, func(o events.Outcome) {
		printOutcome(out, o)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printOutcome(w io.Writer, o events.Outcome) {
	switch {
	case o.Succeeded != nil:
		e := o.Succeeded
		fmt.Fprintf(w, "%s #%d %-9s ok     %5dms  %q -> %q\n",
			time.UnixMilli(e.Timestamp).Format(time.TimeOnly), e.AttemptID, e.Source,
			e.LatencyMs, e.Transcript, e.Answer)
	case o.Failed != nil:
		e := o.Failed
		detail := e.Kind
		if e.StatusCode != 0 {
			detail = fmt.Sprintf("%s %d", e.Kind, e.StatusCode)
		}
		fmt.Fprintf(w, "%s #%d %-9s failed %5dms  %s: %s\n",
			time.UnixMilli(e.Timestamp).Format(time.TimeOnly), e.AttemptID, e.Source,
			e.LatencyMs, detail, e.Error)
	}
}
