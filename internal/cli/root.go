package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"voice-query-client/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "voice-query",
	Short: "Record a spoken question and get a transcript, an answer and a spoken reply",
	Long: `voice-query records audio from the microphone (or takes an audio file),
sends it to a remote processing service and shows the transcript and answer it
returns. The spoken reply, when the service provides one, is played back.

Configuration comes from an optional YAML or TOML file, a .env file and
environment variables, in that order of precedence (environment wins).`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
	baseURL    string
)

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("VQ_CONFIG"), "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the log level")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Override the processing service base URL")
}

// loadConfig applies command-line overrides on top of file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.Service.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
