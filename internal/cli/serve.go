package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voice-query-client/internal/app"
	apihttp "voice-query-client/internal/http"
	"voice-query-client/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recorder headless behind a local control API",
	Long: `Run the recorder without a terminal UI. It is driven over HTTP:

  POST /v1/recording/start   start recording
  POST /v1/recording/stop    stop recording and send
  POST /v1/submissions       send a multipart "file" upload
  GET  /v1/state             current status, timer, transcript and answer
  GET  /v1/stream            the same state pushed over a WebSocket
  GET  /metrics              Prometheus metrics

Examples:
  voice-query serve
  voice-query serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr     string
	serveShutdown time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from http.addr)")
	serveCmd.Flags().DurationVar(&serveShutdown, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()
	if err := application.Start(); err != nil {
		return err
	}

	server := observability.NewServer(cfg.HTTP.Addr, apihttp.NewRouter(application))
	if err := server.Start(); err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTP.Addr, err)
	}
	application.Logger.Info().Str("addr", server.Addr()).Msg("Control API ready")

	<-cmd.Context().Done()

	ctx, cancel := context.WithTimeout(context.Background(), serveShutdown)
	defer cancel()
	return server.Shutdown(ctx)
}
