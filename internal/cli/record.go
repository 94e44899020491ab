package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"voice-query-client/internal/app"
	"voice-query-client/internal/ui"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Open the interactive recorder",
	Long: `Open the terminal recorder.

Keys:
  r  start recording
  s  stop recording and send
  f  send an audio file instead
  q  quit

Logs are written to a file while the recorder owns the terminal
(observability.log_file, default voice-query.log in the temp directory).`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Observability.LogFile == "" {
		cfg.Observability.LogFile = filepath.Join(os.TempDir(), "voice-query.log")
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()
	if err := application.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	states, unsubscribe := application.Sink.Subscribe()
	defer unsubscribe()

	model := ui.New(ctx, application.Capture, application.Pipeline, states, application.Sink.Snapshot())
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run recorder: %w", err)
	}
	return nil
}
