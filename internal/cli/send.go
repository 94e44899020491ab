package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"voice-query-client/internal/app"
	"voice-query-client/internal/models"
)

var sendCmd = &cobra.Command{
	Use:   "send <audio-file>",
	Short: "Send an audio file and print the result",
	Long: `Send an encoded audio file to the processing service, exactly as a
recording would be sent, and print the transcript and answer.

Examples:
  voice-query send question.webm
  voice-query send --play question.ogg   # also play the spoken reply`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

var sendPlay bool

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().BoolVar(&sendPlay, "play", false, "Play the spoken reply and wait for it to finish")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Playback.Enabled = sendPlay

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	result, err := application.Pipeline.SubmitFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result, application.Sink.Snapshot())

	if sendPlay {
		application.WaitPlayback()
	}
	return nil
}

func printResult(w io.Writer, result *models.ProcessingResult, state models.UIState) {
	fmt.Fprintf(w, "Transcript: %s\n", result.Transcript)
	fmt.Fprintf(w, "Answer:     %s\n", result.Answer)
	if state.AudioSource != "" {
		fmt.Fprintf(w, "Audio:      %s\n", state.AudioSource)
	}
}
