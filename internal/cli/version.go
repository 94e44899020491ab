package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"voice-query-client/internal/config"
)

// Version is set at build time with -ldflags "-X voice-query-client/internal/cli.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the built-in service address",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "voice-query %s (service %s)\n", Version, config.DefaultBaseURL)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
