package commands

import (
	"context"
	"fmt"
	"os"

	"diyanet/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	baseUrl  *string
	cacheDir *string
	timeout  *int
	verbose  *bool
)

func init() {
	baseUrl = rootCmd.PersistentFlags().String("base-url", "", "Override the prayer-time site's base URL.")
	cacheDir = rootCmd.PersistentFlags().String("cache", "", "Override the resolved cache directory.")
	timeout = rootCmd.PersistentFlags().Int("timeout", 30, "Per-request timeout in seconds.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

var rootCmd = &cobra.Command{
	Use:   "diyanet-cli",
	Short: "diyanet-cli looks up prayer-time schedules by country, state and region.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
