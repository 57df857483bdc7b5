package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Each call returns fresh commands so
// tests can run them in isolation.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "newsdigest",
		Short: "Daily news digest notifier",
		Long: `newsdigest searches a news feed, builds a short numbered digest of the
newest headlines and pushes it to a messaging endpoint.

Configuration is read from ~/.newsdigest/config.yaml (or $NEWSDIGEST_CONFIG)
and then from environment variables, which take precedence.

Environment Variables:
  LINE_NOTIFY_TOKEN          Token for the form-push mode
  LINE_CHANNEL_ACCESS_TOKEN  Token for the JSON modes
  LINE_USER_ID               Recipient for the json-push mode
  NEWSDIGEST_MODE            Delivery mode (default: json-flex-broadcast)
  NEWSDIGEST_QUERY           Search query
  NEWSDIGEST_LIMIT           Maximum number of items (default: 5)
  NEWSDIGEST_RUNLOG_DSN      Path to the run log database
  NEWSDIGEST_DEBUG           Set to true for debug logging`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newPreviewCmd(&configPath),
		newInitCmd(&configPath),
		newHistoryCmd(&configPath),
	)

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
