package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/pevans/newsdigest"
	"github.com/pevans/newsdigest/config"
	"github.com/pevans/newsdigest/logger"
	"github.com/pevans/newsdigest/metrics"
	"github.com/pevans/newsdigest/newsfeed"
	"github.com/pevans/newsdigest/notifier"
	"github.com/pevans/newsdigest/runlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, build and deliver today's digest",
		Long: `Fetch the newest matching items, build the digest and deliver it with the
configured mode. Exits non-zero if any step fails, including delivery.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(os.Stderr)

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			runner := newRunner(cfg, log).WithMetrics(metrics.NewRecorder())

			if cfg.RunLog.DSN != "" {
				store, err := runlog.NewStore(cfg.RunLog.DSN)
				if err != nil {
					return err
				}
				defer store.Close()
				runner.WithRunLog(store)
			}

			result, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Delivered digest for %s (%d items)\n",
				result.Digest.DateLabel, len(result.Digest.Items))
			return nil
		},
	}
}

func newPreviewCmd(configPath *string) *cobra.Command {
	var card bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print today's digest without delivering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(os.Stderr)

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			result, err := newRunner(cfg, log).Preview(cmd.Context())
			if err != nil {
				return err
			}

			if !card {
				fmt.Fprintln(cmd.OutOrStdout(), result.Payload.Text)
				return nil
			}

			data, err := notifier.FlexJSON(result.Payload.Card)
			if err != nil {
				return fmt.Errorf("failed to marshal card: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&card, "card", false, "print the flex card JSON instead of the text")
	return cmd
}

func newInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(*configPath)
			if err != nil {
				return err
			}

			written, err := config.WriteDefaultConfigFile(path, force)
			if err != nil {
				return err
			}

			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists at %s (use --force to overwrite)\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config file to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// resolveConfigPath returns the --config value, or the default location.
func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func loadConfig(flagValue string) (*config.Config, error) {
	path, err := resolveConfigPath(flagValue)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newRunner wires the Google News source and the LINE notifier.
func newRunner(cfg *config.Config, log *logrus.Logger) *newsdigest.Runner {
	source := newsfeed.NewGoogleNewsSource(newsfeed.SourceConfig{
		BaseURL:  cfg.Feed.BaseURL,
		Language: cfg.Feed.Language,
		Region:   cfg.Feed.Region,
		Timeout:  cfg.Feed.Timeout,
	})
	deliverer := notifier.New(&http.Client{Timeout: cfg.DeliveryTimeout}, log)

	return newsdigest.NewRunner(cfg, source, deliverer, log)
}
