package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/pevans/newsdigest/runlog"
	"github.com/spf13/cobra"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.RunLog.DSN == "" {
				return errors.New("run log is not configured (set runlog.dsn or NEWSDIGEST_RUNLOG_DSN)")
			}

			store, err := runlog.NewStore(cfg.RunLog.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(limit)
			if err != nil {
				return err
			}

			printRunsTable(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show (0 for all)")
	return cmd
}

// printRunsTable prints runs in human-readable table format
func printRunsTable(w io.Writer, runs []runlog.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-20s %-10s %-20s %-10s %-6s %s\n", "STARTED", "DATE", "MODE", "STATUS", "ITEMS", "ERROR")
	for _, run := range runs {
		errText := ""
		if run.Error != nil {
			errText = truncate(*run.Error, 60)
		}

		fmt.Fprintf(w, "%-20s %-10s %-20s %-10s %-6d %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.DateLabel,
			run.Mode,
			run.Status,
			run.ItemCount,
			errText,
		)
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
