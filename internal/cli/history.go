package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weibosync/weibosync/internal/config"
	"github.com/weibosync/weibosync/internal/state"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := state.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer func() { _ = db.Close() }()

	runs, err := db.RecentRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded yet. Run 'weibosync sync' first.")
		return nil
	}

	w := os.Stdout
	fmt.Fprintf(w, "  %-19s  %7s  %9s  %7s  %6s  %s\n", "Started", "Fetched", "Published", "Skipped", "Failed", "Watermark")
	for _, run := range runs {
		watermark := "-"
		if run.Advanced {
			watermark = fmt.Sprintf("%d", run.Watermark)
		}
		fmt.Fprintf(w, "  %-19s  %7d  %9d  %7d  %6d  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Fetched, run.Published, run.Skipped, run.Failed, watermark)
	}
	return nil
}
