package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weibosync/weibosync/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Refresh cookies if enabled, then sync",
	RunE:  runAction,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cookies, err := sessionCookies(cfg)
	if err != nil {
		return err
	}

	if cfg.Refresh.Enabled && cfg.Mirror.Feed == "" {
		refreshed, err := refreshCookies(cmd.Context(), cfg, cookies)
		if err != nil {
			// A failed refresh is worth a retry with the stale bundle:
			// cookies often outlive one rotation window.
			fmt.Printf("warning: %v (continuing with existing cookies)\n", err)
		} else {
			cookies = refreshed
			fmt.Printf("Refreshed %d cookies\n", len(refreshed))
		}
	}

	return syncOnce(cmd.Context(), cfg, cookies)
}
