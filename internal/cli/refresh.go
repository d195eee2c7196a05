package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weibosync/weibosync/internal/browser"
	"github.com/weibosync/weibosync/internal/config"
	"github.com/weibosync/weibosync/internal/github"
	"github.com/weibosync/weibosync/internal/weibo"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the Weibo session cookies via headless Chrome",
	RunE:  refreshAction,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func refreshAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Weibo.Cookies == "" {
		return fmt.Errorf("%s is not set", cfg.Weibo.CookiesEnv)
	}

	cookies, err := weibo.ParseCookies(cfg.Weibo.Cookies)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Weibo.CookiesEnv, err)
	}

	refreshed, err := refreshCookies(cmd.Context(), cfg, cookies)
	if err != nil {
		return err
	}

	fmt.Printf("Refreshed %d cookies\n", len(refreshed))
	return nil
}

// refreshCookies drives the browser and persists the rotated bundle to
// the configured repository variable so the next run starts from it.
func refreshCookies(ctx context.Context, cfg *config.Config, cookies []weibo.Cookie) ([]weibo.Cookie, error) {
	refreshed, err := browser.Refresh(ctx, cookies, cfg.Refresh.Timeout.Duration)
	if err != nil {
		return nil, err
	}

	encoded, err := weibo.EncodeCookies(refreshed)
	if err != nil {
		return nil, err
	}

	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("%s is not set", cfg.GitHub.TokenEnv)
	}
	gh := github.NewClient(cfg.GitHub.APIBase, cfg.GitHub.Repository, cfg.GitHub.Token, cfg.Sync.Timeout.Duration)
	if err := gh.SetVariable(ctx, cfg.GitHub.CookiesVariable, encoded); err != nil {
		return nil, err
	}

	return refreshed, nil
}
