package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weibosync/weibosync/internal/config"
	"github.com/weibosync/weibosync/internal/filter"
	"github.com/weibosync/weibosync/internal/github"
	"github.com/weibosync/weibosync/internal/mirror"
	"github.com/weibosync/weibosync/internal/state"
	"github.com/weibosync/weibosync/internal/syncer"
	"github.com/weibosync/weibosync/internal/weibo"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one fetch-publish pass",
	RunE:  syncAction,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func syncAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cookies, err := sessionCookies(cfg)
	if err != nil {
		return err
	}

	return syncOnce(cmd.Context(), cfg, cookies)
}

// sessionCookies decodes the cookie bundle from the environment. The
// mirror fetch path needs no cookies; the API path cannot run without
// them.
func sessionCookies(cfg *config.Config) ([]weibo.Cookie, error) {
	if cfg.Mirror.Feed != "" {
		return nil, nil
	}
	if cfg.Weibo.Cookies == "" {
		return nil, fmt.Errorf("%s is not set", cfg.Weibo.CookiesEnv)
	}
	cookies, err := weibo.ParseCookies(cfg.Weibo.Cookies)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Weibo.CookiesEnv, err)
	}
	return cookies, nil
}

// syncOnce wires the engine from config and performs one pass. Shared
// between sync and run so run can hand over freshly refreshed cookies.
func syncOnce(ctx context.Context, cfg *config.Config, cookies []weibo.Cookie) error {
	if cfg.GitHub.Token == "" {
		return fmt.Errorf("%s is not set", cfg.GitHub.TokenEnv)
	}

	exclude, err := filter.Compile(cfg.Filters.Exclude)
	if err != nil {
		return err
	}

	gh := github.NewClient(cfg.GitHub.APIBase, cfg.GitHub.Repository, cfg.GitHub.Token, cfg.Sync.Timeout.Duration)

	var source syncer.Source
	if cfg.Mirror.Feed != "" {
		source, err = mirror.NewFeed(cfg.Mirror.Feed, exclude, cfg.Sync.Timeout.Duration)
		if err != nil {
			return err
		}
	} else {
		client := weibo.NewClient(cfg.Weibo.APIBase, cookies, cfg.Sync.Timeout.Duration)
		source = weibo.NewFeed(client, cfg.Weibo.UID, exclude)
	}

	db, err := state.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer func() { _ = db.Close() }()

	var watermarks syncer.WatermarkStore
	if cfg.Watermark.Backend == config.BackendLocal {
		watermarks = db
	} else {
		watermarks = github.NewVariableWatermark(gh, cfg.Watermark.Variable)
	}

	engine := syncer.New(source, gh, watermarks, cfg.Sync.TitleLimit)

	started := time.Now()
	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	if err := db.RecordRun(ctx, state.Run{
		StartedAt: started,
		Fetched:   summary.Fetched,
		Published: summary.Published,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
		Watermark: summary.Watermark,
		Advanced:  summary.Advanced,
	}); err != nil {
		fmt.Printf("warning: %v\n", err)
	}

	fmt.Printf("Fetched %d posts: %d published, %d skipped, %d failed\n",
		summary.Fetched, summary.Published, summary.Skipped, summary.Failed)
	if summary.Advanced {
		fmt.Printf("Watermark advanced to %d\n", summary.Watermark)
	} else {
		fmt.Println("Watermark unchanged")
	}
	return nil
}
