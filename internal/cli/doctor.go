package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/weibosync/weibosync/internal/config"
	"github.com/weibosync/weibosync/internal/state"
	"github.com/weibosync/weibosync/internal/weibo"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and dependencies",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// chromeBinaries are the executables chromedp can drive, in preference order.
var chromeBinaries = []string{"google-chrome", "chromium", "chromium-browser"}

func doctorAction(_ *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		return fmt.Errorf("some checks failed")
	}
	source := "weibo api"
	if cfg.Mirror.Feed != "" {
		source = "rss mirror"
	}
	printCheck(true, "config.yaml (uid %s, source %s, watermark %s)", cfg.Weibo.UID, source, cfg.Watermark.Backend)

	// Cookie bundle
	if cfg.Mirror.Feed == "" {
		if cfg.Weibo.Cookies == "" {
			printCheck(false, "%s is not set", cfg.Weibo.CookiesEnv)
			ok = false
		} else if cookies, err := weibo.ParseCookies(cfg.Weibo.Cookies); err != nil {
			printCheck(false, "%s: %v", cfg.Weibo.CookiesEnv, err)
			ok = false
		} else {
			printCheck(true, "%s (%d cookies)", cfg.Weibo.CookiesEnv, len(cookies))
		}
	}

	// GitHub token
	if cfg.GitHub.Token == "" {
		printCheck(false, "%s is not set", cfg.GitHub.TokenEnv)
		ok = false
	} else {
		printCheck(true, "%s", cfg.GitHub.TokenEnv)
	}

	// State database
	db, err := state.Open(cfg.Storage.Path)
	if err != nil {
		printCheck(false, "state database: %v", err)
		ok = false
	} else {
		_ = db.Close()
		printCheck(true, "state database %s", cfg.Storage.Path)
	}

	// Chrome, only needed for cookie refresh
	if cfg.Refresh.Enabled {
		found := ""
		for _, bin := range chromeBinaries {
			if _, err := exec.LookPath(bin); err == nil {
				found = bin
				break
			}
		}
		if found == "" {
			printCheck(false, "chrome not found (needed for refresh)")
			ok = false
		} else {
			printCheck(true, "chrome (%s)", found)
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}
