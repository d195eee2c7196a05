// Package cli provides the command-line interface for weibosync.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "weibosync",
	Short: "Mirror a Weibo account's posts into GitHub issues",
	Long: "weibosync runs one incremental sync pass per invocation: it fetches the newest page\n" +
		"of a Weibo account's feed, publishes posts newer than the stored watermark as GitHub\n" +
		"issues, and advances the watermark. Meant to be driven by cron or GitHub Actions.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("weibosync %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", defaultConfigDir(), "config directory")
	rootCmd.AddCommand(versionCmd)
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "weibosync")
	}
	return ".weibosync"
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
