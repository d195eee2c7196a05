package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weibosync/weibosync/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config file",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if wrote {
		fmt.Printf("Initialized %s.\n", configDir)
	} else {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# weibosync configuration

weibo:
  # Numeric account UID to mirror.
  uid: "1234567890"
  # Env var holding the JSON cookie bundle for the session.
  cookies_env: WEIBO_COOKIES

github:
  # Target repository for issues; defaults to $GITHUB_REPOSITORY.
  # repository: owner/name
  token_env: GITHUB_TOKEN
  # Repository variable the refresh step writes rotated cookies to.
  cookies_variable: WEIBO_COOKIES

watermark:
  # github: store the watermark in an Actions repository variable.
  # local:  store it in the state database below.
  backend: github
  variable: WEIBO_LATEST_TIMESTAMP

storage:
  path: .weibosync/weibosync.db

sync:
  title_limit: 60
  timeout: 30s

refresh:
  # Rotate session cookies via headless Chrome before syncing ('run' command).
  enabled: false
  timeout: 90s

# Read through an RSSHub-style mirror instead of the cookie-authenticated API.
# mirror:
#   feed: https://rsshub.example.com/weibo/user/1234567890

filters:
  # Posts matching any pattern are skipped.
  exclude: []
  #  - 抽奖
  #  - 广告
`
