// Package config loads and validates the weibosync configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "config.yaml"

	DefaultStoragePath       = ".weibosync/weibosync.db"
	DefaultCookiesEnv        = "WEIBO_COOKIES"
	DefaultTokenEnv          = "GITHUB_TOKEN"
	DefaultRepositoryEnv     = "GITHUB_REPOSITORY"
	DefaultWatermarkVariable = "WEIBO_LATEST_TIMESTAMP"
	DefaultCookiesVariable   = "WEIBO_COOKIES"
	DefaultTitleLimit        = 60
	DefaultRequestTimeout    = 30 * time.Second
	DefaultRefreshTimeout    = 90 * time.Second

	BackendGitHub = "github"
	BackendLocal  = "local"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Weibo     WeiboConfig     `yaml:"weibo"`
	GitHub    GitHubConfig    `yaml:"github"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Storage   StorageConfig   `yaml:"storage"`
	Mirror    MirrorConfig    `yaml:"mirror"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Sync      SyncConfig      `yaml:"sync"`
	Filters   FiltersConfig   `yaml:"filters"`
}

type WeiboConfig struct {
	UID        string `yaml:"uid"`
	APIBase    string `yaml:"api_base"`
	CookiesEnv string `yaml:"cookies_env"`

	// Resolved from env at load time.
	Cookies string `yaml:"-"`
}

type GitHubConfig struct {
	Repository      string `yaml:"repository"`
	RepositoryEnv   string `yaml:"repository_env"`
	APIBase         string `yaml:"api_base"`
	TokenEnv        string `yaml:"token_env"`
	CookiesVariable string `yaml:"cookies_variable"`

	// Resolved from env at load time.
	Token string `yaml:"-"`
}

type WatermarkConfig struct {
	Backend  string `yaml:"backend"` // github or local
	Variable string `yaml:"variable"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// MirrorConfig selects the RSS mirror fetch path when Feed is set;
// the cookie-authenticated API path is used otherwise.
type MirrorConfig struct {
	Feed string `yaml:"feed"`
}

type RefreshConfig struct {
	Enabled bool     `yaml:"enabled"`
	Timeout Duration `yaml:"timeout"`
}

type SyncConfig struct {
	TitleLimit int      `yaml:"title_limit"`
	Timeout    Duration `yaml:"timeout"`
}

type FiltersConfig struct {
	Exclude []string `yaml:"exclude"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars,
// and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Weibo.CookiesEnv == "" {
		cfg.Weibo.CookiesEnv = DefaultCookiesEnv
	}
	if cfg.GitHub.TokenEnv == "" {
		cfg.GitHub.TokenEnv = DefaultTokenEnv
	}
	if cfg.GitHub.RepositoryEnv == "" {
		cfg.GitHub.RepositoryEnv = DefaultRepositoryEnv
	}
	if cfg.GitHub.CookiesVariable == "" {
		cfg.GitHub.CookiesVariable = DefaultCookiesVariable
	}
	if cfg.Watermark.Backend == "" {
		cfg.Watermark.Backend = BackendGitHub
	}
	if cfg.Watermark.Variable == "" {
		cfg.Watermark.Variable = DefaultWatermarkVariable
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Sync.TitleLimit == 0 {
		cfg.Sync.TitleLimit = DefaultTitleLimit
	}
	if cfg.Sync.Timeout.Duration == 0 {
		cfg.Sync.Timeout.Duration = DefaultRequestTimeout
	}
	if cfg.Refresh.Timeout.Duration == 0 {
		cfg.Refresh.Timeout.Duration = DefaultRefreshTimeout
	}
}

func resolveEnv(cfg *Config) {
	cfg.Weibo.Cookies = os.Getenv(cfg.Weibo.CookiesEnv)
	cfg.GitHub.Token = os.Getenv(cfg.GitHub.TokenEnv)
	if cfg.GitHub.Repository == "" {
		cfg.GitHub.Repository = os.Getenv(cfg.GitHub.RepositoryEnv)
	}
}

func validate(cfg *Config) error {
	if cfg.Weibo.UID == "" && cfg.Mirror.Feed == "" {
		return errors.New("weibo.uid: required unless mirror.feed is set")
	}

	if cfg.GitHub.Repository == "" {
		return fmt.Errorf("github.repository: required (or set %s)", cfg.GitHub.RepositoryEnv)
	}
	if !strings.Contains(cfg.GitHub.Repository, "/") {
		return fmt.Errorf("github.repository: %q is not owner/name", cfg.GitHub.Repository)
	}

	switch cfg.Watermark.Backend {
	case BackendGitHub, BackendLocal:
		// valid
	default:
		return fmt.Errorf("watermark.backend: unknown backend %q (want github or local)", cfg.Watermark.Backend)
	}

	if cfg.Sync.TitleLimit < 0 {
		return errors.New("sync.title_limit: must not be negative")
	}

	for _, p := range cfg.Filters.Exclude {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("filters.exclude: %w", err)
		}
	}

	return nil
}
