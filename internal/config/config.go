// Package config loads and validates the crateprov configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/crateprov/crateprov/internal/errors"
	"github.com/crateprov/crateprov/internal/flags"
	"github.com/crateprov/crateprov/internal/perms"
)

// Loader loads configuration from a file path.
type Loader interface {
	Load(path string) (*Config, error)
}

// Initializer creates a new skeleton configuration file.
type Initializer interface {
	Init(path string) error
}

// Config is the top-level crateprov configuration.
type Config struct {
	Fetch  Fetch  `toml:"fetch"`
	Clone  Clone  `toml:"clone"`
	Match  Match  `toml:"match"`
	Verify Verify `toml:"verify"`

	// configFilePath tracks the file this config was loaded from (empty for defaults).
	configFilePath string
}

// Fetch configures the crates.io artifact fetcher.
type Fetch struct {
	// BaseURL is the static download endpoint serving .crate archives.
	BaseURL string `toml:"base_url"`

	// UserAgent identifies this tool to the registry, per the crawling policy.
	UserAgent string `toml:"user_agent"`

	// CrawlDelaySeconds is the minimum delay between consecutive downloads.
	CrawlDelaySeconds int `toml:"crawl_delay_seconds"`
}

// Clone configures repository acquisition.
type Clone struct {
	// TimeoutSeconds bounds each individual clone attempt.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// CacheDir is where clones are materialized. Empty selects the user cache dir.
	CacheDir string `toml:"cache_dir"`

	// KeepClones retains materialized clones after a run instead of removing them.
	KeepClones bool `toml:"keep_clones"`
}

// Match configures which artifact files participate in content matching.
type Match struct {
	// Extensions is the file extension filter for matchable source files.
	Extensions []string `toml:"extensions"`
}

// Verify configures batch verification.
type Verify struct {
	// Workers bounds the number of concurrent verification passes.
	Workers int `toml:"workers"`

	// DumpFile is the default path of the crates.io database dump.
	DumpFile string `toml:"dump_file"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Fetch: Fetch{
			BaseURL:           "https://static.crates.io/crates",
			UserAgent:         "crateprov",
			CrawlDelaySeconds: 2,
		},
		Clone: Clone{
			TimeoutSeconds: 120,
		},
		Match: Match{
			Extensions: []string{".rs"},
		},
		Verify: Verify{
			Workers:  4,
			DumpFile: "db-dump.tar.gz",
		},
	}
}

// DefaultLoader loads TOML configuration files from disk.
type DefaultLoader struct{}

// Init creates the base skeleton configuration file for a crateprov project.
func (d *DefaultLoader) Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	content := `[fetch]
base_url = "https://static.crates.io/crates"
user_agent = "crateprov"
crawl_delay_seconds = 2

[clone]
timeout_seconds = 120

[match]
extensions = [".rs"]

[verify]
workers = 4
dump_file = "db-dump.tar.gz"
`

	if err := os.WriteFile(path, []byte(content), perms.RegularFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// Load reads and validates the config at path. A missing file at the default
// location yields the built-in defaults; a missing file anywhere else is an
// error, since the caller asked for it explicitly.
func (d *DefaultLoader) Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", errs.ErrConfigLoadFailed)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if path == flags.DefaultConfigFile {
				return Default(), nil
			}
			return nil, fmt.Errorf("%w: config file cannot be found (%s)", errs.ErrConfigLoadFailed, path)
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", errs.ErrConfigLoadFailed, path, err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", errs.ErrConfigLoadFailed, path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: failed to validate config (%s): %w", errs.ErrConfigLoadFailed, path, err)
	}

	cfg.configFilePath = path

	return cfg, nil
}

// CloneTimeout returns the per-clone deadline as a duration.
func (c *Config) CloneTimeout() time.Duration {
	return time.Duration(c.Clone.TimeoutSeconds) * time.Second
}

// CrawlDelay returns the inter-fetch delay as a duration.
func (c *Config) CrawlDelay() time.Duration {
	return time.Duration(c.Fetch.CrawlDelaySeconds) * time.Second
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Fetch.BaseURL) == "" {
		return fmt.Errorf("fetch.base_url cannot be empty")
	}
	if c.Fetch.CrawlDelaySeconds < 0 {
		return fmt.Errorf("fetch.crawl_delay_seconds cannot be negative")
	}
	if c.Clone.TimeoutSeconds <= 0 {
		return fmt.Errorf("clone.timeout_seconds must be positive")
	}
	if c.Verify.Workers <= 0 {
		return fmt.Errorf("verify.workers must be positive")
	}
	if len(c.Match.Extensions) == 0 {
		return fmt.Errorf("match.extensions cannot be empty")
	}
	for _, ext := range c.Match.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("match.extensions entries must start with '.': %q", ext)
		}
	}
	return nil
}
