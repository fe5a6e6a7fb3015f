package likebot

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/likebot/core/config"
	coredatabase "github.com/m3rciful/likebot/core/database"
	"github.com/m3rciful/likebot/core/kv"
	"github.com/m3rciful/likebot/internal/dialog"
	"github.com/m3rciful/likebot/internal/likes"
)

// DefaultStatsLimit caps the stats listing.
const DefaultStatsLimit = 5

// LikesConfig tunes the like workflow.
type LikesConfig struct {
	// RequiredChannel, when set, must be joined before /start shows the menu.
	RequiredChannel string `yaml:"required_channel" envconfig:"LIKES_REQUIRED_CHANNEL"`
	StatsLimit      int    `yaml:"stats_limit" envconfig:"LIKES_STATS_LIMIT"`
	MaxNameLength   int    `yaml:"max_name_length" envconfig:"LIKES_MAX_NAME_LENGTH"`
}

// Config is the full bot configuration: the core sections plus storage and
// like settings.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Store    kv.Config           `yaml:"store"`
	Database coredatabase.Config `yaml:"database"`
	Likes    LikesConfig         `yaml:"likes"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, overlays the environment and normalizes the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Store.Normalize(); err != nil {
		return err
	}
	if c.Store.Driver == kv.DriverPostgres {
		if err := c.Database.Normalize(); err != nil {
			return err
		}
	}

	if c.Likes.StatsLimit <= 0 {
		c.Likes.StatsLimit = DefaultStatsLimit
	}
	if c.Likes.MaxNameLength <= 0 {
		c.Likes.MaxNameLength = likes.DefaultMaxNameLength
	}
	if ch := strings.TrimSpace(c.Likes.RequiredChannel); ch != "" {
		handle, err := dialog.NormalizeChannel(ch)
		if err != nil {
			return fmt.Errorf("likes.required_channel: %w", err)
		}
		c.Likes.RequiredChannel = handle
	}
	return nil
}
