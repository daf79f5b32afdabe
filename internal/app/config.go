package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"dreamcatcher/internal/quests"
)

const envPrefix = "DREAMCATCHER_"

// Config controls where the journal lives and whose journal it is.
type Config struct {
	DataDir         string `env:"DATA_DIR"`
	UserID          string `env:"USER_ID"`
	LogPath         string `env:"LOG_PATH"`
	LogLevel        string `env:"LOG_LEVEL"`
	CatalogDir      string `env:"CATALOG_DIR"`
	StoreDriver     string `env:"STORE"`
	DailyQuestCount int    `env:"DAILY_QUESTS"`
}

func DefaultConfig() Config {
	return Config{
		UserID:          "local",
		LogLevel:        "info",
		StoreDriver:     "sqlite",
		DailyQuestCount: quests.DefaultDailyCount,
	}
}

// LoadConfig overlays DREAMCATCHER_* environment variables on the defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.UserID = strings.TrimSpace(c.UserID)
	if c.UserID == "" {
		c.UserID = "local"
	}
	switch c.StoreDriver {
	case "", "sqlite":
		c.StoreDriver = "sqlite"
	case "memory":
	default:
		return fmt.Errorf("invalid store driver %q", c.StoreDriver)
	}
	switch strings.ToLower(c.LogLevel) {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.DailyQuestCount < 0 {
		return fmt.Errorf("invalid daily quest count %d", c.DailyQuestCount)
	}
	if c.DailyQuestCount == 0 {
		c.DailyQuestCount = quests.DefaultDailyCount
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "dreamcatcher")
	}
	return nil
}

func (c Config) DBPath() string { return filepath.Join(c.DataDir, "dreamcatcher.db") }
