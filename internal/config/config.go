// Package config loads taskly configuration.
//
// Precedence, highest first:
//  1. TASKLY_* environment variables (TASKLY_STORAGE_PATH -> storage.path)
//  2. YAML file (~/.config/taskly/config.yaml or --config)
//  3. Built-in defaults
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "TASKLY_"

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	User          UserConfig          `koanf:"user"`
	Storage       StorageConfig       `koanf:"storage"`
	Settings      SettingsConfig      `koanf:"settings"`
	Log           LogConfig           `koanf:"log"`
	Calendar      CalendarConfig      `koanf:"calendar"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Changefeed    ChangefeedConfig    `koanf:"changefeed"`
	Metrics       MetricsConfig       `koanf:"metrics"`
}

type UserConfig struct {
	ID string `koanf:"id"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

type SettingsConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

type CalendarConfig struct {
	Locale   string `koanf:"locale"`
	Timezone string `koanf:"timezone"`
}

type NotificationsConfig struct {
	Desktop bool `koanf:"desktop"`
	Buffer  int  `koanf:"buffer"`
}

type ChangefeedConfig struct {
	NATSURL string `koanf:"nats_url"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DefaultPath is ~/.config/taskly/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "taskly", "config.yaml"), nil
}

// Load reads defaults, then path (or the default path) when the file
// exists, then the environment. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	content, err := os.ReadFile(expandHome(path))
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// TASKLY_CHANGEFEED_NATS_URL -> changefeed.nats_url: split on the first
	// underscore after the prefix only.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	cfg.Settings.Path = expandHome(cfg.Settings.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.User.ID) == "" {
		return errors.New("user.id is required")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}
	if c.Notifications.Buffer <= 0 {
		return fmt.Errorf("notifications.buffer must be positive, got %d", c.Notifications.Buffer)
	}
	return nil
}

// Location resolves calendar.timezone; empty and "Local" mean the system
// zone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Calendar.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
