// Package config loads tool-level settings. Per-group render settings
// live next to the footage (see domain/groupcfg); this file only holds
// machine/user preferences.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration, read from
// ~/.config/reelpress/config.toml when present.
type Config struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Editor overrides $EDITOR for the group config editing step.
	Editor string `toml:"editor"`

	// Parallel processes groups concurrently by default; the CLI flag
	// still wins.
	Parallel bool `toml:"parallel"`

	// PreviewLength is the preview duration in seconds seeded into
	// fresh group configs.
	PreviewLength float64 `toml:"preview_length"`
}

func Default() *Config {
	return &Config{
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
		LogLevel:      "info",
		LogFormat:     "console",
		PreviewLength: 10,
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "reelpress", "config.toml"), nil
}

// Load reads the TOML config at path, filling gaps with defaults. A
// missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	defaults := Default()
	if c.FFmpegPath == "" {
		c.FFmpegPath = defaults.FFmpegPath
	}
	if c.FFprobePath == "" {
		c.FFprobePath = defaults.FFprobePath
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
	if c.PreviewLength <= 0 {
		c.PreviewLength = defaults.PreviewLength
	}
}
