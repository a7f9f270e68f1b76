// Package config loads the engine's TOML configuration with a default
// overlay: missing keys keep their defaults, present keys override them.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tsellier/ghostpatch/types"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel   string `toml:"log_level"`
	ContentDir string `toml:"content_dir"`
	SaveDir    string `toml:"save_dir"`

	Gateway       Gateway                     `toml:"gateway"`
	Accessibility types.AccessibilitySettings `toml:"accessibility"`
	Performance   types.PerformanceSettings   `toml:"performance"`
}

// Gateway configures the websocket gateway.
type Gateway struct {
	Addr           string `toml:"addr"`
	AllowedOrigins string `toml:"allowed_origins"` // "*" or comma-separated
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true,
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:   "info",
		ContentDir: "content",
		SaveDir:    "saves",
		Gateway: Gateway{
			Addr:           "127.0.0.1:8787",
			AllowedOrigins: "*",
		},
		Accessibility: types.AccessibilitySettings{
			IntensityScale: 1.0,
		},
		Performance: types.PerformanceSettings{
			MaxConcurrentEffects: 8,
			QualityScale:         1.0,
			TargetFrameRate:      60,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if strings.TrimSpace(c.Gateway.Addr) == "" {
		return fmt.Errorf("gateway.addr must not be empty")
	}
	if c.Accessibility.IntensityScale <= 0 || c.Accessibility.IntensityScale > 2 {
		return fmt.Errorf("accessibility.intensity_scale %v out of (0,2]", c.Accessibility.IntensityScale)
	}
	if c.Performance.MaxConcurrentEffects < 1 {
		return fmt.Errorf("performance.max_concurrent_effects must be at least 1")
	}
	if c.Performance.QualityScale <= 0 || c.Performance.QualityScale > 1 {
		return fmt.Errorf("performance.quality_scale %v out of (0,1]", c.Performance.QualityScale)
	}
	if c.Performance.TargetFrameRate < 1 {
		return fmt.Errorf("performance.target_frame_rate must be at least 1")
	}
	return nil
}
