// Package config loads the YAML configuration consumed by cmd/tvmdecode.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlaybackConfig holds the settings needed to stand up a playback
// manager and its logging.
type PlaybackConfig struct {
	RootDir    string `yaml:"root_dir"`
	MemLoad    int    `yaml:"mem_load"`
	DecodeLoad int    `yaml:"decode_load"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
}

// Default returns a PlaybackConfig with sensible fallback values.
func Default() PlaybackConfig {
	return PlaybackConfig{
		MemLoad:    4,
		DecodeLoad: 2,
		LogLevel:   "info",
	}
}

// Load reads and parses a PlaybackConfig from a YAML file at path,
// starting from Default and letting the file's fields override it.
func Load(path string) (PlaybackConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return PlaybackConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return PlaybackConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.RootDir == "" {
		return PlaybackConfig{}, fmt.Errorf("config: %s: root_dir must be set", path)
	}
	if cfg.DecodeLoad > cfg.MemLoad {
		return PlaybackConfig{}, fmt.Errorf("config: %s: decode_load (%d) must not exceed mem_load (%d)", path, cfg.DecodeLoad, cfg.MemLoad)
	}
	return cfg, nil
}
