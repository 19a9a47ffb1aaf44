package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the sniffer daemon configuration file.
type Config struct {
	// Port is the capture firmware's serial port.
	Port string `yaml:"port"`
	// Baud overrides the firmware's default UART rate when non-zero.
	Baud int `yaml:"baud"`
	// AdvChannel is the primary advertising channel to scan (37-39).
	AdvChannel uint8 `yaml:"adv_channel"`
	// Output is the NDJSON capture file; "-" or empty means stdout.
	Output string `yaml:"output"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the rotating log file. An empty file name logs to
// stderr without rotation.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		AdvChannel: 37,
		Log:        LogConfig{MaxSizeMB: 50, MaxBackups: 3},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read config %s", path)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "can't parse config %s", path)
	}
	return cfg, nil
}
