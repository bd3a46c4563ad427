// Package config loads the updater's settings from a YAML file with
// environment-variable overrides (a local .env is honored too).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Fields struct {
	Version       string `yaml:"version"`
	DownloadURL   string `yaml:"downloadUrl"`
	Changelog     string `yaml:"changelog"`
	IsForceUpdate string `yaml:"isForceUpdate"`
	PublishDate   string `yaml:"publishDate"`
	FileSize      string `yaml:"fileSize"`
	Checksum      string `yaml:"checksum"`
}

// Duration accepts Go duration strings like "30s" or "10m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Endpoint        string            `yaml:"endpoint"`
	CurrentVersion  string            `yaml:"currentVersion"`
	Target          string            `yaml:"target"`
	Preset          string            `yaml:"preset"`
	DownloadTimeout Duration          `yaml:"downloadTimeout"`
	Proxy           string            `yaml:"proxy"`
	UserAgent       string            `yaml:"userAgent"`
	Headers         map[string]string `yaml:"headers"`
	Fields          Fields            `yaml:"fields"`
	LogFile         string            `yaml:"logFile"`
}

// Load reads path when non-empty, then applies env overrides. A missing
// config file is only an error when one was explicitly requested.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays REVUP_* environment variables, loading a .env file first
// when present.
func (c *Config) applyEnv() {
	godotenv.Load()
	if v := os.Getenv("REVUP_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("REVUP_CURRENT_VERSION"); v != "" {
		c.CurrentVersion = v
	}
	if v := os.Getenv("REVUP_TARGET"); v != "" {
		c.Target = v
	}
	if v := os.Getenv("REVUP_PRESET"); v != "" {
		c.Preset = v
	}
	if v := os.Getenv("REVUP_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("REVUP_LOG_FILE"); v != "" {
		c.LogFile = v
	}
}
