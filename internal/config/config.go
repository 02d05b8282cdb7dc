// Package config locates and loads the ordcache CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// EnvPath names the env variable that overrides the config file location.
const EnvPath = "ORDCACHE_CONFIG"

// Config mirrors the YAML config file. Every key is optional.
type Config struct {
	// Source is the file the config was read from, if any.
	Source string `yaml:"-"`

	MaxSize  int    `yaml:"max_size"`
	TTL      string `yaml:"ttl"`
	LogLevel string `yaml:"log_level"`
}

// Path returns the config file location: ORDCACHE_CONFIG if set, otherwise
// ordcache.yaml under the user config directory.
func Path() string {
	if p, ok := os.LookupEnv(EnvPath); ok && p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ordcache", "ordcache.yaml")
}

// Load reads and validates the config file at path. A missing file yields an
// empty Config and no error.
func Load(path string) (Config, error) {
	cfg := Config{Source: path}
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no config file at %s", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	log.Debugf("using config file: %s", path)
	return cfg, nil
}

// TTLDuration parses the ttl key. ok is false when the key is unset.
func (c Config) TTLDuration() (d time.Duration, ok bool, err error) {
	if c.TTL == "" {
		return 0, false, nil
	}
	d, err = time.ParseDuration(c.TTL)
	if err != nil {
		return 0, false, err
	}
	return d, true, nil
}

func (c Config) validate() error {
	if c.MaxSize < 0 {
		return fmt.Errorf("max_size must not be negative; got %d", c.MaxSize)
	}
	d, _, err := c.TTLDuration()
	if err != nil {
		return fmt.Errorf("ttl: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("ttl must not be negative; got %s", d)
	}
	return nil
}
