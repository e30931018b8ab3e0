// Package config loads render settings from YAML. Defaults are embedded;
// a file on disk may override any of them.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	mandel "github.com/marben/mandelzoom"
)

// ------------------------------ YAML schema ------------------------------

type Surface struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Listen struct {
	HTTP string `yaml:"http"`

	// Origins lists extra host patterns allowed to open the websocket,
	// e.g. "*.example.com" or "localhost:*". Same-origin is always allowed.
	Origins []string `yaml:"origins"`
}

type Config struct {
	Surface        Surface       `yaml:"surface"`
	Params         mandel.Params `yaml:"params"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	TaskTimeout    time.Duration `yaml:"task_timeout"`
	Region         string        `yaml:"region"`
	Listen         Listen        `yaml:"listen"`

	// Worker is the path of a worker binary (cmd/client) to render in.
	// Empty renders in this process.
	Worker string `yaml:"worker"`
}

// ------------------------------ loader ------------------------------

//go:embed config.yml
var raw []byte

// Default returns the embedded configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the embedded defaults and overlays path on top of them.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every field a render depends on.
func (c *Config) Validate() error {
	if c.Surface.Width < 1 || c.Surface.Height < 1 {
		return fmt.Errorf("config: surface %dx%d", c.Surface.Width, c.Surface.Height)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("config: max_concurrency %d", c.MaxConcurrency)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("config: task_timeout %s", c.TaskTimeout)
	}
	if _, err := mandel.LookupRegion(c.Region); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, o := range c.Listen.Origins {
		if _, err := path.Match(o, ""); err != nil {
			return fmt.Errorf("config: listen.origins %q: %w", o, err)
		}
	}
	return nil
}

// InitialRegion resolves the configured region preset.
func (c *Config) InitialRegion() mandel.Region {
	r, err := mandel.LookupRegion(c.Region)
	if err != nil {
		return mandel.Overview
	}
	return r
}

// Concurrency is the number of tiles rendered at once.
func (c *Config) Concurrency() int {
	if c.MaxConcurrency > 0 {
		return c.MaxConcurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Aspect is the surface width / height.
func (c *Config) Aspect() float64 {
	return float64(c.Surface.Width) / float64(c.Surface.Height)
}
