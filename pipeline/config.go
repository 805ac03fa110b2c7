// Package pipeline binds the store, the migrator, the legacy integrator
// and the artifact generator behind one configuration surface.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/artifact"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/legacy"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/migrate"
)

// Config holds the full pipeline configuration.
type Config struct {
	// DBPath is the relational store file.
	DBPath   string          `yaml:"db_path"`
	Migrate  migrate.Config  `yaml:"migrate"`
	Legacy   legacy.Config   `yaml:"legacy"`
	Artifact artifact.Config `yaml:"artifact"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "data/videos.sqlite"
	}
}

// LoadConfigFile reads a YAML config file. Component defaults apply when
// their sections are omitted, so an empty file is a valid configuration.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("pipeline: parse config: %w", err)
	}
	cfg.defaults()
	return cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}
