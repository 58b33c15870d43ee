package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes a complete flow graph run: the scheduler-wide knobs
// and the list of blocks and connections to wire together.
type Config struct {
	WorkerIdleTimeout  time.Duration `yaml:"worker_idle_timeout"`
	DefaultBufferItems int           `yaml:"default_buffer_items"`
	Blocks             []BlockConfig `yaml:"blocks"`
	Connections        []Connection  `yaml:"connections"`
}

// BlockConfig names one block instance and the kind of block.Block it
// should be constructed from, plus its per-block overrides.
type BlockConfig struct {
	Name           string         `yaml:"name"`
	Kind           string         `yaml:"kind"`
	OutputMultiple int            `yaml:"output_multiple"`
	BufferItems    int            `yaml:"buffer_items"`
	Params         map[string]any `yaml:"params"`
}

// Connection wires one block's output stream to another block's input
// stream, carrying the history the downstream input requires.
type Connection struct {
	FromBlock  string `yaml:"from_block"`
	FromOutput int    `yaml:"from_output"`
	ToBlock    string `yaml:"to_block"`
	ToInput    int    `yaml:"to_input"`
	History    int    `yaml:"history"`
}

// Load reads and parses a YAML graph description, then validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}

	return &cfg, nil
}
