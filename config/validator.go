package config

import (
	"fmt"
	"regexp"
	"time"
)

var blockNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

const (
	defaultWorkerIdleTimeout = 5 * time.Second
	defaultBufferItems       = 4096
	defaultOutputMultiple    = 1
	defaultHistory           = 1
)

// Validate fills in defaults for anything left zero-valued and rejects a
// configuration that could never build a runnable graph.
func Validate(cfg *Config) error {
	if cfg.WorkerIdleTimeout <= 0 {
		cfg.WorkerIdleTimeout = defaultWorkerIdleTimeout
	}
	if cfg.DefaultBufferItems <= 0 {
		cfg.DefaultBufferItems = defaultBufferItems
	}

	if len(cfg.Blocks) == 0 {
		return fmt.Errorf("config: at least one block is required")
	}

	seen := make(map[string]bool, len(cfg.Blocks))
	for i := range cfg.Blocks {
		b := &cfg.Blocks[i]
		if b.Name == "" {
			return fmt.Errorf("config: blocks[%d]: name is required", i)
		}
		if !blockNamePattern.MatchString(b.Name) {
			return fmt.Errorf("config: block %q: name must match [a-zA-Z0-9_-]+", b.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("config: block %q: duplicate name", b.Name)
		}
		seen[b.Name] = true

		if b.Kind == "" {
			return fmt.Errorf("config: block %q: kind is required", b.Name)
		}
		if b.OutputMultiple <= 0 {
			b.OutputMultiple = defaultOutputMultiple
		}
		if b.BufferItems <= 0 {
			b.BufferItems = cfg.DefaultBufferItems
		}
	}

	for i := range cfg.Connections {
		c := &cfg.Connections[i]
		if !seen[c.FromBlock] {
			return fmt.Errorf("config: connections[%d]: unknown from_block %q", i, c.FromBlock)
		}
		if !seen[c.ToBlock] {
			return fmt.Errorf("config: connections[%d]: unknown to_block %q", i, c.ToBlock)
		}
		if c.History < 0 {
			return fmt.Errorf("config: connections[%d]: history must be >= 0", i)
		}
		if c.History == 0 {
			c.History = defaultHistory
		}
	}

	return nil
}
