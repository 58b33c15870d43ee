package config

import "testing"

func validConfig() *Config {
	return &Config{
		Blocks: []BlockConfig{
			{Name: "src", Kind: "source"},
			{Name: "sink", Kind: "sink"},
		},
		Connections: []Connection{
			{FromBlock: "src", FromOutput: 0, ToBlock: "sink", ToInput: 0, History: 1},
		},
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.WorkerIdleTimeout != defaultWorkerIdleTimeout {
		t.Errorf("WorkerIdleTimeout = %v, want %v", cfg.WorkerIdleTimeout, defaultWorkerIdleTimeout)
	}
	if cfg.DefaultBufferItems != defaultBufferItems {
		t.Errorf("DefaultBufferItems = %v, want %v", cfg.DefaultBufferItems, defaultBufferItems)
	}
	for _, b := range cfg.Blocks {
		if b.OutputMultiple != defaultOutputMultiple {
			t.Errorf("block %q OutputMultiple = %d, want %d", b.Name, b.OutputMultiple, defaultOutputMultiple)
		}
		if b.BufferItems != defaultBufferItems {
			t.Errorf("block %q BufferItems = %d, want %d", b.Name, b.BufferItems, defaultBufferItems)
		}
	}
}

func TestValidateRejectsEmptyBlockList(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted a config with no blocks")
	}
}

func TestValidateRejectsDuplicateBlockNames(t *testing.T) {
	cfg := &Config{Blocks: []BlockConfig{
		{Name: "a", Kind: "source"},
		{Name: "a", Kind: "sink"},
	}}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted duplicate block names")
	}
}

func TestValidateRejectsConnectionToUnknownBlock(t *testing.T) {
	cfg := validConfig()
	cfg.Connections = append(cfg.Connections, Connection{FromBlock: "src", ToBlock: "ghost"})
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted a connection referencing an unknown block")
	}
}

func TestValidateRejectsMalformedBlockName(t *testing.T) {
	cfg := &Config{Blocks: []BlockConfig{{Name: "bad name!", Kind: "source"}}}
	if err := Validate(cfg); err == nil {
		t.Fatal("Validate accepted a block name with spaces and punctuation")
	}
}

func TestValidatePreservesExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Blocks[0].OutputMultiple = 4
	cfg.Blocks[0].BufferItems = 1024
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Blocks[0].OutputMultiple != 4 {
		t.Errorf("OutputMultiple = %d, want 4 (explicit value overwritten)", cfg.Blocks[0].OutputMultiple)
	}
	if cfg.Blocks[0].BufferItems != 1024 {
		t.Errorf("BufferItems = %d, want 1024 (explicit value overwritten)", cfg.Blocks[0].BufferItems)
	}
}
