package main

import (
	"fmt"

	"github.com/e7canasta/orion-blockrt/block"
	"github.com/e7canasta/orion-blockrt/blocks"
	"github.com/e7canasta/orion-blockrt/config"
)

// buildBlock constructs a concrete block.Block for one BlockConfig entry.
// It recognizes the demo block kinds shipped in package blocks; a
// production daemon would extend this registry per deployment.
func buildBlock(cfg config.BlockConfig) (block.Block, int, int, error) {
	switch cfg.Kind {
	case "source":
		data, err := floatParams(cfg.Params, "data")
		if err != nil {
			return nil, 0, 0, fmt.Errorf("block %q: %w", cfg.Name, err)
		}
		return blocks.NewSource(cfg.Name, data), 0, 1, nil

	case "sink":
		return blocks.NewSink(cfg.Name), 1, 0, nil

	case "identity":
		return blocks.NewIdentity(cfg.Name), 1, 1, nil

	case "decimator":
		factor, ok := intParam(cfg.Params, "factor")
		if !ok || factor < 1 {
			return nil, 0, 0, fmt.Errorf("block %q: decimator requires params.factor >= 1", cfg.Name)
		}
		return blocks.NewDecimator(cfg.Name, factor), 1, 1, nil

	case "interpolator":
		factor, ok := intParam(cfg.Params, "factor")
		if !ok || factor < 1 {
			return nil, 0, 0, fmt.Errorf("block %q: interpolator requires params.factor >= 1", cfg.Name)
		}
		return blocks.NewInterpolator(cfg.Name, factor), 1, 1, nil

	case "fir3":
		return blocks.NewFIR3(cfg.Name), 1, 1, nil

	case "asymmetric_producer":
		return blocks.NewAsymmetricProducer(cfg.Name), 0, 2, nil

	default:
		return nil, 0, 0, fmt.Errorf("block %q: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

func floatParams(params map[string]any, key string) ([]block.Sample, error) {
	raw, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("missing params.%s", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("params.%s must be a list of numbers", key)
	}
	out := make([]block.Sample, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case int:
			out[i] = block.Sample(v)
		case float64:
			out[i] = block.Sample(v)
		default:
			return nil, fmt.Errorf("params.%s[%d]: not a number", key, i)
		}
	}
	return out, nil
}

func intParam(params map[string]any, key string) (int, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
