// Package config loads and validates the YAML description of a flow graph:
// its blocks, their connections, and the scheduler knobs that govern them.
// It follows the load-then-validate shape used throughout the reference
// fleet's internal/config packages — unmarshal with yaml.v3, then run
// Validate to fill defaults and reject malformed input before the graph
// is ever built.
package config
