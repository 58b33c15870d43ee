// Package scheduler drives a graph of block.Block instances: one
// long-lived goroutine per block, each repeatedly computing how many
// output items it may safely produce, gathering satisfiable input
// windows, invoking GeneralWork, and advancing buffer cursors — the
// contract summarized in the block detail and block packages' doc
// comments.
//
// Package config describes a graph declaratively; package control
// exposes a running graph to an external command/telemetry channel.
// Neither is required to drive a graph directly — see Graph.
package scheduler
