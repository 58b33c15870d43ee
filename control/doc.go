// Package control is the only place in this module that speaks a wire
// protocol. It publishes periodic scheduler.Stats snapshots to an MQTT
// telemetry topic and subscribes to a command topic, translating
// start/stop/pause messages into calls on a scheduler.Graph. It imports
// scheduler and pmt; neither imports it back, keeping the dataflow core
// free of any external transport the way the reference fleet keeps its
// emitter package separate from its inference pipeline.
package control
