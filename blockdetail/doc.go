// Package blockdetail holds the scheduler-owned runtime state for one
// block instance: the output ring buffers and tag stores it owns, the
// read cursors it holds on upstream output buffers, the nitems_read and
// nitems_written counters, and the created/started/running/stopping/
// stopped lifecycle flag.
//
// A Detail implements block.Context, so it is handed to a block's
// GeneralWork and HandleTags only for the duration of one call — the
// block itself never stores a pointer back to its Detail, matching the
// ownership note in package block's doc comment.
package blockdetail
