// Package block defines the block contract: the interface every
// processing node in the graph implements, and the Base struct that
// supplies its default behavior (forecast, tag propagation, fixed-rate
// conversions, start/stop no-ops) for concrete blocks to embed and
// selectively override.
//
// A block never touches its own runtime state (ring buffers, tag stores,
// read/write counters) directly — that state is owned by the scheduler as
// a blockdetail.Detail and is reached only through the Context passed into
// GeneralWork and HandleTags for the duration of one call. This avoids the
// block/detail ownership cycle the original design calls for (block owns
// configuration, the scheduler owns runtime detail) without either side
// holding a pointer back into the other's package.
package block
