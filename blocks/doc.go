// Package blocks provides concrete block.Block implementations exercised
// by the scheduler's end-to-end tests: a slice-backed Source and Sink, an
// Identity passthrough, fixed-rate Decimator and Interpolator blocks, and
// a history-using FIR filter. Each embeds block.Base and overrides only
// what its semantics require, the way concrete blocks in a dataflow
// radio framework embed the shared block base class.
//
// Every block here relies on one driver invariant: GeneralWork is only
// ever called with ninputItems[i] == 0 once input i's upstream has
// closed and nothing more will ever arrive. The scheduler blocks the
// calling goroutine instead of invoking a block whenever an input is
// merely temporarily starved, so a 0 reliably means EOS, not "try later".
package blocks
