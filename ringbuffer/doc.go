// Package ringbuffer implements the single-producer, multi-consumer
// bounded circular buffer that carries samples between blocks.
//
// Exactly one owner produces items; any number of consumers independently
// track how far they have read. Capacity is fixed at construction and
// rounded up to a power of two. A consumer's history requirement (the
// number of already-read items it must still be able to see) is folded
// directly into the producer's backpressure accounting, so a slow or
// history-hungry consumer never has its retained window overwritten.
//
// The contiguous-span contract (every read/write is handed a linear Go
// slice, even near a physical wrap) is satisfied by capping how much of
// the buffer a caller may touch in one call to whatever is contiguous
// before the wrap point, rather than by double-mapping memory. A caller
// that wants more than what is currently contiguous simply gets a
// shorter span back and tries again after the next Produce/Consume —
// exactly the "split into two sub-calls" strategy the design allows.
package ringbuffer
