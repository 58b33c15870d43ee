package ringbuffer

import (
	"context"

	"github.com/e7canasta/orion-blockrt/ringbuffer/internal"
)

// DefaultCapacity is used by callers that have no better buffer-sizing
// heuristic available. scheduler.NewGraph does not use it: it takes one
// explicit capacity for every output buffer of the graph.
const DefaultCapacity = 8192

// Buffer is the public single-producer/multi-consumer ring buffer. The
// zero value is not usable; construct with New.
type Buffer[T any] struct {
	core *internal.Core[T]
}

// New allocates a Buffer with at least minCapacity items of room.
func New[T any](minCapacity int) *Buffer[T] {
	return &Buffer[T]{core: internal.NewCore[T](minCapacity)}
}

// Capacity returns the buffer's physical item capacity (a power of two
// that is >= the capacity requested at construction).
func (b *Buffer[T]) Capacity() int64 { return b.core.Capacity() }

// AddConsumer registers consumerID to read from this buffer, retaining up
// to history-1 already-read items for it. Every input port of every
// downstream block reading this buffer must be registered before the
// scheduler runs.
func (b *Buffer[T]) AddConsumer(consumerID string, history int) error {
	return b.core.AddConsumer(consumerID, history)
}

// RemoveConsumer deregisters a consumer, releasing the backpressure it was
// applying to the producer.
func (b *Buffer[T]) RemoveConsumer(consumerID string) {
	b.core.RemoveConsumer(consumerID)
}

// SpaceAvailable is the number of items the producer may write right now
// without overrunning the slowest consumer's retained history.
func (b *Buffer[T]) SpaceAvailable() int64 { return b.core.SpaceAvailable() }

// ItemsAvailable is the number of unread items consumerID may read right
// now.
func (b *Buffer[T]) ItemsAvailable(consumerID string) (int64, error) {
	return b.core.ItemsAvailable(consumerID)
}

// MinRetainedFloor is the lowest absolute offset any registered consumer
// still needs. Callers use it to garbage-collect tags that can never be
// queried again.
func (b *Buffer[T]) MinRetainedFloor() int64 { return b.core.MinRetainedFloor() }

// ReservableNow is the largest n for which Reserve(n) would currently
// succeed (bounded by both free space and the physical wrap point).
func (b *Buffer[T]) ReservableNow() int64 { return b.core.ReservableNow() }

// Reserve returns a writable slice of exactly n items, for the producer to
// fill in place before calling Produce(n).
func (b *Buffer[T]) Reserve(n int64) ([]T, error) { return b.core.Reserve(n) }

// Produce publishes the n items most recently returned by Reserve.
func (b *Buffer[T]) Produce(n int64) error { return b.core.Produce(n) }

// InputWindow is a read-only view into a buffer handed to a block's
// GeneralWork. At reads relative index r, where r ranges from
// -(history-1) up to Available()-1; negative indices reach into items the
// consumer has already consumed, satisfying a block's history
// requirement.
type InputWindow[T any] struct {
	span      []T
	nominal   int
	available int64
}

// At returns the item at relative offset r (r may be negative, down to
// -(history-1)).
func (w InputWindow[T]) At(r int) T { return w.span[w.nominal+r] }

// Slice returns the backing items from relative offset r1 (inclusive) to
// r2 (exclusive), as a genuine sub-slice (no copy).
func (w InputWindow[T]) Slice(r1, r2 int) []T {
	return w.span[w.nominal+r1 : w.nominal+r2]
}

// Available is how many unread items are present in this window (this is
// what the block sees as ninput_items for this stream).
func (w InputWindow[T]) Available() int64 { return w.available }

// Window returns a contiguous read window for consumerID covering up to
// maxItems unread items (pass -1 for "as many as are available"), plus
// whatever history that consumer requires. The window may be shorter than
// requested if that much does not fit before the ring's physical wrap
// point; callers should treat a short window as "try again after more
// progress" rather than an error.
func (b *Buffer[T]) Window(consumerID string, maxItems int64) (InputWindow[T], error) {
	span, nominal, n, err := b.core.ContiguousInputSpan(consumerID, maxItems)
	if err != nil {
		return InputWindow[T]{}, err
	}
	return InputWindow[T]{span: span, nominal: nominal, available: n}, nil
}

// Consume advances consumerID's read cursor by n items.
func (b *Buffer[T]) Consume(consumerID string, n int64) error {
	return b.core.Consume(consumerID, n)
}

// Close marks the stream as finished: no further items will ever be
// produced. Idempotent.
func (b *Buffer[T]) Close() { b.core.Close() }

// IsEOS reports whether consumerID has drained every item that will ever
// be produced on this stream.
func (b *Buffer[T]) IsEOS(consumerID string) bool { return b.core.IsEOS(consumerID) }

// ProducerClosed reports whether the producer has called Close.
func (b *Buffer[T]) ProducerClosed() bool { return b.core.ProducerClosed() }

// WaitForSpace blocks the calling goroutine until at least n items of
// space are free, the stream closes, or ctx is done.
func (b *Buffer[T]) WaitForSpace(ctx context.Context, n int64) { b.core.WaitForSpace(ctx, n) }

// WaitForData blocks the calling goroutine until consumerID has at least
// n items available, the producer closes the stream, or ctx is done.
func (b *Buffer[T]) WaitForData(ctx context.Context, consumerID string, n int64) {
	b.core.WaitForData(ctx, consumerID, n)
}
