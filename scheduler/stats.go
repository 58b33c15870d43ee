package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// BlockStats is a point-in-time snapshot of one block's operational
// counters, in the spirit of framesupplier's SupplierStats/WorkerStats:
// useful to detect a stalled block or measure throughput, even though
// nothing here is ever silently dropped the way frames are.
type BlockStats struct {
	Name               string
	ItemsConsumed      uint64
	ItemsProduced      uint64
	ContractViolations uint64
	Calls              uint64
	LastActiveAt       time.Time
}

type blockCounters struct {
	itemsConsumed      uint64
	itemsProduced      uint64
	contractViolations uint64
	calls              uint64
	lastActiveAtNanos  int64
}

// Stats aggregates BlockStats across every block in a Graph. The zero
// value is not usable; construct with NewStats.
type Stats struct {
	clock clock.Clock

	mu       sync.RWMutex
	counters map[string]*blockCounters
}

// NewStats constructs a Stats. Passing a nil clock uses the real wall
// clock; a clock.NewMock() may be injected for deterministic LastActiveAt
// values.
func NewStats(c clock.Clock) *Stats {
	if c == nil {
		c = clock.New()
	}
	return &Stats{clock: c, counters: make(map[string]*blockCounters)}
}

func (s *Stats) counter(name string) *blockCounters {
	s.mu.RLock()
	c, ok := s.counters[name]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[name]; ok {
		return c
	}
	c = &blockCounters{}
	s.counters[name] = c
	return c
}

func (s *Stats) recordWork(name string, produced int) {
	c := s.counter(name)
	if produced > 0 {
		atomic.AddUint64(&c.itemsProduced, uint64(produced))
	}
	atomic.AddUint64(&c.calls, 1)
	atomic.StoreInt64(&c.lastActiveAtNanos, s.clock.Now().UnixNano())
}

func (s *Stats) recordConsumed(name string, n int64) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&s.counter(name).itemsConsumed, uint64(n))
}

func (s *Stats) recordContractViolation(name string) {
	atomic.AddUint64(&s.counter(name).contractViolations, 1)
}

// Snapshot returns a copy of every block's counters, in no particular
// order.
func (s *Stats) Snapshot() []BlockStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BlockStats, 0, len(s.counters))
	for name, c := range s.counters {
		out = append(out, BlockStats{
			Name:               name,
			ItemsConsumed:      atomic.LoadUint64(&c.itemsConsumed),
			ItemsProduced:      atomic.LoadUint64(&c.itemsProduced),
			ContractViolations: atomic.LoadUint64(&c.contractViolations),
			Calls:              atomic.LoadUint64(&c.calls),
			LastActiveAt:       time.Unix(0, atomic.LoadInt64(&c.lastActiveAtNanos)),
		})
	}
	return out
}
