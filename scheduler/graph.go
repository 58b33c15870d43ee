package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"

	"github.com/e7canasta/orion-blockrt/block"
	"github.com/e7canasta/orion-blockrt/blockdetail"
)

type blockEntry struct {
	name   string
	block  block.Block
	detail *blockdetail.Detail
}

// Graph is a minimal block/connection collaborator — just enough to
// install blocks, wire their buffers, and drive them with the scheduler
// loop. It is deliberately not the full hierarchical-graph-flattening
// system (hierarchical blocks, dynamic reconnection) that a complete
// dataflow framework would need; it exists to exercise Run end to end.
type Graph struct {
	mu             sync.Mutex
	bufferCapacity int
	stats          *Stats

	blocks  []*blockEntry
	byName  map[string]int
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewGraph constructs an empty Graph. bufferCapacity sizes every output
// ring buffer created by AddBlock; a nil clock uses the real wall clock
// for Stats.
func NewGraph(bufferCapacity int, c clock.Clock) *Graph {
	if bufferCapacity < 1 {
		bufferCapacity = 1
	}
	return &Graph{
		bufferCapacity: bufferCapacity,
		stats:          NewStats(c),
		byName:         make(map[string]int),
	}
}

// Stats returns the graph's stats aggregator.
func (g *Graph) Stats() *Stats { return g.stats }

// AddBlock installs blk under name with the given input/output stream
// counts, which must satisfy blk's signatures. Must be called before Run.
func (g *Graph) AddBlock(name string, blk block.Block, numInputs, numOutputs int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return ErrAlreadyRunning
	}
	if _, exists := g.byName[name]; exists {
		return fmt.Errorf("scheduler: block %q already added", name)
	}
	if !blk.InputSignature().Accepts(numInputs) {
		return fmt.Errorf("%w: block %q input count %d", ErrSignatureMismatch, name, numInputs)
	}
	if !blk.OutputSignature().Accepts(numOutputs) {
		return fmt.Errorf("%w: block %q output count %d", ErrSignatureMismatch, name, numOutputs)
	}

	entry := &blockEntry{
		name:   name,
		block:  blk,
		detail: blockdetail.New(name, numInputs, numOutputs, g.bufferCapacity),
	}
	g.byName[name] = len(g.blocks)
	g.blocks = append(g.blocks, entry)
	return nil
}

// Connect wires output fromOutput of fromBlock as input toInput of
// toBlock, retaining history items of lookback for toBlock. Must be
// called before Run (ring buffer consumer registration is rejected once
// the producing block has written anything, which Run ensures cannot
// have happened yet).
func (g *Graph) Connect(fromBlock string, fromOutput int, toBlock string, toInput int, history int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return ErrAlreadyRunning
	}
	from, err := g.entry(fromBlock)
	if err != nil {
		return err
	}
	to, err := g.entry(toBlock)
	if err != nil {
		return err
	}
	return to.detail.ConnectInput(toInput, from.detail.Output(fromOutput), from.detail.OutputTags(fromOutput), history)
}

func (g *Graph) entry(name string) (*blockEntry, error) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}
	return g.blocks[idx], nil
}

// Run starts every block (calling Start, then driving GeneralWork calls
// from one goroutine per block) and blocks until every block has exited
// — either because it returned WORK_DONE or because ctx was cancelled —
// then calls Stop on every block and returns their aggregated errors.
//
// A Start failure aborts the run before any block is driven, matching
// the Block Base contract; Stop errors are collected but never prevent
// shutdown.
func (g *Graph) Run(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return ErrAlreadyRunning
	}
	g.running = true
	blocks := append([]*blockEntry(nil), g.blocks...)
	g.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel

	var startErrs *multierror.Error
	started := make([]*blockEntry, 0, len(blocks))
	for _, e := range blocks {
		if err := e.block.Start(); err != nil {
			startErrs = multierror.Append(startErrs, fmt.Errorf("%w: %s: %v", ErrStartFailure, e.name, err))
			continue
		}
		if err := e.detail.MarkStarted(); err != nil {
			startErrs = multierror.Append(startErrs, err)
			continue
		}
		started = append(started, e)
	}
	if err := startErrs.ErrorOrNil(); err != nil {
		cancel()
		return err
	}

	for _, e := range started {
		_ = e.detail.MarkRunning()
		g.wg.Add(1)
		go g.driveBlock(runCtx, e)
	}
	g.wg.Wait()

	var stopErrs *multierror.Error
	for _, e := range started {
		_ = e.detail.MarkStopping()
		if err := e.block.Stop(); err != nil {
			stopErrs = multierror.Append(stopErrs, fmt.Errorf("scheduler: %s: stop: %w", e.name, err))
		}
		_ = e.detail.MarkStopped()
	}

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	return stopErrs.ErrorOrNil()
}

// Stop requests every running block's driving goroutine to exit at its
// next suspension point. Run still waits for them to unwind and for every
// block's Stop hook to run before returning.
func (g *Graph) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
