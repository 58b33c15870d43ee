package scheduler

import (
	"context"
	"fmt"

	"github.com/e7canasta/orion-blockrt/block"
	"github.com/e7canasta/orion-blockrt/blockdetail"
	"github.com/e7canasta/orion-blockrt/ringbuffer"
)

// sinkBatchItems bounds one GeneralWork call's noutput_items for a block
// with no outputs, which has no ring buffer to derive a candidate from.
const sinkBatchItems = 4096

// driveBlock is the per-block scheduler loop described in spec §4.5: each
// iteration computes a candidate noutput_items from output space, asks
// the block to forecast the input it needs, gathers whatever is actually
// available, and invokes GeneralWork — suspending between calls via the
// ring buffers' condition variables rather than busy-polling, matching
// §5's "suspends between calls" requirement. One long-lived goroutine per
// block serializes that block's own GeneralWork calls.
func (g *Graph) driveBlock(ctx context.Context, e *blockEntry) {
	defer g.wg.Done()

	blk := e.block
	d := e.detail
	numIn := d.NumInputs()
	numOut := d.NumOutputs()

	outputMultiple := int64(blk.OutputMultiple())
	if outputMultiple < 1 {
		outputMultiple = 1
	}

	for {
		if ctx.Err() != nil {
			return
		}

		candidate, bottleneck := outputCandidate(d, numOut)
		candidate = (candidate / outputMultiple) * outputMultiple
		if candidate <= 0 {
			if numOut == 0 {
				// a block with no outputs is never output-blocked; fall
				// through so it can still drain input to EOS.
				candidate = sinkBatchItems
			} else {
				if err := d.WaitForOutputSpace(ctx, bottleneck, outputMultiple); err != nil {
					g.stats.recordContractViolation(e.name)
					return
				}
				continue
			}
		}

		required := make([]int, numIn)
		for candidate > 0 {
			blk.Forecast(int(candidate), required)
			if inputsSatisfiable(d, numIn, required) || candidate <= outputMultiple {
				break
			}
			candidate -= outputMultiple
		}

		ninputItems := make([]int64, numIn)
		windows := make([]ringbuffer.InputWindow[block.Sample], numIn)
		blockedInput := -1
		for i := 0; i < numIn; i++ {
			avail, err := d.ItemsAvailable(i)
			if err != nil {
				g.stats.recordContractViolation(e.name)
				return
			}
			closed, _ := d.InputProducerClosed(i)
			if avail < int64(required[i]) && !closed {
				blockedInput = i
				continue
			}
			win, err := d.Window(i, avail)
			if err != nil {
				g.stats.recordContractViolation(e.name)
				return
			}
			windows[i] = win
			ninputItems[i] = win.Available()
		}
		if blockedInput >= 0 {
			if err := d.WaitForInputData(ctx, blockedInput, int64(required[blockedInput])); err != nil {
				g.stats.recordContractViolation(e.name)
				return
			}
			continue
		}

		var outputs [][]block.Sample
		if numOut > 0 {
			outputs = make([][]block.Sample, numOut)
			for j := 0; j < numOut; j++ {
				span, err := d.ReserveOutput(j, candidate)
				if err != nil {
					g.stats.recordContractViolation(e.name)
					return
				}
				outputs[j] = span
			}
		}

		d.BeginCall(ninputItems, candidate)
		result, err := callGeneralWork(blk, d, int(candidate), ninputItems, windows, outputs)
		if err != nil {
			g.stats.recordContractViolation(e.name)
			_ = d.Commit(block.WorkDone)
			// Commit returns before closing outputs when the failed call
			// never consumed its input, so close them here: EOS must
			// still reach downstream blocks.
			for j := 0; j < numOut; j++ {
				d.Output(j).Close()
			}
			return
		}
		if err := d.Commit(result); err != nil {
			g.stats.recordContractViolation(e.name)
			return
		}

		consumed := int64(0)
		for i := 0; i < numIn; i++ {
			start, end := d.ConsumedRange(i)
			consumed += end - start
		}
		g.stats.recordConsumed(e.name, consumed)
		g.stats.recordWork(e.name, result)

		if result == block.WorkDone {
			return
		}
		if result != block.WorkCalledProduce {
			if err := blk.HandleTags(d); err != nil {
				g.stats.recordContractViolation(e.name)
				return
			}
		}
	}
}

// callGeneralWork invokes a block's GeneralWork, converting a panic into
// an error so one misbehaving block can be marked failed and drained
// instead of tearing down the whole scheduler process.
func callGeneralWork(blk block.Block, ctx block.Context, noutputItems int, ninputItems []int64, windows []ringbuffer.InputWindow[block.Sample], outputs [][]block.Sample) (result int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: general_work panicked: %v", r)
		}
	}()
	return blk.GeneralWork(ctx, noutputItems, ninputItems, windows, outputs)
}

// outputCandidate returns the largest noutput_items the block's outputs
// can currently accept, and which output is the bottleneck (for
// suspension). A block with no outputs reports a zero candidate and
// bottleneck -1; callers special-case it.
func outputCandidate(d *blockdetail.Detail, numOut int) (int64, int) {
	if numOut == 0 {
		return 0, -1
	}
	candidate := int64(-1)
	bottleneck := 0
	for j := 0; j < numOut; j++ {
		r, err := d.ReservableNow(j)
		if err != nil {
			return 0, j
		}
		if candidate == -1 || r < candidate {
			candidate = r
			bottleneck = j
		}
	}
	return candidate, bottleneck
}

// inputsSatisfiable reports whether every input currently has at least
// the forecast-required item count available, or its upstream has
// permanently closed so no more ever will (in which case whatever is
// available is final). This assumes a block's Forecast is non-decreasing
// in noutput_items, which holds for every block in this runtime (Base's
// default and every fixed-rate override).
func inputsSatisfiable(d *blockdetail.Detail, numIn int, required []int) bool {
	for i := 0; i < numIn; i++ {
		avail, err := d.ItemsAvailable(i)
		if err != nil {
			return false
		}
		closed, _ := d.InputProducerClosed(i)
		if avail < int64(required[i]) && !closed {
			return false
		}
	}
	return true
}
