package blocks

import (
	"sync"

	"github.com/e7canasta/orion-blockrt/block"
	"github.com/e7canasta/orion-blockrt/iosignature"
	"github.com/e7canasta/orion-blockrt/ringbuffer"
)

// itemSizeBytes is the wire size of block.Sample (float64) for every
// signature built in this package.
const itemSizeBytes = 8

// Source emits a fixed slice of samples, one noutput_items-sized batch
// per call, then reports WORK_DONE.
type Source struct {
	*block.Base
	data []block.Sample
	pos  int
}

// NewSource constructs a Source with no inputs and one output.
func NewSource(name string, data []block.Sample) *Source {
	inSig := iosignature.MustNew(0, 0, itemSizeBytes)
	outSig := iosignature.MustNew(1, 1, itemSizeBytes)
	return &Source{Base: block.NewBase(name, inSig, outSig), data: data}
}

func (s *Source) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	remaining := len(s.data) - s.pos
	if remaining <= 0 {
		return block.WorkDone, nil
	}
	n := noutputItems
	if n > remaining {
		n = remaining
	}
	copy(output[0][:n], s.data[s.pos:s.pos+n])
	s.pos += n
	return n, nil
}

// Sink collects every item it reads, in order, until its input reaches
// EOS.
type Sink struct {
	*block.Base

	mu        sync.Mutex
	collected []block.Sample
}

// NewSink constructs a Sink with one input and no outputs.
func NewSink(name string) *Sink {
	inSig := iosignature.MustNew(1, 1, itemSizeBytes)
	outSig := iosignature.MustNew(0, 0, itemSizeBytes)
	return &Sink{Base: block.NewBase(name, inSig, outSig)}
}

func (s *Sink) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	n := int(ninputItems[0])
	if n == 0 {
		if err := ctx.ConsumeEach(0); err != nil {
			return 0, err
		}
		return block.WorkDone, nil
	}

	s.mu.Lock()
	s.collected = append(s.collected, input[0].Slice(0, n)...)
	s.mu.Unlock()

	if err := ctx.Consume(0, n); err != nil {
		return 0, err
	}
	return 0, nil
}

// Items returns a copy of every item collected so far.
func (s *Sink) Items() []block.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]block.Sample, len(s.collected))
	copy(out, s.collected)
	return out
}

// Identity copies its single input to its single output unchanged.
type Identity struct {
	*block.Base
}

// NewIdentity constructs a 1-in/1-out passthrough block.
func NewIdentity(name string) *Identity {
	sig := iosignature.MustNew(1, 1, itemSizeBytes)
	return &Identity{Base: block.NewBase(name, sig, sig)}
}

func (id *Identity) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	n := int(ninputItems[0])
	if n == 0 {
		if err := ctx.ConsumeEach(0); err != nil {
			return 0, err
		}
		return block.WorkDone, nil
	}
	if n > noutputItems {
		n = noutputItems
	}
	copy(output[0][:n], input[0].Slice(0, n))
	if err := ctx.Consume(0, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Decimator is a fixed-rate block that keeps every factor'th input item
// and drops the rest, like gr_sync_decimator.
type Decimator struct {
	*block.Base
	factor int
}

// NewDecimator constructs a decimate-by-factor block.
func NewDecimator(name string, factor int) *Decimator {
	if factor < 1 {
		factor = 1
	}
	sig := iosignature.MustNew(1, 1, itemSizeBytes)
	d := &Decimator{Base: block.NewBase(name, sig, sig), factor: factor}
	d.SetFixedRate(true)
	d.SetRelativeRate(1.0 / float64(factor))
	return d
}

// Forecast overrides the default: factor input items are needed per
// output item.
func (d *Decimator) Forecast(noutputItems int, ninputItemsRequired []int) {
	need := noutputItems * d.factor
	for i := range ninputItemsRequired {
		ninputItemsRequired[i] = need
	}
}

// FixedRateNInputToNOutput is exact: n/factor, rounded down.
func (d *Decimator) FixedRateNInputToNOutput(n int64) int64 { return n / int64(d.factor) }

// FixedRateNOutputToNInput is exact: n*factor.
func (d *Decimator) FixedRateNOutputToNInput(n int64) int64 { return n * int64(d.factor) }

func (d *Decimator) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	avail := int(ninputItems[0])
	n := avail / d.factor
	if n > noutputItems {
		n = noutputItems
	}
	if n == 0 {
		if avail == 0 {
			if err := ctx.ConsumeEach(0); err != nil {
				return 0, err
			}
			return block.WorkDone, nil
		}
		// EOS with a final remainder shorter than factor: nothing more
		// can ever be decimated from it.
		if err := ctx.Consume(0, avail); err != nil {
			return 0, err
		}
		return block.WorkDone, nil
	}

	win := input[0]
	for i := 0; i < n; i++ {
		output[0][i] = win.At(i * d.factor)
	}
	if err := ctx.Consume(0, n*d.factor); err != nil {
		return 0, err
	}
	return n, nil
}

// Interpolator is a fixed-rate block that repeats each input item
// factor times, like gr_sync_interpolator's zero-order hold.
type Interpolator struct {
	*block.Base
	factor int
}

// NewInterpolator constructs an interpolate-by-factor block.
func NewInterpolator(name string, factor int) *Interpolator {
	if factor < 1 {
		factor = 1
	}
	sig := iosignature.MustNew(1, 1, itemSizeBytes)
	p := &Interpolator{Base: block.NewBase(name, sig, sig), factor: factor}
	p.SetFixedRate(true)
	p.SetRelativeRate(float64(factor))
	// noutput_items must always be a multiple of factor, or a sub-factor
	// candidate drives maxIn to 0 and GeneralWork would have to return
	// without consuming, violating the block contract.
	p.SetOutputMultiple(factor)
	return p
}

// Forecast overrides the default: one input item is needed per factor
// output items, rounded up.
func (p *Interpolator) Forecast(noutputItems int, ninputItemsRequired []int) {
	need := (noutputItems + p.factor - 1) / p.factor
	for i := range ninputItemsRequired {
		ninputItemsRequired[i] = need
	}
}

// FixedRateNInputToNOutput is exact: n*factor.
func (p *Interpolator) FixedRateNInputToNOutput(n int64) int64 { return n * int64(p.factor) }

// FixedRateNOutputToNInput is exact: n/factor, rounded up.
func (p *Interpolator) FixedRateNOutputToNInput(n int64) int64 {
	return (n + int64(p.factor) - 1) / int64(p.factor)
}

func (p *Interpolator) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	avail := int(ninputItems[0])
	if avail == 0 {
		if err := ctx.ConsumeEach(0); err != nil {
			return 0, err
		}
		return block.WorkDone, nil
	}

	maxIn := noutputItems / p.factor
	n := avail
	if n > maxIn {
		n = maxIn
	}
	if n == 0 {
		return 0, nil
	}

	win := input[0]
	for i := 0; i < n; i++ {
		v := win.At(i)
		for k := 0; k < p.factor; k++ {
			output[0][i*p.factor+k] = v
		}
	}
	if err := ctx.Consume(0, n); err != nil {
		return 0, err
	}
	return n * p.factor, nil
}

// FIR3 computes y[i] = x[i] + x[i-1] + x[i-2], exercising history=3.
type FIR3 struct {
	*block.Base
}

// NewFIR3 constructs a three-tap moving-sum filter.
func NewFIR3(name string) *FIR3 {
	sig := iosignature.MustNew(1, 1, itemSizeBytes)
	f := &FIR3{Base: block.NewBase(name, sig, sig)}
	f.SetHistory(3)
	return f
}

func (f *FIR3) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	avail := int(ninputItems[0])
	if avail == 0 {
		if err := ctx.ConsumeEach(0); err != nil {
			return 0, err
		}
		return block.WorkDone, nil
	}
	n := avail
	if n > noutputItems {
		n = noutputItems
	}

	// The first history-1 absolute positions have no real samples behind
	// them (only zero pre-roll), so no output is produced for them: they
	// are consumed as history for later positions, never emitted.
	nitemsRead := ctx.NItemsRead(0)
	firstValid := int64(f.History()-1) - nitemsRead
	if firstValid < 0 {
		firstValid = 0
	}

	win := input[0]
	produced := 0
	for i := int(firstValid); i < n; i++ {
		output[0][produced] = win.At(i) + win.At(i-1) + win.At(i-2)
		produced++
	}
	if err := ctx.Consume(0, n); err != nil {
		return 0, err
	}
	return produced, nil
}

// AsymmetricProducer has two outputs and, on its first call, writes 5
// items to output 0 and 7 to output 1 via the explicit Produce hook,
// returning WORK_CALLED_PRODUCE — demonstrating the asymmetric-output
// contract. Every subsequent call reports WORK_DONE.
type AsymmetricProducer struct {
	*block.Base
	done bool
}

// NewAsymmetricProducer constructs a no-input, two-output demo block.
func NewAsymmetricProducer(name string) *AsymmetricProducer {
	inSig := iosignature.MustNew(0, 0, itemSizeBytes)
	outSig := iosignature.MustNew(2, 2, itemSizeBytes)
	return &AsymmetricProducer{Base: block.NewBase(name, inSig, outSig)}
}

func (p *AsymmetricProducer) GeneralWork(ctx block.Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[block.Sample], output [][]block.Sample) (int, error) {
	if p.done {
		return block.WorkDone, nil
	}
	p.done = true

	n0, n1 := 5, 7
	if n0 > noutputItems {
		n0 = noutputItems
	}
	if n1 > noutputItems {
		n1 = noutputItems
	}
	for i := 0; i < n0; i++ {
		output[0][i] = block.Sample(i)
	}
	for i := 0; i < n1; i++ {
		output[1][i] = block.Sample(i)
	}
	if err := ctx.Produce(0, n0); err != nil {
		return 0, err
	}
	if err := ctx.Produce(1, n1); err != nil {
		return 0, err
	}
	return block.WorkCalledProduce, nil
}
