package block

import (
	"errors"
	"math"

	"github.com/e7canasta/orion-blockrt/iosignature"
	"github.com/e7canasta/orion-blockrt/pmt"
	"github.com/e7canasta/orion-blockrt/ringbuffer"
	"github.com/e7canasta/orion-blockrt/tagstore"
)

// Sample is the concrete item type carried on every stream in this
// runtime. A real dataflow radio framework would let signatures declare
// an arbitrary item_size_bytes per stream and move opaque bytes; fixing
// one numeric sample type here keeps the block contract concrete and
// type-safe while ringbuffer.Buffer itself stays fully generic.
type Sample = float64

// Magic return values from GeneralWork, named after the gr_block
// constants of the same meaning.
const (
	WorkDone          = -1
	WorkCalledProduce = -2
)

// Sentinel errors for the contract violations in the error taxonomy.
var (
	ErrContractViolation = errors.New("block: contract violation")
	ErrTagOutOfRange     = errors.New("block: tag offset out of range")
	ErrUnknownStream     = errors.New("block: unknown input or output index")
)

// Context is the scheduler-owned runtime state a block may touch only
// from within a GeneralWork or HandleTags call. It is implemented by
// blockdetail.Detail.
type Context interface {
	// NumInputs and NumOutputs report the connected stream counts.
	NumInputs() int
	NumOutputs() int

	// Consume advances nitems_read for one input stream by n.
	Consume(whichInput, n int) error
	// ConsumeEach advances nitems_read for every input stream by n.
	ConsumeEach(n int) error
	// Produce advances nitems_written for one output stream by n,
	// signaling that GeneralWork is reporting per-output counts
	// individually (the caller must then return WorkCalledProduce).
	Produce(whichOutput, n int) error

	// NItemsRead and NItemsWritten return absolute counters, usable to
	// correlate tag offsets with stream position.
	NItemsRead(whichInput int) int64
	NItemsWritten(whichOutput int) int64

	// ConsumedRange and ProducedRange report the [start,end) of item
	// offsets touched by the current call, once accounting has been
	// recorded via Consume/ConsumeEach/Produce.
	ConsumedRange(whichInput int) (start, end int64)
	ProducedRange(whichOutput int) (start, end int64)

	// AddItemTag attaches a tag to an output stream at an absolute
	// offset. During GeneralWork, offset must be >= NItemsWritten(whichOutput)
	// at call time; once the call has been committed (as it has when
	// HandleTags runs), offset must be >= the start of that call's
	// ProducedRange instead.
	AddItemTag(whichOutput int, offset int64, key pmt.Symbol, value pmt.Value, sourceID pmt.Value) error
	// GetTagsInRange returns tags on the upstream output feeding
	// whichInput within [start,end), optionally filtered by key.
	GetTagsInRange(whichInput int, start, end int64, key *pmt.Symbol) []tagstore.Tag
}

// Block is the contract every processing node implements. Concrete blocks
// embed Base to inherit sensible defaults and override what their
// semantics require — at minimum GeneralWork, which Base deliberately
// does not implement.
type Block interface {
	Name() string
	InputSignature() iosignature.Signature
	OutputSignature() iosignature.Signature

	History() int
	OutputMultiple() int
	RelativeRate() float64
	FixedRate() bool

	// Forecast estimates, for a desired noutputItems, the minimum items
	// required on each input stream. The slice is pre-sized to the
	// number of connected inputs; Forecast fills it in. Never fails.
	Forecast(noutputItems int, ninputItemsRequired []int)

	// GeneralWork is the processing hook. input[i] exposes up to
	// ninputItems[i] unread items plus history-1 items of lookback via
	// negative relative indices; output[j] is writable for exactly
	// noutputItems items. The return value is WorkDone, WorkCalledProduce,
	// or the uniform per-output item count actually written.
	GeneralWork(ctx Context, noutputItems int, ninputItems []int64, input []ringbuffer.InputWindow[Sample], output [][]Sample) (int, error)

	// Start and Stop are lifecycle hooks; both may be called multiple
	// times across successive runs and must be idempotent for each run.
	Start() error
	Stop() error

	// HandleTags is the tag-propagation policy invoked after each
	// GeneralWork call that returns a non-negative item count. It is not
	// invoked after a call that returns WorkCalledProduce (such a block
	// propagates its own tags) or WorkDone.
	HandleTags(ctx Context) error

	// FixedRateNInputToNOutput and FixedRateNOutputToNInput are only
	// meaningful when FixedRate() is true.
	FixedRateNInputToNOutput(n int64) int64
	FixedRateNOutputToNInput(n int64) int64
}

// Base supplies the default Block behavior described in spec.md §4.4.
// Embed it in a concrete block struct and override GeneralWork (required)
// plus any other method whose default does not fit.
type Base struct {
	name           string
	inputSig       iosignature.Signature
	outputSig      iosignature.Signature
	history        int
	outputMultiple int
	relativeRate   float64
	fixedRate      bool
}

// NewBase constructs a Base with gr_block's defaults: history=1,
// output_multiple=1, relative_rate=1.0, fixed_rate=false.
func NewBase(name string, inputSig, outputSig iosignature.Signature) *Base {
	return &Base{
		name:           name,
		inputSig:       inputSig,
		outputSig:      outputSig,
		history:        1,
		outputMultiple: 1,
		relativeRate:   1.0,
	}
}

func (b *Base) Name() string { return b.name }
func (b *Base) InputSignature() iosignature.Signature { return b.inputSig }
func (b *Base) OutputSignature() iosignature.Signature { return b.outputSig }
func (b *Base) History() int { return b.history }
func (b *Base) OutputMultiple() int { return b.outputMultiple }
func (b *Base) RelativeRate() float64 { return b.relativeRate }
func (b *Base) FixedRate() bool { return b.fixedRate }

// SetHistory sets the number of past input items retained per input
// stream. Must be called before the block is installed in a graph.
func (b *Base) SetHistory(h int) {
	if h < 1 {
		h = 1
	}
	b.history = h
}

// SetOutputMultiple constrains noutput_items to a multiple of m.
func (b *Base) SetOutputMultiple(m int) {
	if m < 1 {
		m = 1
	}
	b.outputMultiple = m
}

// SetRelativeRate sets the advisory output/input ratio.
func (b *Base) SetRelativeRate(r float64) { b.relativeRate = r }

// SetFixedRate marks the block as having an exact rate conversion.
func (b *Base) SetFixedRate(fixed bool) { b.fixedRate = fixed }

// Forecast is the default estimate: every input needs
// noutputItems+history-1 items. Decimators, interpolators, and other
// blocks with a non-1:1 rate should override this.
func (b *Base) Forecast(noutputItems int, ninputItemsRequired []int) {
	need := noutputItems + b.history - 1
	for i := range ninputItemsRequired {
		ninputItemsRequired[i] = need
	}
}

// Start is a no-op hook; override to enable drivers, open files, etc.
func (b *Base) Start() error { return nil }

// Stop is a no-op hook; override for symmetric teardown with Start.
func (b *Base) Stop() error { return nil }

// HandleTags is the default tag-propagation policy: copy every tag
// consumed from each input, during this call, to every output, rescaling
// the offset by RelativeRate relative to the start of the consumed and
// produced ranges. A 1:1 rate block (the common case) preserves offsets
// exactly.
func (b *Base) HandleTags(ctx Context) error {
	for i := 0; i < ctx.NumInputs(); i++ {
		cs, ce := ctx.ConsumedRange(i)
		if ce <= cs {
			continue
		}
		tags := ctx.GetTagsInRange(i, cs, ce, nil)
		for j := 0; j < ctx.NumOutputs(); j++ {
			ps, pe := ctx.ProducedRange(j)
			if pe <= ps {
				continue
			}
			for _, tag := range tags {
				rel := tag.Offset - cs
				scaled := ps + int64(math.Round(float64(rel)*b.relativeRate))
				if scaled >= pe {
					scaled = pe - 1
				}
				if scaled < ps {
					scaled = ps
				}
				if err := ctx.AddItemTag(j, scaled, tag.Key, tag.Value, tag.SourceID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FixedRateNInputToNOutput is the advisory default for a fixed-rate
// block that has not overridden the exact conversion: floor(n *
// RelativeRate). Concrete fixed-rate blocks (decimators, interpolators)
// should override this with an exact integer formula.
func (b *Base) FixedRateNInputToNOutput(n int64) int64 {
	return int64(math.Floor(float64(n) * b.relativeRate))
}

// FixedRateNOutputToNInput is the inverse of FixedRateNInputToNOutput.
func (b *Base) FixedRateNOutputToNInput(n int64) int64 {
	if b.relativeRate == 0 {
		return 0
	}
	return int64(math.Round(float64(n) / b.relativeRate))
}
