package blockdetail

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/e7canasta/orion-blockrt/block"
	"github.com/e7canasta/orion-blockrt/pmt"
	"github.com/e7canasta/orion-blockrt/ringbuffer"
	"github.com/e7canasta/orion-blockrt/tagstore"
)

var _ block.Context = (*Detail)(nil)

type inputPort struct {
	buf      *ringbuffer.Buffer[block.Sample]
	tags     *tagstore.Store // the upstream output's tag store
	cursorID string
	history  int

	nitemsRead     int64
	pendingConsume int64
	callStartRead  int64
	callAvailable  int64
	consumedThisCall bool
}

type outputPort struct {
	buf  *ringbuffer.Buffer[block.Sample]
	tags *tagstore.Store

	nitemsWritten      int64
	pendingProduce     int64
	callStartWritten   int64
	callMax            int64
	producedExplicitly bool
	// committed is set once Commit has applied this call's uniform
	// produced count to nitemsWritten. AddItemTag uses it to tell a
	// block's own mid-call tagging (nitemsWritten is still live) apart
	// from HandleTags' post-Commit propagation (nitemsWritten has
	// already jumped to the end of the range being propagated into).
	committed bool
}

// Detail is the scheduler-owned runtime state for one block instance. The
// zero value is not usable; construct with New.
type Detail struct {
	mu    sync.Mutex
	id    string
	state State

	// sourceID is this block instance's generated identity, used as the
	// default tag SourceID for tags a block originates (rather than
	// merely propagates) without naming an explicit origin.
	sourceID pmt.Value

	inputs  []*inputPort
	outputs []*outputPort
}

// New constructs a Detail owning numOutputs freshly allocated ring
// buffers (each sized to at least bufferCapacity items) and reserving
// numInputs input slots to be wired by ConnectInput before the scheduler
// starts.
func New(id string, numInputs, numOutputs, bufferCapacity int) *Detail {
	d := &Detail{id: id, state: StateCreated, sourceID: pmt.FromString(uuid.New().String())}
	d.inputs = make([]*inputPort, numInputs)
	d.outputs = make([]*outputPort, numOutputs)
	for j := range d.outputs {
		d.outputs[j] = &outputPort{
			buf:  ringbuffer.New[block.Sample](bufferCapacity),
			tags: tagstore.New(),
		}
	}
	return d
}

// ID returns the block instance identifier this detail belongs to.
func (d *Detail) ID() string { return d.id }

// SourceID returns this block instance's generated identity, the default
// SourceID substituted by AddItemTag when a caller passes pmt.Nil.
func (d *Detail) SourceID() pmt.Value { return d.sourceID }

// Output returns the ring buffer this detail owns for output port j, so
// that a Graph can wire it as another detail's input.
func (d *Detail) Output(j int) *ringbuffer.Buffer[block.Sample] { return d.outputs[j].buf }

// OutputTags returns the tag store attached to output port j.
func (d *Detail) OutputTags(j int) *tagstore.Store { return d.outputs[j].tags }

// ConnectInput registers this detail as a consumer of an upstream output
// buffer, retaining history-1 already-read items. Must be called before
// the scheduler begins running (ringbuffer.Buffer.AddConsumer enforces
// this).
func (d *Detail) ConnectInput(which int, upstream *ringbuffer.Buffer[block.Sample], upstreamTags *tagstore.Store, history int) error {
	if which < 0 || which >= len(d.inputs) {
		return fmt.Errorf("%w: input index %d", block.ErrUnknownStream, which)
	}
	cursorID := fmt.Sprintf("%s:in%d", d.id, which)
	if err := upstream.AddConsumer(cursorID, history); err != nil {
		return err
	}
	d.inputs[which] = &inputPort{buf: upstream, tags: upstreamTags, cursorID: cursorID, history: history}
	return nil
}

// NumInputs and NumOutputs report the connected stream counts.
func (d *Detail) NumInputs() int  { return len(d.inputs) }
func (d *Detail) NumOutputs() int { return len(d.outputs) }

// ItemsAvailable reports how many unread items input i currently has.
func (d *Detail) ItemsAvailable(i int) (int64, error) {
	in, err := d.input(i)
	if err != nil {
		return 0, err
	}
	return in.buf.ItemsAvailable(in.cursorID)
}

// SpaceAvailable reports how many items output j may currently accept.
func (d *Detail) SpaceAvailable(j int) (int64, error) {
	out, err := d.output(j)
	if err != nil {
		return 0, err
	}
	return out.buf.SpaceAvailable(), nil
}

// Window returns the contiguous read window for input i (see
// ringbuffer.Buffer.Window).
func (d *Detail) Window(i int, maxItems int64) (ringbuffer.InputWindow[block.Sample], error) {
	in, err := d.input(i)
	if err != nil {
		return ringbuffer.InputWindow[block.Sample]{}, err
	}
	return in.buf.Window(in.cursorID, maxItems)
}

// ReservableNow reports the largest contiguous reservation output j could
// satisfy right now.
func (d *Detail) ReservableNow(j int) (int64, error) {
	out, err := d.output(j)
	if err != nil {
		return 0, err
	}
	return out.buf.ReservableNow(), nil
}

// ReserveOutput returns a writable slice of exactly n items on output j.
func (d *Detail) ReserveOutput(j int, n int64) ([]block.Sample, error) {
	out, err := d.output(j)
	if err != nil {
		return nil, err
	}
	return out.buf.Reserve(n)
}

// IsInputEOS reports whether input i has drained every item its upstream
// will ever produce.
func (d *Detail) IsInputEOS(i int) (bool, error) {
	in, err := d.input(i)
	if err != nil {
		return false, err
	}
	return in.buf.IsEOS(in.cursorID), nil
}

// InputProducerClosed reports whether input i's upstream has permanently
// stopped producing, regardless of how much of what it already produced
// this input has read. Unlike IsInputEOS (which also requires this input
// to have drained everything), this is the right signal for "no more
// items can ever arrive" — used to stop waiting for a forecast amount
// the upstream will never supply, e.g. draining a history>1 block's
// final partial batch.
func (d *Detail) InputProducerClosed(i int) (bool, error) {
	in, err := d.input(i)
	if err != nil {
		return false, err
	}
	return in.buf.ProducerClosed(), nil
}

// WaitForOutputSpace blocks until output j has at least n items of space,
// the stream is closed, or ctx is done.
func (d *Detail) WaitForOutputSpace(ctx context.Context, j int, n int64) error {
	out, err := d.output(j)
	if err != nil {
		return err
	}
	out.buf.WaitForSpace(ctx, n)
	return nil
}

// WaitForInputData blocks until input i has at least n items available,
// its upstream closes, or ctx is done.
func (d *Detail) WaitForInputData(ctx context.Context, i int, n int64) error {
	in, err := d.input(i)
	if err != nil {
		return err
	}
	in.buf.WaitForData(ctx, in.cursorID, n)
	return nil
}

func (d *Detail) input(i int) (*inputPort, error) {
	if i < 0 || i >= len(d.inputs) || d.inputs[i] == nil {
		return nil, fmt.Errorf("%w: input index %d", block.ErrUnknownStream, i)
	}
	return d.inputs[i], nil
}

func (d *Detail) output(j int) (*outputPort, error) {
	if j < 0 || j >= len(d.outputs) {
		return nil, fmt.Errorf("%w: output index %d", block.ErrUnknownStream, j)
	}
	return d.outputs[j], nil
}

// BeginCall resets per-call staging before a GeneralWork invocation.
// callAvailable[i] should be the ninput_items value the scheduler is
// about to pass for input i (typically the length of the window it just
// reserved); noutputItems is the noutput_items value about to be passed.
func (d *Detail) BeginCall(callAvailable []int64, noutputItems int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, in := range d.inputs {
		if in == nil {
			continue
		}
		in.callStartRead = in.nitemsRead
		in.pendingConsume = 0
		in.consumedThisCall = false
		if i < len(callAvailable) {
			in.callAvailable = callAvailable[i]
		}
	}
	for _, out := range d.outputs {
		out.callStartWritten = out.nitemsWritten
		out.pendingProduce = 0
		out.callMax = noutputItems
		out.producedExplicitly = false
		out.committed = false
	}
}

// Consume advances nitems_read for input whichInput by n, within this
// call's budget.
func (d *Detail) Consume(whichInput, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if whichInput < 0 || whichInput >= len(d.inputs) || d.inputs[whichInput] == nil {
		return fmt.Errorf("%w: input index %d", block.ErrUnknownStream, whichInput)
	}
	in := d.inputs[whichInput]
	in.consumedThisCall = true
	if n == 0 {
		return nil
	}
	if in.pendingConsume+int64(n) > in.callAvailable {
		return fmt.Errorf("%w: block %q consumed %d items on input %d, exceeding the %d available this call",
			block.ErrContractViolation, d.id, in.pendingConsume+int64(n), whichInput, in.callAvailable)
	}
	in.pendingConsume += int64(n)
	in.nitemsRead += int64(n)
	return nil
}

// ConsumeEach advances nitems_read for every input by n.
func (d *Detail) ConsumeEach(n int) error {
	d.mu.Lock()
	inputs := make([]int, 0, len(d.inputs))
	for i, in := range d.inputs {
		if in != nil {
			inputs = append(inputs, i)
		}
	}
	d.mu.Unlock()

	for _, i := range inputs {
		if err := d.Consume(i, n); err != nil {
			return err
		}
	}
	return nil
}

// Produce advances nitems_written for output whichOutput by n,
// overriding the uniform return-value interpretation for that output.
func (d *Detail) Produce(whichOutput, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, err := d.output(whichOutput)
	if err != nil {
		return err
	}
	if out.pendingProduce+int64(n) > out.callMax {
		return fmt.Errorf("%w: block %q produced beyond noutput_items on output %d",
			block.ErrContractViolation, d.id, whichOutput)
	}
	out.producedExplicitly = true
	out.pendingProduce += int64(n)
	out.nitemsWritten += int64(n)
	return nil
}

// NItemsRead returns the absolute read counter for input i.
func (d *Detail) NItemsRead(whichInput int) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if whichInput < 0 || whichInput >= len(d.inputs) || d.inputs[whichInput] == nil {
		return 0
	}
	return d.inputs[whichInput].nitemsRead
}

// NItemsWritten returns the absolute write counter for output j.
func (d *Detail) NItemsWritten(whichOutput int) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if whichOutput < 0 || whichOutput >= len(d.outputs) {
		return 0
	}
	return d.outputs[whichOutput].nitemsWritten
}

// ConsumedRange returns the [start,end) of offsets consumed from input i
// during the current call.
func (d *Detail) ConsumedRange(whichInput int) (int64, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if whichInput < 0 || whichInput >= len(d.inputs) || d.inputs[whichInput] == nil {
		return 0, 0
	}
	in := d.inputs[whichInput]
	return in.callStartRead, in.nitemsRead
}

// ProducedRange returns the [start,end) of offsets produced on output j
// during the current call.
func (d *Detail) ProducedRange(whichOutput int) (int64, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if whichOutput < 0 || whichOutput >= len(d.outputs) {
		return 0, 0
	}
	out := d.outputs[whichOutput]
	return out.callStartWritten, out.nitemsWritten
}

// AddItemTag attaches a tag to output whichOutput at offset, which must
// be >= nitems_written — except once Commit has already advanced
// nitems_written to the end of this call's produced range (as it has by
// the time HandleTags runs), in which case offset must be >= the start
// of that range (callStartWritten) instead. Without that distinction,
// propagating a tag into the range a call just produced — the only
// thing HandleTags ever does — would always fail, since nitems_written
// by then already equals the range's end.
func (d *Detail) AddItemTag(whichOutput int, offset int64, key pmt.Symbol, value pmt.Value, sourceID pmt.Value) error {
	d.mu.Lock()
	out, err := d.output(whichOutput)
	floor := int64(0)
	if err == nil {
		floor = out.nitemsWritten
		if out.committed {
			floor = out.callStartWritten
		}
	}
	self := d.sourceID
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if offset < floor {
		return fmt.Errorf("%w: tag offset %d precedes floor %d on output %d", block.ErrTagOutOfRange, offset, floor, whichOutput)
	}
	if sourceID.IsNil() {
		sourceID = self
	}
	return out.tags.Append(tagstore.Tag{Offset: offset, Key: key, Value: value, SourceID: sourceID}, floor)
}

// GetTagsInRange returns tags on the upstream output feeding whichInput
// within [start, end).
func (d *Detail) GetTagsInRange(whichInput int, start, end int64, key *pmt.Symbol) []tagstore.Tag {
	d.mu.Lock()
	var in *inputPort
	if whichInput >= 0 && whichInput < len(d.inputs) {
		in = d.inputs[whichInput]
	}
	d.mu.Unlock()
	if in == nil || in.tags == nil {
		return nil
	}
	return in.tags.TagsInRange(start, end, key)
}

// Commit finalizes one GeneralWork call's accounting given its return
// value: it applies the uniform produced-item count to outputs the block
// did not explicitly call Produce on, pushes pending consume/produce
// counts into the underlying ring buffers, garbage-collects tags no
// consumer can query anymore, and (for WORK_DONE) closes every owned
// output so EOS propagates downstream.
func (d *Detail) Commit(result int) error {
	d.mu.Lock()

	if len(d.inputs) > 0 {
		for i, in := range d.inputs {
			if in != nil && !in.consumedThisCall {
				d.mu.Unlock()
				return fmt.Errorf("%w: block %q returned from GeneralWork without consuming input %d",
					block.ErrContractViolation, d.id, i)
			}
		}
	}

	switch {
	case result == block.WorkDone, result == block.WorkCalledProduce:
		// produced counts already recorded via Produce(), or there is
		// nothing further to produce.
	case result >= 0:
		for _, out := range d.outputs {
			if !out.producedExplicitly {
				out.pendingProduce = int64(result)
				out.nitemsWritten = out.callStartWritten + int64(result)
			}
		}
	default:
		d.mu.Unlock()
		return fmt.Errorf("%w: block %q returned invalid GeneralWork result %d", block.ErrContractViolation, d.id, result)
	}

	for _, out := range d.outputs {
		out.committed = true
	}

	inputs := append([]*inputPort(nil), d.inputs...)
	outputs := append([]*outputPort(nil), d.outputs...)
	d.mu.Unlock()

	for _, in := range inputs {
		if in == nil || in.pendingConsume == 0 {
			continue
		}
		if err := in.buf.Consume(in.cursorID, in.pendingConsume); err != nil {
			return err
		}
	}
	for _, out := range outputs {
		if out.pendingProduce > 0 {
			if err := out.buf.Produce(out.pendingProduce); err != nil {
				return err
			}
		}
		out.tags.GC(out.buf.MinRetainedFloor())
	}
	if result == block.WorkDone {
		for _, out := range outputs {
			out.buf.Close()
		}
	}
	return nil
}
