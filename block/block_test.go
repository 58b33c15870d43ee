package block

import (
	"testing"

	"github.com/e7canasta/orion-blockrt/iosignature"
	"github.com/e7canasta/orion-blockrt/pmt"
	"github.com/e7canasta/orion-blockrt/tagstore"
)

func TestBaseDefaults(t *testing.T) {
	sig := iosignature.MustNew(1, 1, 8)
	b := NewBase("test", sig, sig)

	if b.History() != 1 {
		t.Errorf("History() = %d, want 1", b.History())
	}
	if b.OutputMultiple() != 1 {
		t.Errorf("OutputMultiple() = %d, want 1", b.OutputMultiple())
	}
	if b.RelativeRate() != 1.0 {
		t.Errorf("RelativeRate() = %v, want 1.0", b.RelativeRate())
	}
	if b.FixedRate() {
		t.Error("FixedRate() should default to false")
	}
}

func TestForecastDefaultAccountsForHistory(t *testing.T) {
	sig := iosignature.MustNew(1, 1, 8)
	b := NewBase("fir", sig, sig)
	b.SetHistory(4)

	required := make([]int, 2)
	b.Forecast(10, required)
	for _, r := range required {
		if r != 10+4-1 {
			t.Errorf("required = %d, want %d", r, 10+4-1)
		}
	}
}

func TestFixedRateConversionsAreInverses(t *testing.T) {
	sig := iosignature.MustNew(1, 1, 8)
	b := NewBase("rate", sig, sig)
	b.SetFixedRate(true)
	b.SetRelativeRate(0.25) // decimate by 4

	for n := int64(0); n < 40; n++ {
		out := b.FixedRateNInputToNOutput(n)
		back := b.FixedRateNOutputToNInput(out)
		backPlus1 := b.FixedRateNOutputToNInput(out + 1)
		if !(back <= n && n <= backPlus1) {
			t.Errorf("rate inverse law violated for n=%d: out=%d back=%d back+1=%d", n, out, back, backPlus1)
		}
	}
}

// fakeContext is a minimal in-memory Context used to test Base.HandleTags
// in isolation, independent of blockdetail.
type fakeContext struct {
	numIn, numOut   int
	consumedS, consumedE []int64
	producedS, producedE []int64
	inputTags       [][]tagstore.Tag
	nitemsWritten   []int64
	outputTags      [][]tagstore.Tag
}

func newFakeContext(numIn, numOut int) *fakeContext {
	return &fakeContext{
		numIn: numIn, numOut: numOut,
		consumedS: make([]int64, numIn), consumedE: make([]int64, numIn),
		producedS: make([]int64, numOut), producedE: make([]int64, numOut),
		inputTags:     make([][]tagstore.Tag, numIn),
		nitemsWritten: make([]int64, numOut),
		outputTags:    make([][]tagstore.Tag, numOut),
	}
}

func (f *fakeContext) NumInputs() int  { return f.numIn }
func (f *fakeContext) NumOutputs() int { return f.numOut }
func (f *fakeContext) Consume(int, int) error     { return nil }
func (f *fakeContext) ConsumeEach(int) error      { return nil }
func (f *fakeContext) Produce(int, int) error     { return nil }
func (f *fakeContext) NItemsRead(int) int64       { return 0 }
func (f *fakeContext) NItemsWritten(j int) int64  { return f.nitemsWritten[j] }
func (f *fakeContext) ConsumedRange(i int) (int64, int64) { return f.consumedS[i], f.consumedE[i] }
func (f *fakeContext) ProducedRange(j int) (int64, int64) { return f.producedS[j], f.producedE[j] }
func (f *fakeContext) AddItemTag(j int, offset int64, key pmt.Symbol, value pmt.Value, src pmt.Value) error {
	f.outputTags[j] = append(f.outputTags[j], tagstore.Tag{Offset: offset, Key: key, Value: value, SourceID: src})
	return nil
}
func (f *fakeContext) GetTagsInRange(i int, start, end int64, key *pmt.Symbol) []tagstore.Tag {
	var out []tagstore.Tag
	for _, tg := range f.inputTags[i] {
		if tg.Offset >= start && tg.Offset < end {
			out = append(out, tg)
		}
	}
	return out
}

func TestHandleTagsDefaultPreservesOffsetAtUnityRate(t *testing.T) {
	ctx := newFakeContext(1, 1)
	ctx.consumedS[0], ctx.consumedE[0] = 0, 10
	ctx.producedS[0], ctx.producedE[0] = 0, 10
	ctx.inputTags[0] = []tagstore.Tag{{Offset: 3, Key: pmt.Intern("burst"), Value: pmt.FromInt(1)}}

	sig := iosignature.MustNew(1, 1, 8)
	b := NewBase("identity", sig, sig)

	if err := b.HandleTags(ctx); err != nil {
		t.Fatal(err)
	}
	if len(ctx.outputTags[0]) != 1 {
		t.Fatalf("expected 1 propagated tag, got %d", len(ctx.outputTags[0]))
	}
	if ctx.outputTags[0][0].Offset != 3 {
		t.Errorf("tag offset = %d, want 3 (unity rate passthrough)", ctx.outputTags[0][0].Offset)
	}
}
