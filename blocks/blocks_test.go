package blocks

import (
	"testing"

	"github.com/e7canasta/orion-blockrt/block"
)

func TestDecimatorForecastRequestsFactorTimesOutput(t *testing.T) {
	d := NewDecimator("dec", 4)
	required := make([]int, 1)
	d.Forecast(25, required)
	if required[0] != 100 {
		t.Fatalf("required[0] = %d, want 100", required[0])
	}
}

func TestDecimatorFixedRateConversionsAreExact(t *testing.T) {
	d := NewDecimator("dec", 4)
	if got := d.FixedRateNInputToNOutput(100); got != 25 {
		t.Errorf("FixedRateNInputToNOutput(100) = %d, want 25", got)
	}
	if got := d.FixedRateNOutputToNInput(25); got != 100 {
		t.Errorf("FixedRateNOutputToNInput(25) = %d, want 100", got)
	}
}

func TestInterpolatorForecastRequestsCeilOfOutputOverFactor(t *testing.T) {
	p := NewInterpolator("interp", 4)
	required := make([]int, 1)
	p.Forecast(25, required)
	if required[0] != 7 {
		t.Fatalf("required[0] = %d, want 7", required[0])
	}
}

func TestInterpolatorFixedRateConversionsAreExact(t *testing.T) {
	p := NewInterpolator("interp", 4)
	if got := p.FixedRateNInputToNOutput(25); got != 100 {
		t.Errorf("FixedRateNInputToNOutput(25) = %d, want 100", got)
	}
	if got := p.FixedRateNOutputToNInput(100); got != 25 {
		t.Errorf("FixedRateNOutputToNInput(100) = %d, want 25", got)
	}
}

func TestFIR3DefaultsToHistoryThree(t *testing.T) {
	f := NewFIR3("fir")
	if f.History() != 3 {
		t.Fatalf("History() = %d, want 3", f.History())
	}
}

func TestSourceSignatureHasNoInputs(t *testing.T) {
	s := NewSource("src", []block.Sample{1, 2, 3})
	if s.InputSignature().Accepts(1) {
		t.Error("Source should not accept any inputs")
	}
	if !s.OutputSignature().Accepts(1) {
		t.Error("Source should accept exactly one output")
	}
}

func TestSinkCollectsNothingBeforeAnyWork(t *testing.T) {
	s := NewSink("sink")
	if len(s.Items()) != 0 {
		t.Error("a fresh Sink should have collected nothing")
	}
}
