package blockdetail

import (
	"testing"

	"github.com/e7canasta/orion-blockrt/block"
	"github.com/e7canasta/orion-blockrt/pmt"
)

func TestConnectInputRejectsAfterProductionStarts(t *testing.T) {
	producer := New("src", 0, 1, 16)
	consumer := New("sink", 1, 0, 16)

	buf := producer.Output(0)
	data, err := buf.Reserve(4)
	if err != nil {
		t.Fatal(err)
	}
	copy(data, []block.Sample{1, 2, 3, 4})
	if err := buf.Produce(4); err != nil {
		t.Fatal(err)
	}

	if err := consumer.ConnectInput(0, buf, producer.OutputTags(0), 1); err == nil {
		t.Fatal("ConnectInput should fail once the producer has already written items")
	}
}

func TestLifecycleTransitionsAreIdempotent(t *testing.T) {
	d := New("b", 0, 1, 16)

	if err := d.MarkStarted(); err != nil {
		t.Fatal(err)
	}
	if err := d.MarkStarted(); err != nil {
		t.Fatalf("re-marking started should be idempotent: %v", err)
	}
	if err := d.MarkRunning(); err != nil {
		t.Fatal(err)
	}
	if err := d.MarkStopping(); err != nil {
		t.Fatal(err)
	}
	if err := d.MarkStopped(); err != nil {
		t.Fatal(err)
	}
	if d.State() != StateStopped {
		t.Fatalf("State() = %v, want stopped", d.State())
	}
}

func TestLifecycleRejectsSkippingAState(t *testing.T) {
	d := New("b", 0, 1, 16)
	if err := d.MarkRunning(); err == nil {
		t.Fatal("created -> running should be rejected without passing through started")
	}
}

// driveOneCall simulates what the scheduler does around a single
// GeneralWork invocation: reserve output space, compute available input,
// BeginCall, invoke the body, Commit.
func driveOneCall(t *testing.T, producer, consumer *Detail, noutputItems int64, body func(window []block.Sample) (produced int64)) {
	t.Helper()

	avail, err := consumer.ItemsAvailable(0)
	if err != nil {
		t.Fatal(err)
	}
	consumer.BeginCall([]int64{avail}, noutputItems)
	producer.BeginCall(nil, noutputItems)

	window, err := consumer.Window(0, avail)
	if err != nil {
		t.Fatal(err)
	}
	produced := body(window.Slice(0, int(avail)))

	if err := consumer.Consume(0, int(avail)); err != nil {
		t.Fatal(err)
	}
	if err := consumer.Commit(int(produced)); err != nil {
		t.Fatal(err)
	}
	if err := producer.Commit(block.WorkDone); err != nil {
		t.Fatal(err)
	}
}

func TestCommitAppliesUniformProduceAndConsume(t *testing.T) {
	producer := New("src", 0, 1, 16)
	consumer := New("sink", 1, 0, 16)

	buf := producer.Output(0)
	if err := consumer.ConnectInput(0, buf, producer.OutputTags(0), 1); err != nil {
		t.Fatal(err)
	}

	data, err := buf.Reserve(5)
	if err != nil {
		t.Fatal(err)
	}
	copy(data, []block.Sample{10, 20, 30, 40, 50})
	if err := buf.Produce(5); err != nil {
		t.Fatal(err)
	}

	var seen []block.Sample
	driveOneCall(t, producer, consumer, 5, func(window []block.Sample) int64 {
		seen = append(seen, window...)
		return int64(len(window))
	})

	want := []block.Sample{10, 20, 30, 40, 50}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
	if consumer.NItemsRead(0) != 5 {
		t.Fatalf("NItemsRead(0) = %d, want 5", consumer.NItemsRead(0))
	}
}

func TestCommitRejectsMissingConsume(t *testing.T) {
	producer := New("src", 0, 1, 16)
	consumer := New("sink", 1, 0, 16)
	buf := producer.Output(0)
	if err := consumer.ConnectInput(0, buf, producer.OutputTags(0), 1); err != nil {
		t.Fatal(err)
	}

	data, _ := buf.Reserve(2)
	copy(data, []block.Sample{1, 2})
	if err := buf.Produce(2); err != nil {
		t.Fatal(err)
	}

	consumer.BeginCall([]int64{2}, 2)
	if err := consumer.Commit(2); err == nil {
		t.Fatal("Commit should reject a call that never consumed its input")
	}
}

func TestAddItemTagRejectsOffsetBelowNItemsWritten(t *testing.T) {
	d := New("b", 0, 1, 16)
	d.BeginCall(nil, 4)
	if err := d.Produce(0, 4); err != nil {
		t.Fatal(err)
	}
	if err := d.AddItemTag(0, 1, pmt.Intern("k"), pmt.FromInt(1), pmt.Nil); err == nil {
		t.Fatal("AddItemTag should reject an offset already behind nitems_written")
	}
	if err := d.AddItemTag(0, 4, pmt.Intern("k"), pmt.FromInt(1), pmt.Nil); err != nil {
		t.Fatalf("AddItemTag at nitems_written should succeed: %v", err)
	}
}

func TestGetTagsInRangeReadsUpstreamTagStore(t *testing.T) {
	producer := New("src", 0, 1, 16)
	consumer := New("sink", 1, 0, 16)
	buf := producer.Output(0)
	if err := consumer.ConnectInput(0, buf, producer.OutputTags(0), 1); err != nil {
		t.Fatal(err)
	}

	data, _ := buf.Reserve(3)
	copy(data, []block.Sample{1, 2, 3})
	producer.BeginCall(nil, 3)
	if err := producer.AddItemTag(0, 1, pmt.Intern("burst"), pmt.FromBool(true), pmt.Nil); err != nil {
		t.Fatal(err)
	}
	if err := producer.Produce(0, 3); err != nil {
		t.Fatal(err)
	}
	if err := producer.Commit(block.WorkCalledProduce); err != nil {
		t.Fatal(err)
	}

	tags := consumer.GetTagsInRange(0, 0, 3, nil)
	if len(tags) != 1 || tags[0].Offset != 1 {
		t.Fatalf("GetTagsInRange = %+v, want one tag at offset 1", tags)
	}
}
