package ringbuffer

import "testing"

func TestBufferRoundTrip(t *testing.T) {
	b := New[float64](4)
	if err := b.AddConsumer("sink", 1); err != nil {
		t.Fatal(err)
	}

	span, err := b.Reserve(4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range span {
		span[i] = float64(i) * 2
	}
	if err := b.Produce(4); err != nil {
		t.Fatal(err)
	}

	win, err := b.Window("sink", -1)
	if err != nil {
		t.Fatal(err)
	}
	if win.Available() != 4 {
		t.Fatalf("Available() = %d, want 4", win.Available())
	}
	for i := 0; i < 4; i++ {
		if win.At(i) != float64(i)*2 {
			t.Fatalf("At(%d) = %v, want %v", i, win.At(i), float64(i)*2)
		}
	}

	if err := b.Consume("sink", 4); err != nil {
		t.Fatal(err)
	}
	if avail, _ := b.ItemsAvailable("sink"); avail != 0 {
		t.Fatalf("ItemsAvailable = %d, want 0", avail)
	}
}

func TestBufferEOS(t *testing.T) {
	b := New[int](4)
	b.AddConsumer("sink", 1)

	b.Reserve(2)
	b.Produce(2)
	b.Close()

	if b.IsEOS("sink") {
		t.Fatal("should not be EOS while unread items remain")
	}
	b.Consume("sink", 2)
	if !b.IsEOS("sink") {
		t.Fatal("should be EOS once drained after close")
	}
}

func TestWindowSliceIsASubSlice(t *testing.T) {
	b := New[int](8)
	b.AddConsumer("sink", 3)

	span, _ := b.Reserve(5)
	for i := range span {
		span[i] = i + 1
	}
	b.Produce(5)

	win, err := b.Window("sink", -1)
	if err != nil {
		t.Fatal(err)
	}
	got := win.Slice(0, 3)
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice(0,3)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
