package iosignature

import "fmt"

// Unbounded marks MaxStreams as having no upper limit.
const Unbounded = -1

// Signature describes the allowed stream count and per-item size for one
// side (input or output) of a block.
type Signature struct {
	minStreams    int
	maxStreams    int
	itemSizeBytes int
}

// New constructs a validated Signature. max may be Unbounded.
func New(min, max, itemSizeBytes int) (Signature, error) {
	if min < 0 {
		return Signature{}, fmt.Errorf("iosignature: min_streams must be >= 0, got %d", min)
	}
	if max != Unbounded && max < min {
		return Signature{}, fmt.Errorf("iosignature: max_streams (%d) must be >= min_streams (%d)", max, min)
	}
	if itemSizeBytes <= 0 {
		return Signature{}, fmt.Errorf("iosignature: item_size_bytes must be > 0, got %d", itemSizeBytes)
	}
	return Signature{minStreams: min, maxStreams: max, itemSizeBytes: itemSizeBytes}, nil
}

// MustNew is New but panics on error; intended for package-level block
// constructors whose signature is a compile-time constant.
func MustNew(min, max, itemSizeBytes int) Signature {
	sig, err := New(min, max, itemSizeBytes)
	if err != nil {
		panic(err)
	}
	return sig
}

// MinStreams returns the minimum allowed stream count.
func (s Signature) MinStreams() int { return s.minStreams }

// MaxStreams returns the maximum allowed stream count, or Unbounded.
func (s Signature) MaxStreams() int { return s.maxStreams }

// ItemSizeBytes returns the declared per-item size in bytes.
func (s Signature) ItemSizeBytes() int { return s.itemSizeBytes }

// Accepts reports whether n streams satisfies this signature.
func (s Signature) Accepts(n int) bool {
	if n < s.minStreams {
		return false
	}
	return s.maxStreams == Unbounded || n <= s.maxStreams
}

// String renders a human-readable form for logging.
func (s Signature) String() string {
	max := "inf"
	if s.maxStreams != Unbounded {
		max = fmt.Sprintf("%d", s.maxStreams)
	}
	return fmt.Sprintf("[%d,%s]x%dB", s.minStreams, max, s.itemSizeBytes)
}
