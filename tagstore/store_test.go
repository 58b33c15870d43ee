package tagstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/e7canasta/orion-blockrt/pmt"
)

func mkTag(offset int64, key string, v int64) Tag {
	return Tag{Offset: offset, Key: pmt.Intern(key), Value: pmt.FromInt(v)}
}

func TestAppendRejectsOffsetBelowFloor(t *testing.T) {
	s := New()
	if err := s.Append(mkTag(5, "k", 1), 10); err == nil {
		t.Fatal("Append should reject an offset below the producer floor")
	}
	if err := s.Append(mkTag(10, "k", 1), 10); err != nil {
		t.Fatalf("Append at exactly the floor should succeed: %v", err)
	}
}

func TestTagsInRangeOrdersByOffsetThenInsertion(t *testing.T) {
	s := New()
	s.Append(mkTag(10, "b", 1), 0)
	s.Append(mkTag(5, "a", 2), 0)  // out of order
	s.Append(mkTag(10, "c", 3), 0) // same offset as first, later insertion

	got := s.TagsInRange(0, 100, nil)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Offset != 5 {
		t.Fatalf("got[0].Offset = %d, want 5", got[0].Offset)
	}
	if got[1].Key.String() != "b" || got[2].Key.String() != "c" {
		t.Fatalf("tie-break order wrong: got %q then %q, want b then c", got[1].Key, got[2].Key)
	}
}

func TestTagsInRangeHalfOpenInterval(t *testing.T) {
	s := New()
	s.Append(mkTag(5, "k", 1), 0)
	s.Append(mkTag(10, "k", 2), 0)
	s.Append(mkTag(15, "k", 3), 0)

	got := s.TagsInRange(5, 15, nil)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (offset 15 must be excluded)", len(got))
	}
}

func TestTagsInRangeKeyFilter(t *testing.T) {
	s := New()
	s.Append(mkTag(1, "burst", 1), 0)
	s.Append(mkTag(2, "quiet", 2), 0)
	s.Append(mkTag(3, "burst", 3), 0)

	key := pmt.Intern("burst")
	got := s.TagsInRange(0, 10, &key)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, tag := range got {
		if !tag.Key.Equal(key) {
			t.Fatalf("unexpected key %q in filtered results", tag.Key)
		}
	}
}

func TestGCDropsTagsBelowFloor(t *testing.T) {
	s := New()
	s.Append(mkTag(1, "k", 1), 0)
	s.Append(mkTag(5, "k", 2), 0)
	s.Append(mkTag(10, "k", 3), 0)

	s.GC(5)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got := s.TagsInRange(0, 100, nil)
	if got[0].Offset != 5 {
		t.Fatalf("GC kept wrong tags: %v", got)
	}
}

func TestTagValuesCompareStructurally(t *testing.T) {
	s := New()
	s.Append(Tag{Offset: 10, Key: pmt.Intern("burst"), Value: pmt.FromInt(1)}, 0)

	got := s.TagsInRange(0, 100, nil)
	want := []struct {
		Offset int64
		Key    string
	}{{10, "burst"}}

	type simplified struct {
		Offset int64
		Key    string
	}
	simplifiedGot := make([]simplified, len(got))
	for i, tg := range got {
		simplifiedGot[i] = simplified{tg.Offset, tg.Key.String()}
	}
	simplifiedWant := make([]simplified, len(want))
	for i, w := range want {
		simplifiedWant[i] = simplified{w.Offset, w.Key}
	}

	if diff := cmp.Diff(simplifiedWant, simplifiedGot, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}
