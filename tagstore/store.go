package tagstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/e7canasta/orion-blockrt/pmt"
)

// Tag is a single piece of out-of-band metadata anchored to an absolute
// item offset on one output stream.
type Tag struct {
	Offset   int64
	Key      pmt.Symbol
	Value    pmt.Value
	SourceID pmt.Value // identifies the originating block; pmt.Nil if unknown
	seq      uint64    // insertion order, for stable tie-breaking
}

// Store holds the tags for a single output buffer. It is safe for
// concurrent use: the producing block appends, consumers query.
type Store struct {
	mu     sync.RWMutex
	tags   []Tag
	nextSq uint64
}

// New returns an empty tag store.
func New() *Store {
	return &Store{}
}

// Append records a new tag. offsetFloor is the lowest offset the caller
// currently permits (ordinarily the producing block's nitems_written at
// call time); Append rejects offsets below it, matching the tag contract
// invariant that a tag may only be attached at or after the item it
// annotates is about to be produced.
func (s *Store) Append(tag Tag, offsetFloor int64) error {
	if tag.Offset < offsetFloor {
		return fmt.Errorf("tagstore: tag offset %d is below producer floor %d", tag.Offset, offsetFloor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag.seq = s.nextSq
	s.nextSq++

	// Tags usually arrive in non-decreasing offset order, so appending
	// at the tail is the common case; sort.Search finds the true
	// insertion point in the rare out-of-order case.
	idx := len(s.tags)
	if idx == 0 || s.tags[idx-1].Offset <= tag.Offset {
		s.tags = append(s.tags, tag)
		return nil
	}
	idx = sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset > tag.Offset })
	s.tags = append(s.tags, Tag{})
	copy(s.tags[idx+1:], s.tags[idx:])
	s.tags[idx] = tag
	return nil
}

// TagsInRange returns every tag with start <= offset < end, ordered by
// offset then by insertion order. If key is non-nil, only tags with a
// matching Key are returned.
func (s *Store) TagsInRange(start, end int64, key *pmt.Symbol) []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo := sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset >= start })
	hi := sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset >= end })

	var out []Tag
	for _, t := range s.tags[lo:hi] {
		if key != nil && !t.Key.Equal(*key) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GC drops every tag with offset strictly below floor. Callers pass the
// owning buffer's MinRetainedFloor: the lowest offset any consumer still
// retains (its read cursor minus its history-1 lookback).
func (s *Store) GC(floor int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset >= floor })
	if idx == 0 {
		return
	}
	remaining := make([]Tag, len(s.tags)-idx)
	copy(remaining, s.tags[idx:])
	s.tags = remaining
}

// Len returns the number of tags currently retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}
