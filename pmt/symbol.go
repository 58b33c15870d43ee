package pmt

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Symbol is an interned name. The zero Symbol is invalid; use Intern to
// obtain one. Symbols compare in O(1) regardless of string length.
type Symbol struct {
	id   uint64
	name string
}

// String returns the symbol's original text.
func (s Symbol) String() string { return s.name }

// Equal reports whether two symbols were interned from the same text.
func (s Symbol) Equal(other Symbol) bool { return s.id == other.id }

// IsZero reports whether s is the zero value (never interned).
func (s Symbol) IsZero() bool { return s.id == 0 && s.name == "" }

// registry is the process-wide symbol interning table, keyed on the
// symbol's text. Each newly interned symbol's id combines a sequence
// number with the xxhash of its name.
type registry struct {
	mu      sync.RWMutex
	bySpell map[string]Symbol
	next    uint64
}

var globalRegistry = &registry{
	bySpell: make(map[string]Symbol),
}

// Intern returns the Symbol for name, creating it on first use. Repeated
// calls with the same name return Symbols that compare Equal.
func Intern(name string) Symbol {
	r := globalRegistry

	r.mu.RLock()
	if sym, ok := r.bySpell[name]; ok {
		r.mu.RUnlock()
		return sym
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if sym, ok := r.bySpell[name]; ok {
		return sym
	}

	r.next++
	sym := Symbol{id: r.next ^ xxhash.Sum64String(name), name: name}
	r.bySpell[name] = sym
	return sym
}

// MustSymbol is a convenience for call sites constructing a Value literal
// from a string key (e.g. building a tag in a test).
func MustSymbol(name string) Symbol { return Intern(name) }
