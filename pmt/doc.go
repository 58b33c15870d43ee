// Package pmt implements the dynamically-typed value carried by tags.
//
// A pmt.Value is a tagged sum over a closed set of variants: symbol,
// integer, real, boolean, string, pair, sequence, and null. Equality is
// structural. Symbols are interned so that symbol equality and hashing are
// O(1), the way a polymorphic-message-type registry usually is in
// dataflow frameworks with out-of-band metadata.
package pmt
