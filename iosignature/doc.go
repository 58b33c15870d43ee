// Package iosignature describes the shape of a block's input or output
// port set: how many streams are allowed and how large each item is.
//
// A Signature is immutable once constructed; New validates it once at
// construction time so every later consumer can trust it without
// re-checking.
package iosignature
