// Package tagstore implements the ordered, indexable collection of
// out-of-band annotations ("tags") attached to one output stream.
//
// Tags are keyed by absolute item offset and are queried by range. Offset
// order is the primary sort key; insertion order is the tie-break for
// tags sharing an offset, matching the "secondary ordering by insertion"
// rule in the tag contract.
package tagstore
