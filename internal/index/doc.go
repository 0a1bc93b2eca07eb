// Package index maintains per-view sorted projections of a document.
//
// An Index holds the document items accepted by its Predicate, ordered by
// address with items at the same address kept in arrival order. It is built
// by one full scan in Attach and afterwards follows the document's
// ItemInserted, ItemRemoved and ItemChanged events, reporting each
// structural change to its listeners as a Change (Reset, RowInserted,
// RowRemoved, RowUpdated).
//
// An Index does no locking. Event delivery and reads must happen on the same
// goroutine, or be serialized by the host.
package index
