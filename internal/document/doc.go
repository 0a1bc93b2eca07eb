// Package document is the in-memory analysis document: the authoritative
// store of addressed items, symbols, segments, blocks and cross references
// for one loaded binary.
//
// Every structural edit (InsertItem, RemoveItem, ChangeItem, and symbol
// updates that affect existing items) is published on an event bus as one of
// the closed set of events ItemInserted, ItemRemoved or ItemChanged, tagged
// with the document's owner identity. Views never scan the document after
// their initial attach; they follow these events.
//
// Reads (ItemAt, SymbolAt, SegmentContaining, ReferenceCountTo, BlockAt,
// ReadBytes) are safe for concurrent use. Mutation assumes a single logical
// writer; events are published after the write lock is released so handlers
// may read the document.
package document
