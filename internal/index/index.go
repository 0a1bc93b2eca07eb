package index

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/event"
	"github.com/dshills/listview/internal/logging"
)

// Source is the part of a document an Index reads.
type Source interface {
	ItemCount() int
	ItemAt(i int) (document.Item, bool)
	Subscribe(owner string, fn func(document.Event)) (event.Subscription, error)
	Unsubscribe(sub event.Subscription) error
}

// Stats counts the events an index has handled since creation.
type Stats struct {
	Rows     int
	Seen     uint64 // events delivered while attached
	Accepted uint64 // events that changed rows or produced RowUpdated
	Filtered uint64 // events rejected by the predicate
	Ignored  uint64 // allowed events with no effect (absent or duplicate item)
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. The index logs under the "index" component.
func WithLogger(l *slog.Logger) Option {
	return func(x *Index) {
		x.logger = l
	}
}

// Index is a sorted, filtered projection of a document's items.
type Index struct {
	name   string
	pred   Predicate
	logger *slog.Logger

	src  Source
	sub  event.Subscription
	rows []document.Item

	listeners    map[int]Listener
	listenerIDs  []int
	nextListener int

	stats Stats
}

// New creates an unattached index.
func New(name string, pred Predicate, opts ...Option) *Index {
	if pred == nil {
		pred = AcceptAll()
	}
	x := &Index{
		name:      name,
		pred:      pred,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.logger = logging.WithComponent(x.logger, "index").With("view", name)
	return x
}

// Name returns the view name the index was created for.
func (x *Index) Name() string {
	return x.name
}

// Predicate returns the index filter.
func (x *Index) Predicate() Predicate {
	return x.pred
}

// Attached reports whether the index follows a document.
func (x *Index) Attached() bool {
	return x.src != nil
}

// Attach scans src, subscribes to its events and emits one Reset. An
// attached index is detached first.
func (x *Index) Attach(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	if x.Attached() {
		x.Detach()
	}

	start := time.Now()
	rows := make([]document.Item, 0, src.ItemCount())
	for i, n := 0, src.ItemCount(); i < n; i++ {
		item, ok := src.ItemAt(i)
		if !ok || !x.pred.Allowed(item) {
			continue
		}
		rows = insertSorted(rows, item)
	}

	sub, err := src.Subscribe(x.name, x.handle)
	if err != nil {
		return fmt.Errorf("attach %s: %w", x.name, err)
	}
	x.src = src
	x.sub = sub
	x.rows = rows
	x.stats.Rows = len(rows)

	attachDuration.WithLabelValues(x.name).Observe(time.Since(start).Seconds())
	rowsGauge.WithLabelValues(x.name).Set(float64(len(rows)))
	x.logger.Debug("attached", "rows", len(rows), "elapsed", time.Since(start))

	x.notify(Change{Kind: Reset})
	return nil
}

// Detach unsubscribes and clears the rows. It is safe to call at any time,
// any number of times.
func (x *Index) Detach() {
	if x.src == nil {
		return
	}
	if err := x.src.Unsubscribe(x.sub); err != nil {
		x.logger.Warn("unsubscribe failed", "error", err)
	}
	x.logger.Debug("detached", "rows", len(x.rows))
	x.src = nil
	x.sub = nil
	x.rows = nil
	x.stats.Rows = 0
	rowsGauge.WithLabelValues(x.name).Set(0)
}

// RowCount returns the number of rows.
func (x *Index) RowCount() int {
	return len(x.rows)
}

// RowAt returns the item at row p.
func (x *Index) RowAt(p int) (document.Item, error) {
	if p < 0 || p >= len(x.rows) {
		return document.Item{}, fmt.Errorf("row %d of %d: %w", p, len(x.rows), ErrIndexOutOfRange)
	}
	return x.rows[p], nil
}

// Rows returns a copy of all rows.
func (x *Index) Rows() []document.Item {
	return append([]document.Item(nil), x.rows...)
}

// Find returns the row holding the item with the identity of item.
func (x *Index) Find(item document.Item) (int, bool) {
	p := x.find(item)
	return p, p >= 0
}

// Stats returns the index counters.
func (x *Index) Stats() Stats {
	return x.stats
}

// Subscribe registers fn for notifications. The returned function removes
// it.
func (x *Index) Subscribe(fn Listener) (cancel func()) {
	id := x.nextListener
	x.nextListener++
	x.listeners[id] = fn
	x.listenerIDs = append(x.listenerIDs, id)
	return func() {
		if _, ok := x.listeners[id]; !ok {
			return
		}
		delete(x.listeners, id)
		for i, v := range x.listenerIDs {
			if v == id {
				x.listenerIDs = append(x.listenerIDs[:i:i], x.listenerIDs[i+1:]...)
				break
			}
		}
	}
}

// OnItemInserted places an allowed item after every row at the same
// address and emits RowInserted. Items already present are ignored.
func (x *Index) OnItemInserted(item document.Item) {
	if !x.admit("inserted", item) {
		return
	}
	lo, hi := x.addressRange(item.Address)
	for _, row := range x.rows[lo:hi] {
		if row.SameIdentity(item) {
			x.ignore("inserted")
			return
		}
	}
	x.rows = insertAt(x.rows, hi, item)
	x.accept("inserted")
	x.notify(Change{Kind: RowInserted, Row: hi})
}

// OnItemRemoved erases the row with the identity of item and emits
// RowRemoved.
func (x *Index) OnItemRemoved(item document.Item) {
	if !x.admit("removed", item) {
		return
	}
	p := x.find(item)
	if p < 0 {
		x.ignore("removed")
		return
	}
	x.rows = append(x.rows[:p], x.rows[p+1:]...)
	x.accept("removed")
	x.notify(Change{Kind: RowRemoved, Row: p})
}

// OnItemChanged emits RowUpdated for the row with the identity of item.
// The row is not moved.
func (x *Index) OnItemChanged(item document.Item) {
	if !x.admit("changed", item) {
		return
	}
	p := x.find(item)
	if p < 0 {
		x.ignore("changed")
		return
	}
	x.accept("changed")
	x.notify(Change{Kind: RowUpdated, Row: p})
}

func (x *Index) handle(ev document.Event) {
	switch e := ev.(type) {
	case document.ItemInserted:
		x.OnItemInserted(e.Item)
	case document.ItemRemoved:
		x.OnItemRemoved(e.Item)
	case document.ItemChanged:
		x.OnItemChanged(e.Item)
	}
}

// admit reports whether an event about item should be processed.
func (x *Index) admit(kind string, item document.Item) bool {
	if !x.Attached() {
		return false
	}
	x.stats.Seen++
	if !x.pred.Allowed(item) {
		x.stats.Filtered++
		eventsTotal.WithLabelValues(x.name, kind, resultFiltered).Inc()
		return false
	}
	return true
}

func (x *Index) accept(kind string) {
	x.stats.Accepted++
	x.stats.Rows = len(x.rows)
	eventsTotal.WithLabelValues(x.name, kind, resultAccepted).Inc()
	rowsGauge.WithLabelValues(x.name).Set(float64(len(x.rows)))
}

func (x *Index) ignore(kind string) {
	x.stats.Ignored++
	eventsTotal.WithLabelValues(x.name, kind, resultIgnored).Inc()
}

func (x *Index) notify(c Change) {
	for _, id := range append([]int(nil), x.listenerIDs...) {
		if fn, ok := x.listeners[id]; ok {
			fn(c)
		}
	}
}

// find returns the row of the item sharing item's identity, or -1.
func (x *Index) find(item document.Item) int {
	lo, hi := x.addressRange(item.Address)
	for p := lo; p < hi; p++ {
		if x.rows[p].SameIdentity(item) {
			return p
		}
	}
	return -1
}

func (x *Index) addressRange(addr uint64) (int, int) {
	return lowerBound(x.rows, addr), upperBound(x.rows, addr)
}

func lowerBound(rows []document.Item, addr uint64) int {
	return sort.Search(len(rows), func(i int) bool { return rows[i].Address >= addr })
}

// upperBound returns the first position whose address is greater than addr.
func upperBound(rows []document.Item, addr uint64) int {
	return sort.Search(len(rows), func(i int) bool { return rows[i].Address > addr })
}

// insertSorted inserts item at its upper bound unless its identity is
// already present.
func insertSorted(rows []document.Item, item document.Item) []document.Item {
	n := len(rows)
	if n == 0 || rows[n-1].Address < item.Address {
		return append(rows, item)
	}
	hi := upperBound(rows, item.Address)
	for p := lowerBound(rows, item.Address); p < hi; p++ {
		if rows[p].SameIdentity(item) {
			return rows
		}
	}
	return insertAt(rows, hi, item)
}

func insertAt(rows []document.Item, p int, item document.Item) []document.Item {
	rows = append(rows, document.Item{})
	copy(rows[p+1:], rows[p:])
	rows[p] = item
	return rows
}
