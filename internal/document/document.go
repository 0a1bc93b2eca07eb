package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/listview/internal/event"
)

// Option configures a Document.
type Option func(*Document)

// WithBus publishes on a shared bus instead of a private one.
func WithBus(b event.Bus) Option {
	return func(d *Document) {
		if b != nil {
			d.bus = b
		}
	}
}

// WithLogger sets the document logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithAddressBits sets the address size of the analysed binary. Defaults to 64.
func WithAddressBits(bits int) Option {
	return func(d *Document) {
		if bits == 32 || bits == 64 {
			d.addressBits = bits
		}
	}
}

// Document is the in-memory analysis document.
type Document struct {
	mu sync.RWMutex

	owner       string
	addressBits int
	bus         event.Bus
	logger      *slog.Logger

	items    []Item // ordered by address, ties by insertion
	symbols  map[uint64]Symbol
	segments []Segment // ordered by Start, non-overlapping
	blocks   map[uint64]Block
	xrefs    *xrefGraph
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		owner:       "document-" + uuid.NewString(),
		addressBits: 64,
		logger:      slog.New(slog.DiscardHandler),
		symbols:     make(map[uint64]Symbol),
		blocks:      make(map[uint64]Block),
		xrefs:       newXrefGraph(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.bus == nil {
		d.bus = event.NewBus(event.WithLogger(d.logger))
	}
	return d
}

// Owner returns the identity events from this document are tagged with.
func (d *Document) Owner() string {
	return d.owner
}

// AddressBits returns the address size of the analysed binary.
func (d *Document) AddressBits() int {
	return d.addressBits
}

// Bus returns the bus the document publishes on.
func (d *Document) Bus() event.Bus {
	return d.bus
}

// ItemCount returns the number of items.
func (d *Document) ItemCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// ItemAt returns the i-th item in address order.
func (d *Document) ItemAt(i int) (Item, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.items) {
		return Item{}, false
	}
	return d.items[i], true
}

// NextIndex returns the smallest disambiguator not yet used by an item of
// type t at addr.
func (d *Document) NextIndex(addr uint64, t ItemType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	next := 0
	lo, hi := d.addressRange(addr)
	for _, it := range d.items[lo:hi] {
		if it.Type == t && it.Index >= next {
			next = it.Index + 1
		}
	}
	return next
}

// InsertItem adds it and publishes ItemInserted.
func (d *Document) InsertItem(ctx context.Context, it Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert %s: %w", it, err)
	}
	d.mu.Lock()
	if d.findLocked(it) >= 0 {
		d.mu.Unlock()
		return fmt.Errorf("insert %s: %w", it, ErrDuplicateItem)
	}
	pos := sort.Search(len(d.items), func(i int) bool {
		return d.items[i].Address > it.Address
	})
	d.items = append(d.items, Item{})
	copy(d.items[pos+1:], d.items[pos:])
	d.items[pos] = it
	d.mu.Unlock()

	return d.publish(ctx, ItemInserted{Item: it})
}

// RemoveItem deletes the item with the identity of it and publishes
// ItemRemoved.
func (d *Document) RemoveItem(ctx context.Context, it Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("remove %s: %w", it, err)
	}
	d.mu.Lock()
	pos := d.findLocked(it)
	if pos < 0 {
		d.mu.Unlock()
		return fmt.Errorf("remove %s: %w", it, ErrItemNotFound)
	}
	d.items = append(d.items[:pos], d.items[pos+1:]...)
	d.mu.Unlock()

	return d.publish(ctx, ItemRemoved{Item: it})
}

// ChangeItem publishes ItemChanged for an existing item.
func (d *Document) ChangeItem(ctx context.Context, it Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("change %s: %w", it, err)
	}
	d.mu.RLock()
	pos := d.findLocked(it)
	d.mu.RUnlock()
	if pos < 0 {
		return fmt.Errorf("change %s: %w", it, ErrItemNotFound)
	}
	return d.publish(ctx, ItemChanged{Item: it})
}

// Subscribe registers fn for this document's item events. Events published
// by other documents sharing the bus are not delivered.
func (d *Document) Subscribe(owner string, fn func(Event)) (event.Subscription, error) {
	if fn == nil {
		return nil, event.ErrNilHandler
	}
	handler := event.AsHandler(func(_ context.Context, e Envelope) error {
		if e.Metadata.Source == d.owner {
			fn(e.Payload)
		}
		return nil
	})
	return d.bus.Subscribe(TopicItems, handler,
		event.WithOwner(owner),
		event.WithPriority(event.PriorityCritical))
}

// Unsubscribe revokes a subscription returned by Subscribe.
func (d *Document) Unsubscribe(sub event.Subscription) error {
	return d.bus.Unsubscribe(sub)
}

// SymbolAt returns the symbol at addr.
func (d *Document) SymbolAt(addr uint64) (Symbol, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.symbols[addr]
	return s, ok
}

// SetSymbol creates or replaces the symbol at s.Address. Existing items at
// that address are reported as changed.
func (d *Document) SetSymbol(ctx context.Context, s Symbol) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("set symbol %#x: %w", s.Address, err)
	}
	d.mu.Lock()
	_, replaced := d.symbols[s.Address]
	d.symbols[s.Address] = s
	var changed []Item
	if replaced {
		lo, hi := d.addressRange(s.Address)
		changed = append(changed, d.items[lo:hi]...)
	}
	d.mu.Unlock()

	return d.publishAll(ctx, changed)
}

// RemoveSymbol deletes the symbol at addr. Items at that address are
// reported as changed.
func (d *Document) RemoveSymbol(ctx context.Context, addr uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("remove symbol %#x: %w", addr, err)
	}
	d.mu.Lock()
	if _, ok := d.symbols[addr]; !ok {
		d.mu.Unlock()
		return nil
	}
	delete(d.symbols, addr)
	lo, hi := d.addressRange(addr)
	changed := append([]Item(nil), d.items[lo:hi]...)
	d.mu.Unlock()

	return d.publishAll(ctx, changed)
}

// Symbols returns all symbols ordered by address.
func (d *Document) Symbols() []Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Symbol, 0, len(d.symbols))
	for _, s := range d.symbols {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// AddSegment registers a segment. Segments may not overlap.
func (d *Document) AddSegment(s Segment) error {
	if s.End <= s.Start {
		return fmt.Errorf("segment %q: %w", s.Name, ErrSegmentInvalid)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	pos := sort.Search(len(d.segments), func(i int) bool {
		return d.segments[i].Start >= s.Start
	})
	if pos < len(d.segments) && d.segments[pos].Start < s.End {
		return fmt.Errorf("segment %q overlaps %q: %w", s.Name, d.segments[pos].Name, ErrSegmentOverlap)
	}
	if pos > 0 && d.segments[pos-1].End > s.Start {
		return fmt.Errorf("segment %q overlaps %q: %w", s.Name, d.segments[pos-1].Name, ErrSegmentOverlap)
	}
	d.segments = append(d.segments, Segment{})
	copy(d.segments[pos+1:], d.segments[pos:])
	d.segments[pos] = s
	return nil
}

// Segments returns the segments ordered by start address.
func (d *Document) Segments() []Segment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Segment(nil), d.segments...)
}

// SegmentContaining returns the segment whose range contains addr.
func (d *Document) SegmentContaining(addr uint64) (Segment, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.segmentContainingLocked(addr)
}

func (d *Document) segmentContainingLocked(addr uint64) (Segment, bool) {
	pos := sort.Search(len(d.segments), func(i int) bool {
		return d.segments[i].Start > addr
	})
	if pos == 0 {
		return Segment{}, false
	}
	s := d.segments[pos-1]
	if !s.Contains(addr) {
		return Segment{}, false
	}
	return s, true
}

// SetBlock records the byte span associated with addr.
func (d *Document) SetBlock(addr uint64, b Block) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocks[addr] = b
}

// BlockAt returns the byte span associated with addr.
func (d *Document) BlockAt(addr uint64) (Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.blocks[addr]
	return b, ok
}

// ReadBytes returns a copy of n bytes starting at addr. It fails when the
// range is not fully backed by segment data.
func (d *Document) ReadBytes(addr uint64, n uint64) ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.segmentContainingLocked(addr)
	if !ok || n == 0 {
		return nil, false
	}
	off := addr - s.Start
	if off+n < off || off+n > uint64(len(s.Data)) {
		return nil, false
	}
	return append([]byte(nil), s.Data[off:off+n]...), true
}

// AddReference records a reference from one address to another.
func (d *Document) AddReference(from, to uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xrefs.add(from, to)
}

// RemoveReference forgets a reference.
func (d *Document) RemoveReference(from, to uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xrefs.remove(from, to)
}

// ReferenceCountTo returns the number of distinct addresses referencing addr.
func (d *Document) ReferenceCountTo(addr uint64) uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.xrefs.countTo(addr)
}

// ReferencesTo returns the addresses referencing addr in ascending order.
func (d *Document) ReferencesTo(addr uint64) []uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.xrefs.to(addr)
}

// findLocked returns the position of the item sharing the identity of it,
// or -1.
func (d *Document) findLocked(it Item) int {
	lo, hi := d.addressRange(it.Address)
	for i := lo; i < hi; i++ {
		if d.items[i].SameIdentity(it) {
			return i
		}
	}
	return -1
}

// addressRange returns the half-open range of items at addr.
func (d *Document) addressRange(addr uint64) (int, int) {
	lo := sort.Search(len(d.items), func(i int) bool { return d.items[i].Address >= addr })
	hi := sort.Search(len(d.items), func(i int) bool { return d.items[i].Address > addr })
	return lo, hi
}

// publish delivers ev for a change that is already committed. Cancellation
// no longer applies at this point: every subscriber must see the event.
func (d *Document) publish(ctx context.Context, ev Event) error {
	d.logger.Debug("document event", "topic", ev.Topic(), "item", ev.Target().String())
	if err := d.bus.Publish(context.WithoutCancel(ctx), newEnvelope(ev, d.owner)); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Topic(), err)
	}
	return nil
}

func (d *Document) publishAll(ctx context.Context, items []Item) error {
	var errs []error
	for _, it := range items {
		if err := d.publish(ctx, ItemChanged{Item: it}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
