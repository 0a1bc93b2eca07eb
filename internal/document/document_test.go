package document

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/listview/internal/event"
)

func collect(t *testing.T, d *Document) *[]Event {
	t.Helper()
	var got []Event
	sub, err := d.Subscribe("test", func(ev Event) { got = append(got, ev) })
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Unsubscribe(sub) })
	return &got
}

func TestInsertItemOrdersByAddressThenArrival(t *testing.T) {
	ctx := context.Background()
	d := New()

	items := []Item{
		{Address: 30, Type: TypeInstruction},
		{Address: 20, Type: TypeLabel},
		{Address: 10, Type: TypeInstruction},
		{Address: 20, Type: TypeFunction},
		{Address: 20, Type: TypeInstruction},
	}
	for _, it := range items {
		require.NoError(t, d.InsertItem(ctx, it))
	}

	require.Equal(t, 5, d.ItemCount())
	want := []Item{items[2], items[1], items[3], items[4], items[0]}
	for i, w := range want {
		got, ok := d.ItemAt(i)
		require.True(t, ok)
		assert.Equal(t, w, got, "position %d", i)
	}
	_, ok := d.ItemAt(5)
	assert.False(t, ok)
	_, ok = d.ItemAt(-1)
	assert.False(t, ok)
}

func TestInsertDuplicateAndRemoveMissing(t *testing.T) {
	ctx := context.Background()
	d := New()
	it := Item{Address: 0x10, Type: TypeData}

	require.NoError(t, d.InsertItem(ctx, it))
	assert.ErrorIs(t, d.InsertItem(ctx, it), ErrDuplicateItem)
	assert.ErrorIs(t, d.RemoveItem(ctx, Item{Address: 0x10, Type: TypeData, Index: 1}), ErrItemNotFound)
	assert.ErrorIs(t, d.ChangeItem(ctx, Item{Address: 0x11, Type: TypeData}), ErrItemNotFound)
	assert.Equal(t, 1, d.NextIndex(0x10, TypeData))
	assert.Equal(t, 0, d.NextIndex(0x10, TypeLabel))
}

func TestSubscribeReceivesEventsInOrder(t *testing.T) {
	ctx := context.Background()
	d := New()
	got := collect(t, d)

	it := Item{Address: 0x40, Type: TypeFunction}
	require.NoError(t, d.InsertItem(ctx, it))
	require.NoError(t, d.ChangeItem(ctx, it))
	require.NoError(t, d.RemoveItem(ctx, it))

	assert.Equal(t, []Event{ItemInserted{Item: it}, ItemChanged{Item: it}, ItemRemoved{Item: it}}, *got)
}

func TestSubscribeIgnoresOtherDocumentsOnSharedBus(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	a := New(WithBus(bus))
	b := New(WithBus(bus))
	require.NotEqual(t, a.Owner(), b.Owner())

	got := collect(t, a)
	require.NoError(t, b.InsertItem(ctx, Item{Address: 1}))
	require.NoError(t, a.InsertItem(ctx, Item{Address: 2}))

	require.Len(t, *got, 1)
	assert.Equal(t, uint64(2), (*got)[0].Target().Address)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	d := New()
	var n int
	sub, err := d.Subscribe("test", func(Event) { n++ })
	require.NoError(t, err)

	require.NoError(t, d.InsertItem(ctx, Item{Address: 1}))
	require.NoError(t, d.Unsubscribe(sub))
	require.NoError(t, d.InsertItem(ctx, Item{Address: 2}))
	assert.Equal(t, 1, n)

	_, err = d.Subscribe("test", nil)
	assert.ErrorIs(t, err, event.ErrNilHandler)
}

func TestSetSymbolReportsChangedItems(t *testing.T) {
	ctx := context.Background()
	d := New()
	fn := Item{Address: 0x100, Type: TypeFunction}
	ins := Item{Address: 0x100, Type: TypeInstruction}
	require.NoError(t, d.InsertItem(ctx, fn))
	require.NoError(t, d.InsertItem(ctx, ins))
	got := collect(t, d)

	require.NoError(t, d.SetSymbol(ctx, Symbol{Address: 0x100, Type: SymbolFunction, Name: "a"}))
	assert.Empty(t, *got, "first symbol at an address is not a change")

	require.NoError(t, d.SetSymbol(ctx, Symbol{Address: 0x100, Type: SymbolFunction, Name: "b"}))
	assert.Equal(t, []Event{ItemChanged{Item: fn}, ItemChanged{Item: ins}}, *got)

	s, ok := d.SymbolAt(0x100)
	require.True(t, ok)
	assert.Equal(t, "b", s.Name)

	require.NoError(t, d.RemoveSymbol(ctx, 0x100))
	_, ok = d.SymbolAt(0x100)
	assert.False(t, ok)
	assert.Len(t, *got, 4)
}

func TestSegments(t *testing.T) {
	d := New()
	require.NoError(t, d.AddSegment(Segment{Name: ".data", Start: 0x2000, End: 0x3000}))
	require.NoError(t, d.AddSegment(Segment{Name: ".text", Start: 0x1000, End: 0x2000}))

	assert.ErrorIs(t, d.AddSegment(Segment{Name: "x", Start: 0x1800, End: 0x1900}), ErrSegmentOverlap)
	assert.ErrorIs(t, d.AddSegment(Segment{Name: "y", Start: 0x0f00, End: 0x1001}), ErrSegmentOverlap)
	assert.ErrorIs(t, d.AddSegment(Segment{Name: "z", Start: 0x5000, End: 0x5000}), ErrSegmentInvalid)

	tests := []struct {
		addr uint64
		name string
		ok   bool
	}{
		{0x0fff, "", false},
		{0x1000, ".text", true},
		{0x1fff, ".text", true},
		{0x2000, ".data", true},
		{0x2fff, ".data", true},
		{0x3000, "", false},
	}
	for _, tt := range tests {
		s, ok := d.SegmentContaining(tt.addr)
		assert.Equal(t, tt.ok, ok, "%#x", tt.addr)
		assert.Equal(t, tt.name, s.Name, "%#x", tt.addr)
	}

	segs := d.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, ".text", segs[0].Name)
}

func TestReadBytes(t *testing.T) {
	d := New()
	require.NoError(t, d.AddSegment(Segment{Name: ".rdata", Start: 0x100, End: 0x200, Data: []byte("abcdef")}))

	b, ok := d.ReadBytes(0x101, 3)
	require.True(t, ok)
	assert.Equal(t, []byte("bcd"), b)

	_, ok = d.ReadBytes(0x104, 3)
	assert.False(t, ok, "past backed data")
	_, ok = d.ReadBytes(0x300, 1)
	assert.False(t, ok, "outside segments")
	_, ok = d.ReadBytes(0x100, 0)
	assert.False(t, ok, "empty read")
}

func TestReferences(t *testing.T) {
	d := New()
	d.AddReference(1, 100)
	d.AddReference(2, 100)
	d.AddReference(2, 100)
	d.AddReference(3, 200)

	assert.Equal(t, uint64(2), d.ReferenceCountTo(100))
	assert.Equal(t, []uint64{1, 2}, d.ReferencesTo(100))
	assert.Zero(t, d.ReferenceCountTo(300))

	d.RemoveReference(1, 100)
	d.RemoveReference(2, 100)
	assert.Zero(t, d.ReferenceCountTo(100))
	assert.Nil(t, d.ReferencesTo(100))
}

func TestDemangledName(t *testing.T) {
	d := New()
	tests := []struct {
		raw  string
		want string
	}{
		{"_ZN3app4mainEv", "app::main()"},
		{"__ZN3app4mainEv", "app::main()"},
		{"main", "main"},
		{"CreateFileW", "CreateFileW"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.DemangledName(tt.raw), tt.raw)
	}
}

func TestParseTypes(t *testing.T) {
	it, err := ParseItemType(" Function ")
	require.NoError(t, err)
	assert.Equal(t, TypeFunction, it)
	_, err = ParseItemType("bogus")
	assert.ErrorIs(t, err, ErrUnknownItemType)

	st, err := ParseSymbolType("import")
	require.NoError(t, err)
	assert.Equal(t, SymbolImport, st)
	_, err = ParseSymbolType("bogus")
	assert.ErrorIs(t, err, ErrUnknownSymbolType)

	assert.Equal(t, "string@0x10/2", Item{Address: 0x10, Type: TypeString, Index: 2}.String())
}

func TestLoadFixture(t *testing.T) {
	f, err := os.Open("testdata/sample.yaml")
	require.NoError(t, err)
	defer f.Close()

	fx, err := ParseFixture(f)
	require.NoError(t, err)
	d, err := fx.Build()
	require.NoError(t, err)

	assert.Equal(t, 32, d.AddressBits())
	// 3 segments, 7 symbols, 3 extra items.
	assert.Equal(t, 13, d.ItemCount())
	assert.Len(t, d.Segments(), 3)

	first, _ := d.ItemAt(0)
	assert.Equal(t, Item{Address: 0x401000, Type: TypeSegment}, first)

	blk, ok := d.BlockAt(0x402000)
	require.True(t, ok)
	assert.Equal(t, uint64(len("hello\tworld\n")), blk.Size)
	assert.Equal(t, uint64(0x1400), blk.Offset)
	raw, ok := d.ReadBytes(0x402000, blk.Size)
	require.True(t, ok)
	assert.Equal(t, "hello\tworld\n", string(raw))

	wide, ok := d.BlockAt(0x402020)
	require.True(t, ok)
	assert.Equal(t, uint64(8), wide.Size)
	raw, ok = d.ReadBytes(0x402020, wide.Size)
	require.True(t, ok)
	assert.Equal(t, []byte{'w', 0, 'i', 0, 'd', 0, 'e', 0}, raw)

	sym, ok := d.SymbolAt(0x402104)
	require.True(t, ok)
	assert.Equal(t, SymbolImport, sym.Type)
	assert.Equal(t, uint16(23), sym.Ordinal)
	assert.Equal(t, uint64(2), d.ReferenceCountTo(0x402000))

	edits, err := fx.Edits()
	require.NoError(t, err)
	require.Len(t, edits, 3)
	got := collect(t, d)
	for _, e := range edits {
		require.NoError(t, d.Apply(context.Background(), e), e.String())
	}
	assert.Equal(t, []Event{
		ItemInserted{Item: Item{Address: 0x401010, Type: TypeLabel}},
		ItemChanged{Item: Item{Address: 0x401040, Type: TypeFunction}},
		ItemRemoved{Item: Item{Address: 0x401003, Type: TypeInstruction}},
	}, *got)
}

func TestLoadFixtureErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "segmnts: []",
		"bad flag":        "segments: [{name: a, start: 0, end: 16, flags: [weird]}]",
		"bad hex":         "segments: [{name: a, start: 0, end: 16, hex: zz}]",
		"oversized hex":   "segments: [{name: a, start: 0, end: 1, hex: '0000'}]",
		"overlap":         "segments: [{name: a, start: 0, end: 16}, {name: b, start: 8, end: 32}]",
		"string outside":  "symbols: [{address: 0x10, type: string, text: hi}]",
		"bad symbol type": "symbols: [{address: 0x10, type: bogus}]",
		"bad item type":   "items: [{address: 0x10, type: bogus}]",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrFixture)
		})
	}
}

func TestApplyUnknownOp(t *testing.T) {
	d := New()
	assert.ErrorIs(t, d.Apply(context.Background(), Edit{Op: "move"}), ErrUnknownEdit)
	_, err := ParseEditOp("move")
	assert.ErrorIs(t, err, ErrUnknownEdit)
}

