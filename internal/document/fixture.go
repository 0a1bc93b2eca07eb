package document

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"gopkg.in/yaml.v3"
)

// Fixture is a parsed YAML document description.
//
//	address_bits: 32
//	segments:
//	  - {name: .text, start: 0x401000, end: 0x402000, offset: 0x400, flags: [code]}
//	  - {name: .rdata, start: 0x402000, end: 0x403000, flags: [data], hex: "48656c6c6f00"}
//	symbols:
//	  - {address: 0x401000, type: function, name: _ZN3app4mainEv, flags: [entrypoint]}
//	  - {address: 0x402010, type: string, text: "line\n", wide: true}
//	  - {address: 0x402100, type: import, library: ws2_32.dll, ordinal: 23}
//	items:
//	  - {address: 0x401004, type: instruction}
//	references:
//	  - {from: 0x401004, to: 0x402010}
//	edits:
//	  - {op: remove, address: 0x401004, type: instruction}
//
// Every segment gets a Segment item and every symbol an item of the matching
// type unless it sets "item: false".
type Fixture struct {
	AddressBits int                `yaml:"address_bits"`
	Segments    []fixtureSegment   `yaml:"segments"`
	Symbols     []fixtureSymbol    `yaml:"symbols"`
	Items       []fixtureItem      `yaml:"items"`
	References  []fixtureReference `yaml:"references"`
	EditList    []fixtureEdit      `yaml:"edits"`
}

type fixtureSegment struct {
	Name   string   `yaml:"name"`
	Start  uint64   `yaml:"start"`
	End    uint64   `yaml:"end"`
	Offset uint64   `yaml:"offset"`
	Flags  []string `yaml:"flags"`
	Hex    string   `yaml:"hex"`
}

type fixtureSymbol struct {
	Address uint64   `yaml:"address"`
	Type    string   `yaml:"type"`
	Name    string   `yaml:"name"`
	Flags   []string `yaml:"flags"`
	Library string   `yaml:"library"`
	Ordinal uint16   `yaml:"ordinal"`
	Text    *string  `yaml:"text"`
	Wide    bool     `yaml:"wide"`
	Item    *bool    `yaml:"item"`
}

type fixtureItem struct {
	Address uint64 `yaml:"address"`
	Type    string `yaml:"type"`
	Index   *int   `yaml:"index"`
}

type fixtureReference struct {
	From uint64 `yaml:"from"`
	To   uint64 `yaml:"to"`
}

type fixtureEdit struct {
	Op          string `yaml:"op"`
	fixtureItem `yaml:",inline"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrFixture, err)
	}
	return &f, nil
}

// LoadFixture parses a YAML fixture and builds the document it describes.
func LoadFixture(r io.Reader, opts ...Option) (*Document, error) {
	f, err := ParseFixture(r)
	if err != nil {
		return nil, err
	}
	return f.Build(opts...)
}

// Build creates a document from the fixture. Options are applied after the
// fixture's own address size.
func (f *Fixture) Build(opts ...Option) (*Document, error) {
	ctx := context.Background()
	if f.AddressBits != 0 {
		opts = append([]Option{WithAddressBits(f.AddressBits)}, opts...)
	}
	d := New(opts...)

	segments := make([]Segment, 0, len(f.Segments))
	for _, fs := range f.Segments {
		s, err := fs.segment()
		if err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}

	type pending struct {
		sym  Symbol
		item *ItemType
	}
	symbols := make([]pending, 0, len(f.Symbols))
	for _, fs := range f.Symbols {
		sym, err := fs.symbol()
		if err != nil {
			return nil, err
		}
		if fs.Text != nil {
			wide := sym.Flags.Has(SymbolWideString)
			data := encodeString(*fs.Text, wide)
			if err := writeSegmentBytes(segments, sym.Address, data); err != nil {
				return nil, err
			}
			size := uint64(len(data) - 1)
			if wide {
				size--
			}
			d.SetBlock(sym.Address, Block{Offset: fileOffset(segments, sym.Address), Size: size})
		}
		p := pending{sym: sym}
		if fs.Item == nil || *fs.Item {
			t := itemTypeForSymbol(sym.Type)
			p.item = &t
		}
		symbols = append(symbols, p)
	}

	for _, s := range segments {
		if err := d.AddSegment(s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFixture, err)
		}
		if err := d.InsertItem(ctx, Item{Address: s.Start, Type: TypeSegment}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFixture, err)
		}
	}
	for _, p := range symbols {
		if err := d.SetSymbol(ctx, p.sym); err != nil {
			return nil, err
		}
		if p.item == nil {
			continue
		}
		it := Item{Address: p.sym.Address, Type: *p.item, Index: d.NextIndex(p.sym.Address, *p.item)}
		if err := d.InsertItem(ctx, it); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFixture, err)
		}
	}
	for _, fi := range f.Items {
		it, err := fi.item(d)
		if err != nil {
			return nil, err
		}
		if err := d.InsertItem(ctx, it); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFixture, err)
		}
	}
	for _, ref := range f.References {
		d.AddReference(ref.From, ref.To)
	}
	return d, nil
}

// Edits returns the fixture's edit script. Insert edits without an explicit
// index get index 0.
func (f *Fixture) Edits() ([]Edit, error) {
	out := make([]Edit, 0, len(f.EditList))
	for _, fe := range f.EditList {
		op, err := ParseEditOp(fe.Op)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFixture, err)
		}
		t, err := ParseItemType(fe.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFixture, err)
		}
		it := Item{Address: fe.Address, Type: t}
		if fe.Index != nil {
			it.Index = *fe.Index
		}
		out = append(out, Edit{Op: op, Item: it})
	}
	return out, nil
}

func (fs fixtureSegment) segment() (Segment, error) {
	s := Segment{Name: fs.Name, Start: fs.Start, End: fs.End, Offset: fs.Offset}
	for _, name := range fs.Flags {
		switch strings.ToLower(name) {
		case "code":
			s.Flags |= SegmentCode
		case "data":
			s.Flags |= SegmentData
		case "bss":
			s.Flags |= SegmentBss
		default:
			return Segment{}, fmt.Errorf("%w: segment %q: unknown flag %q", ErrFixture, fs.Name, name)
		}
	}
	if fs.Hex != "" {
		data, err := hex.DecodeString(strings.Join(strings.Fields(fs.Hex), ""))
		if err != nil {
			return Segment{}, fmt.Errorf("%w: segment %q: %v", ErrFixture, fs.Name, err)
		}
		if uint64(len(data)) > fs.End-fs.Start {
			return Segment{}, fmt.Errorf("%w: segment %q: data exceeds segment size", ErrFixture, fs.Name)
		}
		s.Data = data
	}
	return s, nil
}

func (fs fixtureSymbol) symbol() (Symbol, error) {
	t, err := ParseSymbolType(fs.Type)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrFixture, err)
	}
	sym := Symbol{Address: fs.Address, Type: t, Name: fs.Name, Library: fs.Library, Ordinal: fs.Ordinal}
	for _, name := range fs.Flags {
		switch strings.ToLower(name) {
		case "wide", "widestring":
			sym.Flags |= SymbolWideString
		case "entry", "entrypoint":
			sym.Flags |= SymbolEntryPoint
		case "exported", "export":
			sym.Flags |= SymbolExported
		default:
			return Symbol{}, fmt.Errorf("%w: symbol %#x: unknown flag %q", ErrFixture, fs.Address, name)
		}
	}
	if fs.Wide {
		sym.Flags |= SymbolWideString
	}
	return sym, nil
}

func (fi fixtureItem) item(d *Document) (Item, error) {
	t, err := ParseItemType(fi.Type)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrFixture, err)
	}
	it := Item{Address: fi.Address, Type: t}
	if fi.Index != nil {
		it.Index = *fi.Index
	} else {
		it.Index = d.NextIndex(fi.Address, t)
	}
	return it, nil
}

func itemTypeForSymbol(t SymbolType) ItemType {
	switch t {
	case SymbolFunction:
		return TypeFunction
	case SymbolString:
		return TypeString
	case SymbolImport:
		return TypeImport
	case SymbolData, SymbolPointer:
		return TypeData
	default:
		return TypeLabel
	}
}

// encodeString returns the in-memory bytes of a NUL-terminated string.
func encodeString(s string, wide bool) []byte {
	if !wide {
		out := make([]byte, 0, len(s)+1)
		for _, r := range s {
			if r > 0xff {
				r = '?'
			}
			out = append(out, byte(r))
		}
		return append(out, 0)
	}
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return append(out, 0, 0)
}

func writeSegmentBytes(segments []Segment, addr uint64, data []byte) error {
	for i := range segments {
		s := &segments[i]
		if !s.Contains(addr) {
			continue
		}
		off := addr - s.Start
		end := off + uint64(len(data))
		if end > s.Size() {
			return fmt.Errorf("%w: string at %#x overruns segment %q", ErrFixture, addr, s.Name)
		}
		if end > uint64(len(s.Data)) {
			grown := make([]byte, end)
			copy(grown, s.Data)
			s.Data = grown
		}
		copy(s.Data[off:], data)
		return nil
	}
	return fmt.Errorf("%w: string at %#x is outside every segment", ErrFixture, addr)
}

func fileOffset(segments []Segment, addr uint64) uint64 {
	for _, s := range segments {
		if s.Contains(addr) {
			return s.Offset + (addr - s.Start)
		}
	}
	return 0
}
