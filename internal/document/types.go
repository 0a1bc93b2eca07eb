package document

import (
	"fmt"
	"strings"
)

// ItemType discriminates document items.
type ItemType uint8

// Item types. TypeAll is only meaningful as a filter wildcard.
const (
	TypeEmpty ItemType = iota
	TypeSegment
	TypeFunction
	TypeInstruction
	TypeData
	TypeSymbol
	TypeImport
	TypeString
	TypeLabel
	TypeUnexplored

	TypeAll ItemType = 0xff
)

var itemTypeNames = map[ItemType]string{
	TypeEmpty:       "empty",
	TypeSegment:     "segment",
	TypeFunction:    "function",
	TypeInstruction: "instruction",
	TypeData:        "data",
	TypeSymbol:      "symbol",
	TypeImport:      "import",
	TypeString:      "string",
	TypeLabel:       "label",
	TypeUnexplored:  "unexplored",
	TypeAll:         "all",
}

// String returns the lower-case type name.
func (t ItemType) String() string {
	if name, ok := itemTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseItemType is the inverse of ItemType.String.
func ParseItemType(s string) (ItemType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range itemTypeNames {
		if name == s {
			return t, nil
		}
	}
	return TypeEmpty, fmt.Errorf("%w: %q", ErrUnknownItemType, s)
}

// Item is one addressed entity. The (Address, Type, Index) triple is its
// identity and never changes while the item exists.
type Item struct {
	Address uint64
	Type    ItemType
	Index   int
}

// SameIdentity reports whether two items denote the same document entity.
func (it Item) SameIdentity(other Item) bool {
	return it.Address == other.Address && it.Type == other.Type && it.Index == other.Index
}

// String formats the item for logs and test failures.
func (it Item) String() string {
	return fmt.Sprintf("%s@%#x/%d", it.Type, it.Address, it.Index)
}

// SymbolType discriminates symbols.
type SymbolType uint8

// Symbol types.
const (
	SymbolLabel SymbolType = iota
	SymbolFunction
	SymbolString
	SymbolImport
	SymbolData
	SymbolPointer
)

var symbolTypeNames = map[SymbolType]string{
	SymbolLabel:    "label",
	SymbolFunction: "function",
	SymbolString:   "string",
	SymbolImport:   "import",
	SymbolData:     "data",
	SymbolPointer:  "pointer",
}

func (t SymbolType) String() string {
	if name, ok := symbolTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("symbol(%d)", uint8(t))
}

// ParseSymbolType is the inverse of SymbolType.String.
func ParseSymbolType(s string) (SymbolType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range symbolTypeNames {
		if name == s {
			return t, nil
		}
	}
	return SymbolLabel, fmt.Errorf("%w: %q", ErrUnknownSymbolType, s)
}

// SymbolFlags qualify a symbol.
type SymbolFlags uint16

// Symbol flags.
const (
	SymbolWideString SymbolFlags = 1 << iota
	SymbolEntryPoint
	SymbolExported
)

// Has reports whether all bits of f are set.
func (s SymbolFlags) Has(f SymbolFlags) bool {
	return s&f == f
}

// Symbol is the named, typed metadata attached to an address.
type Symbol struct {
	Address uint64
	Type    SymbolType
	Flags   SymbolFlags
	Name    string

	// Library and Ordinal describe imports that are bound by ordinal
	// instead of by name.
	Library string
	Ordinal uint16
}

// Is reports whether the symbol has the given type.
func (s Symbol) Is(t SymbolType) bool {
	return s.Type == t
}

// SegmentFlags describe segment contents.
type SegmentFlags uint8

// Segment flags.
const (
	SegmentCode SegmentFlags = 1 << iota
	SegmentData
	SegmentBss
)

// Has reports whether all bits of f are set.
func (s SegmentFlags) Has(f SegmentFlags) bool {
	return s&f == f
}

// Segment is a named address range [Start, End).
type Segment struct {
	Name   string
	Start  uint64
	End    uint64
	Offset uint64
	Flags  SegmentFlags

	// Data holds the raw bytes backing [Start, Start+len(Data)). BSS
	// segments carry none.
	Data []byte
}

// Contains reports whether addr falls inside the segment.
func (s Segment) Contains(addr uint64) bool {
	return addr >= s.Start && addr < s.End
}

// Size returns End - Start.
func (s Segment) Size() uint64 {
	return s.End - s.Start
}

// Block is the span of bytes the document associates with an address.
type Block struct {
	Offset uint64
	Size   uint64
}
