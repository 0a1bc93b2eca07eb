package column

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/ordinals"
)

// UnknownSegment is the default text for addresses outside every segment.
const UnknownSegment = "???"

// Source is the part of a document the resolver reads.
type Source interface {
	SymbolAt(addr uint64) (document.Symbol, bool)
	SegmentContaining(addr uint64) (document.Segment, bool)
	ReferenceCountTo(addr uint64) uint64
	BlockAt(addr uint64) (document.Block, bool)
	ReadBytes(addr, n uint64) ([]byte, bool)
	DemangledName(raw string) string
}

// addressSizer is implemented by sources that know their address size.
type addressSizer interface {
	AddressBits() int
}

// OrdinalResolver names imports bound by ordinal.
type OrdinalResolver interface {
	Resolve(library string, ordinal uint16) string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAddressWidth fixes the number of hex digits. Zero derives the width
// from the source's address size.
func WithAddressWidth(digits int) Option {
	return func(r *Resolver) {
		if digits > 0 {
			r.width = digits
		}
	}
}

// WithUnknownSegment sets the text shown for addresses outside every segment.
func WithUnknownSegment(s string) Option {
	return func(r *Resolver) {
		if s != "" {
			r.unknownSegment = s
		}
	}
}

// WithOrdinals sets the ordinal import resolver.
func WithOrdinals(o OrdinalResolver) Option {
	return func(r *Resolver) {
		if o != nil {
			r.ordinals = o
		}
	}
}

// Resolver computes column values for document items.
type Resolver struct {
	src            Source
	width          int
	unknownSegment string
	ordinals       OrdinalResolver
}

// NewResolver creates a resolver reading from src.
func NewResolver(src Source, opts ...Option) *Resolver {
	r := &Resolver{src: src, unknownSegment: UnknownSegment}
	for _, opt := range opts {
		opt(r)
	}
	if r.width == 0 {
		r.width = 16
		if s, ok := src.(addressSizer); ok && s.AddressBits() > 0 {
			r.width = s.AddressBits() / 4
		}
	}
	if r.ordinals == nil {
		r.ordinals = ordinals.New()
	}
	return r
}

// AddressWidth returns the number of hex digits used for addresses.
func (r *Resolver) AddressWidth() int {
	return r.width
}

// Value returns the text of col for item. ok is false when the column has
// no value for the item, which is not an error.
func (r *Resolver) Value(item document.Item, col ID) (text string, ok bool, err error) {
	switch col {
	case Address:
		return r.FormatAddress(item.Address), true, nil
	case Segment:
		return r.segmentName(item.Address), true, nil
	case References:
		return strconv.FormatUint(r.src.ReferenceCountTo(item.Address), 10), true, nil
	case Symbol:
		text, ok = r.symbolText(item.Address)
		return text, ok, nil
	case Flags:
		text, ok = r.segmentFlags(item.Address)
		return text, ok, nil
	case Type:
		return item.Type.String(), true, nil
	default:
		return "", false, fmt.Errorf("%w: %d", ErrUnknownColumn, col)
	}
}

// FormatAddress renders addr as zero-padded upper-case hex.
func (r *Resolver) FormatAddress(addr uint64) string {
	s := strings.ToUpper(strconv.FormatUint(addr, 16))
	if pad := r.width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

func (r *Resolver) segmentName(addr uint64) string {
	if s, ok := r.src.SegmentContaining(addr); ok {
		return s.Name
	}
	return r.unknownSegment
}

func (r *Resolver) symbolText(addr uint64) (string, bool) {
	sym, ok := r.src.SymbolAt(addr)
	if !ok {
		return "", false
	}
	switch {
	case sym.Is(document.SymbolString):
		return r.stringText(sym)
	case sym.Is(document.SymbolImport) && sym.Name == "":
		return r.ordinals.Resolve(sym.Library, sym.Ordinal), true
	default:
		return r.src.DemangledName(sym.Name), true
	}
}

func (r *Resolver) stringText(sym document.Symbol) (string, bool) {
	blk, ok := r.src.BlockAt(sym.Address)
	if !ok {
		return "", false
	}
	// Exactly blk.Size bytes are decoded. Blocks that include their
	// terminator or padding end the text at the first NUL inside them.
	raw, ok := r.src.ReadBytes(sym.Address, blk.Size)
	if !ok {
		return "", false
	}
	s, ok := decodeString(raw, sym.Flags.Has(document.SymbolWideString))
	if !ok {
		return "", false
	}
	return Escape(s), true
}

func (r *Resolver) segmentFlags(addr uint64) (string, bool) {
	s, ok := r.src.SegmentContaining(addr)
	if !ok || s.Start != addr {
		return "", false
	}
	return FormatSegmentFlags(s.Flags), true
}

// FormatSegmentFlags renders flags as space separated CODE, DATA and BSS.
func FormatSegmentFlags(f document.SegmentFlags) string {
	var parts []string
	if f.Has(document.SegmentCode) {
		parts = append(parts, "CODE")
	}
	if f.Has(document.SegmentData) {
		parts = append(parts, "DATA")
	}
	if f.Has(document.SegmentBss) {
		parts = append(parts, "BSS")
	}
	return strings.Join(parts, " ")
}
