// Package column computes the derived, per-row text of a listing view.
//
// Values are computed from the document every time they are read and are
// never cached, so a row always reflects the document's current symbols,
// segments and references.
package column

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies a column.
type ID uint8

// Columns.
const (
	Address ID = iota
	Segment
	References
	Symbol
	Flags
	Type
)

// ErrUnknownColumn is returned for a column id the resolver does not know.
var ErrUnknownColumn = errors.New("unknown column")

var columnNames = []struct {
	id      ID
	name    string
	header  string
	aliases []string
}{
	{Address, "address", "Address", []string{"addr"}},
	{Segment, "segment", "Segment", []string{"seg"}},
	{References, "refs", "R", []string{"r", "references", "xrefs"}},
	{Symbol, "symbol", "Symbol", []string{"name"}},
	{Flags, "flags", "Flags", nil},
	{Type, "type", "Type", nil},
}

// Header returns the column title shown above the rows.
func (id ID) Header() string {
	for _, c := range columnNames {
		if c.id == id {
			return c.header
		}
	}
	return ""
}

// String returns the configuration name of the column.
func (id ID) String() string {
	for _, c := range columnNames {
		if c.id == id {
			return c.name
		}
	}
	return fmt.Sprintf("column(%d)", uint8(id))
}

// Valid reports whether id names a known column.
func (id ID) Valid() bool {
	return id.Header() != ""
}

// Parse maps a configuration name, case-insensitively, to a column.
func Parse(name string) (ID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range columnNames {
		if c.name == name {
			return c.id, nil
		}
		for _, alias := range c.aliases {
			if alias == name {
				return c.id, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// ParseList parses a list of column names.
func ParseList(names []string) ([]ID, error) {
	out := make([]ID, 0, len(names))
	for _, n := range names {
		id, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
