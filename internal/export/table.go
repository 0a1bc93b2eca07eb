package export

import (
	"fmt"

	"github.com/dshills/listview/internal/column"
)

// Table is a view attached to a document.
type Table interface {
	Name() string
	Columns() []column.ID
	RowCount() int
	Column(p, c int) (string, bool, error)
}

// Format selects an output encoding.
type Format string

// Formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	}
	return "", &FormatError{Name: s}
}

// FormatError reports an unsupported output format.
type FormatError struct {
	Name string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unknown format %q (want text or json)", e.Name)
}
