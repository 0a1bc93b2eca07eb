package export

import (
	"fmt"
	"io"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// JSONOption configures JSON output.
type JSONOption func(*jsonOptions)

type jsonOptions struct {
	indent bool
}

// WithIndent pretty-prints the output.
func WithIndent() JSONOption {
	return func(o *jsonOptions) {
		o.indent = true
	}
}

// JSON writes t as
//
//	{"view": "...", "columns": [...], "count": n, "rows": [{"address": "...", ...}]}
//
// Cells without a value are null.
func JSON(w io.Writer, t Table, opts ...JSONOption) error {
	var o jsonOptions
	for _, opt := range opts {
		opt(&o)
	}

	cols := t.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}

	doc, err := sjson.SetBytes(nil, "view", t.Name())
	if err != nil {
		return err
	}
	if doc, err = sjson.SetBytes(doc, "columns", names); err != nil {
		return err
	}
	if doc, err = sjson.SetBytes(doc, "count", t.RowCount()); err != nil {
		return err
	}
	if doc, err = sjson.SetRawBytes(doc, "rows", []byte("[]")); err != nil {
		return err
	}

	for p := 0; p < t.RowCount(); p++ {
		row := []byte("{}")
		for c, name := range names {
			text, ok, err := t.Column(p, c)
			if err != nil {
				return fmt.Errorf("row %d: %w", p, err)
			}
			if ok {
				row, err = sjson.SetBytes(row, name, text)
			} else {
				row, err = sjson.SetRawBytes(row, name, []byte("null"))
			}
			if err != nil {
				return err
			}
		}
		if doc, err = sjson.SetRawBytes(doc, "rows.-1", row); err != nil {
			return err
		}
	}

	if o.indent {
		doc = pretty.Pretty(doc)
	} else {
		doc = append(doc, '\n')
	}
	_, err = w.Write(doc)
	return err
}
