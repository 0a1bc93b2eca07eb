package view

import (
	"fmt"
	"log/slog"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/config"
	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/index"
	"github.com/dshills/listview/internal/script"
)

// FromConfig builds a view from its configuration. Types and script are
// combined with AND. Columns default to the listing columns.
func FromConfig(vc config.ViewConfig, logger *slog.Logger) (View, error) {
	var preds []index.Predicate

	if len(vc.Types) > 0 {
		types := make([]document.ItemType, 0, len(vc.Types))
		for _, name := range vc.Types {
			t, err := document.ParseItemType(name)
			if err != nil {
				return View{}, fmt.Errorf("view %s: %w", vc.Name, err)
			}
			types = append(types, t)
		}
		preds = append(preds, index.AcceptTypes(types...))
	}

	cols := listingColumns
	if len(vc.Columns) > 0 {
		var err error
		if cols, err = column.ParseList(vc.Columns); err != nil {
			return View{}, fmt.Errorf("view %s: %w", vc.Name, err)
		}
	}

	// The script is compiled last so nothing leaks on the error paths above.
	if vc.Script != "" {
		p, err := script.Compile(vc.Script, script.WithLogger(logger))
		if err != nil {
			return View{}, fmt.Errorf("view %s: %w", vc.Name, err)
		}
		preds = append(preds, p)
	}

	v := View{
		Name:      vc.Name,
		Predicate: combine(preds),
		Columns:   append([]column.ID(nil), cols...),
	}
	if err := v.Validate(); err != nil {
		v.Close()
		return View{}, err
	}
	return v, nil
}

// combine keeps a single predicate as is, so that a script view can still
// be closed through View.Close.
func combine(preds []index.Predicate) index.Predicate {
	switch len(preds) {
	case 0:
		return index.AcceptAll()
	case 1:
		return preds[0]
	default:
		return closingAnd{Predicate: index.And(preds...), parts: preds}
	}
}

type closingAnd struct {
	index.Predicate
	parts []index.Predicate
}

func (c closingAnd) String() string {
	return index.Describe(c.Predicate)
}

func (c closingAnd) Close() {
	for _, p := range c.parts {
		if cl, ok := p.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}

// LoadSet returns the built-in views with the configured views added or
// overriding them. On error every view already built is closed.
func LoadSet(cfg *config.Config, logger *slog.Logger) (*Set, error) {
	s := DefaultSet()
	if cfg == nil {
		return s, nil
	}
	for _, vc := range cfg.Views {
		v, err := FromConfig(vc, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := s.Add(v); err != nil {
			v.Close()
			s.Close()
			return nil, err
		}
	}
	return s, nil
}
