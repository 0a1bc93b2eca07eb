// Package view defines listing views: a filter predicate paired with the
// columns shown for each row, plus the Model that binds a view to a
// document.
package view

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/index"
)

// Built-in view names.
const (
	Listing   = "listing"
	Segments  = "segments"
	Functions = "functions"
	Imports   = "imports"
	Strings   = "strings"
)

var (
	// ErrUnknownView is returned when a view name is not registered.
	ErrUnknownView = errors.New("unknown view")

	// ErrInvalidView is returned for a view without a name or columns.
	ErrInvalidView = errors.New("invalid view")
)

// View is a named predicate and column set.
type View struct {
	Name      string
	Predicate index.Predicate
	Columns   []column.ID
}

// Headers returns the column titles.
func (v View) Headers() []string {
	out := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		out[i] = c.Header()
	}
	return out
}

// Validate reports whether v can be registered.
func (v View) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidView)
	}
	if len(v.Columns) == 0 {
		return fmt.Errorf("%w: %s has no columns", ErrInvalidView, v.Name)
	}
	for _, c := range v.Columns {
		if !c.Valid() {
			return fmt.Errorf("%w: %s: %w", ErrInvalidView, v.Name, column.ErrUnknownColumn)
		}
	}
	return nil
}

// Close releases resources held by the predicate, if any.
func (v View) Close() {
	if c, ok := v.Predicate.(interface{ Close() }); ok {
		c.Close()
	}
}

var listingColumns = []column.ID{column.Address, column.Segment, column.References, column.Symbol}

// Builtins returns the built-in views in display order.
func Builtins() []View {
	return []View{
		{Name: Listing, Predicate: index.AcceptAll(), Columns: slices.Clone(listingColumns)},
		{Name: Segments, Predicate: index.AcceptType(document.TypeSegment), Columns: []column.ID{column.Address, column.Symbol, column.Flags}},
		{Name: Functions, Predicate: index.AcceptType(document.TypeFunction), Columns: slices.Clone(listingColumns)},
		{Name: Imports, Predicate: index.AcceptType(document.TypeImport), Columns: slices.Clone(listingColumns)},
		{Name: Strings, Predicate: index.AcceptType(document.TypeString), Columns: slices.Clone(listingColumns)},
	}
}

// Set is an ordered collection of views keyed by name.
type Set struct {
	views []View
}

// NewSet returns a set holding vs, in order.
func NewSet(vs ...View) (*Set, error) {
	s := &Set{}
	for _, v := range vs {
		if err := s.Add(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DefaultSet returns a set of the built-in views.
func DefaultSet() *Set {
	return &Set{views: Builtins()}
}

// Add registers v. A view with the same name is replaced in place and
// closed.
func (s *Set) Add(v View) error {
	if err := v.Validate(); err != nil {
		return err
	}
	for i, old := range s.views {
		if old.Name == v.Name {
			old.Close()
			s.views[i] = v
			return nil
		}
	}
	s.views = append(s.views, v)
	return nil
}

// Get returns the named view.
func (s *Set) Get(name string) (View, error) {
	for _, v := range s.views {
		if v.Name == name {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownView, name, s.Names())
}

// Names returns the view names in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.views))
	for i, v := range s.views {
		out[i] = v.Name
	}
	return out
}

// SortedNames returns the view names alphabetically.
func (s *Set) SortedNames() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// All returns the views in order.
func (s *Set) All() []View {
	return slices.Clone(s.views)
}

// Len returns the number of views.
func (s *Set) Len() int {
	return len(s.views)
}

// Close closes every view.
func (s *Set) Close() {
	for _, v := range s.views {
		v.Close()
	}
}
