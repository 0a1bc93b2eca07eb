package index

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/listview/internal/document"
)

// Predicate decides which items belong to a view.
type Predicate interface {
	Allowed(item document.Item) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(item document.Item) bool

// Allowed implements Predicate.
func (f PredicateFunc) Allowed(item document.Item) bool {
	return f(item)
}

type acceptAll struct{}

func (acceptAll) Allowed(document.Item) bool { return true }
func (acceptAll) String() string { return "all" }

// AcceptAll accepts every item.
func AcceptAll() Predicate {
	return acceptAll{}
}

type acceptType document.ItemType

func (p acceptType) Allowed(item document.Item) bool {
	return item.Type == document.ItemType(p)
}

func (p acceptType) String() string {
	return "type=" + document.ItemType(p).String()
}

// AcceptType accepts items of exactly type t. TypeAll accepts everything.
func AcceptType(t document.ItemType) Predicate {
	if t == document.TypeAll {
		return AcceptAll()
	}
	return acceptType(t)
}

type acceptTypes struct {
	set [256]bool
}

func (p *acceptTypes) Allowed(item document.Item) bool {
	return p.set[item.Type]
}

func (p *acceptTypes) String() string {
	var names []string
	for t, ok := range p.set {
		if ok {
			names = append(names, document.ItemType(t).String())
		}
	}
	slices.Sort(names)
	return "types=" + strings.Join(names, ",")
}

// AcceptTypes accepts items whose type is any of types.
func AcceptTypes(types ...document.ItemType) Predicate {
	switch {
	case slices.Contains(types, document.TypeAll):
		return AcceptAll()
	case len(types) == 1:
		return AcceptType(types[0])
	}
	p := &acceptTypes{}
	for _, t := range types {
		p.set[t] = true
	}
	return p
}

type allOf []Predicate

func (p allOf) Allowed(item document.Item) bool {
	for _, pred := range p {
		if !pred.Allowed(item) {
			return false
		}
	}
	return true
}

func (p allOf) String() string {
	parts := make([]string, len(p))
	for i, pred := range p {
		parts[i] = Describe(pred)
	}
	return strings.Join(parts, " && ")
}

// And accepts items allowed by every predicate. Nil predicates are skipped.
func And(preds ...Predicate) Predicate {
	var out allOf
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return AcceptAll()
	case 1:
		return out[0]
	}
	return out
}

// Describe returns a short text form of p, such as "type=function".
func Describe(p Predicate) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return "func"
}
