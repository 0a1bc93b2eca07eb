package index

import (
	"context"
	"errors"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/dshills/listview/internal/document"
)

var rapidTypes = []document.ItemType{
	document.TypeSegment,
	document.TypeFunction,
	document.TypeInstruction,
	document.TypeString,
	document.TypeImport,
}

func genItem(t *rapid.T) document.Item {
	return document.Item{
		Address: rapid.Uint64Range(0, 12).Draw(t, "address"),
		Type:    rapid.SampledFrom(rapidTypes).Draw(t, "type"),
		Index:   rapid.IntRange(0, 2).Draw(t, "index"),
	}
}

// indexMachine drives a document and checks that an attached index, and a
// mirror rebuilt only from its notifications, match the filtered document.
type indexMachine struct {
	doc    *document.Document
	pred   Predicate
	index  *Index
	mirror []document.Item
}

func (m *indexMachine) Init(t *rapid.T) {
	m.doc = document.New()
	for _, it := range rapid.SliceOfN(rapid.Custom(genItem), 0, 20).Draw(t, "initial") {
		err := m.doc.InsertItem(context.Background(), it)
		if err != nil && !errors.Is(err, document.ErrDuplicateItem) {
			t.Fatalf("insert: %v", err)
		}
	}

	allowed := rapid.SliceOfNDistinct(rapid.SampledFrom(rapidTypes), 1, 3, func(ty document.ItemType) document.ItemType { return ty }).Draw(t, "allowed")
	m.pred = AcceptTypes(allowed...)
	m.index = New("rapid", m.pred)
	m.index.Subscribe(m.apply(t))
	if err := m.index.Attach(m.doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
}

func (m *indexMachine) apply(t *rapid.T) Listener {
	return func(c Change) {
		switch c.Kind {
		case Reset:
			m.mirror = m.index.Rows()
		case RowInserted:
			it, err := m.index.RowAt(c.Row)
			if err != nil {
				t.Fatalf("%s: %v", c, err)
			}
			m.mirror = slices.Insert(m.mirror, c.Row, it)
		case RowRemoved:
			if c.Row < 0 || c.Row >= len(m.mirror) {
				t.Fatalf("%s outside mirror of %d", c, len(m.mirror))
			}
			m.mirror = slices.Delete(m.mirror, c.Row, c.Row+1)
		case RowUpdated:
			it, err := m.index.RowAt(c.Row)
			if err != nil {
				t.Fatalf("%s: %v", c, err)
			}
			if !it.SameIdentity(m.mirror[c.Row]) {
				t.Fatalf("%s moved the row: %s != %s", c, it, m.mirror[c.Row])
			}
		}
	}
}

func (m *indexMachine) pick(t *rapid.T) (document.Item, bool) {
	n := m.doc.ItemCount()
	if n == 0 {
		return document.Item{}, false
	}
	it, _ := m.doc.ItemAt(rapid.IntRange(0, n-1).Draw(t, "position"))
	return it, true
}

func (m *indexMachine) Insert(t *rapid.T) {
	err := m.doc.InsertItem(context.Background(), genItem(t))
	if err != nil && !errors.Is(err, document.ErrDuplicateItem) {
		t.Fatalf("insert: %v", err)
	}
}

func (m *indexMachine) Remove(t *rapid.T) {
	it, ok := m.pick(t)
	if !ok {
		t.Skip("empty document")
	}
	if err := m.doc.RemoveItem(context.Background(), it); err != nil {
		t.Fatalf("remove %s: %v", it, err)
	}
}

func (m *indexMachine) Change(t *rapid.T) {
	it, ok := m.pick(t)
	if !ok {
		t.Skip("empty document")
	}
	if err := m.doc.ChangeItem(context.Background(), it); err != nil {
		t.Fatalf("change %s: %v", it, err)
	}
}

func (m *indexMachine) Reattach(t *rapid.T) {
	m.index.Detach()
	m.index.Detach()
	if m.index.RowCount() != 0 {
		t.Fatalf("detached index holds %d rows", m.index.RowCount())
	}
	if err := m.index.Attach(m.doc); err != nil {
		t.Fatalf("attach: %v", err)
	}
}

func (m *indexMachine) Check(t *rapid.T) {
	var want []document.Item
	for i := 0; i < m.doc.ItemCount(); i++ {
		it, _ := m.doc.ItemAt(i)
		if m.pred.Allowed(it) {
			want = append(want, it)
		}
	}

	got := m.index.Rows()
	if !slices.Equal(want, got) {
		t.Fatalf("rows %v, want %v", got, want)
	}
	if !slices.Equal(got, m.mirror) {
		t.Fatalf("notification mirror %v, rows %v", m.mirror, got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Address > got[i].Address {
			t.Fatalf("rows not sorted at %d: %v", i, got)
		}
	}
	seen := make(map[document.Item]bool, len(got))
	for _, it := range got {
		if seen[it] {
			t.Fatalf("duplicate identity %s", it)
		}
		seen[it] = true
	}
}

func TestIndexStateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := &indexMachine{}
		m.Init(t)
		defer m.index.Detach()

		t.Repeat(map[string]func(*rapid.T){
			"Insert":   m.Insert,
			"Remove":   m.Remove,
			"Change":   m.Change,
			"Reattach": m.Reattach,
			"":         m.Check,
		})
	})
}

func TestTieBreakProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := document.New()
		x := New("ties", AcceptAll())
		if err := x.Attach(doc); err != nil {
			t.Fatalf("attach: %v", err)
		}
		defer x.Detach()

		addr := rapid.Uint64Range(0, 4).Draw(t, "address")
		n := rapid.IntRange(1, 8).Draw(t, "count")
		var order []document.Item
		for i := 0; i < n; i++ {
			// Unrelated items around the tie must not disturb its order.
			other := document.Item{Address: rapid.Uint64Range(0, 8).Draw(t, "other"), Type: document.TypeData, Index: i}
			if other.Address != addr {
				_ = doc.InsertItem(context.Background(), other)
			}
			it := document.Item{Address: addr, Type: document.TypeLabel, Index: i}
			if err := doc.InsertItem(context.Background(), it); err != nil {
				t.Fatalf("insert: %v", err)
			}
			order = append(order, it)
		}

		var tied []document.Item
		for _, it := range x.Rows() {
			if it.Address == addr {
				tied = append(tied, it)
			}
		}
		if !slices.Equal(order, tied) {
			t.Fatalf("tie order %v, want arrival order %v", tied, order)
		}
	})
}
