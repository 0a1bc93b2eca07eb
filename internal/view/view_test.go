package view

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/config"
	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/index"
	"github.com/dshills/listview/internal/script"
)

func loadSample(t *testing.T) *document.Document {
	t.Helper()
	f, err := os.Open("../document/testdata/sample.yaml")
	require.NoError(t, err)
	defer f.Close()
	d, err := document.LoadFixture(f)
	require.NoError(t, err)
	return d
}

func attached(t *testing.T, d *document.Document, name string) *Model {
	t.Helper()
	v, err := DefaultSet().Get(name)
	require.NoError(t, err)
	m := NewModel(v)
	require.NoError(t, m.Attach(d))
	t.Cleanup(m.Close)
	return m
}

func rows(t *testing.T, m *Model) [][]string {
	t.Helper()
	out := make([][]string, m.RowCount())
	for p := range out {
		r, err := m.Row(p)
		require.NoError(t, err)
		out[p] = r
	}
	return out
}

func TestBuiltinViews(t *testing.T) {
	d := loadSample(t)

	tests := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{Segments, []string{"Address", "Symbol", "Flags"}, [][]string{
			{"00401000", "app::main()", "CODE"},
			{"00402000", "hello\\tworld\\n", "DATA"},
			{"00404000", "g_counter", "BSS"},
		}},
		{Functions, []string{"Address", "Segment", "R", "Symbol"}, [][]string{
			{"00401000", ".text", "0", "app::main()"},
			{"00401040", ".text", "1", "app::helper(int)"},
		}},
		{Strings, []string{"Address", "Segment", "R", "Symbol"}, [][]string{
			{"00402000", ".rdata", "2", "hello\\tworld\\n"},
			{"00402020", ".rdata", "0", "wide"},
		}},
		{Imports, []string{"Address", "Segment", "R", "Symbol"}, [][]string{
			{"00402100", ".rdata", "0", "CreateFileW"},
			{"00402104", ".rdata", "0", "socket"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := attached(t, d, tt.name)
			assert.Equal(t, tt.headers, m.Headers())
			assert.Equal(t, tt.rows, rows(t, m))
		})
	}
}

func TestListingIsSortedByAddress(t *testing.T) {
	d := loadSample(t)
	m := attached(t, d, Listing)
	require.Equal(t, d.ItemCount(), m.RowCount())

	var last uint64
	for p := 0; p < m.RowCount(); p++ {
		it, err := m.RowAt(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, it.Address, last)
		last = it.Address
	}
}

func TestModelErrors(t *testing.T) {
	d := loadSample(t)
	m := attached(t, d, Functions)

	_, _, err := m.Column(5, 0)
	assert.ErrorIs(t, err, index.ErrIndexOutOfRange)

	_, _, err = m.Column(0, 4)
	assert.ErrorIs(t, err, column.ErrUnknownColumn)

	_, err = m.Header(-1)
	assert.ErrorIs(t, err, column.ErrUnknownColumn)

	h, err := m.Header(2)
	require.NoError(t, err)
	assert.Equal(t, "R", h)

	assert.ErrorIs(t, m.Attach(nil), index.ErrNilSource)
}

func TestModelFollowsEdits(t *testing.T) {
	ctx := context.Background()
	d := loadSample(t)
	m := attached(t, d, Functions)

	var changes []index.Change
	cancel := m.Subscribe(func(c index.Change) { changes = append(changes, c) })
	defer cancel()

	require.NoError(t, d.InsertItem(ctx, document.Item{Address: 0x401020, Type: document.TypeFunction}))
	require.NoError(t, d.SetSymbol(ctx, document.Symbol{Address: 0x401040, Type: document.SymbolFunction, Name: "renamed"}))

	assert.Equal(t, []index.Change{
		{Kind: index.RowInserted, Row: 1},
		{Kind: index.RowUpdated, Row: 2},
	}, changes)

	_, ok, err := m.Column(1, 3)
	require.NoError(t, err)
	assert.False(t, ok, "no symbol at the new function yet")

	text, ok, err := m.Column(2, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "renamed", text)

	m.Detach()
	m.Detach()
	assert.Zero(t, m.RowCount())
	assert.False(t, m.Attached())
}

func TestSetAddAndOverride(t *testing.T) {
	s := DefaultSet()
	assert.Equal(t, []string{Listing, Segments, Functions, Imports, Strings}, s.Names())

	custom := View{Name: Functions, Predicate: index.AcceptAll(), Columns: []column.ID{column.Type}}
	require.NoError(t, s.Add(custom))
	got, err := s.Get(Functions)
	require.NoError(t, err)
	assert.Equal(t, []column.ID{column.Type}, got.Columns)
	assert.Equal(t, 5, s.Len())

	require.NoError(t, s.Add(View{Name: "data", Predicate: index.AcceptType(document.TypeData), Columns: []column.ID{column.Address}}))
	assert.Equal(t, "data", s.Names()[5])
	assert.Equal(t, []string{"data", Functions, Imports, Listing, Segments, Strings}, s.SortedNames())

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.ErrorIs(t, s.Add(View{Name: "x"}), ErrInvalidView)
	assert.ErrorIs(t, s.Add(View{Columns: []column.ID{column.Address}}), ErrInvalidView)
	assert.ErrorIs(t, s.Add(View{Name: "x", Columns: []column.ID{column.ID(99)}}), column.ErrUnknownColumn)
}

func TestFromConfig(t *testing.T) {
	d := loadSample(t)

	v, err := FromConfig(config.ViewConfig{
		Name:    "high-code",
		Types:   []string{"function", "instruction"},
		Script:  "item.address >= 0x401003",
		Columns: []string{"address", "type"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, `types=function,instruction && script="item.address >= 0x401003"`, index.Describe(v.Predicate))

	m := NewModel(v)
	defer m.Close()
	require.NoError(t, m.Attach(d))
	assert.Equal(t, [][]string{
		{"00401003", "instruction"},
		{"00401040", "function"},
		{"00401040", "instruction"},
	}, rows(t, m))
}

func TestScriptViewStaysInSyncWithDocument(t *testing.T) {
	ctx := context.Background()
	d := document.New()
	v, err := FromConfig(config.ViewConfig{
		Name:   "odd",
		Script: "n = (n or 0) + 1\nreturn n % 2 == 1",
	}, nil)
	require.NoError(t, err)

	m := NewModel(v)
	defer m.Close()
	require.NoError(t, m.Attach(d))

	for i := range 3 {
		it := document.Item{Address: 0x10 + uint64(i), Type: document.TypeInstruction}
		require.NoError(t, d.InsertItem(ctx, it))
		require.NoError(t, d.RemoveItem(ctx, it))
		assert.Zero(t, d.ItemCount())
		assert.Zero(t, m.RowCount(), "row left behind after removing %s", it)
	}
}

func TestFromConfigDefaultsAndErrors(t *testing.T) {
	v, err := FromConfig(config.ViewConfig{Name: "data", Types: []string{"data"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []column.ID{column.Address, column.Segment, column.References, column.Symbol}, v.Columns)

	_, err = FromConfig(config.ViewConfig{Name: "x", Types: []string{"bogus"}}, nil)
	assert.ErrorIs(t, err, document.ErrUnknownItemType)

	_, err = FromConfig(config.ViewConfig{Name: "x", Types: []string{"data"}, Columns: []string{"bogus"}}, nil)
	assert.ErrorIs(t, err, column.ErrUnknownColumn)

	_, err = FromConfig(config.ViewConfig{Name: "x", Script: "item.address >"}, nil)
	var ce *script.CompileError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadSetOverridesBuiltins(t *testing.T) {
	cfg := config.Default()
	cfg.Views = []config.ViewConfig{
		{Name: Strings, Types: []string{"string"}, Columns: []string{"address", "symbol"}},
		{Name: "labels", Types: []string{"label"}},
	}
	s, err := LoadSet(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{Listing, Segments, Functions, Imports, Strings, "labels"}, s.Names())
	v, err := s.Get(Strings)
	require.NoError(t, err)
	assert.Equal(t, []string{"Address", "Symbol"}, v.Headers())

	cfg.Views = append(cfg.Views, config.ViewConfig{Name: "bad", Types: []string{"nope"}})
	_, err = LoadSet(cfg, nil)
	assert.Error(t, err)
}
