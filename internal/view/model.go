package view

import (
	"fmt"
	"log/slog"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/index"
)

// Document is what a Model reads: the item stream for the index and the
// symbol, segment and reference data for the columns.
type Document interface {
	index.Source
	column.Source
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithLogger sets the logger passed to the index.
func WithLogger(l *slog.Logger) ModelOption {
	return func(m *Model) {
		m.logger = l
	}
}

// WithColumnOptions sets the options used to build the column resolver on
// attach.
func WithColumnOptions(opts ...column.Option) ModelOption {
	return func(m *Model) {
		m.columnOpts = append(m.columnOpts, opts...)
	}
}

// Model binds a view to an index over one document.
type Model struct {
	view       View
	idx        *index.Index
	resolver   *column.Resolver
	columnOpts []column.Option
	logger     *slog.Logger
}

// NewModel creates an unattached model for v.
func NewModel(v View, opts ...ModelOption) *Model {
	m := &Model{view: v}
	for _, opt := range opts {
		opt(m)
	}
	m.idx = index.New(v.Name, v.Predicate, index.WithLogger(m.logger))
	return m
}

// View returns the model's view.
func (m *Model) View() View {
	return m.view
}

// Name returns the view name.
func (m *Model) Name() string {
	return m.view.Name
}

// Columns returns the view's column ids.
func (m *Model) Columns() []column.ID {
	return m.view.Columns
}

// Index returns the underlying index.
func (m *Model) Index() *index.Index {
	return m.idx
}

// Attach binds the model to doc, replacing any previous document.
func (m *Model) Attach(doc Document) error {
	if doc == nil {
		return index.ErrNilSource
	}
	m.resolver = column.NewResolver(doc, m.columnOpts...)
	if err := m.idx.Attach(doc); err != nil {
		m.resolver = nil
		return err
	}
	return nil
}

// Detach releases the document. It is idempotent.
func (m *Model) Detach() {
	m.idx.Detach()
	m.resolver = nil
}

// Attached reports whether the model is bound to a document.
func (m *Model) Attached() bool {
	return m.idx.Attached()
}

// RowCount returns the number of rows.
func (m *Model) RowCount() int {
	return m.idx.RowCount()
}

// RowAt returns the item at row p.
func (m *Model) RowAt(p int) (document.Item, error) {
	return m.idx.RowAt(p)
}

// ColumnCount returns the number of columns.
func (m *Model) ColumnCount() int {
	return len(m.view.Columns)
}

// Header returns the title of column c.
func (m *Model) Header(c int) (string, error) {
	id, err := m.columnID(c)
	if err != nil {
		return "", err
	}
	return id.Header(), nil
}

// Headers returns every column title.
func (m *Model) Headers() []string {
	return m.view.Headers()
}

// Column returns the text of column c at row p. ok is false when the cell
// has no value.
func (m *Model) Column(p, c int) (string, bool, error) {
	id, err := m.columnID(c)
	if err != nil {
		return "", false, err
	}
	item, err := m.idx.RowAt(p)
	if err != nil {
		return "", false, err
	}
	return m.resolver.Value(item, id)
}

// Row returns every column of row p. Cells without a value are empty.
func (m *Model) Row(p int) ([]string, error) {
	item, err := m.idx.RowAt(p)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(m.view.Columns))
	for i, id := range m.view.Columns {
		text, ok, err := m.resolver.Value(item, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = text
		}
	}
	return out, nil
}

// Subscribe registers fn for row notifications.
func (m *Model) Subscribe(fn index.Listener) (cancel func()) {
	return m.idx.Subscribe(fn)
}

// Close detaches the model and closes the view's predicate.
func (m *Model) Close() {
	m.Detach()
	m.view.Close()
}

func (m *Model) columnID(c int) (column.ID, error) {
	if c < 0 || c >= len(m.view.Columns) {
		return 0, fmt.Errorf("column %d of %d: %w", c, len(m.view.Columns), column.ErrUnknownColumn)
	}
	return m.view.Columns[c], nil
}
