package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/listview/internal/column"
	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/index"
	"github.com/dshills/listview/internal/logging"
	"github.com/dshills/listview/internal/view"
)

// Screen lines above and below the rows.
const (
	tabLine    = 0
	headerLine = 1
	bodyTop    = 2
	chrome     = 3 // tabs, headers and status
	columnGap  = 2
)

// ErrNoViews is returned when the browser is given an empty view set.
var ErrNoViews = errors.New("no views")

// Option configures a Browser.
type Option func(*Browser)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = l
	}
}

// WithTheme sets the colours.
func WithTheme(t Theme) Option {
	return func(b *Browser) {
		b.theme = t
	}
}

// WithColumnOptions configures the column resolvers of every view.
func WithColumnOptions(opts ...column.Option) Option {
	return func(b *Browser) {
		b.columnOpts = append(b.columnOpts, opts...)
	}
}

// WithInitialView selects the view shown first.
func WithInitialView(name string) Option {
	return func(b *Browser) {
		b.initial = name
	}
}

type quitRequest struct{}

// Browser shows one document through a set of views.
type Browser struct {
	screen tcell.Screen
	doc    *document.Document
	theme  Theme
	logger *slog.Logger

	columnOpts []column.Option
	initial    string

	models  []*view.Model
	cancels []func()
	current int

	top    int
	cursor int
	widths []int

	message string
	dirty   *lineTracker
}

// New attaches every view in views to doc. The browser takes ownership of
// the views; Close releases them.
func New(screen tcell.Screen, doc *document.Document, views *view.Set, opts ...Option) (*Browser, error) {
	b := &Browser{
		screen: screen,
		doc:    doc,
		theme:  DefaultTheme(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.WithComponent(b.logger, "tui")

	_, h := screen.Size()
	b.dirty = newLineTracker(h)

	if err := b.setViews(views); err != nil {
		return nil, err
	}
	if b.initial != "" {
		if !b.selectView(b.initial) {
			b.Close()
			return nil, fmt.Errorf("%w: %q", view.ErrUnknownView, b.initial)
		}
	}
	return b, nil
}

// Close detaches every view.
func (b *Browser) Close() {
	for i, m := range b.models {
		b.cancels[i]()
		m.Close()
	}
	b.models, b.cancels = nil, nil
}

// Current returns the model of the view on screen.
func (b *Browser) Current() *view.Model {
	return b.models[b.current]
}

// Cursor returns the selected row.
func (b *Browser) Cursor() int {
	return b.cursor
}

// Message returns the text shown at the right of the status line.
func (b *Browser) Message() string {
	return b.message
}

// Run draws and handles events until the user quits or ctx is done.
func (b *Browser) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = b.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{}))
	})
	defer stop()

	for {
		b.Draw()
		ev := b.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if b.HandleEvent(ev) {
			return ctx.Err()
		}
	}
}

// Post runs fn on the event loop.
func (b *Browser) Post(fn func()) error {
	return b.screen.PostEvent(tcell.NewEventInterrupt(fn))
}

// Replay applies edits to the document through the event loop, one every
// interval. It returns once every edit is posted or ctx is done.
func (b *Browser) Replay(ctx context.Context, edits []document.Edit, interval time.Duration) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for _, e := range edits {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
		if err := b.Post(func() { b.apply(ctx, e) }); err != nil {
			return fmt.Errorf("post %s: %w", e, err)
		}
	}
	return nil
}

// Reload replaces the views, keeping the current view selected when it
// still exists. It must run on the event loop; on error the old views stay
// and the caller keeps ownership of set.
func (b *Browser) Reload(set *view.Set) error {
	if err := b.setViews(set); err != nil {
		return err
	}
	b.setMessage(fmt.Sprintf("%d views loaded", len(b.models)))
	return nil
}

// Notify shows msg in the status line. It must run on the event loop.
func (b *Browser) Notify(msg string) {
	b.setMessage(msg)
}

// HandleEvent applies ev and reports whether the browser should exit.
func (b *Browser) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		_, h := ev.Size()
		b.screen.Sync()
		b.dirty.resize(h)
		b.scrollToCursor()
	case *tcell.EventKey:
		return b.handleKey(ev)
	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case quitRequest:
			return true
		case func():
			data()
		}
	}
	return false
}

func (b *Browser) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyTab:
		b.switchView(1)
	case tcell.KeyBacktab:
		b.switchView(-1)
	case tcell.KeyUp:
		b.moveCursor(-1)
	case tcell.KeyDown:
		b.moveCursor(1)
	case tcell.KeyPgUp:
		b.moveCursor(-b.pageSize())
	case tcell.KeyPgDn:
		b.moveCursor(b.pageSize())
	case tcell.KeyHome:
		b.moveCursor(-b.cursor)
	case tcell.KeyEnd:
		b.moveCursor(b.Current().RowCount())
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'j':
			b.moveCursor(1)
		case 'k':
			b.moveCursor(-1)
		}
	}
	return false
}

func (b *Browser) setViews(set *view.Set) error {
	all := set.All()
	if len(all) == 0 {
		return ErrNoViews
	}

	models := make([]*view.Model, 0, len(all))
	cancels := make([]func(), 0, len(all))
	for _, v := range all {
		m := view.NewModel(v, view.WithLogger(b.logger), view.WithColumnOptions(b.columnOpts...))
		if err := m.Attach(b.doc); err != nil {
			for i, m := range models {
				cancels[i]()
				m.Detach()
			}
			return fmt.Errorf("attach view %s: %w", v.Name, err)
		}
		cancels = append(cancels, m.Subscribe(b.listener(m)))
		models = append(models, m)
	}

	name := ""
	if len(b.models) > 0 {
		name = b.Current().Name()
	}
	b.Close()
	b.models, b.cancels = models, cancels
	b.current = 0
	b.selectView(name)
	return nil
}

func (b *Browser) selectView(name string) bool {
	for i, m := range b.models {
		if m.Name() == name {
			b.current = i
			b.top, b.cursor = 0, 0
			b.dirty.markFull()
			return true
		}
	}
	return false
}

func (b *Browser) switchView(delta int) {
	n := len(b.models)
	b.current = ((b.current+delta)%n + n) % n
	b.top, b.cursor = 0, 0
	b.dirty.markFull()
}

func (b *Browser) listener(m *view.Model) index.Listener {
	return func(c index.Change) {
		if len(b.models) == 0 || b.Current() != m {
			return
		}
		b.onChange(c)
	}
}

// onChange keeps the cursor on the same item and redraws only the lines
// the change can affect.
func (b *Browser) onChange(c index.Change) {
	n := b.Current().RowCount()
	switch c.Kind {
	case index.Reset:
		b.top, b.cursor = 0, 0
		b.dirty.markFull()
	case index.RowInserted:
		if n > 1 && c.Row <= b.cursor {
			b.cursor++
		}
		if c.Row < b.top {
			b.top++
		} else {
			b.dirty.markFrom(b.lineOf(c.Row))
		}
	case index.RowRemoved:
		if c.Row < b.cursor {
			b.cursor--
		}
		b.cursor = min(b.cursor, max(n-1, 0))
		if c.Row < b.top {
			b.top--
		} else {
			b.dirty.markFrom(b.lineOf(c.Row))
		}
		b.markRow(b.cursor)
	case index.RowUpdated:
		b.markRow(c.Row)
	}
	b.markStatus()
	b.scrollToCursor()
}

func (b *Browser) apply(ctx context.Context, e document.Edit) {
	if err := b.doc.Apply(ctx, e); err != nil {
		b.logger.Warn("edit failed", "edit", e.String(), "error", err)
		b.setMessage(fmt.Sprintf("%s: %v", e, err))
		return
	}
	b.setMessage(e.String())
}

func (b *Browser) setMessage(s string) {
	b.message = s
	b.markStatus()
}

func (b *Browser) moveCursor(delta int) {
	n := b.Current().RowCount()
	if n == 0 {
		return
	}
	next := min(max(b.cursor+delta, 0), n-1)
	if next == b.cursor {
		return
	}
	b.markRow(b.cursor)
	b.cursor = next
	b.markRow(b.cursor)
	b.markStatus()
	b.scrollToCursor()
}

func (b *Browser) scrollToCursor() {
	page := b.pageSize()
	switch {
	case b.cursor < b.top:
		b.top = b.cursor
		b.dirty.markFull()
	case b.cursor >= b.top+page:
		b.top = b.cursor - page + 1
		b.dirty.markFull()
	}
}

func (b *Browser) pageSize() int {
	_, h := b.screen.Size()
	return max(h-chrome, 1)
}

func (b *Browser) lineOf(row int) int {
	return bodyTop + row - b.top
}

func (b *Browser) markRow(row int) {
	if row >= b.top && row < b.top+b.pageSize() {
		b.dirty.markLine(b.lineOf(row))
	}
}

func (b *Browser) markStatus() {
	_, h := b.screen.Size()
	b.dirty.markLine(h - 1)
}

// Draw redraws the dirty lines and shows the screen.
func (b *Browser) Draw() {
	if !b.dirty.dirty() {
		return
	}
	w, h := b.screen.Size()
	if b.dirty.needsFull() || len(b.widths) != b.Current().ColumnCount() {
		b.computeWidths(w)
		b.dirty.markFull()
	}
	for _, y := range b.dirty.dirtyLines() {
		b.drawLine(y, w, h)
	}
	b.dirty.reset()
	b.screen.Show()
}

// computeWidths sizes the columns to the header and the visible rows. The
// last column takes the rest of the line.
func (b *Browser) computeWidths(w int) {
	m := b.Current()
	b.widths = make([]int, m.ColumnCount())
	for c := range b.widths {
		h, _ := m.Header(c)
		b.widths[c] = uniseg.StringWidth(h)
	}
	end := min(b.top+b.pageSize(), m.RowCount())
	for p := b.top; p < end; p++ {
		for c := range b.widths {
			text, _, err := m.Column(p, c)
			if err == nil {
				b.widths[c] = max(b.widths[c], uniseg.StringWidth(text))
			}
		}
	}
	if n := len(b.widths); n > 0 {
		b.widths[n-1] = max(w-b.columnX(n-1), 0)
	}
}

func (b *Browser) columnX(c int) int {
	x := 0
	for i := 0; i < c; i++ {
		x += b.widths[i] + columnGap
	}
	return x
}

func (b *Browser) drawLine(y, w, h int) {
	switch {
	case y == h-1 && h >= chrome:
		b.drawStatus(y, w)
	case y == tabLine:
		b.drawTabs(y, w)
	case y == headerLine:
		b.drawHeaders(y, w)
	default:
		b.drawRow(b.top+y-bodyTop, y, w)
	}
}

func (b *Browser) drawTabs(y, w int) {
	x := 0
	for i, m := range b.models {
		style := b.theme.Tab
		if i == b.current {
			style = b.theme.ActiveTab
		}
		x = drawText(b.screen, x, y, w, " "+m.Name()+" ", style)
	}
	fill(b.screen, x, y, w, b.theme.Tab)
}

func (b *Browser) drawHeaders(y, w int) {
	fill(b.screen, 0, y, w, b.theme.Text)
	for c, h := range b.Current().Headers() {
		x := b.columnX(c)
		drawText(b.screen, x, y, min(x+b.widths[c], w), h, b.theme.Header)
	}
}

func (b *Browser) drawRow(p, y, w int) {
	m := b.Current()
	base := b.theme.Text
	if p == b.cursor {
		base = b.theme.selected(base)
	}
	fill(b.screen, 0, y, w, base)
	if p >= m.RowCount() {
		return
	}
	item, err := m.RowAt(p)
	if err != nil {
		return
	}
	for c, id := range m.Columns() {
		text, ok, err := m.Column(p, c)
		if err != nil {
			b.logger.Debug("column failed", "row", p, "column", id.String(), "error", err)
			continue
		}
		if !ok {
			continue
		}
		style := b.cellStyle(item, id)
		if p == b.cursor {
			style = b.theme.selected(style)
		}
		x := b.columnX(c)
		drawText(b.screen, x, y, min(x+b.widths[c], w), text, style)
	}
}

func (b *Browser) cellStyle(item document.Item, id column.ID) tcell.Style {
	switch {
	case id == column.Address:
		return b.theme.Address
	case id == column.References, id == column.Type:
		return b.theme.Muted
	case id == column.Symbol && item.Type == document.TypeString:
		return b.theme.String
	default:
		return b.theme.Text
	}
}

func (b *Browser) drawStatus(y, w int) {
	m := b.Current()
	fill(b.screen, 0, y, w, b.theme.Status)
	pos := 0
	if m.RowCount() > 0 {
		pos = b.cursor + 1
	}
	left := fmt.Sprintf(" %s  %d/%d  %s", m.Name(), pos, m.RowCount(), index.Describe(m.View().Predicate))
	x := drawText(b.screen, 0, y, w, left, b.theme.Status)
	if b.message != "" {
		msg := b.message + " "
		start := max(w-uniseg.StringWidth(msg), x+columnGap)
		drawText(b.screen, start, y, w, msg, b.theme.Status)
	}
}
