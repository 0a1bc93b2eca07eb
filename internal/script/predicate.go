package script

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/listview/internal/document"
	"github.com/dshills/listview/internal/logging"
)

// Option configures a Predicate.
type Option func(*config)

type config struct {
	logger *slog.Logger
	state  []StateOption
}

// WithLogger sets the logger used to report evaluation errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithStateOptions passes options to the underlying Lua state.
func WithStateOptions(opts ...StateOption) Option {
	return func(c *config) {
		c.state = append(c.state, opts...)
	}
}

// Predicate is a compiled Lua filter over document items.
//
// The source is either an expression, such as
//
//	item.type == "function" and item.address >= 0x401000
//
// or a function body containing an explicit return. The item is exposed as
// a table with the fields address, hex, type (the type name) and index.
// address is a Lua number and only exact below 2^53; hex is the address as
// a lower case "0x" string and compares exactly at any width:
//
//	item.hex == "0xffffffff81000000"
//
// The answer for an item is decided once and remembered for its identity,
// so an item keeps its answer even if a later evaluation would fail or run
// out of time.
type Predicate struct {
	source string
	state  *State
	fn     *lua.LFunction
	logger *slog.Logger

	mu      sync.Mutex
	decided map[document.Item]bool

	failures atomic.Uint64
}

// Compile builds a predicate from source.
func Compile(source string, opts ...Option) (*Predicate, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, &CompileError{Source: source, Err: ErrEmptySource}
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	state := NewState(cfg.state...)
	fn, err := state.Compile("predicate", "return function(item) return ("+src+") end")
	if err != nil {
		// Not an expression; try it as a function body.
		var bodyErr error
		fn, bodyErr = state.Compile("predicate", "return function(item)\n"+src+"\nend")
		if bodyErr != nil {
			state.Close()
			return nil, &CompileError{Source: source, Err: bodyErr}
		}
	}

	return &Predicate{
		source: src,
		state:  state,
		fn:      fn,
		logger:  logging.WithComponent(cfg.logger, "script"),
		decided: make(map[document.Item]bool),
	}, nil
}

// Allowed evaluates the predicate. Runtime errors and timeouts make the
// item not allowed and are counted.
func (p *Predicate) Allowed(item document.Item) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok, seen := p.decided[item]; seen {
		return ok
	}
	ok := p.eval(item)
	p.decided[item] = ok
	return ok
}

func (p *Predicate) eval(item document.Item) bool {
	arg := p.state.NewTable()
	arg.RawSetString("address", lua.LNumber(item.Address))
	arg.RawSetString("hex", lua.LString(fmt.Sprintf("%#x", item.Address)))
	arg.RawSetString("type", lua.LString(item.Type.String()))
	arg.RawSetString("index", lua.LNumber(item.Index))

	ret, err := p.state.Call(p.fn, arg)
	if err != nil {
		if p.failures.Add(1) == 1 {
			p.logger.Warn("predicate failed", "source", p.source, "item", item.String(), "error", err)
		}
		return false
	}
	return lua.LVAsBool(ret)
}

// Failures returns the number of evaluations that raised an error.
func (p *Predicate) Failures() uint64 {
	return p.failures.Load()
}

// Source returns the predicate source.
func (p *Predicate) Source() string {
	return p.source
}

func (p *Predicate) String() string {
	return fmt.Sprintf("script=%q", p.source)
}

// Close releases the Lua state.
func (p *Predicate) Close() {
	p.state.Close()
}
