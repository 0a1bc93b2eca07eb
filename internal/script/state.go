// Package script evaluates user supplied Lua predicates against document
// items inside a restricted gopher-lua state.
package script

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultCallTimeout bounds a single predicate evaluation.
const DefaultCallTimeout = 50 * time.Millisecond

// State wraps a sandboxed gopher-lua state.
//
// Every Call runs in a fresh global environment layered over a read-only
// copy of the globals, so a function cannot carry state from one call to
// the next. gopher-lua's LState is not goroutine-safe; the mutex serializes
// Go callers.
type State struct {
	L *lua.LState

	mu          sync.Mutex
	envMeta     *lua.LTable
	callTimeout time.Duration
	closed      bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithCallTimeout sets the per-call timeout. Zero disables it.
func WithCallTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.callTimeout = d
	}
}

// NewState creates a sandboxed state with only the base, table, string and
// math libraries.
func NewState(opts ...StateOption) *State {
	s := &State{callTimeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	installSandbox(L)
	s.L = L

	s.envMeta = L.NewTable()
	s.envMeta.RawSetString("__index", frozenGlobals(L))
	s.envMeta.RawSetString("__metatable", lua.LFalse)
	return s
}

// openSafeLibraries opens only side-effect free standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Compile loads chunk and returns the function value it evaluates to.
func (s *State) Compile(name, chunk string) (*lua.LFunction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStateClosed
	}

	loaded, err := s.L.Load(strings.NewReader(chunk), name)
	if err != nil {
		return nil, err
	}
	s.L.Push(loaded)
	if err := s.pcall(0, 1); err != nil {
		return nil, err
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	fn, ok := ret.(*lua.LFunction)
	if !ok {
		return nil, ErrNotFunction
	}
	return fn, nil
}

// Call invokes fn with args in a fresh environment and returns its first
// result. Globals assigned during the call are dropped when it returns.
func (s *State) Call(fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return lua.LNil, ErrStateClosed
	}

	if s.callTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	env := s.L.NewTable()
	env.Metatable = s.envMeta
	fn.Env = env

	top := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}
	if err := s.pcall(len(args), 1); err != nil {
		s.L.SetTop(top)
		return lua.LNil, err
	}
	ret := s.L.Get(-1)
	s.L.SetTop(top)
	return ret, nil
}

// NewTable creates a table owned by the state.
func (s *State) NewTable() *lua.LTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.L.NewTable()
}

// Close releases the state. It is safe to call more than once.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

// pcall runs a protected call and converts Go panics raised by the VM into
// errors.
func (s *State) pcall(nargs, nret int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return s.L.PCall(nargs, nret, nil)
}
