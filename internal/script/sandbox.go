package script

import lua "github.com/yuin/gopher-lua"

// removedGlobals can load code or reach outside the state.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"print",
	"collectgarbage",
	"getfenv",
	"setfenv",
	"getmetatable",
	"setmetatable",
	"rawset",
	"newproxy",
	"_printregs",
}

// removedMath keeps shared generator state.
var removedMath = []string{"random", "randomseed"}

// installSandbox strips globals that would let a predicate load code, touch
// the file system, escape its environment or keep state between calls.
func installSandbox(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		for _, name := range removedMath {
			math.RawSetString(name, lua.LNil)
		}
	}
}

// frozenGlobals returns a snapshot of the global table in which every
// library table is wrapped by readOnly. Assigning to it raises an error.
func frozenGlobals(L *lua.LState) *lua.LTable {
	globals := L.G.Global
	base := L.NewTable()
	globals.ForEach(func(k, v lua.LValue) {
		if tb, ok := v.(*lua.LTable); ok && tb != globals {
			v = readOnly(L, tb)
		}
		base.RawSet(k, v)
	})
	frozen := readOnly(L, base)
	base.RawSetString("_G", frozen)
	return frozen
}

// readOnly returns an empty proxy reading through to tb.
func readOnly(L *lua.LState, tb *lua.LTable) *lua.LTable {
	proxy := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", tb)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("attempt to modify read-only table")
		return 0
	}))
	mt.RawSetString("__metatable", lua.LFalse)
	proxy.Metatable = mt
	return proxy
}

