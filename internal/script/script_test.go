package script

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/listview/internal/document"
)

func TestPredicateExpressions(t *testing.T) {
	fn := document.Item{Address: 0x401000, Type: document.TypeFunction}
	low := document.Item{Address: 0x10, Type: document.TypeFunction, Index: 2}
	str := document.Item{Address: 0x402000, Type: document.TypeString}

	tests := []struct {
		name   string
		source string
		want   []bool
	}{
		{"type", `item.type == "function"`, []bool{true, true, false}},
		{"address", `item.address >= 0x401000`, []bool{true, false, true}},
		{"combined", `item.type == "function" and item.address >= 0x401000`, []bool{true, false, false}},
		{"index", `item.index > 0`, []bool{false, true, false}},
		{"string lib", `string.sub(item.type, 1, 3) == "str"`, []bool{false, false, true}},
		{"math lib", `math.floor(item.address / 0x1000) == 0x402`, []bool{false, false, true}},
		{"body", "if item.type == 'string' then return true end\nreturn false", []bool{false, false, true}},
		{"nil is false", `nil`, []bool{false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.source)
			require.NoError(t, err)
			defer p.Close()

			got := []bool{p.Allowed(fn), p.Allowed(low), p.Allowed(str)}
			assert.Equal(t, tt.want, got)
			assert.Zero(t, p.Failures())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{"", "   ", "item.type ==", "return function("} {
		_, err := Compile(src)
		var ce *CompileError
		require.True(t, errors.As(err, &ce), "%q: %v", src, err)
		assert.Equal(t, src, ce.Source)
	}

	_, err := Compile("")
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestRuntimeErrorsAreCountedNotFatal(t *testing.T) {
	p, err := Compile(`item.missing.field == 1`)
	require.NoError(t, err)
	defer p.Close()

	assert.False(t, p.Allowed(document.Item{Address: 1}))
	assert.False(t, p.Allowed(document.Item{Address: 2}))
	assert.Equal(t, uint64(2), p.Failures())
}

func TestSandboxRemovesLoaders(t *testing.T) {
	for _, src := range []string{
		`dofile("/etc/passwd")`,
		`loadstring("return 1")()`,
		`load("return 1")()`,
		`require("os")`,
		`io.open("/etc/passwd")`,
		`os.exit(1)`,
		`setmetatable(1, {})`,
		`getmetatable("").__index.x = 1`,
		`rawset(string, "x", 1)`,
		`math.random() < 2`,
	} {
		p, err := Compile(src)
		require.NoError(t, err, src)
		assert.False(t, p.Allowed(document.Item{}), src)
		assert.Equal(t, uint64(1), p.Failures(), src)
		p.Close()
	}
}

func TestCallTimeout(t *testing.T) {
	p, err := Compile("while true do end", WithStateOptions(WithCallTimeout(20*time.Millisecond)))
	require.NoError(t, err)
	defer p.Close()

	start := time.Now()
	assert.False(t, p.Allowed(document.Item{}))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, uint64(1), p.Failures())
}

func TestCallsDoNotShareGlobals(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"global counter", "n = (n or 0) + 1\nreturn n % 2 == 1"},
		{"library table", "string.seen = (string.seen or 0) + 1\nreturn string.seen == 1"},
		{"_G", "_G.flag = not _G.flag\nreturn _G.flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.source)
			require.NoError(t, err)
			defer p.Close()

			a := document.Item{Address: 0x401000, Type: document.TypeInstruction}
			b := document.Item{Address: 0x401004, Type: document.TypeInstruction}
			first := []bool{p.Allowed(a), p.Allowed(b)}
			assert.Equal(t, first[0], first[1], "same script state for every item")
			assert.Equal(t, first[0], p.Allowed(a))
		})
	}
}

func TestFreshEnvironmentPerCall(t *testing.T) {
	p, err := Compile("local before = n\nn = item.index\nreturn before == nil")
	require.NoError(t, err)
	defer p.Close()

	for i := range 4 {
		assert.True(t, p.Allowed(document.Item{Address: 1, Index: i}), "call %d saw a global from an earlier call", i)
	}
	assert.Zero(t, p.Failures())
}

func TestDecisionIsRememberedPerItem(t *testing.T) {
	p, err := Compile("while item.index > 0 do end\nreturn true", WithStateOptions(WithCallTimeout(20*time.Millisecond)))
	require.NoError(t, err)
	defer p.Close()

	slow := document.Item{Address: 1, Index: 1}
	assert.False(t, p.Allowed(slow))
	assert.False(t, p.Allowed(slow))
	assert.Equal(t, uint64(1), p.Failures(), "second answer comes from the first decision")
	assert.True(t, p.Allowed(document.Item{Address: 1}))
}

func TestHexAddress(t *testing.T) {
	p, err := Compile(`item.hex == "0xffffffff81000001"`)
	require.NoError(t, err)
	defer p.Close()

	assert.True(t, p.Allowed(document.Item{Address: 0xffffffff81000001}))
	assert.False(t, p.Allowed(document.Item{Address: 0xffffffff81000000}))
}

func TestClosedState(t *testing.T) {
	p, err := Compile("true")
	require.NoError(t, err)
	p.Close()
	p.Close()

	assert.False(t, p.Allowed(document.Item{}))
	assert.Equal(t, `script="true"`, p.String())
}
