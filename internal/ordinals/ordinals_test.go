package ordinals

import (
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLibrary(t *testing.T) {
	tests := map[string]string{
		"WS2_32.dll":                "ws2_32",
		"ws2_32":                    "ws2_32",
		" OleAut32.DLL ":            "oleaut32",
		`C:\Windows\System32\a.dll`: "a",
		"lib/b.dll":                 "b",
		"":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLibrary(in), in)
	}
}

func TestBuiltinTables(t *testing.T) {
	r := New()

	name, ok := r.Name("WS2_32.DLL", 23)
	require.True(t, ok)
	assert.Equal(t, "socket", name)

	name, ok = r.Name("oleaut32", 2)
	require.True(t, ok)
	assert.Equal(t, "SysAllocString", name)

	_, ok = r.Name("ws2_32", 9999)
	assert.False(t, ok)
	_, ok = r.Name("nosuchlib.dll", 1)
	assert.False(t, ok)

	assert.Equal(t, "Ordinal_9999", r.Resolve("ws2_32", 9999))
	assert.Equal(t, "Ordinal_7", r.Resolve("nosuchlib", 7))
	assert.Equal(t, "bind", r.Resolve("wsock32.dll", 2))

	assert.Equal(t, []string{"oleaut32", "ws2_32", "wsock32"}, r.Loaded())
}

func TestOverrideTables(t *testing.T) {
	fsys := fstest.MapFS{
		"ws2_32.yaml": {Data: []byte("library: ws2_32\nordinals:\n  23: my_socket\n  500: extra\n")},
		"custom.yaml": {Data: []byte("ordinals:\n  1: First\n")},
		"broken.yaml": {Data: []byte("ordinals: [nope")},
	}
	r := New(WithFS(fsys))

	assert.Equal(t, "my_socket", r.Resolve("ws2_32", 23), "override wins")
	assert.Equal(t, "bind", r.Resolve("ws2_32", 2), "builtin entries kept")
	assert.Equal(t, "extra", r.Resolve("ws2_32", 500))
	assert.Equal(t, "First", r.Resolve("custom.dll", 1))
	assert.Equal(t, "Ordinal_1", r.Resolve("broken", 1))
}

func TestConcurrentLookups(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "socket", r.Resolve("ws2_32.dll", 23))
		}()
	}
	wg.Wait()
}
