package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/listview/internal/document"
)

func TestPredicates(t *testing.T) {
	fn := document.Item{Address: 1, Type: document.TypeFunction}
	imp := document.Item{Address: 2, Type: document.TypeImport}
	str := document.Item{Address: 3, Type: document.TypeString}

	tests := []struct {
		name string
		pred Predicate
		want []bool
		desc string
	}{
		{"all", AcceptAll(), []bool{true, true, true}, "all"},
		{"type", AcceptType(document.TypeFunction), []bool{true, false, false}, "type=function"},
		{"type all", AcceptType(document.TypeAll), []bool{true, true, true}, "all"},
		{"types", AcceptTypes(document.TypeString, document.TypeImport), []bool{false, true, true}, "types=import,string"},
		{"types single", AcceptTypes(document.TypeImport), []bool{false, true, false}, "type=import"},
		{"types with all", AcceptTypes(document.TypeImport, document.TypeAll), []bool{true, true, true}, "all"},
		{"types empty", AcceptTypes(), []bool{false, false, false}, "types="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []bool{tt.pred.Allowed(fn), tt.pred.Allowed(imp), tt.pred.Allowed(str)}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.desc, fmt.Sprint(tt.pred))
		})
	}
}

func TestPredicateFunc(t *testing.T) {
	even := PredicateFunc(func(it document.Item) bool { return it.Address%2 == 0 })
	assert.True(t, even.Allowed(document.Item{Address: 4}))
	assert.False(t, even.Allowed(document.Item{Address: 5}))
}

func TestAnd(t *testing.T) {
	even := PredicateFunc(func(it document.Item) bool { return it.Address%2 == 0 })
	p := And(AcceptType(document.TypeFunction), nil, even)

	assert.True(t, p.Allowed(document.Item{Address: 2, Type: document.TypeFunction}))
	assert.False(t, p.Allowed(document.Item{Address: 3, Type: document.TypeFunction}))
	assert.False(t, p.Allowed(document.Item{Address: 2, Type: document.TypeData}))
	assert.Equal(t, "type=function && func", Describe(p))

	assert.Equal(t, "all", Describe(And()))
	assert.Equal(t, "type=data", Describe(And(nil, AcceptType(document.TypeData))))
}
