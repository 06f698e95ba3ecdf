package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/ir"
	"tacir/internal/types"
)

func TestFuncByNameFindsDeclaredFunction(t *testing.T) {
	f := ir.NewFunction("main", types.Function(types.Unit(), nil))
	p := &ir.Program{Functions: []*ir.Function{f}}

	require.Same(t, f, p.FuncByName("main"))
}

func TestFuncByNameReturnsNilWhenMissing(t *testing.T) {
	p := &ir.Program{}
	require.Nil(t, p.FuncByName("missing"))
}
