package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/ir"
	"tacir/internal/types"
)

func TestZeroBlockIdIsSentinel(t *testing.T) {
	var b ir.BlockId
	require.True(t, b.IsZero())
	require.Equal(t, "<nil-bb>", b.String())
}

func TestZeroInstIdIsSentinel(t *testing.T) {
	var i ir.InstId
	require.True(t, i.IsZero())
	require.Equal(t, "<nil-inst>", i.String())
}

func TestLiveHandlesStringifyBySlot(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	require.Equal(t, "bb0", bb.String())

	id := f.InstNew(ir.Instruction{Kind: ir.Assign{Src: ir.Imm(1)}, Ty: types.Numeric(types.Int, 32)})
	require.Equal(t, "%0", id.String())
}
