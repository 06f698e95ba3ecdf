package editor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/editor"
	"tacir/internal/ir"
	"tacir/internal/types"
)

func i32() types.Ty { return types.Numeric(types.Int, 32) }

func assignInst(v int64) ir.Instruction {
	return ir.Instruction{Kind: ir.Assign{Src: ir.Imm(v)}, Ty: i32()}
}

func TestNewEditorStartsAtSentinel(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)

	e := editor.New(f)
	require.Equal(t, bb, e.CurrentBB())
	require.True(t, e.CurrentInst().IsZero())
}

func TestInsertAfterCurrentPlaceFromSentinelPrepends(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	id := e.InsertAfterCurrentPlace(assignInst(1))
	require.Equal(t, id, e.CurrentInst())
	require.Equal(t, id, f.BB(bb).Head)
	require.Equal(t, id, f.BB(bb).Tail)
}

func TestInsertAfterCurrentPlaceAdvancesCursorEachTime(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	first := e.InsertAfterCurrentPlace(assignInst(1))
	second := e.InsertAfterCurrentPlace(assignInst(2))

	require.Equal(t, second, e.CurrentInst())
	require.Equal(t, first, f.BB(bb).Head)
	require.Equal(t, second, f.BB(bb).Tail)
}

func TestInsertBeforeCurrentPlaceFromSentinelAppends(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	id := e.InsertBeforeCurrentPlace(assignInst(1))
	require.Equal(t, id, f.BB(bb).Head)
	require.Equal(t, id, f.BB(bb).Tail)
}

func TestMoveForwardFromSentinelVisitsHeadThenEachInstruction(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	first := e.InsertAfterCurrentPlace(assignInst(1))
	second := e.InsertAfterCurrentPlace(assignInst(2))

	e.SetCurrentBB(bb)
	require.True(t, e.MoveForward())
	require.Equal(t, first, e.CurrentInst())
	require.True(t, e.MoveForward())
	require.Equal(t, second, e.CurrentInst())
	require.False(t, e.MoveForward(), "moving past the tail returns to the sentinel")
	require.True(t, e.CurrentInst().IsZero())
}

func TestMoveBackwardFromSentinelVisitsTailThenEachInstruction(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	first := e.InsertAfterCurrentPlace(assignInst(1))
	second := e.InsertAfterCurrentPlace(assignInst(2))

	e.SetCurrentBB(bb)
	require.True(t, e.MoveBackward())
	require.Equal(t, second, e.CurrentInst())
	require.True(t, e.MoveBackward())
	require.Equal(t, first, e.CurrentInst())
	require.False(t, e.MoveBackward())
}

func TestSetPositionAtInstructionAdoptsItsBlock(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb1 := f.BBNew()
	bb2 := f.BBNew()
	f.SetFirstBlock(bb1)
	e := editor.New(f)
	e.SetCurrentBB(bb2)
	id := e.InsertAfterCurrentPlace(assignInst(1))

	e.SetCurrentBB(bb1)
	e.SetPositionAtInstruction(id)

	require.Equal(t, bb2, e.CurrentBB())
	require.Equal(t, id, e.CurrentInst())
}

func TestRemoveCurrentDetachesAndAdvances(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	first := e.InsertAfterCurrentPlace(assignInst(1))
	second := e.InsertAfterCurrentPlace(assignInst(2))
	e.SetPositionAtInstruction(first)

	hasNext, removed := e.RemoveCurrent()
	require.True(t, hasNext)
	require.Equal(t, ir.Assign{Src: ir.Imm(1)}, removed.Kind)
	require.Equal(t, second, e.CurrentInst())
	require.Equal(t, second, f.BB(bb).Head)
}

func TestRemoveCurrentAtSentinelIsNoOp(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)

	hasNext, removed := e.RemoveCurrent()
	require.False(t, hasNext)
	require.Nil(t, removed)
}

func TestInsertAtEndOfAndStartOfDoNotDisturbCursor(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	other := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)
	cursorPos := e.InsertAfterCurrentPlace(assignInst(1))

	tail := e.InsertAtEndOf(other, assignInst(2))
	head := e.InsertAtStartOf(other, assignInst(3))

	require.Equal(t, cursorPos, e.CurrentInst(), "inserting elsewhere must not move the cursor")
	require.Equal(t, head, f.BB(other).Head)
	require.Equal(t, tail, f.BB(other).Tail)
}

func TestInsertPhiAddsEmptyPhiAtBlockStart(t *testing.T) {
	f := ir.NewFunction("f", types.Function(types.Unit(), nil))
	bb := f.BBNew()
	f.SetFirstBlock(bb)
	e := editor.New(f)
	e.InsertAfterCurrentPlace(assignInst(1))

	id := e.InsertPhi(bb, i32())

	require.Equal(t, id, f.BB(bb).Head)
	phi, ok := f.Inst(id).Kind.(ir.Phi)
	require.True(t, ok)
	require.Empty(t, phi.Operands)
}
