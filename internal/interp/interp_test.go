package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/interp"
	"tacir/internal/ir"
	"tacir/internal/types"
)

func i32() types.Ty { return types.Numeric(types.Int, 32) }

func newFunc(name string, params ...types.Ty) *ir.Function {
	return ir.NewFunction(name, types.Function(i32(), params))
}

// buildAdd builds `fn add(a, b) { return a + b; }`.
func buildAdd() *ir.Program {
	f := newFunc("add", i32(), i32())
	entry := f.BBNew()
	f.SetFirstBlock(entry)
	a := f.InstNew(ir.Instruction{Kind: ir.Param{Index: 0}, Ty: i32()})
	f.InstAppendInBB(a, entry)
	b := f.InstNew(ir.Instruction{Kind: ir.Param{Index: 1}, Ty: i32()})
	f.InstAppendInBB(b, entry)
	sum := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: ir.Add, Lhs: ir.Dest(a), Rhs: ir.Dest(b)}, Ty: i32()})
	f.InstAppendInBB(sum, entry)
	f.BB(entry).Branch = ir.Return{Value: ir.Dest(sum), HasValue: true}
	return &ir.Program{Functions: []*ir.Function{f}}
}

// buildFib builds a recursive fib(n) whose CondJump picks a base-case block
// or a recursive-case block, each ending in its own Return.
//
//	fn fib(n) {
//	  bb0: brif (n <= 1) bb1 bb2
//	  bb1: return 1
//	  bb2: r = fib(n-1) + fib(n-2); return r
//	}
func buildFib() *ir.Program {
	f := newFunc("fib", i32())
	entry := f.BBNew()
	baseCase := f.BBNew()
	recCase := f.BBNew()
	f.SetFirstBlock(entry)
	f.BBSetAfter(entry, baseCase)
	f.BBSetAfter(baseCase, recCase)

	n := f.InstNew(ir.Instruction{Kind: ir.Param{Index: 0}, Ty: i32()})
	f.InstAppendInBB(n, entry)
	le := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: ir.Le, Lhs: ir.Dest(n), Rhs: ir.Imm(1)}, Ty: i32()})
	f.InstAppendInBB(le, entry)
	f.BB(entry).Branch = ir.CondJump{Cond: ir.Dest(le), IfTrue: baseCase, IfFalse: recCase}

	f.BB(baseCase).Branch = ir.Return{Value: ir.Imm(1), HasValue: true}

	nMinus1 := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: ir.Sub, Lhs: ir.Dest(n), Rhs: ir.Imm(1)}, Ty: i32()})
	f.InstAppendInBB(nMinus1, recCase)
	call1 := f.InstNew(ir.Instruction{Kind: ir.Call{Name: "fib", Params: []ir.Value{ir.Dest(nMinus1)}}, Ty: i32()})
	f.InstAppendInBB(call1, recCase)
	nMinus2 := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: ir.Sub, Lhs: ir.Dest(n), Rhs: ir.Imm(2)}, Ty: i32()})
	f.InstAppendInBB(nMinus2, recCase)
	call2 := f.InstNew(ir.Instruction{Kind: ir.Call{Name: "fib", Params: []ir.Value{ir.Dest(nMinus2)}}, Ty: i32()})
	f.InstAppendInBB(call2, recCase)
	sum := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: ir.Add, Lhs: ir.Dest(call1), Rhs: ir.Dest(call2)}, Ty: i32()})
	f.InstAppendInBB(sum, recCase)
	f.BB(recCase).Branch = ir.Return{Value: ir.Dest(sum), HasValue: true}

	return &ir.Program{Functions: []*ir.Function{f}}
}

func TestRunFuncAddsParams(t *testing.T) {
	prog := buildAdd()
	m := interp.New(prog)

	v, ok, err := m.RunFunc("add", []int64{1, 2})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(3), v)
}

func TestRunFuncRecursiveFib(t *testing.T) {
	prog := buildFib()
	m := interp.New(prog)

	v, ok, err := m.RunFunc("fib", []int64{5})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(8), v)
}

func TestDivisionByZeroHalts(t *testing.T) {
	f := newFunc("div0", i32(), i32())
	entry := f.BBNew()
	f.SetFirstBlock(entry)
	a := f.InstNew(ir.Instruction{Kind: ir.Param{Index: 0}, Ty: i32()})
	f.InstAppendInBB(a, entry)
	b := f.InstNew(ir.Instruction{Kind: ir.Param{Index: 1}, Ty: i32()})
	f.InstAppendInBB(b, entry)
	div := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: ir.Div, Lhs: ir.Dest(a), Rhs: ir.Dest(b)}, Ty: i32()})
	f.InstAppendInBB(div, entry)
	f.BB(entry).Branch = ir.Return{Value: ir.Dest(div), HasValue: true}
	prog := &ir.Program{Functions: []*ir.Function{f}}

	m := interp.New(prog)
	_, _, err := m.RunFunc("div0", []int64{10, 0})
	require.Error(t, err)
	var halt *interp.Halt
	require.ErrorAs(t, err, &halt)
}

func TestUnreachableHalts(t *testing.T) {
	f := newFunc("boom")
	entry := f.BBNew()
	f.SetFirstBlock(entry)
	f.BB(entry).Branch = ir.Unreachable{}
	prog := &ir.Program{Functions: []*ir.Function{f}}

	m := interp.New(prog)
	_, _, err := m.RunFunc("boom", nil)
	require.Error(t, err)
}

func TestCountingInspectorTalliesExecution(t *testing.T) {
	prog := buildAdd()
	m := interp.New(prog)
	counter := &interp.CountingInspector{}
	m.AddInspector(counter)

	_, _, err := m.RunFunc("add", []int64{4, 5})
	require.NoError(t, err)

	require.Equal(t, int64(3), counter.Insts)
	require.Equal(t, int64(1), counter.Branches)
	require.Equal(t, int64(1), counter.Calls)
	require.Equal(t, int64(1), counter.Returns)
}

func TestProfilingInspectorAccumulatesPerFunction(t *testing.T) {
	prog := buildFib()
	m := interp.New(prog)
	profiler := interp.NewProfilingInspector()
	m.AddInspector(profiler)

	_, _, err := m.RunFunc("fib", []int64{3})
	require.NoError(t, err)

	require.Contains(t, profiler.Total, "fib")
}
