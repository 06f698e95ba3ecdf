package text_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/ir"
	"tacir/internal/text"
	"tacir/internal/types"
)

func buildAdder() *ir.Program {
	f := ir.NewFunction("add_one", types.Function(types.Numeric(types.Int, 32), []types.Ty{types.Numeric(types.Int, 32)}))
	entry := f.BBNew()
	f.SetFirstBlock(entry)

	p0 := f.InstNew(ir.Instruction{Kind: ir.Param{Index: 0}, Ty: types.Numeric(types.Int, 32)})
	f.InstAppendInBB(p0, entry)

	sum := f.InstNew(ir.Instruction{
		Kind: ir.Binary{Op: ir.Add, Lhs: ir.Dest(p0), Rhs: ir.Imm(1)},
		Ty:   types.Numeric(types.Int, 32),
	})
	f.InstAppendInBB(sum, entry)

	f.BB(entry).Branch = ir.Return{Value: ir.Dest(sum), HasValue: true}

	return &ir.Program{Functions: []*ir.Function{f}}
}

func TestPrintParseRoundTrip(t *testing.T) {
	prog := buildAdder()
	rendered := text.Print(prog)

	reparsed, errs := text.Parse(rendered)
	require.Empty(t, errs)
	require.Len(t, reparsed.Functions, 1)

	require.Equal(t, rendered, text.Print(reparsed))
}

func TestParseBranches(t *testing.T) {
	src := `
(fn cond (i32) i32
  (bb 0 (
    (%0 i32 param 0)
    (%1 b1 lt %0 10)
  ) (brif %1 bb 1 bb 2))
  (bb 1 (
  ) (br bb 2))
  (bb 2 (
    (%2 i32 phi (bb 0 %0) (bb 1 %0))
  ) (return %2)))
`
	prog, errs := text.Parse(src)
	require.Empty(t, errs)
	require.Len(t, prog.Functions, 1)

	f := prog.Functions[0]
	blocks := f.BBIter()
	require.Len(t, blocks, 3)

	last := f.BB(blocks[2])
	ret, ok := last.Branch.(ir.Return)
	require.True(t, ok)
	require.True(t, ret.HasValue)

	phiInst := f.Inst(last.Head)
	phi, ok := phiInst.Kind.(ir.Phi)
	require.True(t, ok)
	require.Len(t, phi.Operands, 2)
}

func TestParseErrorOnMissingFunctionKeyword(t *testing.T) {
	_, errs := text.Parse(`(bogus foo () i32)`)
	require.Len(t, errs, 1)
	require.Equal(t, text.ExpectFunctionDef, errs[0].Kind)
}

func TestParseErrorOnBadType(t *testing.T) {
	_, errs := text.Parse(`(fn f () xyz (bb 0 () (unreachable)))`)
	require.Len(t, errs, 1)
	require.Equal(t, text.Expect, errs[0].Kind)
}

func TestPrettyPrintDoesNotPanic(t *testing.T) {
	prog := buildAdder()
	require.NotEmpty(t, text.PrettyPrint(prog))
}
