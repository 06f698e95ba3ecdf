package sampleir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/interp"
	"tacir/internal/ir"
	"tacir/internal/pass"
	"tacir/internal/pass/opt"
	"tacir/internal/sampleir"
	"tacir/internal/text"
	"tacir/internal/types"
)

func i32() types.Ty { return types.Numeric(types.Int, 32) }

// absDef builds: fn abs(n) { if n < 0 { return 0 - n; } return n; }
func absDef() sampleir.FuncDef {
	return sampleir.FuncDef{
		Name:    "abs",
		Params:  []sampleir.Param{{Name: "n", Ty: i32()}},
		RetTy:   i32(),
		ValueTy: i32(),
		Body: []sampleir.Stmt{
			sampleir.If{
				Cond: sampleir.Bin{Op: ir.Lt, Lhs: sampleir.Ref{Name: "n"}, Rhs: sampleir.Lit{Value: 0}},
				Then: []sampleir.Stmt{
					sampleir.Ret{HasValue: true, Value: sampleir.Bin{Op: ir.Sub, Lhs: sampleir.Lit{Value: 0}, Rhs: sampleir.Ref{Name: "n"}}},
				},
			},
			sampleir.Ret{HasValue: true, Value: sampleir.Ref{Name: "n"}},
		},
	}
}

// sumToNDef builds: fn sum_to_n(n) { r = 0; i = 0; while i <= n { r = r + i; i = i + 1; } return r; }
func sumToNDef() sampleir.FuncDef {
	return sampleir.FuncDef{
		Name:    "sum_to_n",
		Params:  []sampleir.Param{{Name: "n", Ty: i32()}},
		Locals:  []sampleir.Local{{Name: "r", Ty: i32()}, {Name: "i", Ty: i32()}},
		RetTy:   i32(),
		ValueTy: i32(),
		Body: []sampleir.Stmt{
			sampleir.Assign{Name: "r", Value: sampleir.Lit{Value: 0}},
			sampleir.Assign{Name: "i", Value: sampleir.Lit{Value: 0}},
			sampleir.While{
				Cond: sampleir.Bin{Op: ir.Le, Lhs: sampleir.Ref{Name: "i"}, Rhs: sampleir.Ref{Name: "n"}},
				Body: []sampleir.Stmt{
					sampleir.Assign{Name: "r", Value: sampleir.Bin{Op: ir.Add, Lhs: sampleir.Ref{Name: "r"}, Rhs: sampleir.Ref{Name: "i"}}},
					sampleir.Assign{Name: "i", Value: sampleir.Bin{Op: ir.Add, Lhs: sampleir.Ref{Name: "i"}, Rhs: sampleir.Lit{Value: 1}}},
				},
			},
			sampleir.Ret{HasValue: true, Value: sampleir.Ref{Name: "r"}},
		},
	}
}

func TestBuildAbsSatisfiesSanityCheck(t *testing.T) {
	f := sampleir.Build(absDef())
	prog := &ir.Program{Functions: []*ir.Function{f}}

	pipeline := pass.NewPipeline()
	pipeline.AddFunctionOptimizer(&pass.SanityCheck{})
	require.NoError(t, pipeline.Run(prog, "sanity-check"))

	result := pass.MustGet[pass.SanityResult](pipeline.Env())
	require.True(t, result.IsValid("abs"), result.Problems["abs"])
}

func TestBuildAbsInterprets(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{sampleir.Build(absDef())}}
	m := interp.New(prog)

	v, ok, err := m.RunFunc("abs", []int64{-7})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), v)

	v, ok, err = m.RunFunc("abs", []int64{7})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), v)
}

func TestBuildAbsRoundTripsThroughTextFormat(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{sampleir.Build(absDef())}}
	rendered := text.Print(prog)

	reparsed, errs := text.Parse(rendered)
	require.Empty(t, errs)
	require.Equal(t, rendered, text.Print(reparsed))
}

func TestBuildWhileLoopPlacesPhiAtHeader(t *testing.T) {
	f := sampleir.Build(sumToNDef())
	prog := &ir.Program{Functions: []*ir.Function{f}}

	pipeline := pass.NewPipeline()
	pipeline.AddFunctionOptimizer(&pass.SanityCheck{})
	require.NoError(t, pipeline.Run(prog, "sanity-check"))
	result := pass.MustGet[pass.SanityResult](pipeline.Env())
	require.True(t, result.IsValid("sum_to_n"), result.Problems["sum_to_n"])

	m := interp.New(prog)
	v, ok, err := m.RunFunc("sum_to_n", []int64{5})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(15), v)
}

func TestBuildWhileLoopSurvivesOptimization(t *testing.T) {
	prog := &ir.Program{Functions: []*ir.Function{sampleir.Build(sumToNDef())}}

	pipeline := pass.NewPipeline()
	opt.Register(pipeline)
	require.NoError(t, pipeline.Run(prog, opt.DefaultOptOrder...))

	m := interp.New(prog)
	v, ok, err := m.RunFunc("sum_to_n", []int64{10})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(55), v)
}
