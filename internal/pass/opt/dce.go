package opt

import (
	"tacir/internal/ir"
	"tacir/internal/pass"
)

// DeadCodeElimination removes every instruction that cannot reach an
// observable effect (spec §4.5.4). Roots are every instruction a Return
// carries; a worklist DFS over the data-flow graph (inst → operand-inst)
// marks everything those roots transitively read as retained. Whenever
// the DFS reaches an instruction for the first time in some block B, it
// also walks B's strict dominators: if a dominator D branches on a
// Value::Dest(c), c is pushed as a new root too, since a live return can
// depend on which way D's branch went even though nothing reads c
// directly — this is the control-dependence hook that keeps a load-bearing
// condition from being pruned. Anything never marked is detached and
// removed. The pass is idempotent: a second run finds nothing new to cut.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string       { return "dead-code-eliminator" }
func (DeadCodeElimination) EditsProgram() bool { return true }
func (DeadCodeElimination) Reset()             {}

func (DeadCodeElimination) OptimizeFunc(_ *pass.Env, f *ir.Function) {
	entry := f.FirstBlock()
	if entry.IsZero() {
		return
	}

	instBlock := map[ir.InstId]ir.BlockId{}
	for _, bb := range f.BBIter() {
		for cur := f.BB(bb).Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
			instBlock[cur] = bb
		}
	}

	dom := ComputeDominators(f, entry)

	var roots []ir.InstId
	for _, bb := range f.BBIter() {
		if ret, ok := f.BB(bb).Branch.(ir.Return); ok && ret.HasValue && ret.Value.IsDest() {
			roots = append(roots, ret.Value.DestID())
		}
	}

	retained := map[ir.InstId]bool{}
	seenControlDepFor := map[ir.BlockId]bool{}

	for len(roots) > 0 {
		root := roots[0]
		roots = roots[1:]
		if retained[root] {
			continue
		}

		stack := []ir.InstId{root}
		for len(stack) > 0 {
			n := len(stack) - 1
			cur := stack[n]
			stack = stack[:n]
			if retained[cur] {
				continue
			}
			retained[cur] = true

			bb := instBlock[cur]
			if !seenControlDepFor[bb] {
				seenControlDepFor[bb] = true
				for _, d := range dom.StrictDominators(bb) {
					if cj, ok := f.BB(d).Branch.(ir.CondJump); ok && cj.Cond.IsDest() {
						roots = append(roots, cj.Cond.DestID())
					}
				}
			}

			for _, v := range f.Inst(cur).Operands() {
				if v.IsDest() && !retained[v.DestID()] {
					stack = append(stack, v.DestID())
				}
			}
		}
	}

	for _, bb := range f.BBIter() {
		cur := f.BB(bb).Head
		for !cur.IsZero() {
			next := f.Tac(cur).Next()
			if !retained[cur] {
				f.InstDetach(cur)
				f.InstRemove(cur)
			}
			cur = next
		}
	}
}
