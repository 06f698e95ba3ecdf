package opt

import (
	"tacir/internal/ir"
	"tacir/internal/pass"
)

// BranchSimplify runs a worklist over the CFG, seeded with the entry
// block, rewriting and merging blocks until none of its four rules apply
// to anything still reachable (spec §4.5.3):
//
//  1. CondJump{_, t, t} becomes Jump(t).
//  2. CondJump{Imm k, t, f} becomes Jump(t) or Jump(f) depending on k.
//  3. Jump(n) where n has exactly one predecessor (this block) absorbs n:
//     n's instructions and branch move into this block, and n's
//     successors' phis that keyed on n are rekeyed to this block.
//  4. An empty block ending in Jump(n) is elided: every predecessor that
//     targeted it is redirected to n, and n's phis that keyed on it gain
//     one entry per redirected predecessor.
//
// Each action strictly shrinks the CFG or the instruction count, so the
// worklist terminates.
type BranchSimplify struct{}

func (BranchSimplify) Name() string       { return "branching-simplify" }
func (BranchSimplify) EditsProgram() bool { return true }
func (BranchSimplify) Reset()             {}

func (BranchSimplify) OptimizeFunc(_ *pass.Env, f *ir.Function) {
	entry := f.FirstBlock()
	if entry.IsZero() {
		return
	}

	preds := predecessors(f)
	queued := map[ir.BlockId]bool{}
	seen := map[ir.BlockId]bool{entry: true}
	var queue []ir.BlockId
	enqueue := func(bb ir.BlockId) {
		if bb.IsZero() || queued[bb] {
			return
		}
		queued[bb] = true
		queue = append(queue, bb)
	}
	enqueue(entry)

	for len(queue) > 0 {
		bb := queue[0]
		queue = queue[1:]
		queued[bb] = false

		blk := f.BB(bb)
		switch br := blk.Branch.(type) {
		case ir.CondJump:
			if br.IfTrue == br.IfFalse {
				blk.Branch = ir.Jump{Target: br.IfTrue}
				enqueue(bb)
				continue
			}
			if br.Cond.IsImm() {
				target, dropped := br.IfFalse, br.IfTrue
				if br.Cond.ImmValue() != 0 {
					target, dropped = br.IfTrue, br.IfFalse
				}
				removePred(preds, dropped, bb)
				blk.Branch = ir.Jump{Target: target}
				enqueue(bb)
				for _, p := range preds[dropped] {
					enqueue(p)
				}
				continue
			}

		case ir.Jump:
			next := br.Target
			if next != bb && len(preds[next]) == 1 && preds[next][0] == bb {
				succs := f.BB(next).Branch.Targets()
				f.BBConnect(bb, next)
				for _, s := range succs {
					rekeyPhis(f, s, next, bb)
					preds[s] = replacePred(preds[s], next, bb)
				}
				delete(preds, next)
				f.BBDetach(next)
				enqueue(bb)
				continue
			}
			if blk.Empty() && next != bb {
				ps := append([]ir.BlockId(nil), preds[bb]...)
				for _, p := range ps {
					redirectBranchTarget(f, p, bb, next)
				}
				preds[next] = mergeUniquePreds(removePredValue(preds[next], bb), ps)
				duplicatePhiOperand(f, next, bb, ps)
				delete(preds, bb)
				f.BBDetach(bb)
				for _, p := range preds[next] {
					enqueue(p)
				}
				continue
			}
		}

		// A successor is queued only the first time it is reached; after
		// that a block comes back only when a rule above changed it or the
		// predecessor count of its jump target, so a loop in the CFG does
		// not keep the worklist running.
		for _, t := range blk.Branch.Targets() {
			if !seen[t] {
				seen[t] = true
				enqueue(t)
			}
		}
	}
}

func predecessors(f *ir.Function) map[ir.BlockId][]ir.BlockId {
	preds := map[ir.BlockId][]ir.BlockId{}
	for _, bb := range f.BBIter() {
		for _, t := range f.BB(bb).Branch.Targets() {
			preds[t] = append(preds[t], bb)
		}
	}
	return preds
}

func removePred(preds map[ir.BlockId][]ir.BlockId, target, from ir.BlockId) {
	preds[target] = removePredValue(preds[target], from)
}

func removePredValue(list []ir.BlockId, target ir.BlockId) []ir.BlockId {
	out := list[:0]
	for _, b := range list {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

func replacePred(list []ir.BlockId, old, new ir.BlockId) []ir.BlockId {
	out := make([]ir.BlockId, len(list))
	for i, b := range list {
		if b == old {
			b = new
		}
		out[i] = b
	}
	return out
}

func mergeUniquePreds(base, extra []ir.BlockId) []ir.BlockId {
	for _, e := range extra {
		found := false
		for _, b := range base {
			if b == e {
				found = true
				break
			}
		}
		if !found {
			base = append(base, e)
		}
	}
	return base
}

// rekeyPhis renames every phi operand in bb keyed on oldKey to newKey —
// used when a block is absorbed into its sole predecessor, so a
// successor's phi stops naming a predecessor that no longer exists.
func rekeyPhis(f *ir.Function, bb, oldKey, newKey ir.BlockId) {
	for cur := f.BB(bb).Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
		phi, ok := f.Inst(cur).Kind.(ir.Phi)
		if !ok {
			continue
		}
		if v, ok := phi.Operands[oldKey]; ok {
			delete(phi.Operands, oldKey)
			phi.Operands[newKey] = v
		}
	}
}

// duplicatePhiOperand replaces, in every phi in bb keyed on oldKey, that
// single entry with one copy per key in newKeys — used when an empty
// pass-through block is elided in favor of each of its predecessors
// directly.
func duplicatePhiOperand(f *ir.Function, bb, oldKey ir.BlockId, newKeys []ir.BlockId) {
	for cur := f.BB(bb).Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
		phi, ok := f.Inst(cur).Kind.(ir.Phi)
		if !ok {
			continue
		}
		v, ok := phi.Operands[oldKey]
		if !ok {
			continue
		}
		delete(phi.Operands, oldKey)
		for _, k := range newKeys {
			phi.Operands[k] = v
		}
	}
}

func redirectBranchTarget(f *ir.Function, bb, old, new ir.BlockId) {
	blk := f.BB(bb)
	switch br := blk.Branch.(type) {
	case ir.Jump:
		if br.Target == old {
			blk.Branch = ir.Jump{Target: new}
		}
	case ir.CondJump:
		if br.IfTrue == old {
			br.IfTrue = new
		}
		if br.IfFalse == old {
			br.IfFalse = new
		}
		blk.Branch = br
	}
}
