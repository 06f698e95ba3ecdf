// Package opt provides the three optimization passes the pipeline is
// built to run — constant folding, branch simplification, and dead-code
// elimination (spec §4.5.2–§4.5.4) — plus the dominator/reverse-postorder
// utilities they share.
package opt

import "tacir/internal/ir"

// BiasedRevPostOrderDfs computes a reverse-postorder numbering of f's
// blocks reachable from entry. Among a block's branch targets it visits
// the first-listed one first — IfTrue before IfFalse for a CondJump, the
// sole target for a Jump — on the same "likely fallthrough numbered
// earlier" grounds azuki's branch-simplify worklist order follows; this
// only affects traversal order, never correctness of the fixed point it
// feeds into.
func BiasedRevPostOrderDfs(f *ir.Function, entry ir.BlockId) []ir.BlockId {
	visited := map[ir.BlockId]bool{}
	var post []ir.BlockId

	var visit func(ir.BlockId)
	visit = func(bb ir.BlockId) {
		if bb.IsZero() || visited[bb] {
			return
		}
		visited[bb] = true
		for _, s := range f.BB(bb).Branch.Targets() {
			visit(s)
		}
		post = append(post, bb)
	}
	visit(entry)

	out := make([]ir.BlockId, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}
