package opt

import "tacir/internal/ir"

// DomTree is the dominator relation of a function's CFG, rooted at the
// entry block ComputeDominators was called with.
type DomTree struct {
	entry ir.BlockId
	idom  map[ir.BlockId]ir.BlockId
}

// Idom returns bb's immediate dominator. The entry block is its own
// immediate dominator.
func (d *DomTree) Idom(bb ir.BlockId) ir.BlockId { return d.idom[bb] }

// Dominates reports whether a dominates b, reflexively (every block
// dominates itself).
func (d *DomTree) Dominates(a, b ir.BlockId) bool {
	cur := b
	for {
		if cur == a {
			return true
		}
		if cur == d.entry {
			return false
		}
		cur = d.idom[cur]
	}
}

// StrictDominators returns every strict dominator of bb, nearest first.
func (d *DomTree) StrictDominators(bb ir.BlockId) []ir.BlockId {
	var out []ir.BlockId
	for cur := bb; cur != d.entry; {
		next, ok := d.idom[cur]
		if !ok {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// ComputeDominators computes the dominator tree of f's CFG rooted at
// entry, using Cooper, Harvey & Kennedy's "A Simple, Fast Dominance
// Algorithm" (spec §4.5.4, §9.1): an iterative dataflow over reverse
// postorder to a fixed point, each merge step walking two candidate
// dominators up the (partially built) tree until they meet.
func ComputeDominators(f *ir.Function, entry ir.BlockId) *DomTree {
	rpo := BiasedRevPostOrderDfs(f, entry)
	rpoNum := make(map[ir.BlockId]int, len(rpo))
	for i, b := range rpo {
		rpoNum[b] = i
	}

	preds := map[ir.BlockId][]ir.BlockId{}
	for _, b := range rpo {
		for _, s := range f.BB(b).Branch.Targets() {
			if _, ok := rpoNum[s]; ok {
				preds[s] = append(preds[s], b)
			}
		}
	}

	idom := map[ir.BlockId]ir.BlockId{entry: entry}

	intersect := func(a, b ir.BlockId) ir.BlockId {
		for a != b {
			for rpoNum[a] > rpoNum[b] {
				a = idom[a]
			}
			for rpoNum[b] > rpoNum[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom ir.BlockId
			found := false
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom, found = p, true
					continue
				}
				newIdom = intersect(p, newIdom)
			}
			if !found {
				continue
			}
			if old, ok := idom[b]; !ok || old != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &DomTree{entry: entry, idom: idom}
}
