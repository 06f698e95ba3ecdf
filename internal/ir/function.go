package ir

import (
	"fmt"

	"tacir/internal/arena"
	"tacir/internal/types"
)

// Function is a single compiled function: its instructions and blocks live
// in their own arenas, addressed only by handle (spec's TacFunc).
type Function struct {
	Name string
	Ty   types.Ty

	insts  *arena.Arena[Tac]
	blocks *arena.Arena[BasicBlock]

	first BlockId
}

// NewFunction creates an empty function of the given name and signature.
func NewFunction(name string, ty types.Ty) *Function {
	return &Function{
		Name:   name,
		Ty:     ty,
		insts:  arena.New[Tac](),
		blocks: arena.New[BasicBlock](),
	}
}

// ---- instruction side (spec §4.2) ----

// InstNew inserts a freestanding instruction (bb is the sentinel) and
// returns its handle.
func (f *Function) InstNew(inst Instruction) InstId {
	return InstId{f.insts.Insert(Tac{Inst: inst})}
}

// Tac returns the arena-stored wrapper for id. Panics on a stale handle.
func (f *Function) Tac(id InstId) *Tac {
	return f.insts.MustGet(id.Key)
}

// Inst returns the instruction payload for id. Panics on a stale handle.
func (f *Function) Inst(id InstId) *Instruction {
	return &f.Tac(id).Inst
}

// InstSetAfter attaches freestanding x immediately after the live
// instruction after, adopting after's block and fixing up that block's
// tail if after was the tail.
func (f *Function) InstSetAfter(after, x InstId) {
	bb := f.Tac(after).BB
	arena.AttachAfter[Tac, *Tac](f.insts, after.Key, x.Key)
	f.Tac(x).BB = bb
	blk := f.BB(bb)
	if blk.Tail == after {
		blk.Tail = x
	}
}

// InstSetBefore attaches freestanding x immediately before the live
// instruction before, adopting before's block and fixing up that block's
// head if before was the head.
func (f *Function) InstSetBefore(before, x InstId) {
	bb := f.Tac(before).BB
	arena.AttachBefore[Tac, *Tac](f.insts, before.Key, x.Key)
	f.Tac(x).BB = bb
	blk := f.BB(bb)
	if blk.Head == before {
		blk.Head = x
	}
}

// InstAppendInBB attaches freestanding x to the end of bb.
func (f *Function) InstAppendInBB(x InstId, bb BlockId) {
	blk := f.BB(bb)
	if blk.Empty() {
		f.Tac(x).BB = bb
		blk.Head, blk.Tail = x, x
		return
	}
	f.InstSetAfter(blk.Tail, x)
}

// InstPrependInBB attaches freestanding x to the start of bb.
func (f *Function) InstPrependInBB(x InstId, bb BlockId) {
	blk := f.BB(bb)
	if blk.Empty() {
		f.Tac(x).BB = bb
		blk.Head, blk.Tail = x, x
		return
	}
	f.InstSetBefore(blk.Head, x)
}

// InstDetach removes x from its block's instruction list and resets its bb
// to the sentinel. x remains allocated in the arena.
func (f *Function) InstDetach(x InstId) {
	t := f.Tac(x)
	bb := t.BB
	if !bb.IsZero() {
		blk := f.BB(bb)
		if blk.Head == x {
			blk.Head = t.Next()
		}
		if blk.Tail == x {
			blk.Tail = t.Prev()
		}
	}
	arena.Detach[Tac, *Tac](f.insts, x.Key)
	t.BB = BlockId{}
}

// InstRemove frees x's arena slot and returns the Instruction. x must
// already be detached (freestanding with a sentinel bb).
func (f *Function) InstRemove(x InstId) Instruction {
	t := f.Tac(x)
	if !t.Prev().IsZero() || !t.Next().IsZero() || !t.BB.IsZero() {
		panic(fmt.Sprintf("ir: InstRemove of non-detached instruction %s", x))
	}
	return f.insts.Remove(x.Key).Inst
}

// InstConnect joins two freestanding instruction chains.
func (f *Function) InstConnect(tail, head InstId) {
	arena.Connect[Tac, *Tac](f.insts, tail.Key, head.Key)
}

// InstSplitOffAfter detaches the chain following pos and returns its
// former head (now freestanding), if any.
func (f *Function) InstSplitOffAfter(pos InstId) (InstId, bool) {
	k, ok := arena.SplitAfter[Tac, *Tac](f.insts, pos.Key)
	return InstId{k}, ok
}

// AllInstIDs returns the handles of every live instruction, in arbitrary
// (arena) order.
func (f *Function) AllInstIDs() []InstId {
	keys := f.insts.Keys()
	out := make([]InstId, len(keys))
	for i, k := range keys {
		out[i] = InstId{k}
	}
	return out
}

// ---- block side (spec §4.2) ----

// BBNew allocates a fresh, freestanding, empty basic block (branch
// defaults to Unreachable).
func (f *Function) BBNew() BlockId {
	return BlockId{f.blocks.Insert(BasicBlock{Branch: Unreachable{}})}
}

// BB returns the live block named by id. Panics on a stale handle.
func (f *Function) BB(id BlockId) *BasicBlock {
	return f.blocks.MustGet(id.Key)
}

// BB2 returns pointers to two distinct live blocks. Panics if i == j.
func (f *Function) BB2(i, j BlockId) (*BasicBlock, *BasicBlock) {
	return f.blocks.Get2(i.Key, j.Key)
}

// FirstBlock returns the function's entry block, or the zero BlockId if
// none has been designated.
func (f *Function) FirstBlock() BlockId { return f.first }

// SetFirstBlock designates bb as the entry block and returns the previous
// entry (zero if none).
func (f *Function) SetFirstBlock(bb BlockId) BlockId {
	prev := f.first
	f.first = bb
	return prev
}

// BBSetBefore attaches freestanding block b immediately before the live
// block before in the function's block sequence.
func (f *Function) BBSetBefore(before, b BlockId) {
	arena.AttachBefore[BasicBlock, *BasicBlock](f.blocks, before.Key, b.Key)
	if f.first == before {
		f.first = b
	}
}

// BBSetAfter attaches freestanding block b immediately after the live
// block after in the function's block sequence.
func (f *Function) BBSetAfter(after, b BlockId) {
	arena.AttachAfter[BasicBlock, *BasicBlock](f.blocks, after.Key, b.Key)
}

// BBDetach removes b from the function's block sequence, leaving it
// freestanding.
func (f *Function) BBDetach(b BlockId) {
	if f.first == b {
		f.first = f.BB(b).Next()
	}
	arena.Detach[BasicBlock, *BasicBlock](f.blocks, b.Key)
}

// BBIter returns the handles of every block reachable by walking
// Next-links from FirstBlock, in that order.
func (f *Function) BBIter() []BlockId {
	var out []BlockId
	for cur := f.first; !cur.IsZero(); cur = f.BB(cur).Next() {
		out = append(out, cur)
	}
	return out
}

// AllBlockIDs returns the handles of every live block, in arbitrary
// (arena) order — unlike BBIter, this does not depend on FirstBlock being
// set or the block chain being connected.
func (f *Function) AllBlockIDs() []BlockId {
	keys := f.blocks.Keys()
	out := make([]BlockId, len(keys))
	for i, k := range keys {
		out[i] = BlockId{k}
	}
	return out
}

// BBSplitAfter creates a new block B', moves every instruction after inst
// in inst's block to B', and — if transferBranches is true — moves the
// original block's branch terminator to B' (leaving the original
// Unreachable). Returns B'.
func (f *Function) BBSplitAfter(inst InstId, transferBranches bool) BlockId {
	origID := f.Tac(inst).BB
	orig := f.BB(origID)

	newID := f.BBNew()
	newBlk := f.BB(newID)

	if moved, ok := f.InstSplitOffAfter(inst); ok {
		// Walk the moved chain, retargeting bb back-pointers.
		oldTail := orig.Tail
		newBlk.Head = moved
		newBlk.Tail = oldTail
		orig.Tail = inst
		for cur := moved; !cur.IsZero(); cur = f.Tac(cur).Next() {
			f.Tac(cur).BB = newID
		}
	}

	if transferBranches {
		newBlk.Branch = orig.Branch
		orig.Branch = Unreachable{}
	}

	return newID
}

// BBConnect concatenates back's instructions onto the end of front, moves
// back's branch onto front (returning front's previous branch), and
// leaves back empty. front and back must be distinct live blocks.
func (f *Function) BBConnect(front, back BlockId) Branch {
	if front == back {
		panic("ir: BBConnect requires two distinct blocks")
	}
	frontBlk, backBlk := f.BB2(front, back)

	if !backBlk.Empty() {
		if frontBlk.Empty() {
			frontBlk.Head = backBlk.Head
			frontBlk.Tail = backBlk.Tail
		} else {
			f.InstConnect(frontBlk.Tail, backBlk.Head)
			frontBlk.Tail = backBlk.Tail
		}
		for cur := backBlk.Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
			f.Tac(cur).BB = front
		}
		backBlk.Head, backBlk.Tail = InstId{}, InstId{}
	}

	prevBranch := frontBlk.Branch
	frontBlk.Branch = backBlk.Branch
	backBlk.Branch = Unreachable{}
	return prevBranch
}
