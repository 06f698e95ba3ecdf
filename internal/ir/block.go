package ir

import "tacir/internal/arena"

// BasicBlock is a maximal straight-line run of instructions ending in
// exactly one Branch. Head/Tail thread the intrusive instruction list;
// the block-chain Prev/Next links (threading this block into its owning
// function's block sequence) live in blockLinks.
type BasicBlock struct {
	blockLinks arena.Links

	Head InstId
	Tail InstId

	Branch Branch
}

// Links implements arena.Listed, letting the generic intrusive-list
// primitives in package arena thread BasicBlocks into a function's block
// sequence.
func (b *BasicBlock) Links() *arena.Links { return &b.blockLinks }

// Prev returns the previous block in the owning function's sequence, or
// the zero BlockId if b is first.
func (b *BasicBlock) Prev() BlockId { return BlockId{b.blockLinks.Prev} }

// Next returns the next block in the owning function's sequence, or the
// zero BlockId if b is last.
func (b *BasicBlock) Next() BlockId { return BlockId{b.blockLinks.Next} }

// Empty reports whether the block holds no instructions.
func (b *BasicBlock) Empty() bool { return b.Head.IsZero() }

// Tac is an arena-stored instruction together with its owning block and
// its position in that block's intrusive instruction list.
type Tac struct {
	instLinks arena.Links

	Inst Instruction
	BB   BlockId
}

// Links implements arena.Listed for the per-block instruction list.
func (t *Tac) Links() *arena.Links { return &t.instLinks }

// Prev returns the previous instruction in BB, or the zero InstId if t is
// the block's head.
func (t *Tac) Prev() InstId { return InstId{t.instLinks.Prev} }

// Next returns the next instruction in BB, or the zero InstId if t is the
// block's tail.
func (t *Tac) Next() InstId { return InstId{t.instLinks.Next} }
