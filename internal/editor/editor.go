// Package editor provides cursor-based linear editing of a function: a
// single (block, instruction-position) cursor that insertion, traversal,
// and removal operate relative to (spec §4.3).
package editor

import (
	"tacir/internal/ir"
	"tacir/internal/types"
)

// Editor wraps a Function with a cursor. A zero instruction position is
// the deliberate sentinel sitting just before the block's head and just
// after its tail, so that repeatedly calling MoveForward visits every
// instruction including the first.
type Editor struct {
	Func *ir.Function

	currentBB   ir.BlockId
	currentInst ir.InstId
}

// New creates an editor positioned at the sentinel of f's first block.
func New(f *ir.Function) *Editor {
	return &Editor{Func: f, currentBB: f.FirstBlock()}
}

// CurrentBB returns the block the cursor is positioned in.
func (e *Editor) CurrentBB() ir.BlockId { return e.currentBB }

// CurrentInst returns the instruction the cursor is positioned at, or the
// zero InstId if the cursor is at the sentinel.
func (e *Editor) CurrentInst() ir.InstId { return e.currentInst }

// SetCurrentBB moves the cursor to bb's sentinel position.
func (e *Editor) SetCurrentBB(bb ir.BlockId) {
	e.currentBB = bb
	e.currentInst = ir.InstId{}
}

// SetPositionAtInstruction moves the cursor onto x, adopting x's block.
func (e *Editor) SetPositionAtInstruction(x ir.InstId) {
	e.currentBB = e.Func.Tac(x).BB
	e.currentInst = x
}

// InsertAfterCurrentPlace allocates i, attaches it immediately after the
// cursor (prepending to the block if the cursor is at the sentinel), and
// advances the cursor onto it.
func (e *Editor) InsertAfterCurrentPlace(i ir.Instruction) ir.InstId {
	id := e.Func.InstNew(i)
	if e.currentInst.IsZero() {
		e.Func.InstPrependInBB(id, e.currentBB)
	} else {
		e.Func.InstSetAfter(e.currentInst, id)
	}
	e.currentInst = id
	return id
}

// InsertBeforeCurrentPlace allocates i, attaches it immediately before the
// cursor (appending to the block if the cursor is at the sentinel), and
// advances the cursor onto it.
func (e *Editor) InsertBeforeCurrentPlace(i ir.Instruction) ir.InstId {
	id := e.Func.InstNew(i)
	if e.currentInst.IsZero() {
		e.Func.InstAppendInBB(id, e.currentBB)
	} else {
		e.Func.InstSetBefore(e.currentInst, id)
	}
	e.currentInst = id
	return id
}

// MoveForward advances the cursor to the next instruction (or, from the
// sentinel, to the block's head) and reports whether that position is a
// real instruction.
func (e *Editor) MoveForward() bool {
	if e.currentInst.IsZero() {
		e.currentInst = e.Func.BB(e.currentBB).Head
	} else {
		e.currentInst = e.Func.Tac(e.currentInst).Next()
	}
	return !e.currentInst.IsZero()
}

// MoveBackward retreats the cursor to the previous instruction (or, from
// the sentinel, to the block's tail) and reports whether that position is
// a real instruction.
func (e *Editor) MoveBackward() bool {
	if e.currentInst.IsZero() {
		e.currentInst = e.Func.BB(e.currentBB).Tail
	} else {
		e.currentInst = e.Func.Tac(e.currentInst).Prev()
	}
	return !e.currentInst.IsZero()
}

// RemoveCurrent detaches and removes the instruction at the cursor,
// advances the cursor forward, and returns whether a next instruction
// exists plus the removed instruction (nil if the cursor was already at
// the sentinel).
func (e *Editor) RemoveCurrent() (bool, *ir.Instruction) {
	if e.currentInst.IsZero() {
		return false, nil
	}
	cur := e.currentInst
	next := e.Func.Tac(cur).Next()
	e.Func.InstDetach(cur)
	removed := e.Func.InstRemove(cur)
	e.currentInst = next
	return !next.IsZero(), &removed
}

// InsertAtEndOf inserts i at the end of bb without disturbing the cursor.
func (e *Editor) InsertAtEndOf(bb ir.BlockId, i ir.Instruction) ir.InstId {
	id := e.Func.InstNew(i)
	e.Func.InstAppendInBB(id, bb)
	return id
}

// InsertAtStartOf inserts i at the start of bb without disturbing the
// cursor.
func (e *Editor) InsertAtStartOf(bb ir.BlockId, i ir.Instruction) ir.InstId {
	id := e.Func.InstNew(i)
	e.Func.InstPrependInBB(id, bb)
	return id
}

// InsertPhi inserts an empty Phi of type ty at the start of bb.
func (e *Editor) InsertPhi(bb ir.BlockId, ty types.Ty) ir.InstId {
	return e.InsertAtStartOf(bb, ir.Instruction{
		Kind: ir.Phi{Operands: map[ir.BlockId]ir.InstId{}},
		Ty:   ty,
	})
}
