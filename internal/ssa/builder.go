// Package ssa builds SSA directly from AST-shaped input using Braun et
// al.'s on-the-fly construction algorithm: phi placement falls out of
// read_variable/write_variable over sealed/filled blocks rather than a
// dominance-frontier precomputation (spec §4.4).
package ssa

import (
	"fmt"
	"sort"
	"strings"

	"tacir/internal/editor"
	"tacir/internal/ir"
	"tacir/internal/types"
)

type varInfo struct {
	ty   types.Ty
	defs map[ir.BlockId]ir.InstId
}

type incompletePhi[TVar comparable] struct {
	variable TVar
	phi      ir.InstId
}

// Builder composes an Editor with the bookkeeping Braun's algorithm needs:
// sealed/filled block sets, per-variable per-block definitions, and the
// incomplete phis of not-yet-sealed blocks. TVar is the caller's
// representation of a source-language variable — any small comparable key.
type Builder[TVar comparable] struct {
	Editor *editor.Editor

	sealed map[ir.BlockId]bool
	filled map[ir.BlockId]bool

	vars map[TVar]*varInfo

	incompletePhi map[ir.BlockId][]incompletePhi[TVar]

	preds map[ir.BlockId][]ir.BlockId
}

// New creates a builder over f, positioned at f's current editor state.
func New[TVar comparable](f *ir.Function) *Builder[TVar] {
	return &Builder[TVar]{
		Editor:        editor.New(f),
		sealed:        map[ir.BlockId]bool{},
		filled:        map[ir.BlockId]bool{},
		vars:          map[TVar]*varInfo{},
		incompletePhi: map[ir.BlockId][]incompletePhi[TVar]{},
		preds:         map[ir.BlockId][]ir.BlockId{},
	}
}

// DeclareVar registers a variable of the given type.
func (b *Builder[TVar]) DeclareVar(v TVar, ty types.Ty) {
	b.vars[v] = &varInfo{ty: ty, defs: map[ir.BlockId]ir.InstId{}}
}

func (b *Builder[TVar]) mustVar(v TVar) *varInfo {
	info, ok := b.vars[v]
	if !ok {
		panic(fmt.Sprintf("ssa: read/write of undeclared variable %v", v))
	}
	return info
}

// WriteVariable records that v is defined by inst in block bb.
func (b *Builder[TVar]) WriteVariable(v TVar, inst ir.InstId, bb ir.BlockId) {
	b.mustVar(v).defs[bb] = inst
}

// WriteVariableCur writes v in the editor's current block.
func (b *Builder[TVar]) WriteVariableCur(v TVar, inst ir.InstId) {
	b.WriteVariable(v, inst, b.Editor.CurrentBB())
}

// ReadVariable returns the InstId that currently defines v as observed
// from block bb, inserting phis on demand per Braun's algorithm.
func (b *Builder[TVar]) ReadVariable(v TVar, bb ir.BlockId) ir.InstId {
	info := b.mustVar(v)
	if id, ok := info.defs[bb]; ok {
		return id
	}
	return b.readVariableRecursive(v, bb)
}

// ReadVariableCur reads v in the editor's current block.
func (b *Builder[TVar]) ReadVariableCur(v TVar) ir.InstId {
	return b.ReadVariable(v, b.Editor.CurrentBB())
}

func (b *Builder[TVar]) readVariableRecursive(v TVar, bb ir.BlockId) ir.InstId {
	info := b.mustVar(v)

	var val ir.InstId
	if !b.sealed[bb] {
		phi := b.Editor.InsertPhi(bb, info.ty)
		b.incompletePhi[bb] = append(b.incompletePhi[bb], incompletePhi[TVar]{variable: v, phi: phi})
		val = phi
	} else {
		preds := b.preds[bb]
		if len(preds) == 1 {
			val = b.ReadVariable(v, preds[0])
		} else {
			phi := b.Editor.InsertPhi(bb, info.ty)
			// Pre-register before recursing into predecessors: this is
			// what breaks the infinite recursion a loop back-edge would
			// otherwise cause.
			b.WriteVariable(v, phi, bb)
			b.addPhiOperands(v, phi, preds)
			val = phi
		}
	}

	b.WriteVariable(v, val, bb)
	return val
}

// AddBranch records that from is a predecessor of to, as a control edge is
// created. This is the builder's only source of predecessor information;
// it does not infer predecessors from branch terminators.
func (b *Builder[TVar]) AddBranch(from, to ir.BlockId) {
	b.preds[to] = append(b.preds[to], from)
}

// Preds returns the predecessor list recorded for bb via AddBranch.
func (b *Builder[TVar]) Preds(bb ir.BlockId) []ir.BlockId {
	return b.preds[bb]
}

func (b *Builder[TVar]) addPhiOperands(v TVar, phi ir.InstId, preds []ir.BlockId) {
	operands := b.Editor.Func.Inst(phi).Kind.(ir.Phi).Operands
	for _, p := range preds {
		operands[p] = b.ReadVariable(v, p)
	}
	b.tryRemoveTrivialPhi(phi)
}

// tryRemoveTrivialPhi rewrites phi to Assign(same) when every operand
// (ignoring phi's own id, for self-referential loop operands) names the
// same value, or to an empty Phi (a dead value) if there were no operands
// at all. Otherwise it leaves phi untouched.
//
// This is the local variant the repo's source ships: it does not
// re-examine other instructions that already reference phi once it
// collapses, which the upstream algorithm's fuller treatment would do.
// See the open question recorded in DESIGN.md.
func (b *Builder[TVar]) tryRemoveTrivialPhi(phi ir.InstId) {
	inst := b.Editor.Func.Inst(phi)
	phiKind, ok := inst.Kind.(ir.Phi)
	if !ok {
		return
	}

	var same ir.InstId
	haveSame := false
	trivial := true
	for _, op := range phiKind.Operands {
		if op == phi {
			continue
		}
		if haveSame {
			if op == same {
				continue
			}
			trivial = false
			break
		}
		same = op
		haveSame = true
	}

	if !trivial {
		return
	}
	if haveSame {
		inst.Kind = ir.Assign{Src: ir.Dest(same)}
	} else {
		inst.Kind = ir.Phi{Operands: map[ir.BlockId]ir.InstId{}}
	}
}

// MarkSealed seals bb: its predecessor set is now final, so every phi
// left incomplete while bb was unsealed gets its operands filled in.
func (b *Builder[TVar]) MarkSealed(bb ir.BlockId) {
	for _, entry := range b.incompletePhi[bb] {
		b.addPhiOperands(entry.variable, entry.phi, b.preds[bb])
	}
	delete(b.incompletePhi, bb)
	b.sealed[bb] = true
}

// MarkFilled marks bb filled: no further computation instructions will be
// appended to it.
func (b *Builder[TVar]) MarkFilled(bb ir.BlockId) {
	b.filled[bb] = true
}

// IsSealed reports whether bb has been sealed.
func (b *Builder[TVar]) IsSealed(bb ir.BlockId) bool { return b.sealed[bb] }

// IsFilled reports whether bb has been marked filled.
func (b *Builder[TVar]) IsFilled(bb ir.BlockId) bool { return b.filled[bb] }

// SanityCheck asserts every block is both sealed and filled and that no
// incomplete phis remain, panicking with the offending blocks otherwise.
func (b *Builder[TVar]) SanityCheck() {
	var bad []string
	for _, bb := range b.Editor.Func.AllBlockIDs() {
		if !b.filled[bb] {
			bad = append(bad, fmt.Sprintf("%s: not filled", bb))
		}
		if !b.sealed[bb] {
			bad = append(bad, fmt.Sprintf("%s: not sealed", bb))
		}
	}
	if len(b.incompletePhi) > 0 {
		var bbs []string
		for bb := range b.incompletePhi {
			bbs = append(bbs, bb.String())
		}
		sort.Strings(bbs)
		bad = append(bad, fmt.Sprintf("incomplete phis remain in: %s", strings.Join(bbs, ", ")))
	}
	if len(bad) > 0 {
		panic("ssa: sanity_check failed:\n" + strings.Join(bad, "\n"))
	}
}

// Build finalizes construction, running SanityCheck.
func (b *Builder[TVar]) Build() *ir.Function {
	b.SanityCheck()
	return b.Editor.Func
}
