// Package sampleir is a small AST-shaped test helper that stands in for
// the (out-of-scope) source-language front end spec.md §6 calls the
// "AST→IR translator (external)": it drives internal/ssa.Builder through
// exactly the fixed sequence spec.md §6 documents, so the builder and
// the passes/text/interpreter layered on top of it can be exercised
// end-to-end without inventing a real parser. It is not part of the
// library's public surface — only _test.go files import it.
package sampleir

import (
	"fmt"

	"tacir/internal/ir"
	"tacir/internal/ssa"
	"tacir/internal/types"
)

// Expr is the closed set of expressions sampleir programs can build.
type Expr interface{ isExpr() }

// Lit is an integer literal.
type Lit struct{ Value int64 }

func (Lit) isExpr() {}

// Ref reads the current value of a declared variable.
type Ref struct{ Name string }

func (Ref) isExpr() {}

// Bin applies a binary operator to two sub-expressions.
type Bin struct {
	Op       ir.BinOp
	Lhs, Rhs Expr
}

func (Bin) isExpr() {}

// Invoke calls a named function with the given argument expressions.
type Invoke struct {
	Name string
	Args []Expr
}

func (Invoke) isExpr() {}

// Stmt is the closed set of statements sampleir programs can build.
type Stmt interface{ isStmt() }

// Assign writes the result of Value into the variable Name.
type Assign struct {
	Name  string
	Value Expr
}

func (Assign) isStmt() {}

// Ret returns Value (or nothing, if HasValue is false).
type Ret struct {
	Value    Expr
	HasValue bool
}

func (Ret) isStmt() {}

// If branches on Cond; Else may be nil for a one-armed if.
type If struct {
	Cond       Expr
	Then, Else []Stmt
}

func (If) isStmt() {}

// While loops over Body while Cond is nonzero.
type While struct {
	Cond Expr
	Body []Stmt
}

func (While) isStmt() {}

// Param names one of a function's actual parameters.
type Param struct {
	Name string
	Ty   types.Ty
}

// Local declares a variable with no initial writer (must be assigned
// before any Ref reads it on every path that reaches the read).
type Local struct {
	Name string
	Ty   types.Ty
}

// FuncDef describes a function body in terms of sampleir's Stmt/Expr
// trees. ValueTy is the type every computed (non-Param) instruction is
// given — sampleir only ever builds single-numeric-type sample programs.
type FuncDef struct {
	Name    string
	Params  []Param
	Locals  []Local
	RetTy   types.Ty
	ValueTy types.Ty
	Body    []Stmt
}

// Build drives ssa.Builder[string] through FuncDef's body following the
// fixed builder sequence spec.md §6 documents, returning the finished
// function. Body must return on every reachable path — sampleir has no
// unreachable-path analysis of its own, matching a real front end's
// assumption that source-level control flow was already checked for
// exhaustive returns before IR generation.
func Build(def FuncDef) *ir.Function {
	paramTys := make([]types.Ty, len(def.Params))
	for i, p := range def.Params {
		paramTys[i] = p.Ty
	}
	f := ir.NewFunction(def.Name, types.Function(def.RetTy, paramTys))

	b := ssa.New[string](f)
	entry := f.BBNew()
	f.SetFirstBlock(entry)
	b.Editor.SetCurrentBB(entry)
	b.MarkSealed(entry)

	for i, p := range def.Params {
		b.DeclareVar(p.Name, p.Ty)
		id := b.Editor.InsertAfterCurrentPlace(ir.Instruction{Kind: ir.Param{Index: i}, Ty: p.Ty})
		b.WriteVariable(p.Name, id, entry)
	}
	for _, l := range def.Locals {
		b.DeclareVar(l.Name, l.Ty)
	}

	c := &ctx{b: b, f: f, cur: entry, valueTy: def.ValueTy}
	c.buildStmts(def.Body)

	// BBNew leaves blocks freestanding; thread every block the lowering
	// created after entry so BBIter, the passes and the printer see the
	// whole body.
	last := entry
	for _, bb := range f.AllBlockIDs() {
		if bb != entry {
			f.BBSetAfter(last, bb)
			last = bb
		}
	}

	return b.Build()
}

type ctx struct {
	b          *ssa.Builder[string]
	f          *ir.Function
	cur        ir.BlockId
	terminated bool
	valueTy    types.Ty
}

func (c *ctx) block() *ir.BasicBlock { return c.f.BB(c.cur) }

func (c *ctx) moveTo(bb ir.BlockId) {
	c.cur = bb
	c.terminated = false
	c.b.Editor.SetCurrentBB(bb)
}

func (c *ctx) buildStmts(stmts []Stmt) {
	for _, s := range stmts {
		if c.terminated {
			return
		}
		c.buildStmt(s)
	}
}

func (c *ctx) buildStmt(s Stmt) {
	switch v := s.(type) {
	case Assign:
		val := c.buildExpr(v.Value)
		c.b.WriteVariableCur(v.Name, c.materialize(val))

	case Ret:
		if v.HasValue {
			val := c.buildExpr(v.Value)
			c.block().Branch = ir.Return{Value: val, HasValue: true}
		} else {
			c.block().Branch = ir.Return{HasValue: false}
		}
		c.b.MarkFilled(c.cur)
		c.terminated = true

	case If:
		c.buildIf(v)

	case While:
		c.buildWhile(v)

	default:
		panic(fmt.Sprintf("sampleir: unreachable Stmt %T", s))
	}
}

func (c *ctx) buildIf(v If) {
	cond := c.buildExpr(v.Cond)
	thenBB := c.f.BBNew()
	joinBB := c.f.BBNew()
	elseBB := joinBB
	if v.Else != nil {
		elseBB = c.f.BBNew()
	}

	c.block().Branch = ir.CondJump{Cond: cond, IfTrue: thenBB, IfFalse: elseBB}
	c.b.AddBranch(c.cur, thenBB)
	c.b.AddBranch(c.cur, elseBB)
	c.b.MarkFilled(c.cur)
	c.b.MarkSealed(thenBB)
	if elseBB != joinBB {
		c.b.MarkSealed(elseBB)
	}

	c.moveTo(thenBB)
	c.buildStmts(v.Then)
	if !c.terminated {
		c.block().Branch = ir.Jump{Target: joinBB}
		c.b.AddBranch(thenBB, joinBB)
		c.b.MarkFilled(thenBB)
	}

	if v.Else != nil {
		c.moveTo(elseBB)
		c.buildStmts(v.Else)
		if !c.terminated {
			c.block().Branch = ir.Jump{Target: joinBB}
			c.b.AddBranch(elseBB, joinBB)
			c.b.MarkFilled(elseBB)
		}
	}

	c.b.MarkSealed(joinBB)
	c.moveTo(joinBB)
}

func (c *ctx) buildWhile(v While) {
	headerBB := c.f.BBNew()
	bodyBB := c.f.BBNew()
	afterBB := c.f.BBNew()

	c.block().Branch = ir.Jump{Target: headerBB}
	c.b.AddBranch(c.cur, headerBB)
	c.b.MarkFilled(c.cur)

	// headerBB stays unsealed until the body's back edge (if any) is
	// known, so any variable read inside the loop gets a phi whose
	// operands are completed at seal time (Braun et al.).
	c.moveTo(headerBB)
	cond := c.buildExpr(v.Cond)
	c.block().Branch = ir.CondJump{Cond: cond, IfTrue: bodyBB, IfFalse: afterBB}
	c.b.AddBranch(headerBB, bodyBB)
	c.b.AddBranch(headerBB, afterBB)
	c.b.MarkFilled(headerBB)
	c.b.MarkSealed(bodyBB)

	c.moveTo(bodyBB)
	c.buildStmts(v.Body)
	if !c.terminated {
		c.block().Branch = ir.Jump{Target: headerBB}
		c.b.AddBranch(bodyBB, headerBB)
		c.b.MarkFilled(bodyBB)
	}

	c.b.MarkSealed(headerBB)
	c.b.MarkSealed(afterBB)
	c.moveTo(afterBB)
}

// materialize returns an InstId naming val, inserting a trivial Assign
// when val is an immediate (variables are always named by an
// instruction's result, never by a bare constant).
func (c *ctx) materialize(val ir.Value) ir.InstId {
	if val.IsDest() {
		return val.DestID()
	}
	return c.b.Editor.InsertAtEndOf(c.cur, ir.Instruction{Kind: ir.Assign{Src: val}, Ty: c.valueTy})
}

func (c *ctx) buildExpr(e Expr) ir.Value {
	switch v := e.(type) {
	case Lit:
		return ir.Imm(v.Value)
	case Ref:
		return ir.Dest(c.b.ReadVariableCur(v.Name))
	case Bin:
		lhs := c.buildExpr(v.Lhs)
		rhs := c.buildExpr(v.Rhs)
		// Appended at the block's end, so it follows any phis the reads
		// above placed at the block's head.
		id := c.b.Editor.InsertAtEndOf(c.cur, ir.Instruction{
			Kind: ir.Binary{Op: v.Op, Lhs: lhs, Rhs: rhs},
			Ty:   c.valueTy,
		})
		return ir.Dest(id)
	case Invoke:
		args := make([]ir.Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = c.buildExpr(a)
		}
		id := c.b.Editor.InsertAtEndOf(c.cur, ir.Instruction{
			Kind: ir.Call{Name: v.Name, Params: args},
			Ty:   c.valueTy,
		})
		return ir.Dest(id)
	default:
		panic(fmt.Sprintf("sampleir: unreachable Expr %T", e))
	}
}
