package opt

import (
	"tacir/internal/ir"
	"tacir/internal/pass"
)

// ConstFolding folds constant subexpressions, applies a handful of
// algebraic identities, and performs a bounded one-level reassociation of
// additive chains (spec §4.5.2). It visits each instruction once per
// function, in block order; any new instructions it needs are spliced in
// immediately before the instruction being folded so later instructions
// in the same pass see them. Running it twice on already-folded code is
// a no-op.
type ConstFolding struct{}

func (ConstFolding) Name() string       { return "const-folding" }
func (ConstFolding) EditsProgram() bool { return true }
func (ConstFolding) Reset()             {}

func (ConstFolding) OptimizeFunc(_ *pass.Env, f *ir.Function) {
	if f.FirstBlock().IsZero() {
		return
	}
	for _, bb := range f.BBIter() {
		for cur := f.BB(bb).Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
			inst := f.Inst(cur)
			switch k := inst.Kind.(type) {
			case ir.Assign:
				inst.Kind = ir.Assign{Src: canonicalize(f, k.Src)}
			case ir.Binary:
				foldBinary(f, cur, inst, k)
			}
		}
	}
}

// canonicalize chases a value through a chain of Assigns down to a
// concrete immediate or the first non-Assign definition.
func canonicalize(f *ir.Function, v ir.Value) ir.Value {
	for v.IsDest() {
		a, ok := f.Inst(v.DestID()).Kind.(ir.Assign)
		if !ok {
			return v
		}
		v = a.Src
	}
	return v
}

func sameDest(a, b ir.Value) bool {
	return a.IsDest() && b.IsDest() && a.DestID() == b.DestID()
}

func evalBinary(op ir.BinOp, lhs, rhs int64) (int64, bool) {
	b2i := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}
	switch op {
	case ir.Add:
		return lhs + rhs, true
	case ir.Sub:
		return lhs - rhs, true
	case ir.Mul:
		return lhs * rhs, true
	case ir.Div:
		if rhs == 0 {
			return 0, false
		}
		return lhs / rhs, true
	case ir.Lt:
		return b2i(lhs < rhs), true
	case ir.Gt:
		return b2i(lhs > rhs), true
	case ir.Le:
		return b2i(lhs <= rhs), true
	case ir.Ge:
		return b2i(lhs >= rhs), true
	case ir.Eq:
		return b2i(lhs == rhs), true
	case ir.Ne:
		return b2i(lhs != rhs), true
	default:
		panic("opt: unreachable BinOp")
	}
}

// algebraicIdentity recognizes the fixed set of non-constant simplifications
// spec §4.5.2 names: x+0, 0+x, x-0, 1*x, x*1, x/1, 0*_, _*0, 0/_, x-x, x/x.
func algebraicIdentity(op ir.BinOp, lhs, rhs ir.Value) (ir.Value, bool) {
	switch op {
	case ir.Add:
		if lhs.IsImm() && lhs.ImmValue() == 0 {
			return rhs, true
		}
		if rhs.IsImm() && rhs.ImmValue() == 0 {
			return lhs, true
		}
	case ir.Sub:
		if rhs.IsImm() && rhs.ImmValue() == 0 {
			return lhs, true
		}
		if sameDest(lhs, rhs) {
			return ir.Imm(0), true
		}
	case ir.Mul:
		if lhs.IsImm() && lhs.ImmValue() == 0 {
			return ir.Imm(0), true
		}
		if rhs.IsImm() && rhs.ImmValue() == 0 {
			return ir.Imm(0), true
		}
		if lhs.IsImm() && lhs.ImmValue() == 1 {
			return rhs, true
		}
		if rhs.IsImm() && rhs.ImmValue() == 1 {
			return lhs, true
		}
	case ir.Div:
		if lhs.IsImm() && lhs.ImmValue() == 0 {
			return ir.Imm(0), true
		}
		if rhs.IsImm() && rhs.ImmValue() == 1 {
			return lhs, true
		}
		if sameDest(lhs, rhs) {
			return ir.Imm(1), true
		}
	}
	return ir.Value{}, false
}

func foldBinary(f *ir.Function, id ir.InstId, inst *ir.Instruction, k ir.Binary) {
	lhs := canonicalize(f, k.Lhs)
	rhs := canonicalize(f, k.Rhs)

	if lhs.IsImm() && rhs.IsImm() {
		if v, ok := evalBinary(k.Op, lhs.ImmValue(), rhs.ImmValue()); ok {
			inst.Kind = ir.Assign{Src: ir.Imm(v)}
			return
		}
		inst.Kind = ir.Binary{Op: k.Op, Lhs: lhs, Rhs: rhs}
		return
	}

	if v, ok := algebraicIdentity(k.Op, lhs, rhs); ok {
		inst.Kind = ir.Assign{Src: v}
		return
	}

	if k.Op != ir.Add && k.Op != ir.Sub {
		inst.Kind = ir.Binary{Op: k.Op, Lhs: lhs, Rhs: rhs}
		return
	}

	reassociateAdditive(f, id, inst, k.Op, lhs, rhs)
}

// additiveTerm is one signed operand of a flattened additive expression.
type additiveTerm struct {
	val  ir.Value
	sign int64
}

// flattenAdditive flattens v one level: if v is itself the result of an
// Add/Sub Binary, it returns that instruction's two (canonicalized,
// signed) operands instead of v itself. sign is the coefficient v
// contributes to its parent expression.
func flattenAdditive(f *ir.Function, v ir.Value, sign int64) []additiveTerm {
	if v.IsDest() {
		if b, ok := f.Inst(v.DestID()).Kind.(ir.Binary); ok && (b.Op == ir.Add || b.Op == ir.Sub) {
			rhsSign := sign
			if b.Op == ir.Sub {
				rhsSign = -sign
			}
			return []additiveTerm{
				{val: canonicalize(f, b.Lhs), sign: sign},
				{val: canonicalize(f, b.Rhs), sign: rhsSign},
			}
		}
	}
	return []additiveTerm{{val: v, sign: sign}}
}

// reassociateAdditive flattens an Add/Sub instruction's operands at most
// one level into up to four signed terms, sums the constant terms, and
// re-emits the result as the smallest equivalent chain: a bare immediate
// when every term was constant, one new Binary when a single variable
// term survives, or up to two new Binarys — an inner x±y and an outer
// const±inner — when two do.
func reassociateAdditive(f *ir.Function, id ir.InstId, inst *ir.Instruction, op ir.BinOp, lhs, rhs ir.Value) {
	rhsSign := int64(1)
	if op == ir.Sub {
		rhsSign = -1
	}
	terms := append(flattenAdditive(f, lhs, 1), flattenAdditive(f, rhs, rhsSign)...)

	if len(terms) <= 2 {
		inst.Kind = ir.Binary{Op: op, Lhs: lhs, Rhs: rhs}
		return
	}

	var constSum int64
	var vars []additiveTerm
	for _, t := range terms {
		if t.val.IsImm() {
			constSum += t.sign * t.val.ImmValue()
		} else {
			vars = append(vars, t)
		}
	}
	// With fewer than two constant terms there is nothing to combine, and
	// re-emitting would only rebuild the same const±(x±y) shape on every run.
	if len(terms)-len(vars) < 2 {
		inst.Kind = ir.Binary{Op: op, Lhs: lhs, Rhs: rhs}
		return
	}

	ty := inst.Ty
	insertBefore := func(op ir.BinOp, a, b ir.Value) ir.Value {
		newID := f.InstNew(ir.Instruction{Kind: ir.Binary{Op: op, Lhs: a, Rhs: b}, Ty: ty})
		f.InstSetBefore(id, newID)
		return ir.Dest(newID)
	}

	switch len(vars) {
	case 0:
		inst.Kind = ir.Assign{Src: ir.Imm(constSum)}
	case 1:
		v := vars[0]
		var result ir.Value
		switch {
		case v.sign >= 0 && constSum == 0:
			result = v.val
		case v.sign >= 0:
			result = insertBefore(ir.Add, ir.Imm(constSum), v.val)
		default:
			result = insertBefore(ir.Sub, ir.Imm(constSum), v.val)
		}
		inst.Kind = ir.Assign{Src: result}
	case 2:
		a, b := vars[0], vars[1]
		innerOp := ir.Add
		if a.sign != b.sign {
			innerOp = ir.Sub
		}
		inner := insertBefore(innerOp, a.val, b.val)
		var result ir.Value
		switch {
		case a.sign >= 0 && constSum == 0:
			result = inner
		case a.sign >= 0:
			result = insertBefore(ir.Add, ir.Imm(constSum), inner)
		default:
			result = insertBefore(ir.Sub, ir.Imm(constSum), inner)
		}
		inst.Kind = ir.Assign{Src: result}
	default:
		inst.Kind = ir.Binary{Op: op, Lhs: lhs, Rhs: rhs}
	}
}
