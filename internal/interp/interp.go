// Package interp is a frame-per-call tree-walking executor for the IR
// (spec §4.7): no JIT, no machine code, just a direct evaluation of each
// function's instructions and branches against a per-call Frame.
package interp

import (
	"fmt"

	"tacir/internal/ir"
)

// Frame is one call's execution state: which function is running, which
// block control came from (for phi resolution) and is currently in, the
// actual parameters it was called with, and the values computed so far.
type Frame struct {
	fn     *ir.Function
	lastBB ir.BlockId
	bb     ir.BlockId
	params []int64
	vars   map[ir.InstId]int64

	// inst is the instruction about to run, or the zero InstId once the
	// block's instructions are exhausted and only the terminator remains.
	inst ir.InstId
}

// Func returns the function this frame is executing.
func (fr *Frame) Func() *ir.Function { return fr.fn }

// Block returns the block currently executing.
func (fr *Frame) Block() ir.BlockId { return fr.bb }

// LastBlock returns the block control arrived from, used to resolve phis.
func (fr *Frame) LastBlock() ir.BlockId { return fr.lastBB }

// Params returns the frame's actual parameters.
func (fr *Frame) Params() []int64 { return fr.params }

// Vars returns the values computed so far, keyed by producing instruction.
func (fr *Frame) Vars() map[ir.InstId]int64 { return fr.vars }

// Inst returns the instruction about to run, or false once the block's
// instructions are exhausted and only its terminator remains.
func (fr *Frame) Inst() (ir.InstId, bool) {
	return fr.inst, !fr.inst.IsZero()
}

// moveTo transfers control to bb. Callers are responsible for having
// already recorded the outgoing block as lastBB before calling this.
func (fr *Frame) moveTo(bb ir.BlockId) {
	fr.bb = bb
	fr.inst = fr.fn.BB(bb).Head
}

// eval resolves a Value against this frame: immediates pass through,
// Dest values are looked up in vars. The second return is false if the
// producing instruction has not run yet (a miscompiled or malformed phi).
func (fr *Frame) eval(v ir.Value) (int64, bool) {
	if v.IsImm() {
		return v.ImmValue(), true
	}
	x, ok := fr.vars[v.DestID()]
	return x, ok
}

// Halt reports that execution could not continue: a checked division by
// zero, a phi with no entry for the block control arrived from, or an
// Unreachable terminator actually reached.
type Halt struct {
	Func   string
	Reason string
}

func (h *Halt) Error() string {
	return fmt.Sprintf("interp: %s: %s", h.Func, h.Reason)
}

func halt(fn *ir.Function, reason string) *Halt {
	return &Halt{Func: fn.Name, Reason: reason}
}

// Machine runs a Program's functions against an interpreter, invoking any
// registered Inspectors at each of the hook points spec §4.7 names.
type Machine struct {
	program    *ir.Program
	stack      []*Frame
	inspectors []Inspector
}

// New creates a Machine that resolves calls against program.
func New(program *ir.Program) *Machine {
	return &Machine{program: program}
}

// AddInspector chains insp so it is notified at every hook point for the
// remainder of this Machine's calls.
func (m *Machine) AddInspector(insp Inspector) {
	m.inspectors = append(m.inspectors, insp)
}

// Stack returns the currently active call frames, outermost first.
func (m *Machine) Stack() []*Frame { return m.stack }

// RunFunc calls the function named name with params as its actual
// parameters, running it (and any functions it calls) to completion. It
// returns the returned value, or false if the function returns without a
// value. It panics if name does not exist in the program, and returns a
// *Halt error if execution cannot continue.
func (m *Machine) RunFunc(name string, params []int64) (int64, bool, error) {
	fn := m.program.FuncByName(name)
	if fn == nil {
		panic(fmt.Sprintf("interp: function %q does not exist", name))
	}
	return m.call(fn, params)
}

func (m *Machine) call(fn *ir.Function, params []int64) (int64, bool, error) {
	entry := fn.FirstBlock()
	if entry.IsZero() {
		panic(fmt.Sprintf("interp: function %q has no entry block", fn.Name))
	}

	for _, insp := range m.inspectors {
		insp.BeforeCall(params, fn)
	}

	fr := &Frame{
		fn:     fn,
		params: append([]int64(nil), params...),
		vars:   map[ir.InstId]int64{},
		bb:     entry,
		inst:   fn.BB(entry).Head,
	}
	m.stack = append(m.stack, fr)

	v, hasValue, err := m.runToReturn()

	m.stack = m.stack[:len(m.stack)-1]
	return v, hasValue, err
}

func (m *Machine) runToReturn() (int64, bool, error) {
	for {
		fr := m.stack[len(m.stack)-1]
		id, ok := fr.Inst()
		if !ok {
			v, hasValue, done, err := m.runBranch(fr)
			if err != nil {
				return 0, false, err
			}
			if done {
				return v, hasValue, nil
			}
			continue
		}
		if err := m.runInst(fr, id); err != nil {
			return 0, false, err
		}
		fr.inst = fr.fn.Tac(id).Next()
	}
}

func (m *Machine) runInst(fr *Frame, id ir.InstId) error {
	inst := fr.fn.Inst(id)

	for _, insp := range m.inspectors {
		insp.BeforeInst(inst, fr)
	}

	var (
		result   int64
		hasValue bool
		err      error
	)

	switch k := inst.Kind.(type) {
	case ir.Binary:
		result, hasValue, err = m.evalBinary(fr, k)
	case ir.Call:
		params := make([]int64, len(k.Params))
		for i, p := range k.Params {
			v, ok := fr.eval(p)
			if !ok {
				return halt(fr.fn, fmt.Sprintf("operand of call to %q not yet computed", k.Name))
			}
			params[i] = v
		}
		result, hasValue, err = m.call(m.program.FuncByName(k.Name), params)
	case ir.Assign:
		result, hasValue = fr.eval(k.Src)
		if !hasValue {
			err = halt(fr.fn, "assign of an operand not yet computed")
		}
	case ir.Phi:
		src, ok := k.Operands[fr.lastBB]
		if !ok {
			return halt(fr.fn, fmt.Sprintf("phi %s has no entry for predecessor %s", id, fr.lastBB))
		}
		result, hasValue = fr.eval(ir.Dest(src))
		if !hasValue {
			err = halt(fr.fn, "phi operand not yet computed")
		}
	case ir.Param:
		if k.Index < 0 || k.Index >= len(fr.params) {
			return halt(fr.fn, fmt.Sprintf("param %d out of range (%d actuals)", k.Index, len(fr.params)))
		}
		result, hasValue = fr.params[k.Index], true
	default:
		panic("interp: unreachable InstKind")
	}

	if err != nil {
		return err
	}
	if !hasValue {
		return halt(fr.fn, "instruction produced no value")
	}
	fr.vars[id] = result
	return nil
}

func (m *Machine) evalBinary(fr *Frame, bin ir.Binary) (int64, bool, error) {
	lhs, ok := fr.eval(bin.Lhs)
	if !ok {
		return 0, false, halt(fr.fn, "binary lhs not yet computed")
	}
	rhs, ok := fr.eval(bin.Rhs)
	if !ok {
		return 0, false, halt(fr.fn, "binary rhs not yet computed")
	}

	switch bin.Op {
	case ir.Add:
		return lhs + rhs, true, nil
	case ir.Sub:
		return lhs - rhs, true, nil
	case ir.Mul:
		return lhs * rhs, true, nil
	case ir.Div:
		if rhs == 0 {
			return 0, false, halt(fr.fn, "division by zero")
		}
		return lhs / rhs, true, nil
	case ir.Lt:
		return b2i(lhs < rhs), true, nil
	case ir.Gt:
		return b2i(lhs > rhs), true, nil
	case ir.Le:
		return b2i(lhs <= rhs), true, nil
	case ir.Ge:
		return b2i(lhs >= rhs), true, nil
	case ir.Eq:
		return b2i(lhs == rhs), true, nil
	case ir.Ne:
		return b2i(lhs != rhs), true, nil
	default:
		panic("interp: unreachable BinOp")
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// runBranch runs the current block's terminator. done is true when the
// call has returned, in which case v/hasValue carry the result.
func (m *Machine) runBranch(fr *Frame) (v int64, hasValue bool, done bool, err error) {
	fr.lastBB = fr.bb
	branch := fr.fn.BB(fr.bb).Branch

	for _, insp := range m.inspectors {
		insp.BeforeBranch(branch, fr)
	}

	switch br := branch.(type) {
	case ir.Return:
		for _, insp := range m.inspectors {
			insp.BeforeRet(fr)
		}
		if !br.HasValue {
			return 0, false, true, nil
		}
		v, hasValue = fr.eval(br.Value)
		if !hasValue {
			return 0, false, false, halt(fr.fn, "return operand not yet computed")
		}
		return v, true, true, nil

	case ir.Jump:
		fr.moveTo(br.Target)
		return 0, false, false, nil

	case ir.CondJump:
		c, ok := fr.eval(br.Cond)
		if !ok {
			return 0, false, false, halt(fr.fn, "branch condition not yet computed")
		}
		if c != 0 {
			fr.moveTo(br.IfTrue)
		} else {
			fr.moveTo(br.IfFalse)
		}
		return 0, false, false, nil

	case ir.Unreachable:
		return 0, false, false, halt(fr.fn, "reached an Unreachable terminator")

	default:
		panic("interp: unreachable Branch")
	}
}
