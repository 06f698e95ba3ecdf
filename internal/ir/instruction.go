package ir

import (
	"fmt"

	"tacir/internal/types"
)

// BinOp enumerates the binary operators the IR knows about.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Lt
	Gt
	Le
	Ge
	Eq
	Ne
)

var binOpNames = map[BinOp]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div",
	Lt: "lt", Gt: "gt", Le: "le", Ge: "ge", Eq: "eq", Ne: "ne",
}

func (op BinOp) String() string {
	if s, ok := binOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinOp(%d)", int(op))
}

// IsComparison reports whether op produces a 0/1 boolean result.
func (op BinOp) IsComparison() bool {
	switch op {
	case Lt, Gt, Le, Ge, Eq, Ne:
		return true
	default:
		return false
	}
}

// InstKind is the tagged union of instruction payloads (spec §3). It is a
// closed set: Binary, Call, Assign, Phi, Param.
type InstKind interface {
	isInstKind()
}

// Binary is a two-operand arithmetic or comparison instruction.
type Binary struct {
	Op       BinOp
	Lhs, Rhs Value
}

func (Binary) isInstKind() {}

// Call invokes a named function with the given actual parameters.
type Call struct {
	Name   string
	Params []Value
}

func (Call) isInstKind() {}

// Assign is an SSA copy, used for folded constants and trivial-phi
// collapse.
type Assign struct {
	Src Value
}

func (Assign) isInstKind() {}

// Phi selects a value depending on which predecessor control arrived from.
// An empty Operands map denotes a dead value (spec §3).
type Phi struct {
	Operands map[BlockId]InstId
}

func (Phi) isInstKind() {}

// Param reads the index-th actual parameter (ABI read).
type Param struct {
	Index int
}

func (Param) isInstKind() {}

// Instruction pairs an instruction's payload with its result type.
type Instruction struct {
	Kind InstKind
	Ty   types.Ty
}

// Operands returns the Values this instruction reads, in a stable order.
// Used by passes that need to walk the data-flow graph generically.
func (inst Instruction) Operands() []Value {
	switch k := inst.Kind.(type) {
	case Binary:
		return []Value{k.Lhs, k.Rhs}
	case Call:
		return append([]Value(nil), k.Params...)
	case Assign:
		return []Value{k.Src}
	case Phi:
		out := make([]Value, 0, len(k.Operands))
		for _, id := range k.Operands {
			out = append(out, Dest(id))
		}
		return out
	case Param:
		return nil
	default:
		panic("ir: unreachable InstKind")
	}
}
