package text

import (
	"fmt"
	"strconv"
	"strings"

	"tacir/internal/ir"
)

// numbering assigns each live block and instruction of a function a dense,
// encounter-order index — the canonical "N" the text format uses — rather
// than exposing the underlying arena slot, which has no reason to be
// dense or stable across edits.
type numbering struct {
	blocks map[ir.BlockId]int
	insts  map[ir.InstId]int
}

func number(f *ir.Function) numbering {
	n := numbering{blocks: map[ir.BlockId]int{}, insts: map[ir.InstId]int{}}
	for _, bb := range f.BBIter() {
		n.blocks[bb] = len(n.blocks)
		blk := f.BB(bb)
		for cur := blk.Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
			n.insts[cur] = len(n.insts)
		}
	}
	return n
}

// Print renders prog as canonical IR text: printer(parser(x)) == x holds
// for any x this package produced, since block/instruction numbering is
// always recomputed in encounter order rather than carried over from
// whatever arena slots happened to be live.
func Print(prog *ir.Program) string {
	var b strings.Builder
	for i, f := range prog.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		printFunction(&b, f)
	}
	return b.String()
}

func printFunction(b *strings.Builder, f *ir.Function) {
	n := number(f)
	fmt.Fprintf(b, "(fn %s (", f.Name)
	for i, pty := range f.Ty.Params() {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(pty.String())
	}
	fmt.Fprintf(b, ") %s\n", f.Ty.Return().String())

	for i, bb := range f.BBIter() {
		if i > 0 {
			b.WriteString("\n")
		}
		printBlock(b, f, bb, n)
	}
	b.WriteString(")\n")
}

func printBlock(b *strings.Builder, f *ir.Function, bb ir.BlockId, n numbering) {
	blk := f.BB(bb)
	fmt.Fprintf(b, "  (bb %d (\n", n.blocks[bb])
	for cur := blk.Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
		printInst(b, f.Inst(cur), n.insts[cur], n)
		b.WriteString("\n")
	}
	b.WriteString("  ) ")
	printBranch(b, blk.Branch, n)
	b.WriteString(")\n")
}

func printInst(b *strings.Builder, inst *ir.Instruction, id int, n numbering) {
	fmt.Fprintf(b, "    (%%%d %s ", id, inst.Ty.String())
	switch k := inst.Kind.(type) {
	case ir.Binary:
		fmt.Fprintf(b, "%s %s %s", k.Op.String(), printValue(k.Lhs, n), printValue(k.Rhs, n))
	case ir.Call:
		fmt.Fprintf(b, "call %s (", k.Name)
		for i, v := range k.Params {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(printValue(v, n))
		}
		b.WriteString(")")
	case ir.Param:
		fmt.Fprintf(b, "param %d", k.Index)
	case ir.Phi:
		b.WriteString("phi")
		for _, bid := range sortedBlockKeys(k.Operands, n) {
			fmt.Fprintf(b, " (bb %d %%%d)", n.blocks[bid], n.insts[k.Operands[bid]])
		}
	case ir.Assign:
		b.WriteString(printValue(k.Src, n))
	default:
		panic("text: unreachable InstKind")
	}
	b.WriteString(")")
}

func printValue(v ir.Value, n numbering) string {
	if v.IsImm() {
		return strconv.FormatInt(v.ImmValue(), 10)
	}
	return fmt.Sprintf("%%%d", n.insts[v.DestID()])
}

func printBranch(b *strings.Builder, br ir.Branch, n numbering) {
	switch k := br.(type) {
	case ir.Return:
		if k.HasValue {
			fmt.Fprintf(b, "(return %s)", printValue(k.Value, n))
		} else {
			b.WriteString("(return)")
		}
	case ir.Jump:
		fmt.Fprintf(b, "(br bb %d)", n.blocks[k.Target])
	case ir.CondJump:
		fmt.Fprintf(b, "(brif %s bb %d bb %d)", printValue(k.Cond, n), n.blocks[k.IfTrue], n.blocks[k.IfFalse])
	case ir.Unreachable:
		b.WriteString("(unreachable)")
	default:
		panic("text: unreachable Branch")
	}
}

// sortedBlockKeys orders a phi's operand blocks by their canonical number,
// so printing is deterministic regardless of Go's randomized map order.
func sortedBlockKeys(m map[ir.BlockId]ir.InstId, n numbering) []ir.BlockId {
	out := make([]ir.BlockId, 0, len(m))
	for bid := range m {
		out = append(out, bid)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && n.blocks[out[j-1]] > n.blocks[out[j]]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// PrettyPrint renders prog with blocks and instructions aligned into
// columns for human reading. It is not fed back into Parse — only
// Print's output is required to round-trip.
func PrettyPrint(prog *ir.Program) string {
	var b strings.Builder
	for i, f := range prog.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		prettyFunction(&b, f)
	}
	return b.String()
}

func prettyFunction(b *strings.Builder, f *ir.Function) {
	n := number(f)
	fmt.Fprintf(b, "fn %s -> %s\n", f.Name, f.Ty.Return().String())
	for _, bb := range f.BBIter() {
		blk := f.BB(bb)
		fmt.Fprintf(b, "bb%-4d", n.blocks[bb])
		b.WriteString(":\n")
		lines := make([][2]string, 0)
		for cur := blk.Head; !cur.IsZero(); cur = f.Tac(cur).Next() {
			lines = append(lines, [2]string{fmt.Sprintf("%%%d", n.insts[cur]), prettyInstBody(f.Inst(cur), n)})
		}
		width := 0
		for _, l := range lines {
			if len(l[0]) > width {
				width = len(l[0])
			}
		}
		for _, l := range lines {
			fmt.Fprintf(b, "    %-*s = %s\n", width, l[0], l[1])
		}
		fmt.Fprintf(b, "    %s\n", prettyBranch(blk.Branch, n))
	}
}

func prettyInstBody(inst *ir.Instruction, n numbering) string {
	var buf strings.Builder
	switch k := inst.Kind.(type) {
	case ir.Binary:
		fmt.Fprintf(&buf, "%s %s %s : %s", k.Op.String(), printValue(k.Lhs, n), printValue(k.Rhs, n), inst.Ty.String())
	case ir.Call:
		fmt.Fprintf(&buf, "call %s(", k.Name)
		for i, v := range k.Params {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(printValue(v, n))
		}
		fmt.Fprintf(&buf, ") : %s", inst.Ty.String())
	case ir.Param:
		fmt.Fprintf(&buf, "param %d : %s", k.Index, inst.Ty.String())
	case ir.Phi:
		buf.WriteString("phi [")
		for i, bid := range sortedBlockKeys(k.Operands, n) {
			if i > 0 {
				buf.WriteString(", ")
			}
			fmt.Fprintf(&buf, "bb%d: %%%d", n.blocks[bid], n.insts[k.Operands[bid]])
		}
		fmt.Fprintf(&buf, "] : %s", inst.Ty.String())
	case ir.Assign:
		fmt.Fprintf(&buf, "%s : %s", printValue(k.Src, n), inst.Ty.String())
	}
	return buf.String()
}

func prettyBranch(br ir.Branch, n numbering) string {
	switch k := br.(type) {
	case ir.Return:
		if k.HasValue {
			return "return " + printValue(k.Value, n)
		}
		return "return"
	case ir.Jump:
		return fmt.Sprintf("br bb%d", n.blocks[k.Target])
	case ir.CondJump:
		return fmt.Sprintf("brif %s -> bb%d / bb%d", printValue(k.Cond, n), n.blocks[k.IfTrue], n.blocks[k.IfFalse])
	case ir.Unreachable:
		return "unreachable"
	default:
		return "?"
	}
}
