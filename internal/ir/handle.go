// Package ir defines the SSA data model: functions, basic blocks,
// instructions, branches, types, and values (spec §3), plus the function
// and block mutation primitives that keep their invariants intact (§4.2).
package ir

import (
	"fmt"

	"tacir/internal/arena"
)

// BlockId is an opaque handle to a basic block. The zero value is a
// sentinel that never aliases a live block.
type BlockId struct {
	arena.Key
}

func (b BlockId) String() string {
	if b.IsZero() {
		return "<nil-bb>"
	}
	return fmt.Sprintf("bb%d", b.Slot())
}

// InstId is an opaque handle to an instruction. The zero value is a
// sentinel that never aliases a live instruction.
type InstId struct {
	arena.Key
}

func (i InstId) String() string {
	if i.IsZero() {
		return "<nil-inst>"
	}
	return fmt.Sprintf("%%%d", i.Slot())
}
