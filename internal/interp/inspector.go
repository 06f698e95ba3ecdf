package interp

import (
	"log"
	"time"

	"tacir/internal/ir"
)

// Inspector observes a Machine's execution without altering it (spec
// §4.7). Implementations may be chained on a single Machine via
// AddInspector; each hook fires synchronously on the executing
// goroutine.
type Inspector interface {
	// BeforeInst fires just before inst runs in frame fr.
	BeforeInst(inst *ir.Instruction, fr *Frame)
	// BeforeBranch fires just before a block's terminator runs in frame fr.
	BeforeBranch(branch ir.Branch, fr *Frame)
	// BeforeCall fires just before a function is entered with params.
	BeforeCall(params []int64, fn *ir.Function)
	// BeforeRet fires just before a frame's Return terminator hands
	// control back to its caller.
	BeforeRet(fr *Frame)
}

// CountingInspector tallies instructions executed, branches taken, and
// calls entered, for `--inst-count`-style reporting.
type CountingInspector struct {
	Insts   int64
	Branches int64
	Calls   int64
	Returns int64
}

func (c *CountingInspector) BeforeInst(*ir.Instruction, *Frame)   { c.Insts++ }
func (c *CountingInspector) BeforeBranch(ir.Branch, *Frame)       { c.Branches++ }
func (c *CountingInspector) BeforeCall([]int64, *ir.Function)     { c.Calls++ }
func (c *CountingInspector) BeforeRet(*Frame)                     { c.Returns++ }

// TracingInspector logs every instruction, branch, call, and return
// through the standard logger, for step-by-step execution traces.
type TracingInspector struct {
	Logger *log.Logger
}

// NewTracingInspector returns a TracingInspector writing through logger,
// or through log.Default() if logger is nil.
func NewTracingInspector(logger *log.Logger) *TracingInspector {
	if logger == nil {
		logger = log.Default()
	}
	return &TracingInspector{Logger: logger}
}

func (t *TracingInspector) BeforeInst(inst *ir.Instruction, fr *Frame) {
	id, _ := fr.Inst()
	t.Logger.Printf("%s: %s = %T", fr.Func().Name, id, inst.Kind)
}

func (t *TracingInspector) BeforeBranch(branch ir.Branch, fr *Frame) {
	t.Logger.Printf("%s: bb%s -> %T", fr.Func().Name, fr.Block(), branch)
}

func (t *TracingInspector) BeforeCall(params []int64, fn *ir.Function) {
	t.Logger.Printf("call %s%v", fn.Name, params)
}

func (t *TracingInspector) BeforeRet(fr *Frame) {
	t.Logger.Printf("%s: return", fr.Func().Name)
}

// ProfilingInspector accumulates wall-clock time spent inside each
// function across every call, including time spent in callees (a call's
// clock keeps running while a callee's own entry is separately timed).
type ProfilingInspector struct {
	Total map[string]time.Duration

	starts []time.Time
	names  []string
}

// NewProfilingInspector returns an empty ProfilingInspector.
func NewProfilingInspector() *ProfilingInspector {
	return &ProfilingInspector{Total: map[string]time.Duration{}}
}

func (p *ProfilingInspector) BeforeInst(*ir.Instruction, *Frame) {}
func (p *ProfilingInspector) BeforeBranch(ir.Branch, *Frame)     {}

func (p *ProfilingInspector) BeforeCall(_ []int64, fn *ir.Function) {
	p.starts = append(p.starts, timeNow())
	p.names = append(p.names, fn.Name)
}

func (p *ProfilingInspector) BeforeRet(fr *Frame) {
	n := len(p.starts) - 1
	if n < 0 {
		return
	}
	elapsed := timeNow().Sub(p.starts[n])
	p.starts = p.starts[:n]
	name := p.names[n]
	p.names = p.names[:n]
	p.Total[name] += elapsed
}

// timeNow is a thin indirection over time.Now, the clock ProfilingInspector
// reads.
var timeNow = time.Now
