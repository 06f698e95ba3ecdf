// Package pass provides the pass/pipeline infrastructure the optimizer
// (package opt) and the driver run against: a pass is named, declares
// whether it mutates the program, and runs against a shared Env (spec
// §4.5). Passes never talk to each other directly — only through Env.
package pass

import (
	"fmt"
	"sort"

	"tacir/internal/ir"
)

// Pass is the single abstract capability the pipeline schedules.
type Pass interface {
	Name() string
	EditsProgram() bool
	Run(env *Env, prog *ir.Program)
}

// FunctionOptimizer is a pass specialization that runs once per function,
// with Reset called between functions so a stateful optimizer (one that
// accumulates per-function scratch data) starts clean each time.
type FunctionOptimizer interface {
	Name() string
	EditsProgram() bool
	Reset()
	OptimizeFunc(env *Env, f *ir.Function)
}

// Initializer is an optional FunctionOptimizer capability run once before
// any function is visited.
type Initializer interface {
	Initialize(env *Env, prog *ir.Program)
}

// Finalizer is an optional FunctionOptimizer capability run once after
// every function has been visited.
type Finalizer interface {
	Finalize(env *Env, prog *ir.Program)
}

// funcOptimizerPass adapts a FunctionOptimizer into a Pass by driving it
// across every function in the program, in BBIter-independent program
// order (the order functions appear in Program.Functions).
type funcOptimizerPass struct {
	opt FunctionOptimizer
}

// AsPass wraps a FunctionOptimizer so it can be registered on a Pipeline
// as an ordinary Pass. Most FunctionOptimizers never need to implement
// Pass directly — the pipeline always goes through this wrapper.
func AsPass(opt FunctionOptimizer) Pass {
	return &funcOptimizerPass{opt: opt}
}

func (p *funcOptimizerPass) Name() string       { return p.opt.Name() }
func (p *funcOptimizerPass) EditsProgram() bool { return p.opt.EditsProgram() }

func (p *funcOptimizerPass) Run(env *Env, prog *ir.Program) {
	if init, ok := p.opt.(Initializer); ok {
		init.Initialize(env, prog)
	}
	for _, f := range prog.Functions {
		p.opt.Reset()
		p.opt.OptimizeFunc(env, f)
	}
	if fin, ok := p.opt.(Finalizer); ok {
		fin.Finalize(env, prog)
	}
}

// Pipeline stores passes by name (registering under a name already taken
// replaces the previous pass) and runs them in whatever order the driver
// asks for, threading a single Env across the whole sequence.
type Pipeline struct {
	env    *Env
	passes map[string]Pass
}

// NewPipeline creates an empty pipeline with a fresh Env.
func NewPipeline() *Pipeline {
	return &Pipeline{env: NewEnv(), passes: map[string]Pass{}}
}

// Env returns the pipeline's shared environment.
func (p *Pipeline) Env() *Env { return p.env }

// AddPass registers pass under its own name.
func (p *Pipeline) AddPass(pass Pass) { p.passes[pass.Name()] = pass }

// AddFunctionOptimizer registers opt, wrapped into a Pass, under its own
// name.
func (p *Pipeline) AddFunctionOptimizer(opt FunctionOptimizer) {
	p.AddPass(AsPass(opt))
}

// ListPasses returns every registered pass name, sorted for determinism.
func (p *Pipeline) ListPasses() []string {
	out := make([]string, 0, len(p.passes))
	for name := range p.passes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RunPass runs the single named pass against prog, reporting whether a
// pass by that name was registered.
func (p *Pipeline) RunPass(prog *ir.Program, name string) bool {
	pass, ok := p.passes[name]
	if !ok {
		return false
	}
	pass.Run(p.env, prog)
	return true
}

// Run runs each named pass against prog in turn, in the order given.
// An unknown pass name aborts the run and returns an error; passes
// already run before that point have still taken effect.
func (p *Pipeline) Run(prog *ir.Program, names ...string) error {
	for _, name := range names {
		if !p.RunPass(prog, name) {
			return fmt.Errorf("pass: no pass registered under name %q", name)
		}
	}
	return nil
}
