package opt

import "tacir/internal/pass"

// DefaultOptOrder is the CLI's default `--opt` sequence (spec §6): a
// sanity check, then const-folding and branching-simplify/dead-code
// round run twice, since branching-simplify can expose dead code that
// dead-code-elimination removes, which can in turn make branches
// foldable that weren't before.
var DefaultOptOrder = []string{
	"sanity-check",
	"const-folding",
	"branching-simplify",
	"dead-code-eliminator",
	"branching-simplify",
	"dead-code-eliminator",
}

// Register adds every pass and optimizer this package and package pass
// ship to p, under their documented names.
func Register(p *pass.Pipeline) {
	p.AddFunctionOptimizer(&pass.SanityCheck{})
	p.AddFunctionOptimizer(ConstFolding{})
	p.AddFunctionOptimizer(BranchSimplify{})
	p.AddFunctionOptimizer(DeadCodeElimination{})
}
