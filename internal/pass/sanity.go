package pass

import (
	"fmt"
	"sort"

	"tacir/internal/ir"
)

// SanityResult is published into the pipeline's Env by SanityCheck: a
// per-function validity boolean plus human-readable problem descriptions,
// for CLI/debugging use (spec §4.5.1 asks only for the boolean; the
// descriptions are additive).
type SanityResult struct {
	Valid    map[string]bool
	Problems map[string][]string
}

// IsValid reports whether function name was found valid by the most
// recent SanityCheck run, defaulting to false if it was never checked.
func (r SanityResult) IsValid(name string) bool { return r.Valid[name] }

// SanityCheck walks every function, recording which instruction slots are
// defined and which are used, and asserting uses ⊆ defs and that every
// branch target names a live block. It never panics — an invalid
// function is recorded as such so later passes (and the CLI) can still
// run for debugging, rather than aborting the whole pipeline.
type SanityCheck struct {
	result   SanityResult
	declared map[ir.InstId]bool
	used     map[ir.InstId]bool
	problems []string
}

func (s *SanityCheck) Name() string       { return "sanity-check" }
func (s *SanityCheck) EditsProgram() bool { return false }

func (s *SanityCheck) Reset() {
	s.declared = map[ir.InstId]bool{}
	s.used = map[ir.InstId]bool{}
	s.problems = nil
}

func (s *SanityCheck) Initialize(env *Env, _ *ir.Program) {
	s.result = SanityResult{Valid: map[string]bool{}, Problems: map[string][]string{}}
}

func (s *SanityCheck) OptimizeFunc(env *Env, f *ir.Function) {
	for _, id := range f.AllInstIDs() {
		s.declared[id] = true
	}
	blockIDs := map[ir.BlockId]bool{}
	for _, bb := range f.AllBlockIDs() {
		blockIDs[bb] = true
	}

	for _, id := range f.AllInstIDs() {
		for _, v := range f.Inst(id).Operands() {
			if v.IsDest() {
				s.used[v.DestID()] = true
			}
		}
	}
	for id := range s.used {
		if !s.declared[id] {
			s.problems = append(s.problems, fmt.Sprintf("instruction %s is used but never defined", id))
		}
	}

	for _, bb := range f.BBIter() {
		for _, target := range f.BB(bb).Branch.Targets() {
			if !blockIDs[target] {
				s.problems = append(s.problems, fmt.Sprintf("block %s branches to undeclared block %s", bb, target))
			}
		}
	}

	sort.Strings(s.problems)
	s.result.Valid[f.Name] = len(s.problems) == 0
	if len(s.problems) > 0 {
		s.result.Problems[f.Name] = append([]string(nil), s.problems...)
	}
}

func (s *SanityCheck) Finalize(env *Env, _ *ir.Program) {
	Set(env, s.result)
}
