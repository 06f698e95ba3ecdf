// Package cli holds the diagnostic presentation shared by the tacc and
// tac-vm binaries: caret-style parse-error pointers, sanity-check
// reports, and interpreter result lines, all via github.com/fatih/color
// (spec §7, grounded in cmd/kanso-cli/main.go's reportParseError).
package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"tacir/internal/interp"
	"tacir/internal/pass"
	"tacir/internal/text"
)

// ReportParseErrors prints every parse error in errs against source,
// caret-style, the same way cmd/kanso-cli/main.go's reportParseError
// points at a participle.Error's position.
func ReportParseErrors(source string, errs []*text.ParseError) {
	lines := strings.Split(source, "\n")
	for _, e := range errs {
		pos := e.Span.Start
		color.Red("parse error: %s", e.Error())
		if pos.Line <= 0 || pos.Line > len(lines) {
			continue
		}
		line := lines[pos.Line-1]
		fmt.Println(line)
		caret := strings.Repeat(" ", max(pos.Column-1, 0)) + "^"
		color.HiRed(caret)
	}
}

// ReportSanity prints one line per function the sanity-check pass
// recorded: green "ok" when valid, red with its problem list otherwise.
// It reports whether every function passed.
func ReportSanity(result pass.SanityResult) bool {
	names := make([]string, 0, len(result.Valid))
	for name := range result.Valid {
		names = append(names, name)
	}
	sort.Strings(names)

	allValid := true
	for _, name := range names {
		if result.Valid[name] {
			color.Green("✓ %s: ok", name)
			continue
		}
		allValid = false
		color.Red("✗ %s: failed sanity check", name)
		for _, problem := range result.Problems[name] {
			fmt.Printf("    %s\n", problem)
		}
	}
	return allValid
}

// ReportRunResult prints the outcome of running a function through the
// interpreter: green with the returned value on success, red with the
// halt reason otherwise.
func ReportRunResult(name string, v int64, hasValue bool, err error) {
	if err != nil {
		var halt *interp.Halt
		if errors.As(err, &halt) {
			color.Red("<halted> %s: %s", name, halt.Reason)
			return
		}
		color.Red("<halted> %s: %s", name, err)
		return
	}
	if !hasValue {
		color.Green("%s -> (no value)", name)
		return
	}
	color.Green("%s -> %d", name, v)
}
