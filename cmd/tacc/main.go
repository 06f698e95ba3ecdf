// Command tacc drives the IR text format through lexing, parsing,
// optimization, and interpretation (spec §6). Flags are hand-parsed off
// os.Args, in the teacher's manner (cmd/kanso-cli/main.go does the same
// rather than reaching for a flag-parsing library).
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"tacir/internal/cli"
	"tacir/internal/interp"
	"tacir/internal/ir"
	"tacir/internal/pass"
	"tacir/internal/pass/opt"
	"tacir/internal/text"
)

const usage = "usage: tacc <path> --do {lex|parse|compile|run} [--out <path>] " +
	"[--opt <name>]... [--entry-point <name>] [--params <int>...]"

type options struct {
	path       string
	do         string
	out        string
	opts       []string
	entryPoint string
	params     []int64
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		color.Red("%s", err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	source, err := os.ReadFile(opts.path)
	if err != nil {
		color.Red("failed to read %s: %s", opts.path, err)
		os.Exit(1)
	}

	os.Exit(run(opts, string(source)))
}

func parseArgs(args []string) (options, error) {
	o := options{do: "compile", entryPoint: "main"}
	if len(args) == 0 {
		return o, fmt.Errorf("missing input path")
	}
	o.path = args[0]
	args = args[1:]

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--do":
			if i++; i >= len(args) {
				return o, fmt.Errorf("--do requires a value")
			}
			o.do = args[i]
		case "--out":
			if i++; i >= len(args) {
				return o, fmt.Errorf("--out requires a value")
			}
			o.out = args[i]
		case "--opt":
			if i++; i >= len(args) {
				return o, fmt.Errorf("--opt requires a value")
			}
			o.opts = append(o.opts, args[i])
		case "--entry-point":
			if i++; i >= len(args) {
				return o, fmt.Errorf("--entry-point requires a value")
			}
			o.entryPoint = args[i]
		case "--params":
			for i+1 < len(args) {
				v, err := strconv.ParseInt(args[i+1], 10, 64)
				if err != nil {
					break
				}
				o.params = append(o.params, v)
				i++
			}
		default:
			return o, fmt.Errorf("unrecognized flag %q", args[i])
		}
	}

	switch o.do {
	case "lex", "parse", "compile", "run":
	default:
		return o, fmt.Errorf("--do must be one of lex, parse, compile, run (got %q)", o.do)
	}
	if len(o.opts) == 0 {
		o.opts = append([]string(nil), opt.DefaultOptOrder...)
	}
	return o, nil
}

// run returns the process exit code: 0 success, 1 I/O failure,
// 2 parse failure, 3 semantic failure.
func run(o options, source string) int {
	switch o.do {
	case "lex":
		return doLex(source, o.out)
	case "parse":
		return doParse(source, o.out)
	case "compile":
		prog, valid, code := doCompile(source, o.opts)
		if prog == nil {
			return code
		}
		return writeOutput(text.Print(prog), o.out, boolToCode(valid))
	case "run":
		prog, valid, code := doCompile(source, o.opts)
		if prog == nil {
			return code
		}
		if !valid {
			return 3
		}
		return doRun(prog, o.entryPoint, o.params)
	default:
		panic("tacc: unreachable --do value")
	}
}

func doLex(source, out string) int {
	tokens := text.NewScanner(source).ScanTokens()
	return writeOutput(fmt.Sprintf("%d tokens\n", len(tokens)), out, 0)
}

func doParse(source, out string) int {
	prog, errs := text.Parse(source)
	if len(errs) > 0 {
		cli.ReportParseErrors(source, errs)
		return 2
	}
	return writeOutput(text.Print(prog), out, 0)
}

// doCompile parses source and runs optNames through a fresh pipeline.
// prog is nil only when parsing fails (code 2) or the pipeline rejects a
// pass name (code 1), in which case code is meaningful; a successful run always returns a non-nil prog even when
// the sanity check (if it ran) finds the program invalid.
func doCompile(source string, optNames []string) (prog *ir.Program, valid bool, code int) {
	p, errs := text.Parse(source)
	if len(errs) > 0 {
		cli.ReportParseErrors(source, errs)
		return nil, false, 2
	}

	pipeline := pass.NewPipeline()
	opt.Register(pipeline)
	if err := pipeline.Run(p, optNames...); err != nil {
		color.Red("%s", err)
		return nil, false, 1
	}

	valid = true
	if result, ok := pass.Get[pass.SanityResult](pipeline.Env()); ok {
		valid = cli.ReportSanity(result)
	}
	return p, valid, 0
}

func doRun(prog *ir.Program, entryPoint string, params []int64) int {
	if prog.FuncByName(entryPoint) == nil {
		color.Red("no such function %q", entryPoint)
		return 3
	}
	m := interp.New(prog)
	v, hasValue, err := m.RunFunc(entryPoint, params)
	cli.ReportRunResult(entryPoint, v, hasValue, err)
	if err != nil {
		return 3
	}
	return 0
}

func writeOutput(s, out string, code int) int {
	if out == "" {
		fmt.Print(s)
		return code
	}
	if err := os.WriteFile(out, []byte(s), 0o644); err != nil {
		color.Red("failed to write %s: %s", out, err)
		return 1
	}
	return code
}

func boolToCode(valid bool) int {
	if valid {
		return 0
	}
	return 3
}
