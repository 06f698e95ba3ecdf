// Command tac-vm interprets a program already in the IR text format
// directly, without any optimization pipeline (spec §6) — the
// standalone counterpart to tacc's `--do run`, for running programs a
// pass pipeline has already been applied to and serialized to disk.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"tacir/internal/cli"
	"tacir/internal/interp"
	"tacir/internal/text"
)

const usage = "usage: tac-vm <path> [--entry-point <name>] [--params <int>...] [--inst-count]"

type options struct {
	path       string
	entryPoint string
	params     []int64
	instCount  bool
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
	o := options{entryPoint: "main"}
	if len(args) == 0 {
		return o, fmt.Errorf("missing input path")
	}
	o.path = args[0]
	args = args[1:]

	for i := 0; i < len(args); i++ {
		switch args[i] {
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
		case "--inst-count":
			o.instCount = true
		default:
			return o, fmt.Errorf("unrecognized flag %q", args[i])
		}
	}
	return o, nil
}

// run returns the process exit code: 0 success, 1 I/O failure,
// 2 parse failure, 3 a halted or missing run.
func run(o options, source string) int {
	prog, errs := text.Parse(source)
	if len(errs) > 0 {
		cli.ReportParseErrors(source, errs)
		return 2
	}

	if prog.FuncByName(o.entryPoint) == nil {
		color.Red("no such function %q", o.entryPoint)
		return 3
	}

	m := interp.New(prog)
	var counter *interp.CountingInspector
	if o.instCount {
		counter = &interp.CountingInspector{}
		m.AddInspector(counter)
	}

	v, hasValue, err := m.RunFunc(o.entryPoint, o.params)
	cli.ReportRunResult(o.entryPoint, v, hasValue, err)

	if counter != nil {
		fmt.Printf("instructions executed: %d\n", counter.Insts)
	}

	if err != nil {
		return 3
	}
	return 0
}
