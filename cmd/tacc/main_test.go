package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const addOne = `(fn add_one (i32) i32
  (bb 0 (
    (%0 i32 param 0)
    (%1 i32 add %0 1)
  ) (return %1)))
`

const badSyntax = `(bogus foo () i32)`

func TestParseArgsDefaults(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac"})
	require.NoError(t, err)
	require.Equal(t, "prog.tac", o.path)
	require.Equal(t, "compile", o.do)
	require.Equal(t, "main", o.entryPoint)
	require.NotEmpty(t, o.opts)
}

func TestParseArgsRejectsUnknownDo(t *testing.T) {
	_, err := parseArgs([]string{"prog.tac", "--do", "bogus"})
	require.Error(t, err)
}

func TestParseArgsCollectsRepeatableOptInOrder(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac", "--opt", "const-folding", "--opt", "dead-code-eliminator"})
	require.NoError(t, err)
	require.Equal(t, []string{"const-folding", "dead-code-eliminator"}, o.opts)
}

func TestParseArgsConsumesTrailingParams(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac", "--entry-point", "fib", "--params", "1", "2", "3"})
	require.NoError(t, err)
	require.Equal(t, "fib", o.entryPoint)
	require.Equal(t, []int64{1, 2, 3}, o.params)
}

func TestRunCompileSucceedsOnWellFormedProgram(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac", "--do", "compile"})
	require.NoError(t, err)
	require.Equal(t, 0, run(o, addOne))
}

func TestRunParseFailsOnMalformedProgram(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac", "--do", "parse"})
	require.NoError(t, err)
	require.Equal(t, 2, run(o, badSyntax))
}

func TestRunRunsToCompletion(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac", "--do", "run", "--entry-point", "add_one", "--params", "41"})
	require.NoError(t, err)
	require.Equal(t, 0, run(o, addOne))
}

func TestRunHaltsOnMissingEntryPoint(t *testing.T) {
	o, err := parseArgs([]string{"prog.tac", "--do", "run", "--entry-point", "nope"})
	require.NoError(t, err)
	require.Equal(t, 3, run(o, addOne))
}
