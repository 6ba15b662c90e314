package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"lox/value"
	"lox/vm"
)

// Exit codes a run follows conventionally for a failing compile vs. a
// failing runtime: 65 (EX_DATAERR) for bad input, 70 (EX_SOFTWARE) for a
// fault during execution.
const (
	exitDataErr  = 65
	exitSoftware = 70
)

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Lox source from a file" }
func (*runCmd) Usage() string {
	return `run <path>:
  Compile and execute a Lox source file.
`
}
func (*runCmd) SetFlags(f *flag.FlagSet) {}

func (*runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 No source file provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	heap := value.NewHeap()
	machine := vm.New(heap, os.Stdout, os.Stderr)
	defer heap.Release()

	switch machine.Interpret(string(data)) {
	case vm.ResultOk:
		return subcommands.ExitSuccess
	case vm.ResultCompileError:
		return exitDataErr
	default:
		return exitSoftware
	}
}
