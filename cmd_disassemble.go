package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"lox/compiler"
	"lox/debug"
	"lox/value"
)

// disassembleCmd compiles one or more source files without running them and
// prints their bytecode listing. Multiple files are compiled and
// disassembled concurrently since each file is wholly independent: its own
// heap, its own chunk, no shared state to race on.
type disassembleCmd struct{}

func (*disassembleCmd) Name() string     { return "disassemble" }
func (*disassembleCmd) Synopsis() string { return "Compile source files and print their bytecode" }
func (*disassembleCmd) Usage() string {
	return `disassemble <path>...:
  Compile one or more Lox source files and print the disassembled bytecode
  for each, without executing any of them.
`
}
func (*disassembleCmd) SetFlags(f *flag.FlagSet) {}

func (*disassembleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	paths := f.Args()
	if len(paths) < 1 {
		fmt.Fprintln(os.Stderr, "💥 No source file provided")
		return subcommands.ExitUsageError
	}

	listings := make([]string, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			listing, err := disassembleFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			listings[i] = listing
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	for _, listing := range listings {
		fmt.Print(listing)
	}
	return subcommands.ExitSuccess
}

func disassembleFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	heap := value.NewHeap()
	defer heap.Release()

	fn, errs := compiler.Compile(string(data), heap)
	if errs != nil {
		msg := ""
		for _, e := range errs {
			msg += e.Error() + "\n"
		}
		return "", fmt.Errorf("compile error:\n%s", msg)
	}

	var buf strings.Builder
	debug.DisassembleChunk(&buf, fn.Chunk, path)
	return buf.String(), nil
}
