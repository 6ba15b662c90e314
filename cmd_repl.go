package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"lox/scanner"
	"lox/token"
	"lox/value"
	"lox/vm"
)

type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Lox session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive Lox session. Globals persist for the life of the
  session; a line with balanced braces runs as soon as it is entered, an
  unbalanced '{' keeps reading until the block closes.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("Welcome to Lox.")

	heap := value.NewHeap()
	machine := vm.New(heap, os.Stdout, os.Stderr)
	defer heap.Release()

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF (Ctrl-D) or readline.ErrInterrupt (Ctrl-C)
			if err == io.EOF {
				return subcommands.ExitSuccess
			}
			buf.Reset()
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)

		source := buf.String()
		if !isInputReady(source) {
			continue
		}

		machine.Interpret(source)
		buf.Reset()
	}
}

// isInputReady reports whether source has a balanced set of braces, so the
// REPL knows to keep prompting for more lines of a multi-line block (an
// `if`, a `while`, a function body) instead of feeding a truncated chunk to
// the compiler.
func isInputReady(source string) bool {
	depth := 0
	s := scanner.New(source)
	for {
		tok := s.ScanToken()
		switch tok.Kind {
		case token.LeftBrace:
			depth++
		case token.RightBrace:
			depth--
		case token.EOF:
			return depth <= 0
		}
	}
}
