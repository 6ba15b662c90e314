package debug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lox/compiler"
	"lox/debug"
	"lox/value"
)

// This exercises the compiler and disassembler together end to end, so the
// listing reflects real emitted bytecode rather than a hand-assembled
// chunk. testify's require gives a clearer failure message than a raw
// t.Fatalf chain once several conditions are checked against one listing.
func TestDisassembleCompiledProgram(t *testing.T) {
	heap := value.NewHeap()
	fn, errs := compiler.Compile(`
		fun greet(name) {
			return "hi " + name;
		}
		print greet("lox");
	`, heap)
	require.Nil(t, errs)
	require.NotNil(t, fn)

	var buf strings.Builder
	debug.DisassembleChunk(&buf, fn.Chunk, "script")
	out := buf.String()

	require.Contains(t, out, "OP_CONSTANT")
	require.Contains(t, out, "OP_CALL")
	require.Contains(t, out, "OP_PRINT")
	require.Contains(t, out, "OP_RETURN")
}
