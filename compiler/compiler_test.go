package compiler

import (
	"strconv"
	"strings"
	"testing"

	"lox/scanner"
	"lox/value"
)

func TestCompileSimpleExpressionStatement(t *testing.T) {
	heap := value.NewHeap()
	fn, errs := Compile("1 + 2;", heap)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if fn == nil {
		t.Fatal("expected a compiled function")
	}
	if len(fn.Chunk.Code) == 0 {
		t.Fatal("expected emitted bytecode")
	}
}

func TestCompileVarAndPrint(t *testing.T) {
	heap := value.NewHeap()
	fn, errs := Compile(`var x = 1; print x;`, heap)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !containsOp(fn.Chunk.Code, value.OpPrint) {
		t.Fatalf("expected OP_PRINT somewhere in %v", fn.Chunk.Code)
	}
}

func TestCompileMissingSemicolonReportsSyntaxError(t *testing.T) {
	heap := value.NewHeap()
	fn, errs := Compile("1 + 2", heap)
	if fn != nil {
		t.Fatal("expected nil function on compile failure")
	}
	if len(errs) == 0 {
		t.Fatal("expected at least one error")
	}
	if _, ok := errs[0].(SyntaxError); !ok {
		t.Fatalf("expected SyntaxError, got %T", errs[0])
	}
}

func TestCompileInvalidAssignmentTarget(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile("1 + 2 = 3;", heap)
	if len(errs) == 0 {
		t.Fatal("expected an error for an invalid assignment target")
	}
}

func TestCompileRedeclarationInSameScope(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(`{ var a = 1; var a = 2; }`, heap)
	if len(errs) == 0 {
		t.Fatal("expected an error for redeclaring a local in the same scope")
	}
	if _, ok := errs[0].(SemanticError); !ok {
		t.Fatalf("expected SemanticError, got %T", errs[0])
	}
}

func TestCompileReturnOutsideFunctionIsError(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(`return 1;`, heap)
	if len(errs) == 0 {
		t.Fatal("expected an error returning from top-level code")
	}
}

func TestCompileFunctionDeclarationAndCall(t *testing.T) {
	heap := value.NewHeap()
	fn, errs := Compile(`
		fun add(a, b) {
			return a + b;
		}
		print add(1, 2);
	`, heap)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !containsOp(fn.Chunk.Code, value.OpCall) {
		t.Fatalf("expected a call instruction in %v", fn.Chunk.Code)
	}
}

func TestCompileManyErrorsAreAllReported(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(`
		var a = ;
		var b = ;
	`, heap)
	if len(errs) < 2 {
		t.Fatalf("expected both malformed declarations to report, got %d errors: %v", len(errs), errs)
	}
}

// A chunk with exactly 256 constants compiles; 257 fails. Bare numeric
// expression statements each add one distinct pool entry without pulling
// in the global-name constants that var/print would also add.
func TestConstantPoolExactly256Succeeds(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(numberStatements(256), heap)
	if errs != nil {
		t.Fatalf("expected 256 constants to fit, got errors: %v", errs)
	}
}

func TestConstantPool257Fails(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(numberStatements(257), heap)
	if len(errs) == 0 {
		t.Fatal("expected an error past the 256-constant ceiling")
	}
	if !containsMessage(errs, "Too many constants in one chunk.") {
		t.Fatalf("expected the constant-pool overflow message, got: %v", errs)
	}
}

func numberStatements(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteString(".0;\n")
	}
	return b.String()
}

// Slot 0 of every funcCompiler's locals array is reserved for the callee
// itself (see newFuncCompiler), so a function's 256-slot array holds at
// most 255 user-declared names; the 256th declaration is what actually
// hits the ceiling named by the boundary (the array's 256 total entries,
// counting the reserved slot).
func TestLocalsExactly256Succeeds(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(localDecls(255), heap)
	if errs != nil {
		t.Fatalf("expected 255 declared locals (256 with the reserved slot) to fit, got errors: %v", errs)
	}
}

func TestLocals257Fails(t *testing.T) {
	heap := value.NewHeap()
	_, errs := Compile(localDecls(256), heap)
	if len(errs) == 0 {
		t.Fatal("expected an error past the 256-local ceiling")
	}
	if !containsMessage(errs, "Too many local variables in function.") {
		t.Fatalf("expected the local-overflow message, got: %v", errs)
	}
}

func localDecls(n int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < n; i++ {
		b.WriteString("var v")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" = 0;\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func containsMessage(errs []error, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e.Error(), substr) {
			return true
		}
	}
	return false
}

// patchJump/emitLoop operate on raw byte distances; driving the 65535/65536
// boundary through real source would need tens of thousands of statements,
// so these two go straight at the Parser's jump bookkeeping instead, the
// way the rest of this file drives Compile for everything else.
func TestPatchJumpExactly65535Succeeds(t *testing.T) {
	heap := value.NewHeap()
	p := &Parser{
		scanner: scanner.New(""),
		heap:    heap,
		fc:      newFuncCompiler(nil, TypeScript, "", heap),
	}
	offset := p.emitJump(value.OpJumpIfFalse)
	p.currentChunk().Code = append(p.currentChunk().Code, make([]byte, 0xffff)...)
	p.currentChunk().Lines = append(p.currentChunk().Lines, make([]int, 0xffff)...)
	p.patchJump(offset)
	if p.hadError {
		t.Fatalf("expected exactly 65535 bytes to patch cleanly, got: %v", p.errors)
	}
}

func TestPatchJump65536Fails(t *testing.T) {
	heap := value.NewHeap()
	p := &Parser{
		scanner: scanner.New(""),
		heap:    heap,
		fc:      newFuncCompiler(nil, TypeScript, "", heap),
	}
	offset := p.emitJump(value.OpJumpIfFalse)
	p.currentChunk().Code = append(p.currentChunk().Code, make([]byte, 0x10000)...)
	p.currentChunk().Lines = append(p.currentChunk().Lines, make([]int, 0x10000)...)
	p.patchJump(offset)
	if !p.hadError {
		t.Fatal("expected an error past the 65535-byte forward jump ceiling")
	}
	if !containsMessage(p.errors, "Too much code to jump over.") {
		t.Fatalf("expected the jump-overflow message, got: %v", p.errors)
	}
}

// emitLoop's offset counts the OpLoop opcode byte and its own two operand
// bytes in addition to the body, so the filler needed to land exactly on
// the 65535 ceiling is 3 bytes short of it.
func TestEmitLoopExactly65535Succeeds(t *testing.T) {
	heap := value.NewHeap()
	p := &Parser{
		scanner: scanner.New(""),
		heap:    heap,
		fc:      newFuncCompiler(nil, TypeScript, "", heap),
	}
	loopStart := len(p.currentChunk().Code)
	p.currentChunk().Code = append(p.currentChunk().Code, make([]byte, 0xffff-3)...)
	p.currentChunk().Lines = append(p.currentChunk().Lines, make([]int, 0xffff-3)...)
	p.emitLoop(loopStart)
	if p.hadError {
		t.Fatalf("expected exactly 65535 bytes to loop cleanly, got: %v", p.errors)
	}
}

func TestEmitLoop65536Fails(t *testing.T) {
	heap := value.NewHeap()
	p := &Parser{
		scanner: scanner.New(""),
		heap:    heap,
		fc:      newFuncCompiler(nil, TypeScript, "", heap),
	}
	loopStart := len(p.currentChunk().Code)
	p.currentChunk().Code = append(p.currentChunk().Code, make([]byte, 0x10000-3)...)
	p.currentChunk().Lines = append(p.currentChunk().Lines, make([]int, 0x10000-3)...)
	p.emitLoop(loopStart)
	if !p.hadError {
		t.Fatal("expected an error past the 65535-byte backward jump ceiling")
	}
	if !containsMessage(p.errors, "Loop body too large.") {
		t.Fatalf("expected the loop-overflow message, got: %v", p.errors)
	}
}

func containsOp(code []byte, op value.OpCode) bool {
	for _, b := range code {
		if value.OpCode(b) == op {
			return true
		}
	}
	return false
}
