// Package compiler implements a single-pass Pratt parser that compiles Lox
// source directly to bytecode, with no intermediate AST: every expression
// and statement production emits into a value.Chunk as it is recognized.
package compiler

import (
	"strconv"

	"lox/scanner"
	"lox/token"
	"lox/value"
)

// maxLocals bounds how many locals a single function body may declare at
// once. Local slots are addressed by a one-byte operand, so 256 (indices
// 0-255) is the hard ceiling.
const maxLocals = 256

// maxParams bounds how many parameters a function declaration, or arguments
// a call expression, may carry: argument counts are encoded as a one-byte
// operand.
const maxParams = 255

// FunctionType distinguishes the implicit top-level script body from a
// user-declared function, since only the latter may contain a return with
// a value and only the former runs with an empty enclosing scope.
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeScript
)

type local struct {
	name  string
	depth int // -1 means declared but not yet initialized
}

// funcCompiler holds the state private to compiling one function body: its
// own locals, its own scope depth, and its own output chunk. Function
// declarations nest a fresh funcCompiler under the enclosing one and pop
// back to it once the body is compiled.
type funcCompiler struct {
	enclosing  *funcCompiler
	function   *value.FunctionObj
	fnType     FunctionType
	locals     []local
	scopeDepth int
}

func newFuncCompiler(enclosing *funcCompiler, fnType FunctionType, name string, heap *value.Heap) *funcCompiler {
	fc := &funcCompiler{enclosing: enclosing, fnType: fnType}
	var nameObj *value.StringObj
	if fnType != TypeScript {
		nameObj = heap.Intern(name)
	}
	fc.function = heap.NewFunction(nameObj, 0, value.NewChunk())
	// Slot 0 is reserved for the callee itself; it is never addressed by
	// name, so its name is left empty.
	fc.locals = append(fc.locals, local{name: "", depth: 0})
	return fc
}

// Parser drives the whole compilation: one scanner, one object heap, and
// the chain of funcCompilers for whichever function body is currently being
// compiled.
type Parser struct {
	scanner *scanner.Scanner
	heap    *value.Heap

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []error

	fc *funcCompiler
}

// Compile compiles source into a top-level script function. If any syntax
// or semantic error occurred, the returned function is nil and every
// accumulated error is returned; callers should report all of them, not
// just the first.
func Compile(source string, heap *value.Heap) (*value.FunctionObj, []error) {
	p := &Parser{
		scanner: scanner.New(source),
		heap:    heap,
		fc:      newFuncCompiler(nil, TypeScript, "", heap),
	}

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endFuncCompiler()

	if p.hadError {
		return nil, p.errors
	}
	return fn, nil
}

// --- token stream -----------------------------------------------------

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.ScanToken()
		if p.current.Kind != token.Error {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(kind token.Kind) bool {
	return p.current.Kind == kind
}

func (p *Parser) match(kind token.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(kind token.Kind, message string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

// --- error reporting ----------------------------------------------------

func (p *Parser) errorAtCurrent(message string) {
	p.reportSyntax(p.current, message)
}

func (p *Parser) error(message string) {
	p.reportSyntax(p.previous, message)
}

func (p *Parser) reportSyntax(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	p.errors = append(p.errors, SyntaxError{Message: describeAt(tok, message), Line: tok.Line})
}

func (p *Parser) semanticError(message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	p.errors = append(p.errors, SemanticError{Message: describeAt(p.previous, message), Line: p.previous.Line})
}

func describeAt(tok token.Token, message string) string {
	switch tok.Kind {
	case token.EOF:
		return "at end: " + message
	case token.Error:
		return message
	default:
		return "at '" + tok.Lexeme + "': " + message
	}
}

// synchronize discards tokens until it reaches a point a new statement
// plausibly starts, so one error doesn't cascade into a wall of spurious
// follow-on errors.
func (p *Parser) synchronize() {
	p.panicMode = false

	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.Semicolon {
			return
		}
		switch p.current.Kind {
		case token.Class, token.Fun, token.Var, token.For,
			token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}

// --- emission helpers ----------------------------------------------------

func (p *Parser) currentChunk() *value.Chunk {
	return p.fc.function.Chunk
}

func (p *Parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *Parser) emitOp(op value.OpCode) {
	p.emitByte(byte(op))
}

func (p *Parser) emitBytes(op value.OpCode, operand byte) {
	p.emitOp(op)
	p.emitByte(operand)
}

func (p *Parser) emitConstant(v value.Value) {
	idx, err := p.currentChunk().AddConstant(v)
	if err != nil {
		p.error(err.Error())
		return
	}
	p.emitBytes(value.OpConstant, byte(idx))
}

func (p *Parser) emitReturn() {
	p.emitOp(value.OpNil)
	p.emitOp(value.OpReturn)
}

// emitJump writes a jump instruction with a placeholder 16-bit offset and
// returns the offset of that placeholder, to be fixed up by patchJump once
// the jump target is known.
func (p *Parser) emitJump(op value.OpCode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("Too much code to jump over.")
	}
	code := p.currentChunk().Code
	code[offset] = byte((jump >> 8) & 0xff)
	code[offset+1] = byte(jump & 0xff)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(value.OpLoop)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
	}
	p.emitByte(byte((offset >> 8) & 0xff))
	p.emitByte(byte(offset & 0xff))
}

func (p *Parser) endFuncCompiler() *value.FunctionObj {
	p.emitReturn()
	fn := p.fc.function
	p.fc = p.fc.enclosing
	return fn
}

func (p *Parser) beginScope() {
	p.fc.scopeDepth++
}

func (p *Parser) endScope() {
	p.fc.scopeDepth--
	for len(p.fc.locals) > 0 && p.fc.locals[len(p.fc.locals)-1].depth > p.fc.scopeDepth {
		p.emitOp(value.OpPop)
		p.fc.locals = p.fc.locals[:len(p.fc.locals)-1]
	}
}

// --- declarations and statements ----------------------------------------

func (p *Parser) declaration() {
	switch {
	case p.match(token.Fun):
		p.funDeclaration()
	case p.match(token.Var):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

func (p *Parser) function(fnType FunctionType) {
	name := p.previous.Lexeme
	p.fc = newFuncCompiler(p.fc, fnType, name, p.heap)
	p.beginScope()

	p.consume(token.LeftParen, "Expect '(' after function name.")
	if !p.check(token.RightParen) {
		for {
			p.fc.function.Arity++
			if p.fc.function.Arity > maxParams {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := p.parseVariable("Expect parameter name.")
			p.defineVariable(param)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expect ')' after parameters.")
	p.consume(token.LeftBrace, "Expect '{' before function body.")
	p.block()

	fn := p.endFuncCompiler()
	p.emitConstant(value.FromObj(fn))
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.Equal) {
		p.expression()
	} else {
		p.emitOp(value.OpNil)
	}
	p.consume(token.Semicolon, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

func (p *Parser) statement() {
	switch {
	case p.match(token.Print):
		p.printStatement()
	case p.match(token.For):
		p.forStatement()
	case p.match(token.If):
		p.ifStatement()
	case p.match(token.Return):
		p.returnStatement()
	case p.match(token.While):
		p.whileStatement()
	case p.match(token.LeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RightBrace, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after value.")
	p.emitOp(value.OpPrint)
}

func (p *Parser) returnStatement() {
	if p.fc.fnType == TypeScript {
		p.error("Can't return from top-level code.")
	}

	if p.match(token.Semicolon) {
		p.emitReturn()
		return
	}
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after return value.")
	p.emitOp(value.OpReturn)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after expression.")
	p.emitOp(value.OpPop)
}

func (p *Parser) ifStatement() {
	p.consume(token.LeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.statement()

	elseJump := p.emitJump(value.OpJump)
	p.patchJump(thenJump)
	p.emitOp(value.OpPop)

	if p.match(token.Else) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(token.LeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(value.OpPop)
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(token.Semicolon):
		// no initializer
	case p.match(token.Var):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.Semicolon) {
		p.expression()
		p.consume(token.Semicolon, "Expect ';' after loop condition.")

		exitJump = p.emitJump(value.OpJumpIfFalse)
		p.emitOp(value.OpPop)
	}

	if !p.match(token.RightParen) {
		bodyJump := p.emitJump(value.OpJump)

		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(value.OpPop)
		p.consume(token.RightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(value.OpPop)
	}

	p.endScope()
}

// --- expressions ---------------------------------------------------------

func (p *Parser) expression() {
	p.parsePrecedence(PrecAssignment)
}

func (p *Parser) parsePrecedence(prec Precedence) {
	p.advance()
	rule := getRule(p.previous.Kind)
	if rule.prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	rule.prefix(p, canAssign)

	for prec <= getRule(p.current.Kind).precedence {
		p.advance()
		infix := getRule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.Equal) {
		p.error("Invalid assignment target.")
	}
}

func number(p *Parser, _ bool) {
	n, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(value.Number(n))
}

func stringLiteral(p *Parser, _ bool) {
	lexeme := p.previous.Lexeme
	s := lexeme[1 : len(lexeme)-1]
	obj := p.heap.Intern(s)
	p.emitConstant(value.FromObj(obj))
}

func literal(p *Parser, _ bool) {
	switch p.previous.Kind {
	case token.False:
		p.emitOp(value.OpFalse)
	case token.Nil:
		p.emitOp(value.OpNil)
	case token.True:
		p.emitOp(value.OpTrue)
	}
}

func grouping(p *Parser, _ bool) {
	p.expression()
	p.consume(token.RightParen, "Expect ')' after expression.")
}

func unary(p *Parser, _ bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(PrecUnary)

	switch opKind {
	case token.Bang:
		p.emitOp(value.OpNot)
	case token.Minus:
		p.emitOp(value.OpNegate)
	}
}

func binary(p *Parser, _ bool) {
	opKind := p.previous.Kind
	rule := getRule(opKind)
	p.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BangEqual:
		p.emitOp(value.OpEqual)
		p.emitOp(value.OpNot)
	case token.EqualEqual:
		p.emitOp(value.OpEqual)
	case token.Greater:
		p.emitOp(value.OpGreater)
	case token.GreaterEqual:
		p.emitOp(value.OpLess)
		p.emitOp(value.OpNot)
	case token.Less:
		p.emitOp(value.OpLess)
	case token.LessEqual:
		p.emitOp(value.OpGreater)
		p.emitOp(value.OpNot)
	case token.Plus:
		p.emitOp(value.OpAdd)
	case token.Minus:
		p.emitOp(value.OpSubtract)
	case token.Star:
		p.emitOp(value.OpMultiply)
	case token.Slash:
		p.emitOp(value.OpDivide)
	}
}

func and(p *Parser, _ bool) {
	endJump := p.emitJump(value.OpJumpIfFalse)
	p.emitOp(value.OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func or(p *Parser, _ bool) {
	elseJump := p.emitJump(value.OpJumpIfFalse)
	endJump := p.emitJump(value.OpJump)

	p.patchJump(elseJump)
	p.emitOp(value.OpPop)

	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func call(p *Parser, _ bool) {
	argCount := p.argumentList()
	p.emitBytes(value.OpCall, byte(argCount))
}

func (p *Parser) argumentList() int {
	argCount := 0
	if !p.check(token.RightParen) {
		for {
			p.expression()
			if argCount == maxParams {
				p.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expect ')' after arguments.")
	return argCount
}

func variable(p *Parser, canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

func (p *Parser) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.OpCode
	arg := p.resolveLocal(name)
	if arg != -1 {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else {
		arg = p.identifierConstant(name)
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && p.match(token.Equal) {
		p.expression()
		p.emitBytes(setOp, byte(arg))
	} else {
		p.emitBytes(getOp, byte(arg))
	}
}

func (p *Parser) identifierConstant(name token.Token) int {
	obj := p.heap.Intern(name.Lexeme)
	idx, err := p.currentChunk().AddConstant(value.FromObj(obj))
	if err != nil {
		p.error(err.Error())
	}
	return idx
}

func (p *Parser) resolveLocal(name token.Token) int {
	for i := len(p.fc.locals) - 1; i >= 0; i-- {
		l := p.fc.locals[i]
		if l.name == name.Lexeme {
			if l.depth == -1 {
				p.semanticError("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (p *Parser) addLocal(name token.Token) {
	if len(p.fc.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.fc.locals = append(p.fc.locals, local{name: name.Lexeme, depth: -1})
}

func (p *Parser) declareVariable() {
	if p.fc.scopeDepth == 0 {
		return
	}
	name := p.previous
	for i := len(p.fc.locals) - 1; i >= 0; i-- {
		l := p.fc.locals[i]
		if l.depth != -1 && l.depth < p.fc.scopeDepth {
			break
		}
		if l.name == name.Lexeme {
			p.semanticError("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) parseVariable(errMessage string) int {
	p.consume(token.Identifier, errMessage)

	p.declareVariable()
	if p.fc.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous)
}

func (p *Parser) markInitialized() {
	if p.fc.scopeDepth == 0 {
		return
	}
	p.fc.locals[len(p.fc.locals)-1].depth = p.fc.scopeDepth
}

func (p *Parser) defineVariable(global int) {
	if p.fc.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(value.OpDefineGlobal, byte(global))
}

// --- Pratt table ---------------------------------------------------------

type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is filled in by init: the parse functions in ruleTable reach back
// to getRule, so a direct initializer would form an initialization cycle.
var rules map[token.Kind]parseRule

func init() { rules = ruleTable }

var ruleTable = map[token.Kind]parseRule{
	token.LeftParen:    {grouping, call, PrecCall},
	token.Minus:        {unary, binary, PrecTerm},
	token.Plus:         {nil, binary, PrecTerm},
	token.Slash:        {nil, binary, PrecFactor},
	token.Star:         {nil, binary, PrecFactor},
	token.Bang:         {unary, nil, PrecNone},
	token.BangEqual:    {nil, binary, PrecEquality},
	token.EqualEqual:   {nil, binary, PrecEquality},
	token.Greater:      {nil, binary, PrecComparison},
	token.GreaterEqual: {nil, binary, PrecComparison},
	token.Less:         {nil, binary, PrecComparison},
	token.LessEqual:    {nil, binary, PrecComparison},
	token.Identifier:   {variable, nil, PrecNone},
	token.String:       {stringLiteral, nil, PrecNone},
	token.Number:       {number, nil, PrecNone},
	token.And:          {nil, and, PrecAnd},
	token.Or:           {nil, or, PrecOr},
	token.False:        {literal, nil, PrecNone},
	token.Nil:          {literal, nil, PrecNone},
	token.True:         {literal, nil, PrecNone},
}

func getRule(kind token.Kind) parseRule {
	if r, ok := rules[kind]; ok {
		return r
	}
	return parseRule{}
}
