package compiler

import "fmt"

// SyntaxError covers lexical and grammar-level failures: a missing token,
// an unrecognized character bubbled up from the scanner, or a production
// with no valid prefix/infix rule.
type SyntaxError struct {
	Message string
	Line    int
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 SyntaxError: [line %d] %s", e.Line, e.Message)
}

// SemanticError covers single-pass semantic violations the compiler can
// only catch because it tracks scope as it emits: redeclaration in the
// same scope, or reading a variable in its own initializer. Overflowing the
// local/constant tables, an oversized jump, and an invalid assignment
// target are reported as SyntaxError, not SemanticError.
type SemanticError struct {
	Message string
	Line    int
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: [line %d] %s", e.Line, e.Message)
}
