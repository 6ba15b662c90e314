package vm

import "fmt"

// RuntimeError is raised by the running VM itself: a type mismatch an
// opcode can't proceed with, an undefined global, a bad callee, or a blown
// call-stack limit. Compile-time failures never reach this type.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}
