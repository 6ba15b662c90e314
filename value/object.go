package value

import "fmt"

// ObjKind identifies the concrete type behind an Obj.
type ObjKind int

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjNativeKind
)

// Obj is the interface implemented by every heap-allocated Lox value.
// Concrete object types carry their payload directly; identity (pointer
// equality on the concrete type) is what the VM relies on for interned
// strings and for function/native identity.
type Obj interface {
	Kind() ObjKind
	String() string
}

// StringObj is an interned, immutable string body.
type StringObj struct {
	Chars string
}

func (s *StringObj) Kind() ObjKind  { return ObjStringKind }
func (s *StringObj) String() string { return s.Chars }

// NativeFn is the signature every native (built-in) function must satisfy.
// It receives a view of its arguments and returns its single result; natives
// cannot raise a runtime error, so failure is signaled by returning Nil.
type NativeFn func(args []Value) Value

// FunctionObj is a compiled Lox function: its arity, its own bytecode chunk,
// and an optional name (nil for the top-level script).
type FunctionObj struct {
	Name  *StringObj
	Arity int
	Chunk *Chunk
}

func (f *FunctionObj) Kind() ObjKind { return ObjFunctionKind }
func (f *FunctionObj) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeObj wraps a native Go function as a callable Lox value.
type NativeObj struct {
	Name string
	Fn   NativeFn
}

func (n *NativeObj) Kind() ObjKind  { return ObjNativeKind }
func (n *NativeObj) String() string { return "<native fn>" }
