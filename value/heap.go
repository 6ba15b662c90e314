package value

// Heap owns every object the compiler and VM allocate: interned strings,
// function prototypes, and native bindings. It stands in for an intrusive,
// singly-linked object list as an arena of stable pointers instead of raw,
// manually-freed heap pointers. Release drops the arena's own references so
// Go's collector can reclaim everything in one shot, the same "free
// everything at shutdown" discipline without unsafe dereferencing.
type Heap struct {
	objects []Obj
	strings map[string]*StringObj
}

// NewHeap returns an empty object heap with its intern table initialized.
func NewHeap() *Heap {
	return &Heap{strings: make(map[string]*StringObj)}
}

// Intern returns the unique StringObj for s, allocating one the first time
// s is seen. Every subsequent call with equal contents returns the same
// pointer, so pointer equality implies string equality.
func (h *Heap) Intern(s string) *StringObj {
	if obj, ok := h.strings[s]; ok {
		return obj
	}
	obj := &StringObj{Chars: s}
	h.strings[s] = obj
	h.objects = append(h.objects, obj)
	return obj
}

// NewFunction allocates a fresh, uninterned function object and links it
// into the heap.
func (h *Heap) NewFunction(name *StringObj, arity int, chunk *Chunk) *FunctionObj {
	fn := &FunctionObj{Name: name, Arity: arity, Chunk: chunk}
	h.objects = append(h.objects, fn)
	return fn
}

// NewNative allocates a native-function object and links it into the heap.
func (h *Heap) NewNative(name string, fn NativeFn) *NativeObj {
	native := &NativeObj{Name: name, Fn: fn}
	h.objects = append(h.objects, native)
	return native
}

// Len reports how many objects the heap currently holds; it is 0 after
// Release.
func (h *Heap) Len() int {
	return len(h.objects)
}

// Release clears the intern table and the object arena. Callers must drop
// any borrowed pointers into the heap first (the VM's globals table, the
// compiler's constant pools) since those tables only borrow references.
func (h *Heap) Release() {
	h.strings = nil
	h.objects = nil
}
