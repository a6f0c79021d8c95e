package bee

import (
	"io"
	"os"
	"time"
)

// DefaultGCInterval is the minimum time between two collections.
const DefaultGCInterval = 100 * time.Microsecond

// DefaultMaxDepth bounds nested script calls.
const DefaultMaxDepth = 50000

// Runtime is one interpreter instance: the object heap, the global
// frame and the collector state. Every heap, frame and evaluator
// operation goes through it; there is no package level instance.
//
// A Runtime is single threaded. Give each goroutine its own.
type Runtime struct {
	heap    *Heap
	globals *Enclosing

	// frames that are currently being evaluated in; collector seeds.
	frames map[*Enclosing]struct{}

	// in-flight intermediates held only by Go locals; collector seeds.
	pins []Ref

	lastGC time.Time
	stats  GCStats
	depth  int

	// GCInterval is the minimum time between collections. Zero
	// collects on every allocation, negative never collects.
	GCInterval time.Duration

	// MaxDepth bounds nested calls; exceeding it yields an error object.
	MaxDepth int

	// Stdout receives the output of print.
	Stdout io.Writer

	unit Ref
	nil_ Ref
}

// NewRuntime returns a runtime with every builtin function.
func NewRuntime() *Runtime {
	return NewRuntimeWithFuncs(AllBuiltinFunctions())
}

// NewRuntimeSandbox returns a runtime that cannot reach the
// filesystem.
func NewRuntimeSandbox() *Runtime {
	return NewRuntimeWithFuncs(SandboxSafeFunctions())
}

// NewRuntimeWithFuncs returns a runtime with access to only the
// given native functions.
func NewRuntimeWithFuncs(funcs map[string]NativeFunction) *Runtime {
	rt := &Runtime{
		heap:       NewHeap(),
		frames:     make(map[*Enclosing]struct{}),
		lastGC:     time.Now(),
		GCInterval: DefaultGCInterval,
		MaxDepth:   DefaultMaxDepth,
		Stdout:     os.Stdout,
	}
	rt.globals = &Enclosing{rt: rt}
	rt.globals.global = rt.globals

	rt.unit, _ = rt.heap.Alloc(true)
	var nilObj *Object
	rt.nil_, nilObj = rt.heap.Alloc(true)
	nilObj.Kind = KindNil

	for _, name := range sortedNames(funcs) {
		rt.AddFunction(name, funcs[name])
	}
	return rt
}

// Close releases every heap object and the global bindings.
func (rt *Runtime) Close() {
	rt.heap.Release()
	rt.globals.Leave()
	rt.frames = make(map[*Enclosing]struct{})
	rt.pins = rt.pins[:0]
}

func (rt *Runtime) Heap() *Heap              { return rt.heap }
func (rt *Runtime) Globals() *Enclosing      { return rt.globals }
func (rt *Runtime) Get(r Ref) *Object        { return rt.heap.Get(r) }
func (rt *Runtime) Stats() GCStats           { return rt.stats }
func (rt *Runtime) LiveFrames() int          { return len(rt.frames) }
func (rt *Runtime) Kind(r Ref) (k Kind)      { return rt.obj(r).Kind }
func (rt *Runtime) Render(r Ref) string      { return rt.render(r, true) }
func (rt *Runtime) RenderPlain(r Ref) string { return rt.render(r, false) }

// AddFunction registers a native function as a root object in the
// global frame, replacing an existing binding of the same name.
func (rt *Runtime) AddFunction(name string, fn NativeFunction) {
	ref, o := rt.heap.Alloc(true)
	o.Kind = KindFunction
	o.Fn = &Function{Native: fn, Name: name}
	rt.globals.Set(name, ref)
}

// alloc runs a (rate limited) collection and then allocates.
func (rt *Runtime) alloc(isRoot bool) (Ref, *Object) {
	rt.Collect()
	return rt.heap.Alloc(isRoot)
}

// allocHolding allocates while keeping refs alive through the
// collection the allocation may trigger.
func (rt *Runtime) allocHolding(refs ...Ref) (Ref, *Object) {
	mark := rt.pinMark()
	rt.pins = append(rt.pins, refs...)
	ref, o := rt.alloc(false)
	rt.unpinTo(mark)
	return ref, o
}

// obj dereferences r; a stale handle reads as an error object so
// that callers never see nil.
func (rt *Runtime) obj(r Ref) *Object {
	if o := rt.heap.Get(r); o != nil {
		return o
	}
	return &Object{Kind: KindError, Str: ErrStaleRef.Error()}
}

// pin keeps r alive across further allocations until unpinTo.
// The returned index can be used to replace the pinned value.
func (rt *Runtime) pin(r Ref) int {
	rt.pins = append(rt.pins, r)
	return len(rt.pins) - 1
}

func (rt *Runtime) repin(i int, r Ref) {
	rt.pins[i] = r
}

func (rt *Runtime) pinMark() int {
	return len(rt.pins)
}

func (rt *Runtime) unpinTo(mark int) {
	rt.pins = rt.pins[:mark]
}

// Pin, PinMark and UnpinTo let native functions that allocate more
// than once keep their partial results alive:
//
//	mark := rt.PinMark()
//	defer rt.UnpinTo(mark)
//	rt.Pin(rt.NewI64(1))
func (rt *Runtime) Pin(r Ref)        { rt.pin(r) }
func (rt *Runtime) PinMark() int     { return rt.pinMark() }
func (rt *Runtime) UnpinTo(mark int) { rt.unpinTo(mark) }

// Unit and Nil are shared root singletons.
func (rt *Runtime) Unit() Ref { return rt.unit }
func (rt *Runtime) Nil() Ref  { return rt.nil_ }

// NewUnit allocates a fresh unit object, distinct from Unit().
func (rt *Runtime) NewUnit() Ref {
	ref, _ := rt.alloc(false)
	return ref
}

func (rt *Runtime) NewBool(v bool) Ref {
	ref, o := rt.alloc(false)
	o.SetBool(v)
	return ref
}

func (rt *Runtime) NewU64(v uint64) Ref {
	ref, o := rt.alloc(false)
	o.SetU64(v)
	return ref
}

func (rt *Runtime) NewI64(v int64) Ref {
	ref, o := rt.alloc(false)
	o.SetI64(v)
	return ref
}

func (rt *Runtime) NewF64(v float64) Ref {
	ref, o := rt.alloc(false)
	o.SetF64(v)
	return ref
}

func (rt *Runtime) NewString(s string) Ref {
	ref, o := rt.alloc(false)
	o.Kind = KindString
	o.Str = s
	return ref
}

// NewError allocates an error object carrying msg.
func (rt *Runtime) NewError(msg string) Ref {
	ref, o := rt.alloc(false)
	o.Kind = KindError
	o.Str = msg
	return ref
}

func (rt *Runtime) NewPair(head, tail Ref) Ref {
	ref, o := rt.allocHolding(head, tail)
	o.Kind = KindPair
	o.Head = head
	o.Tail = tail
	return ref
}

// NewList allocates a list holding items; the slice is owned by
// the new object afterwards.
func (rt *Runtime) NewList(items []Ref) Ref {
	ref, o := rt.allocHolding(items...)
	o.Kind = KindList
	o.Items = items
	return ref
}

func (rt *Runtime) NewDict() Ref {
	ref, o := rt.alloc(false)
	o.Kind = KindDict
	o.Dict = NewHashMap(DefaultHashMapRows, DefaultHashMapMaxObjects)
	return ref
}

// IsError reports whether r is an error object (stale handles count).
func (rt *Runtime) IsError(r Ref) bool {
	return rt.obj(r).Kind == KindError
}

// ErrorMessage returns the message of an error object, or "".
func (rt *Runtime) ErrorMessage(r Ref) string {
	o := rt.obj(r)
	if o.Kind != KindError {
		return ""
	}
	return o.Str
}
