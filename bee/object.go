package bee

import (
	"fmt"
	"math"
)

// Kind tags the variant held by an Object.
type Kind uint8

const (
	KindUnit Kind = iota
	KindNil
	KindBool
	KindU64
	KindI64
	KindF64
	KindError
	KindString
	KindPair
	KindList
	KindDict
	KindFunction
)

var kindNames = [...]string{
	KindUnit:     "unit",
	KindNil:      "nil",
	KindBool:     "bool",
	KindU64:      "u64",
	KindI64:      "i64",
	KindF64:      "f64",
	KindError:    "error",
	KindString:   "string",
	KindPair:     "pair",
	KindList:     "list",
	KindDict:     "dict",
	KindFunction: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// GCFlag is the collector's view of an object.
type GCFlag uint8

const (
	Unmarked GCFlag = iota
	Marked
	Root
)

func (f GCFlag) String() string {
	switch f {
	case Unmarked:
		return "unmarked"
	case Marked:
		return "marked"
	case Root:
		return "root"
	}
	return fmt.Sprintf("gcflag(%d)", uint8(f))
}

// Ref is a handle to a heap slot. The generation must match the
// slot's current generation for the handle to be live, so a Ref
// that outlives its object is detected instead of aliasing the
// slot's next tenant. The zero Ref is never valid.
type Ref struct {
	index uint32
	gen   uint32
}

// IsZero reports whether r is the zero (never allocated) handle.
func (r Ref) IsZero() bool {
	return r.gen == 0
}

func (r Ref) String() string {
	return fmt.Sprintf("ref(%d@%d)", r.index, r.gen)
}

// NativeFunction is the native call contract: env is a fresh frame
// holding a single binding named "args" to a list of the evaluated
// arguments. name is the name the function was registered under, so
// one Go function can serve several script names.
type NativeFunction func(env *Enclosing, name string) Ref

// Function is the payload of a KindFunction object.
type Function struct {
	Native  NativeFunction
	Params  []string
	Body    Expr
	Closure *Enclosing
	Name    string
}

func (f *Function) IsNative() bool { return f.Native != nil }
func (f *Function) IsScript() bool { return f.Native == nil }

// Object is a heap resident value. Numeric payloads share one
// 64-bit word, read back through U64, I64, F64 or Bool, so that an
// operand can be viewed through a field other than its own tag.
type Object struct {
	Kind  Kind
	word  uint64
	Str   string
	Head  Ref
	Tail  Ref
	Items []Ref
	Dict  *HashMap
	Fn    *Function
}

func (o *Object) U64() uint64  { return o.word }
func (o *Object) I64() int64   { return int64(o.word) }
func (o *Object) F64() float64 { return math.Float64frombits(o.word) }
func (o *Object) Bool() bool   { return o.word != 0 }

func (o *Object) SetU64(v uint64)  { o.Kind = KindU64; o.word = v }
func (o *Object) SetI64(v int64)   { o.Kind = KindI64; o.word = uint64(v) }
func (o *Object) SetF64(v float64) { o.Kind = KindF64; o.word = math.Float64bits(v) }

func (o *Object) SetBool(v bool) {
	o.Kind = KindBool
	o.word = 0
	if v {
		o.word = 1
	}
}

func (o *Object) IsError() bool    { return o.Kind == KindError }
func (o *Object) IsFunction() bool { return o.Kind == KindFunction }

// release drops the payload so the slot holds no references.
func (o *Object) release() {
	if o.Kind == KindFunction && o.Fn != nil && o.Fn.Closure != nil {
		o.Fn.Closure.Leave()
	}
	*o = Object{}
}

// truthy is the "any nonzero" rule. Strings, pairs, dicts and
// functions are always true; a list is true when non-empty.
func truthy(o *Object) bool {
	switch o.Kind {
	case KindUnit, KindNil:
		return false
	case KindBool, KindU64, KindI64:
		return o.word != 0
	case KindF64:
		return o.F64() != 0
	case KindList:
		return len(o.Items) > 0
	}
	return true
}
