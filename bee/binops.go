package bee

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAndLogical
	OpOrLogical
	OpAnd
	OpOr
	OpXor
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
)

var binOpNames = [...]string{
	OpAdd:        "+",
	OpSub:        "-",
	OpMul:        "*",
	OpDiv:        "/",
	OpMod:        "%",
	OpAndLogical: "&&",
	OpOrLogical:  "||",
	OpAnd:        "&",
	OpOr:         "|",
	OpXor:        "^",
	OpEq:         "==",
	OpNeq:        "!=",
	OpLt:         "<",
	OpLe:         "<=",
	OpGt:         ">",
	OpGe:         ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return fmt.Sprintf("binop(%d)", uint8(op))
}

// ParseBinOp maps operator text to a BinOp; "and" and "or" are
// accepted as spellings of && and ||.
func ParseBinOp(s string) (BinOp, bool) {
	switch s {
	case "and":
		return OpAndLogical, true
	case "or":
		return OpOrLogical, true
	}
	for i, name := range binOpNames {
		if name == s {
			return BinOp(i), true
		}
	}
	return 0, false
}

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	}
	return fmt.Sprintf("unaryop(%d)", uint8(op))
}

func ParseUnaryOp(s string) (UnaryOp, bool) {
	switch s {
	case "-":
		return OpNeg, true
	case "!":
		return OpNot, true
	}
	return 0, false
}

var ErrUnsupportedOp = errors.New("unsupported or invalid operation")
var ErrDivByZero = errors.New("integer division by zero")

// binResult is a computed but not yet allocated operator result.
type binResult struct {
	kind Kind
	word uint64
	str  string
}

type binHandler func(l, r *Object, op BinOp) (binResult, error)

// operand slots of the dispatch table
func operandSlot(k Kind) int {
	switch k {
	case KindU64:
		return 0
	case KindI64:
		return 1
	case KindF64:
		return 2
	case KindString:
		return 3
	}
	return -1
}

var binTable = [4][4]binHandler{
	{handleU64U64, handleU64I64, handleU64F64, handleNumStr},
	{handleI64U64, handleI64I64, handleI64F64, handleNumStr},
	{handleF64U64, handleF64I64, handleF64F64, handleNumStr},
	{handleStrNum, handleStrNum, handleStrNum, handleStrStr},
}

// ApplyBinOp computes left op right into a new object. An error
// operand is returned as is, the left one first. Operand pairs
// outside {u64, i64, f64, string} yield an error object naming
// both types.
func (rt *Runtime) ApplyBinOp(left, right Ref, op BinOp) Ref {
	if e, ok := rt.errorOperand(left); ok {
		return e
	}
	if e, ok := rt.errorOperand(right); ok {
		return e
	}
	l, r := rt.obj(left), rt.obj(right)

	ls, rs := operandSlot(l.Kind), operandSlot(r.Kind)
	if ls < 0 || rs < 0 {
		return rt.NewError(fmt.Sprintf("undefined binary operation '%s' between types: %s and %s", op, l.Kind, r.Kind))
	}
	res, err := binTable[ls][rs](l, r, op)
	if err != nil {
		return rt.NewError(err.Error())
	}
	return rt.newResult(res)
}

// errorOperand reports whether r is an error, producing a fresh
// error object for a stale handle.
func (rt *Runtime) errorOperand(r Ref) (Ref, bool) {
	o := rt.heap.Get(r)
	if o == nil {
		return rt.NewError(ErrStaleRef.Error()), true
	}
	if o.Kind == KindError {
		return r, true
	}
	return r, false
}

func (rt *Runtime) newResult(res binResult) Ref {
	ref, o := rt.alloc(false)
	o.Kind = res.kind
	o.word = res.word
	o.Str = res.str
	return ref
}

func unsupported(l, r *Object, op BinOp) error {
	return fmt.Errorf("%w '%s' between %s and %s", ErrUnsupportedOp, op, l.Kind, r.Kind)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func b2f(b bool) uint64 {
	if b {
		return f64word(1)
	}
	return f64word(0)
}

func f64word(f float64) uint64 {
	return math.Float64bits(f)
}

// unsignedOp computes under uint64 conversion, the way mixed signed
// and unsigned operands combine.
func unsignedOp(a, b uint64, op BinOp) (uint64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, ErrDivByZero
		}
		return a / b, nil
	case OpMod:
		if b == 0 {
			return 0, ErrDivByZero
		}
		return a % b, nil
	case OpAndLogical:
		return b2u(a != 0 && b != 0), nil
	case OpOrLogical:
		return b2u(a != 0 || b != 0), nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	case OpEq:
		return b2u(a == b), nil
	case OpNeq:
		return b2u(a != b), nil
	case OpLt:
		return b2u(a < b), nil
	case OpLe:
		return b2u(a <= b), nil
	case OpGt:
		return b2u(a > b), nil
	case OpGe:
		return b2u(a >= b), nil
	}
	return 0, ErrUnsupportedOp
}

func signedOp(a, b int64, op BinOp) (int64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, ErrDivByZero
		}
		return a / b, nil
	case OpMod:
		if b == 0 {
			return 0, ErrDivByZero
		}
		return a % b, nil
	case OpAndLogical:
		return int64(b2u(a != 0 && b != 0)), nil
	case OpOrLogical:
		return int64(b2u(a != 0 || b != 0)), nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	case OpEq:
		return int64(b2u(a == b)), nil
	case OpNeq:
		return int64(b2u(a != b)), nil
	case OpLt:
		return int64(b2u(a < b)), nil
	case OpLe:
		return int64(b2u(a <= b)), nil
	case OpGt:
		return int64(b2u(a > b)), nil
	case OpGe:
		return int64(b2u(a >= b)), nil
	}
	return 0, ErrUnsupportedOp
}

// floatOp has no modulo or bitwise forms; comparisons give 1.0/0.0.
func floatOp(a, b float64, op BinOp) (uint64, bool) {
	switch op {
	case OpAdd:
		return f64word(a + b), true
	case OpSub:
		return f64word(a - b), true
	case OpMul:
		return f64word(a * b), true
	case OpDiv:
		return f64word(a / b), true
	case OpAndLogical:
		return b2f(a != 0 && b != 0), true
	case OpOrLogical:
		return b2f(a != 0 || b != 0), true
	case OpEq:
		return b2f(a == b), true
	case OpNeq:
		return b2f(a != b), true
	case OpLt:
		return b2f(a < b), true
	case OpLe:
		return b2f(a <= b), true
	case OpGt:
		return b2f(a > b), true
	case OpGe:
		return b2f(a >= b), true
	}
	return 0, false
}

func handleU64U64(l, r *Object, op BinOp) (binResult, error) {
	w, err := unsignedOp(l.U64(), r.U64(), op)
	if err == ErrUnsupportedOp {
		err = unsupported(l, r, op)
	}
	return binResult{kind: KindU64, word: w}, err
}

// Mixed signed and unsigned integers compute on the unsigned view
// of both words and are tagged i64.
func handleU64I64(l, r *Object, op BinOp) (binResult, error) {
	w, err := unsignedOp(l.U64(), r.U64(), op)
	if err == ErrUnsupportedOp {
		err = unsupported(l, r, op)
	}
	return binResult{kind: KindI64, word: w}, err
}

func handleI64U64(l, r *Object, op BinOp) (binResult, error) {
	return handleU64I64(l, r, op)
}

func handleI64I64(l, r *Object, op BinOp) (binResult, error) {
	v, err := signedOp(l.I64(), r.I64(), op)
	if err == ErrUnsupportedOp {
		err = unsupported(l, r, op)
	}
	return binResult{kind: KindI64, word: uint64(v)}, err
}

// The >= case of the integer/float handlers reads the right word
// through the signed integer view instead of as a float.

func handleU64F64(l, r *Object, op BinOp) (binResult, error) {
	if op == OpGe {
		return binResult{kind: KindF64, word: b2f(l.U64() >= uint64(r.I64()))}, nil
	}
	return floatResult(float64(l.U64()), r.F64(), l, r, op)
}

func handleI64F64(l, r *Object, op BinOp) (binResult, error) {
	if op == OpGe {
		return binResult{kind: KindF64, word: b2f(l.I64() >= r.I64())}, nil
	}
	return floatResult(float64(l.I64()), r.F64(), l, r, op)
}

func handleF64U64(l, r *Object, op BinOp) (binResult, error) {
	if op == OpGe {
		return binResult{kind: KindF64, word: b2f(l.F64() >= float64(r.I64()))}, nil
	}
	return floatResult(l.F64(), float64(r.U64()), l, r, op)
}

func handleF64I64(l, r *Object, op BinOp) (binResult, error) {
	return floatResult(l.F64(), float64(r.I64()), l, r, op)
}

func handleF64F64(l, r *Object, op BinOp) (binResult, error) {
	return floatResult(l.F64(), r.F64(), l, r, op)
}

func floatResult(a, b float64, l, r *Object, op BinOp) (binResult, error) {
	w, ok := floatOp(a, b, op)
	if !ok {
		return binResult{}, unsupported(l, r, op)
	}
	return binResult{kind: KindF64, word: w}, nil
}

// numberText is the concatenation form of a numeric operand.
func numberText(o *Object) string {
	switch o.Kind {
	case KindU64:
		return strconv.FormatUint(o.U64(), 10)
	case KindI64:
		return strconv.FormatInt(o.I64(), 10)
	case KindF64:
		return fmt.Sprintf("%f", o.F64())
	}
	return ""
}

func handleNumStr(l, r *Object, op BinOp) (binResult, error) {
	if op != OpAdd {
		return binResult{}, unsupported(l, r, op)
	}
	return binResult{kind: KindString, str: numberText(l) + r.Str}, nil
}

func handleStrNum(l, r *Object, op BinOp) (binResult, error) {
	if op != OpAdd {
		return binResult{}, unsupported(l, r, op)
	}
	return binResult{kind: KindString, str: l.Str + numberText(r)}, nil
}

func handleStrStr(l, r *Object, op BinOp) (binResult, error) {
	switch op {
	case OpAdd:
		return binResult{kind: KindString, str: l.Str + r.Str}, nil
	case OpEq:
		return binResult{kind: KindI64, word: b2u(l.Str == r.Str)}, nil
	case OpNeq:
		return binResult{kind: KindI64, word: b2u(l.Str != r.Str)}, nil
	}
	return binResult{}, unsupported(l, r, op)
}

// ApplyUnaryOp negates or logically inverts right. Integers come
// back as i64, floats as f64, and ! keeps a bool a bool.
func (rt *Runtime) ApplyUnaryOp(right Ref, op UnaryOp) Ref {
	if e, ok := rt.errorOperand(right); ok {
		return e
	}
	o := rt.obj(right)

	switch op {
	case OpNeg:
		switch o.Kind {
		case KindU64, KindI64:
			return rt.NewI64(-o.I64())
		case KindF64:
			return rt.NewF64(-o.F64())
		}
	case OpNot:
		switch o.Kind {
		case KindU64, KindI64:
			return rt.NewI64(int64(b2u(o.I64() == 0)))
		case KindF64:
			if o.F64() == 0 {
				return rt.NewF64(1)
			}
			return rt.NewF64(0)
		case KindBool:
			return rt.NewBool(!o.Bool())
		}
	default:
		return rt.NewError(fmt.Sprintf("unrecognized unary operation %d", uint8(op)))
	}
	return rt.NewError(fmt.Sprintf("unsupported unary operation '%s' for type %s", op, o.Kind))
}
