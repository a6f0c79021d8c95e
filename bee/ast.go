package bee

import (
	"bytes"
	"fmt"
	"strings"
)

// Expr is one node of the expression tree. Nodes are immutable once
// parsed; a function object borrows its body for as long as it is
// reachable.
type Expr interface {
	exprNode()
	String() string
}

type LitKind uint8

const (
	LitNumber LitKind = iota
	LitString
	LitBool
	LitNil
	LitUnit
)

var litKindNames = [...]string{
	LitNumber: "number",
	LitString: "string",
	LitBool:   "bool",
	LitNil:    "nil",
	LitUnit:   "unit",
}

func (k LitKind) String() string {
	if int(k) < len(litKindNames) {
		return litKindNames[k]
	}
	return fmt.Sprintf("litkind(%d)", uint8(k))
}

// LitExpr keeps the raw token text; numbers are classified and
// strings unquoted at evaluation time.
type LitExpr struct {
	Kind LitKind
	Raw  string
}

type LookupExpr struct {
	Name string
}

type BinExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	Op    UnaryOp
	Right Expr
}

type Assign struct {
	Name  string
	Value Expr
}

type LetExpr struct {
	Assigns []Assign
	Body    Expr
}

type CondExpr struct {
	Cond Expr
	Then Expr
}

type IfExpr struct {
	Conds []CondExpr
	Else  Expr
}

type CallExpr struct {
	Callee string
	Args   []Expr
}

type ListExpr struct {
	Items []Expr
}

type DictEntry struct {
	Key   string
	Value Expr
}

type DictExpr struct {
	Entries []DictEntry
}

type LambdaExpr struct {
	Params []string
	Body   Expr
}

// ForExpr binds Handle to each element or generator value. Filter
// may be nil.
type ForExpr struct {
	Handle string
	Iter   Expr
	Filter Expr
	Body   Expr
}

// ReduceExpr threads Carry, starting from Init, through the body
// of Loop.
type ReduceExpr struct {
	Carry string
	Init  Expr
	Loop  *ForExpr
}

type DefExpr struct {
	Name   string
	Params []string
	Body   Expr
}

// Program is the top level definition list.
type Program struct {
	Defs []*DefExpr
}

func (*LitExpr) exprNode()    {}
func (*LookupExpr) exprNode() {}
func (*BinExpr) exprNode()    {}
func (*UnaryExpr) exprNode()  {}
func (*LetExpr) exprNode()    {}
func (*IfExpr) exprNode()     {}
func (*CallExpr) exprNode()   {}
func (*ListExpr) exprNode()   {}
func (*DictExpr) exprNode()   {}
func (*LambdaExpr) exprNode() {}
func (*ForExpr) exprNode()    {}
func (*ReduceExpr) exprNode() {}
func (*DefExpr) exprNode()    {}

func (e *LitExpr) String() string    { return e.Raw }
func (e *LookupExpr) String() string { return e.Name }

func (e *BinExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *UnaryExpr) String() string {
	return fmt.Sprintf("(%s%s)", e.Op, e.Right)
}

func (e *LetExpr) String() string {
	var out bytes.Buffer
	out.WriteString("let ")
	for i, a := range e.Assigns {
		if i > 0 {
			out.WriteString(", ")
		}
		fmt.Fprintf(&out, "%s = %s", a.Name, a.Value)
	}
	fmt.Fprintf(&out, " in %s", e.Body)
	return out.String()
}

func (e *IfExpr) String() string {
	var out bytes.Buffer
	for i, c := range e.Conds {
		if i == 0 {
			out.WriteString("if ")
		} else {
			out.WriteString(" elif ")
		}
		fmt.Fprintf(&out, "%s then %s", c.Cond, c.Then)
	}
	fmt.Fprintf(&out, " else %s", e.Else)
	return out.String()
}

func joinExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

func (e *CallExpr) String() string {
	return e.Callee + "(" + joinExprs(e.Args) + ")"
}

func (e *ListExpr) String() string {
	return "[" + joinExprs(e.Items) + "]"
}

func (e *DictExpr) String() string {
	parts := make([]string, len(e.Entries))
	for i, d := range e.Entries {
		parts[i] = fmt.Sprintf("%s: %s", d.Key, d.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (e *LambdaExpr) String() string {
	return fmt.Sprintf("fn(%s) => %s", strings.Join(e.Params, ", "), e.Body)
}

func (e *ForExpr) String() string {
	s := fmt.Sprintf("for %s in %s", e.Handle, e.Iter)
	if e.Filter != nil {
		s += fmt.Sprintf(" if %s", e.Filter)
	}
	return s + fmt.Sprintf(" do %s", e.Body)
}

func (e *ReduceExpr) String() string {
	return fmt.Sprintf("reduce %s = %s %s", e.Carry, e.Init, e.Loop)
}

func (e *DefExpr) String() string {
	return fmt.Sprintf("def %s(%s) = %s", e.Name, strings.Join(e.Params, ", "), e.Body)
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, d := range p.Defs {
		out.WriteString(d.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Lookup returns the latest definition named name, or nil.
func (p *Program) Lookup(name string) *DefExpr {
	for i := len(p.Defs) - 1; i >= 0; i-- {
		if p.Defs[i].Name == name {
			return p.Defs[i]
		}
	}
	return nil
}
