package bee

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNoMain = errors.New("program defines no main function")

// Eval evaluates expr in env and returns the resulting object.
// Failures come back as error objects, never as Go panics.
//
// Intermediate results are pinned while the node is evaluated and
// released on return. A caller that allocates again before storing
// the result must pin it first.
func (rt *Runtime) Eval(env *Enclosing, expr Expr) Ref {
	mark := rt.pinMark()
	r := rt.eval(env, expr)
	rt.unpinTo(mark)
	return r
}

// evalPinned evaluates and leaves the result pinned until the
// enclosing Eval returns.
func (rt *Runtime) evalPinned(env *Enclosing, expr Expr) Ref {
	r := rt.Eval(env, expr)
	rt.pin(r)
	return r
}

func (rt *Runtime) eval(env *Enclosing, expr Expr) Ref {
	switch e := expr.(type) {
	case *LitExpr:
		return rt.evalLit(e)
	case *LookupExpr:
		if r, ok := env.Resolve(e.Name); ok {
			return r
		}
		return rt.NewError(fmt.Sprintf("undefined variable '%s'", e.Name))
	case *BinExpr:
		left := rt.evalPinned(env, e.Left)
		right := rt.evalPinned(env, e.Right)
		return rt.ApplyBinOp(left, right, e.Op)
	case *UnaryExpr:
		return rt.ApplyUnaryOp(rt.evalPinned(env, e.Right), e.Op)
	case *LetExpr:
		return rt.evalLet(env, e)
	case *IfExpr:
		return rt.evalIf(env, e)
	case *CallExpr:
		return rt.evalCall(env, e)
	case *ListExpr:
		items := make([]Ref, 0, len(e.Items))
		for _, x := range e.Items {
			items = append(items, rt.evalPinned(env, x))
		}
		return rt.NewList(items)
	case *DictExpr:
		return rt.evalDict(env, e)
	case *LambdaExpr:
		return rt.evalLambda(env, e)
	case *ForExpr:
		return rt.evalFor(env, e)
	case *ReduceExpr:
		return rt.evalReduce(env, e)
	case *DefExpr:
		return rt.defineFunction(e)
	case nil:
		return rt.NewError("missing expression")
	}
	return rt.NewError(fmt.Sprintf("unknown expression node %T", expr))
}

func (rt *Runtime) evalLit(e *LitExpr) Ref {
	switch e.Kind {
	case LitNumber:
		return rt.numberLiteral(e.Raw)
	case LitString:
		return rt.NewString(unquote(e.Raw))
	case LitBool:
		return rt.NewBool(e.Raw == "true")
	case LitNil:
		return rt.Nil()
	case LitUnit:
		return rt.NewUnit()
	}
	return rt.NewError(fmt.Sprintf("unknown literal kind %s", e.Kind))
}

// numberLiteral classifies raw number text: a decimal point makes
// an f64, a trailing u makes a u64, anything else (signed or not)
// is an i64.
func (rt *Runtime) numberLiteral(raw string) Ref {
	switch {
	case strings.Contains(raw, "."):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rt.NewError(fmt.Sprintf("invalid number literal '%s'", raw))
		}
		return rt.NewF64(f)
	case strings.HasSuffix(raw, "u"):
		u, err := strconv.ParseUint(strings.TrimSuffix(raw, "u"), 10, 64)
		if err != nil {
			return rt.NewError(fmt.Sprintf("invalid number literal '%s'", raw))
		}
		return rt.NewU64(u)
	}
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return rt.NewError(fmt.Sprintf("invalid number literal '%s'", raw))
	}
	return rt.NewI64(i)
}

// unquote strips the surrounding quotes and decodes escapes, falling
// back to the bare text when the escapes do not decode.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return raw[1 : len(raw)-1]
}

// Let assignments are evaluated in the outer frame, so siblings do
// not see each other.
func (rt *Runtime) evalLet(env *Enclosing, e *LetExpr) Ref {
	frame := env.Fork()
	defer frame.Leave()
	for _, a := range e.Assigns {
		frame.Bind(a.Name, rt.Eval(env, a.Value))
	}
	return rt.Eval(frame, e.Body)
}

func (rt *Runtime) evalIf(env *Enclosing, e *IfExpr) Ref {
	for _, c := range e.Conds {
		cond := rt.Eval(env, c.Cond)
		o := rt.obj(cond)
		switch {
		case o.Kind == KindUnit:
			return rt.NewError("cannot evaluate condition for unit type")
		case o.Kind == KindError:
			return cond
		case truthy(o):
			return rt.Eval(env, c.Then)
		}
	}
	return rt.Eval(env, e.Else)
}

func (rt *Runtime) evalCall(env *Enclosing, e *CallExpr) Ref {
	fn, ok := env.Resolve(e.Callee)
	if !ok {
		return rt.NewError(fmt.Sprintf("undefined function '%s'", e.Callee))
	}
	rt.pin(fn)
	fo := rt.obj(fn)
	if fo.Kind != KindFunction {
		return rt.NewError(fmt.Sprintf("'%s' is not a function but %s", e.Callee, fo.Kind))
	}

	args := make([]Ref, 0, len(e.Args))
	for _, x := range e.Args {
		a := rt.evalPinned(env, x)
		if rt.obj(a).Kind == KindError {
			return a
		}
		args = append(args, a)
	}
	return rt.callFunction(fo.Fn, e.Callee, args)
}

// Apply calls the function object fn with already evaluated args.
func (rt *Runtime) Apply(fn Ref, args ...Ref) Ref {
	mark := rt.pinMark()
	defer rt.unpinTo(mark)

	rt.pin(fn)
	for _, a := range args {
		rt.pin(a)
	}
	fo := rt.obj(fn)
	if fo.Kind != KindFunction {
		return rt.NewError(fmt.Sprintf("cannot call %s", fo.Kind))
	}
	return rt.callFunction(fo.Fn, fo.Fn.Name, args)
}

// callFunction runs fn in a child of its closure frame, or of the
// global frame when it has none. Natives find their arguments as a
// list bound to "args"; script parameters are bound positionally and
// the count must match. The args must be reachable (pinned) already.
func (rt *Runtime) callFunction(fn *Function, name string, args []Ref) Ref {
	rt.depth++
	defer func() { rt.depth-- }()
	if rt.MaxDepth > 0 && rt.depth > rt.MaxDepth {
		return rt.NewError(fmt.Sprintf("maximum call depth %d exceeded calling '%s'", rt.MaxDepth, name))
	}

	parent := fn.Closure
	if parent == nil {
		parent = rt.globals
	}

	if fn.IsNative() {
		frame := parent.Fork()
		defer frame.Leave()
		frame.Bind("args", rt.NewList(append([]Ref(nil), args...)))
		r := fn.Native(frame, fn.Name)
		if r.IsZero() {
			return rt.Unit()
		}
		return r
	}

	if len(args) != len(fn.Params) {
		return rt.NewError(fmt.Sprintf("function '%s' expects %d arguments, got %d", name, len(fn.Params), len(args)))
	}
	frame := parent.Fork()
	defer frame.Leave()
	for i, p := range fn.Params {
		frame.Bind(p, args[i])
	}
	return rt.Eval(frame, fn.Body)
}

func (rt *Runtime) evalDict(env *Enclosing, e *DictExpr) Ref {
	d := rt.NewDict()
	rt.pin(d)
	hm := rt.obj(d).Dict
	for _, entry := range e.Entries {
		hm.Put(entry.Key, rt.Eval(env, entry.Value))
	}
	return d
}

// A lambda's closure frame holds a copy of every binding visible
// from env short of the global frame, and is parented on the global
// frame.
func (rt *Runtime) evalLambda(env *Enclosing, e *LambdaExpr) Ref {
	closure := rt.newClosureFrame()
	closure.CaptureChain(env)

	ref, o := rt.alloc(false)
	o.Kind = KindFunction
	o.Fn = &Function{
		Params:  e.Params,
		Body:    e.Body,
		Closure: closure,
	}
	return ref
}

// defineFunction binds a closure-less function in the global frame,
// replacing (and unrooting) any previous binding of the name.
func (rt *Runtime) defineFunction(def *DefExpr) Ref {
	ref, o := rt.heap.Alloc(true)
	o.Kind = KindFunction
	o.Fn = &Function{
		Params: def.Params,
		Body:   def.Body,
		Name:   def.Name,
	}
	if old, ok := rt.globals.ResolveLocal(def.Name); ok {
		rt.heap.SetRoot(old, false)
	}
	rt.globals.Set(def.Name, ref)
	return ref
}

// iterate feeds each element of a list, or each value a generator
// produces, to visit. visit returns the zero Ref to go on, or an
// error object to stop with. A generator is called with its state,
// a fresh unit at first and afterwards the whole pair it last
// returned; a pair with a truthy head continues with its tail as
// the value, anything else ends the loop.
func (rt *Runtime) iterate(env *Enclosing, iterExpr Expr, visit func(item Ref) Ref) Ref {
	iter := rt.evalPinned(env, iterExpr)
	o := rt.obj(iter)

	switch o.Kind {
	case KindError:
		return iter
	case KindList:
		for _, item := range o.Items {
			if stop := visit(item); !stop.IsZero() {
				return stop
			}
		}
		return Ref{}
	case KindFunction:
		state := rt.NewUnit()
		slot := rt.pin(state)
		for {
			step := rt.callFunction(o.Fn, "generator", []Ref{state})
			s := rt.obj(step)
			if s.Kind == KindError {
				return step
			}
			if s.Kind != KindPair || !truthy(rt.obj(s.Head)) {
				return Ref{}
			}
			state = step
			rt.repin(slot, state)
			if stop := visit(s.Tail); !stop.IsZero() {
				return stop
			}
		}
	}
	return rt.NewError(fmt.Sprintf("cannot iterate over type %s", o.Kind))
}

// passes evaluates an optional filter. Only a falsy value that is
// neither a function nor an error skips the element; an error is
// returned to stop the loop.
func (rt *Runtime) passes(frame *Enclosing, filter Expr) (bool, Ref) {
	if filter == nil {
		return true, Ref{}
	}
	f := rt.Eval(frame, filter)
	o := rt.obj(f)
	switch o.Kind {
	case KindError:
		return false, f
	case KindFunction:
		return true, Ref{}
	}
	return truthy(o), Ref{}
}

func (rt *Runtime) evalFor(env *Enclosing, e *ForExpr) Ref {
	var out []Ref
	stop := rt.iterate(env, e.Iter, func(item Ref) Ref {
		frame := env.Fork()
		defer frame.Leave()
		frame.Bind(e.Handle, item)

		if ok, err := rt.passes(frame, e.Filter); !ok {
			return err
		}
		v := rt.Eval(frame, e.Body)
		if rt.obj(v).Kind == KindError {
			return v
		}
		rt.pin(v)
		out = append(out, v)
		return Ref{}
	})
	if !stop.IsZero() {
		return stop
	}
	return rt.NewList(out)
}

func (rt *Runtime) evalReduce(env *Enclosing, e *ReduceExpr) Ref {
	carry := rt.Eval(env, e.Init)
	slot := rt.pin(carry)
	loop := e.Loop

	stop := rt.iterate(env, loop.Iter, func(item Ref) Ref {
		frame := env.Fork()
		defer frame.Leave()
		frame.Bind(loop.Handle, item)
		frame.Bind(e.Carry, carry)

		if ok, err := rt.passes(frame, loop.Filter); !ok {
			return err
		}
		carry = rt.Eval(frame, loop.Body)
		rt.repin(slot, carry)
		if rt.obj(carry).Kind == KindError {
			return carry
		}
		return Ref{}
	})
	if !stop.IsZero() {
		return stop
	}
	return carry
}

// DefineAll registers every top level definition in the global
// frame, which keeps the accumulated program. A later definition
// replaces an earlier one of the same name.
func (rt *Runtime) DefineAll(p *Program) {
	if rt.globals.program == nil {
		rt.globals.program = &Program{}
	}
	rt.globals.program.Defs = append(rt.globals.program.Defs, p.Defs...)
	for _, def := range p.Defs {
		rt.defineFunction(def)
	}
}

// RunMain evaluates a zero argument call to main.
func (rt *Runtime) RunMain() Ref {
	frame := rt.globals.Fork()
	defer frame.Leave()
	return rt.Eval(frame, &CallExpr{Callee: "main"})
}

// LoadString parses src as a program and defines it.
func (rt *Runtime) LoadString(src string) error {
	p, err := ParseProgram(src)
	if err != nil {
		return err
	}
	rt.DefineAll(p)
	return nil
}

// RunString loads src and runs its main.
func (rt *Runtime) RunString(src string) (Ref, error) {
	if err := rt.LoadString(src); err != nil {
		return Ref{}, err
	}
	if _, ok := rt.globals.ResolveLocal("main"); !ok {
		return Ref{}, ErrNoMain
	}
	return rt.RunMain(), nil
}

// EvalString parses src as a single expression and evaluates it in a
// child of the global frame.
func (rt *Runtime) EvalString(src string) (Ref, error) {
	x, err := ParseExpr(src)
	if err != nil {
		return Ref{}, err
	}
	frame := rt.globals.Fork()
	defer frame.Leave()
	return rt.Eval(frame, x), nil
}
