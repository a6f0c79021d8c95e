package bee

import (
	"fmt"
)

// The json form of the expression tree. Every node is an object
// whose "kind" names the node type:
//
//	{"kind":"lit","lit":"number","raw":"1.5"}
//	{"kind":"lookup","name":"x"}
//	{"kind":"bin","op":"+","left":{...},"right":{...}}
//	{"kind":"unary","op":"-","right":{...}}
//	{"kind":"let","assigns":[{"name":"x","value":{...}}],"body":{...}}
//	{"kind":"if","conds":[{"cond":{...},"then":{...}}],"else":{...}}
//	{"kind":"call","callee":"f","args":[...]}
//	{"kind":"list","items":[...]}
//	{"kind":"dict","entries":[{"key":"k","value":{...}}]}
//	{"kind":"lambda","params":["a"],"body":{...}}
//	{"kind":"for","handle":"x","iter":{...},"filter":{...},"body":{...}}
//	{"kind":"reduce","carry":"acc","init":{...},"loop":{for node}}
//	{"kind":"def","name":"main","params":[],"body":{...}}
//
// A program is {"defs":[def...]}. "filter" may be absent.

// ProgramToJSON encodes p.
func ProgramToJSON(p *Program) ([]byte, error) {
	defs := make([]interface{}, 0, len(p.Defs))
	for _, d := range p.Defs {
		defs = append(defs, exprToGo(d))
	}
	return GoToJson(map[string]interface{}{"defs": defs})
}

// ExprToJSON encodes a single expression.
func ExprToJSON(x Expr) ([]byte, error) {
	return GoToJson(exprToGo(x))
}

// ProgramFromJSON decodes a program; unknown node kinds, bad names
// and missing fields are errors.
func ProgramFromJSON(json []byte) (*Program, error) {
	iface, err := JsonToGo(json)
	if err != nil {
		return nil, err
	}
	m, ok := iface.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("program must be a json object, not %T", iface)
	}
	raw, ok := m["defs"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("program needs a \"defs\" array")
	}
	p := &Program{}
	for i, r := range raw {
		x, err := exprFromGo(r)
		if err != nil {
			return nil, fmt.Errorf("defs[%d]: %v", i, err)
		}
		def, ok := x.(*DefExpr)
		if !ok {
			return nil, fmt.Errorf("defs[%d]: expected a def, got %T", i, x)
		}
		p.Defs = append(p.Defs, def)
	}
	return p, nil
}

// ExprFromJSON decodes a single expression.
func ExprFromJSON(json []byte) (Expr, error) {
	iface, err := JsonToGo(json)
	if err != nil {
		return nil, err
	}
	return exprFromGo(iface)
}

func namesToGo(names []string) []interface{} {
	s := make([]interface{}, 0, len(names))
	for _, n := range names {
		s = append(s, n)
	}
	return s
}

func exprsToGo(xs []Expr) []interface{} {
	s := make([]interface{}, 0, len(xs))
	for _, x := range xs {
		s = append(s, exprToGo(x))
	}
	return s
}

func exprToGo(x Expr) map[string]interface{} {
	switch e := x.(type) {
	case *LitExpr:
		return map[string]interface{}{"kind": "lit", "lit": e.Kind.String(), "raw": e.Raw}
	case *LookupExpr:
		return map[string]interface{}{"kind": "lookup", "name": e.Name}
	case *BinExpr:
		return map[string]interface{}{"kind": "bin", "op": e.Op.String(), "left": exprToGo(e.Left), "right": exprToGo(e.Right)}
	case *UnaryExpr:
		return map[string]interface{}{"kind": "unary", "op": e.Op.String(), "right": exprToGo(e.Right)}
	case *LetExpr:
		assigns := make([]interface{}, 0, len(e.Assigns))
		for _, a := range e.Assigns {
			assigns = append(assigns, map[string]interface{}{"name": a.Name, "value": exprToGo(a.Value)})
		}
		return map[string]interface{}{"kind": "let", "assigns": assigns, "body": exprToGo(e.Body)}
	case *IfExpr:
		conds := make([]interface{}, 0, len(e.Conds))
		for _, c := range e.Conds {
			conds = append(conds, map[string]interface{}{"cond": exprToGo(c.Cond), "then": exprToGo(c.Then)})
		}
		return map[string]interface{}{"kind": "if", "conds": conds, "else": exprToGo(e.Else)}
	case *CallExpr:
		return map[string]interface{}{"kind": "call", "callee": e.Callee, "args": exprsToGo(e.Args)}
	case *ListExpr:
		return map[string]interface{}{"kind": "list", "items": exprsToGo(e.Items)}
	case *DictExpr:
		entries := make([]interface{}, 0, len(e.Entries))
		for _, en := range e.Entries {
			entries = append(entries, map[string]interface{}{"key": en.Key, "value": exprToGo(en.Value)})
		}
		return map[string]interface{}{"kind": "dict", "entries": entries}
	case *LambdaExpr:
		return map[string]interface{}{"kind": "lambda", "params": namesToGo(e.Params), "body": exprToGo(e.Body)}
	case *ForExpr:
		m := map[string]interface{}{"kind": "for", "handle": e.Handle, "iter": exprToGo(e.Iter), "body": exprToGo(e.Body)}
		if e.Filter != nil {
			m["filter"] = exprToGo(e.Filter)
		}
		return m
	case *ReduceExpr:
		return map[string]interface{}{"kind": "reduce", "carry": e.Carry, "init": exprToGo(e.Init), "loop": exprToGo(e.Loop)}
	case *DefExpr:
		return map[string]interface{}{"kind": "def", "name": e.Name, "params": namesToGo(e.Params), "body": exprToGo(e.Body)}
	}
	panic(fmt.Sprintf("exprToGo: unknown node %T", x))
}

// node wraps one decoded json object for typed field access.
type node struct {
	m    map[string]interface{}
	kind string
}

func (n node) str(key string) (string, error) {
	s, ok := n.m[key].(string)
	if !ok {
		return "", fmt.Errorf("%s node needs a string \"%s\"", n.kind, key)
	}
	return s, nil
}

func (n node) name(key string) (string, error) {
	s, err := n.str(key)
	if err != nil {
		return "", err
	}
	if !SymbolRegex.MatchString(s) {
		return "", fmt.Errorf("%s node: '%s' is not a valid name", n.kind, s)
	}
	return s, nil
}

func (n node) names(key string) ([]string, error) {
	raw, ok := n.m[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s node needs a \"%s\" array", n.kind, key)
	}
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		s, ok := r.(string)
		if !ok || !SymbolRegex.MatchString(s) {
			return nil, fmt.Errorf("%s node: %v is not a valid name", n.kind, r)
		}
		names = append(names, s)
	}
	return names, nil
}

func (n node) expr(key string) (Expr, error) {
	r, ok := n.m[key]
	if !ok {
		return nil, fmt.Errorf("%s node needs \"%s\"", n.kind, key)
	}
	x, err := exprFromGo(r)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %v", n.kind, key, err)
	}
	return x, nil
}

func (n node) objects(key string) ([]node, error) {
	raw, ok := n.m[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s node needs a \"%s\" array", n.kind, key)
	}
	nodes := make([]node, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s.%s items must be objects, not %T", n.kind, key, r)
		}
		nodes = append(nodes, node{m: m, kind: n.kind})
	}
	return nodes, nil
}

func (n node) exprs(key string) ([]Expr, error) {
	raw, ok := n.m[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s node needs a \"%s\" array", n.kind, key)
	}
	xs := make([]Expr, 0, len(raw))
	for i, r := range raw {
		x, err := exprFromGo(r)
		if err != nil {
			return nil, fmt.Errorf("%s.%s[%d]: %v", n.kind, key, i, err)
		}
		xs = append(xs, x)
	}
	return xs, nil
}

func parseLitKind(s string) (LitKind, bool) {
	for i, name := range litKindNames {
		if name == s {
			return LitKind(i), true
		}
	}
	return 0, false
}

func exprFromGo(iface interface{}) (Expr, error) {
	m, ok := iface.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("node must be a json object, not %T", iface)
	}
	kind, ok := m["kind"].(string)
	if !ok {
		return nil, fmt.Errorf("node has no \"kind\"")
	}
	n := node{m: m, kind: kind}

	switch kind {
	case "lit":
		ls, err := n.str("lit")
		if err != nil {
			return nil, err
		}
		lk, ok := parseLitKind(ls)
		if !ok {
			return nil, fmt.Errorf("unknown literal kind '%s'", ls)
		}
		raw, err := n.str("raw")
		if err != nil {
			return nil, err
		}
		return &LitExpr{Kind: lk, Raw: raw}, nil

	case "lookup":
		name, err := n.name("name")
		if err != nil {
			return nil, err
		}
		return &LookupExpr{Name: name}, nil

	case "bin":
		ops, err := n.str("op")
		if err != nil {
			return nil, err
		}
		op, ok := ParseBinOp(ops)
		if !ok {
			return nil, fmt.Errorf("unknown binary operator '%s'", ops)
		}
		left, err := n.expr("left")
		if err != nil {
			return nil, err
		}
		right, err := n.expr("right")
		if err != nil {
			return nil, err
		}
		return &BinExpr{Op: op, Left: left, Right: right}, nil

	case "unary":
		ops, err := n.str("op")
		if err != nil {
			return nil, err
		}
		op, ok := ParseUnaryOp(ops)
		if !ok {
			return nil, fmt.Errorf("unknown unary operator '%s'", ops)
		}
		right, err := n.expr("right")
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Right: right}, nil

	case "let":
		objs, err := n.objects("assigns")
		if err != nil {
			return nil, err
		}
		e := &LetExpr{}
		for _, o := range objs {
			name, err := o.name("name")
			if err != nil {
				return nil, err
			}
			v, err := o.expr("value")
			if err != nil {
				return nil, err
			}
			e.Assigns = append(e.Assigns, Assign{Name: name, Value: v})
		}
		if e.Body, err = n.expr("body"); err != nil {
			return nil, err
		}
		return e, nil

	case "if":
		objs, err := n.objects("conds")
		if err != nil {
			return nil, err
		}
		e := &IfExpr{}
		for _, o := range objs {
			c, err := o.expr("cond")
			if err != nil {
				return nil, err
			}
			t, err := o.expr("then")
			if err != nil {
				return nil, err
			}
			e.Conds = append(e.Conds, CondExpr{Cond: c, Then: t})
		}
		if e.Else, err = n.expr("else"); err != nil {
			return nil, err
		}
		return e, nil

	case "call":
		callee, err := n.name("callee")
		if err != nil {
			return nil, err
		}
		args, err := n.exprs("args")
		if err != nil {
			return nil, err
		}
		return &CallExpr{Callee: callee, Args: args}, nil

	case "list":
		items, err := n.exprs("items")
		if err != nil {
			return nil, err
		}
		return &ListExpr{Items: items}, nil

	case "dict":
		objs, err := n.objects("entries")
		if err != nil {
			return nil, err
		}
		e := &DictExpr{}
		for _, o := range objs {
			key, err := o.str("key")
			if err != nil {
				return nil, err
			}
			v, err := o.expr("value")
			if err != nil {
				return nil, err
			}
			e.Entries = append(e.Entries, DictEntry{Key: key, Value: v})
		}
		return e, nil

	case "lambda":
		params, err := n.names("params")
		if err != nil {
			return nil, err
		}
		body, err := n.expr("body")
		if err != nil {
			return nil, err
		}
		return &LambdaExpr{Params: params, Body: body}, nil

	case "for":
		fe, err := forFromGo(n)
		if err != nil {
			return nil, err
		}
		return fe, nil

	case "reduce":
		carry, err := n.name("carry")
		if err != nil {
			return nil, err
		}
		initExpr, err := n.expr("init")
		if err != nil {
			return nil, err
		}
		loop, err := n.expr("loop")
		if err != nil {
			return nil, err
		}
		fe, ok := loop.(*ForExpr)
		if !ok {
			return nil, fmt.Errorf("reduce.loop must be a for node, not %T", loop)
		}
		return &ReduceExpr{Carry: carry, Init: initExpr, Loop: fe}, nil

	case "def":
		name, err := n.name("name")
		if err != nil {
			return nil, err
		}
		params, err := n.names("params")
		if err != nil {
			return nil, err
		}
		body, err := n.expr("body")
		if err != nil {
			return nil, err
		}
		return &DefExpr{Name: name, Params: params, Body: body}, nil
	}
	return nil, fmt.Errorf("unknown node kind '%s'", kind)
}

func forFromGo(n node) (*ForExpr, error) {
	var err error
	e := &ForExpr{}
	if e.Handle, err = n.name("handle"); err != nil {
		return nil, err
	}
	if e.Iter, err = n.expr("iter"); err != nil {
		return nil, err
	}
	if _, ok := n.m["filter"]; ok {
		if e.Filter, err = n.expr("filter"); err != nil {
			return nil, err
		}
	}
	if e.Body, err = n.expr("body"); err != nil {
		return nil, err
	}
	return e, nil
}
