package bee

import (
	"bytes"
	"fmt"
)

// render writes the debug (tagged) or plain form of r. Containers
// already being printed further up show as "..." so a dict that
// holds itself still prints.
func (rt *Runtime) render(r Ref, debug bool) string {
	var buf bytes.Buffer
	rt.renderTo(&buf, r, debug, make(map[Ref]bool))
	return buf.String()
}

func (rt *Runtime) renderTo(buf *bytes.Buffer, r Ref, debug bool, path map[Ref]bool) {
	o := rt.obj(r)

	switch o.Kind {
	case KindPair, KindList, KindDict:
		if path[r] {
			buf.WriteString("...")
			return
		}
		path[r] = true
		defer delete(path, r)
	}

	switch o.Kind {
	case KindUnit:
		buf.WriteString("unit")
	case KindNil:
		buf.WriteString("nil")
	case KindBool:
		if debug {
			fmt.Fprintf(buf, "bool(%v)", o.Bool())
		} else {
			fmt.Fprintf(buf, "%v", o.Bool())
		}
	case KindU64:
		if debug {
			fmt.Fprintf(buf, "u64(%d)", o.U64())
		} else {
			fmt.Fprintf(buf, "%d", o.U64())
		}
	case KindI64:
		if debug {
			fmt.Fprintf(buf, "i64(%d)", o.I64())
		} else {
			fmt.Fprintf(buf, "%d", o.I64())
		}
	case KindF64:
		if debug {
			fmt.Fprintf(buf, "f64(%f)", o.F64())
		} else {
			fmt.Fprintf(buf, "%f", o.F64())
		}
	case KindString:
		if debug {
			fmt.Fprintf(buf, "string('%s')", o.Str)
		} else {
			buf.WriteString(o.Str)
		}
	case KindError:
		if debug {
			fmt.Fprintf(buf, "error('%s')", o.Str)
		} else {
			buf.WriteString(o.Str)
		}
	case KindPair:
		buf.WriteString("pair(")
		rt.renderTo(buf, o.Head, debug, path)
		buf.WriteString(",")
		rt.renderTo(buf, o.Tail, debug, path)
		buf.WriteString(")")
	case KindList:
		buf.WriteString("list[")
		for i, item := range o.Items {
			if i > 0 {
				buf.WriteString(",")
			}
			rt.renderTo(buf, item, debug, path)
		}
		buf.WriteString("]")
	case KindDict:
		buf.WriteString("dict{")
		o.Dict.Each(func(key string, v Ref) bool {
			fmt.Fprintf(buf, "%s: ", key)
			rt.renderTo(buf, v, debug, path)
			buf.WriteString(", ")
			return true
		})
		buf.WriteString("}")
	case KindFunction:
		if debug && o.Fn != nil && o.Fn.Name != "" {
			fmt.Fprintf(buf, "function(%s)", o.Fn.Name)
		} else {
			buf.WriteString("function")
		}
	default:
		fmt.Fprintf(buf, "%s", o.Kind)
	}
}
