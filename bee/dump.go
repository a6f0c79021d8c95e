package bee

import (
	"fmt"

	"github.com/shurcooL/go-goon"
)

type functionSummary struct {
	Name   string
	Native bool
	Params []string
	Body   string
}

// GoonDumpFunction prints the Go form of its argument. A function
// has no Go form and prints as a functionSummary.
func GoonDumpFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}
	if o := rt.obj(args[0]); o.Kind == KindFunction {
		sum := functionSummary{Name: o.Fn.Name, Native: o.Fn.IsNative(), Params: o.Fn.Params}
		if o.Fn.Body != nil {
			sum.Body = o.Fn.Body.String()
		}
		fmt.Fprintf(rt.Stdout, "%s", goon.Sdump(sum))
		return rt.Unit()
	}
	iface, err := rt.ToGo(args[0])
	if err != nil {
		return errorf(env, "%s(): %v", name, err)
	}
	fmt.Fprintf(rt.Stdout, "%s", goon.Sdump(iface))
	return rt.Unit()
}
