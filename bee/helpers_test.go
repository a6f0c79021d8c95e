package bee

import (
	"bytes"
)

// newQuietRuntime returns a runtime whose print output lands in the
// returned buffer and whose collector only runs when forced.
func newQuietRuntime() (*Runtime, *bytes.Buffer) {
	rt := NewRuntime()
	var out bytes.Buffer
	rt.Stdout = &out
	rt.GCInterval = -1
	return rt, &out
}

// runMain runs a program and renders main's result.
func runMain(src string) string {
	rt, _ := newQuietRuntime()
	defer rt.Close()
	r, err := rt.RunString(src)
	panicOn(err)
	return rt.Render(r)
}

// evalRender evaluates one expression and renders the result.
func evalRender(rt *Runtime, src string) string {
	r, err := rt.EvalString(src)
	panicOn(err)
	return rt.Render(r)
}
