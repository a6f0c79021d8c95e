package beeext

import (
	"fmt"
	"time"

	"github.com/glycerine/bee/bee"
)

// NowFunction returns the wall clock as i64 unix nanoseconds.
func NowFunction(env *bee.Enclosing, name string) bee.Ref {
	return env.Runtime().NewI64(time.Now().UnixNano())
}

// TimeitFunction calls a zero argument function repeatedly, up to
// the optional iteration count (default 10000) or ten seconds, and
// returns the average seconds per call as an f64.
func TimeitFunction(env *bee.Enclosing, name string) bee.Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) < 1 || len(args) > 2 {
		return rt.NewError(fmt.Sprintf("%s() %v: takes a function and an optional count", name, bee.WrongNargs))
	}
	if rt.Kind(args[0]) != bee.KindFunction {
		return rt.NewError(fmt.Sprintf("argument of %s should be a function", name))
	}
	maxIter := int64(10000)
	if len(args) == 2 {
		n, ok := intArg(rt, args[1])
		if !ok || n < 1 {
			return rt.NewError(fmt.Sprintf("%s() count must be a positive integer", name))
		}
		maxIter = n
	}

	starttime := time.Now()
	elapsed := time.Since(starttime)
	maxseconds := 10.0
	var iterations int64

	for iterations = 0; iterations < maxIter; {
		r := rt.Apply(args[0])
		iterations++
		if rt.IsError(r) {
			return r
		}
		elapsed = time.Since(starttime)
		if elapsed.Seconds() > maxseconds {
			break
		}
	}

	avg := elapsed.Seconds() / float64(iterations)
	fmt.Fprintf(rt.Stdout, "ran %d iterations in %f seconds\n", iterations, elapsed.Seconds())
	fmt.Fprintf(rt.Stdout, "average %f seconds per run\n", avg)
	return rt.NewF64(avg)
}

func ImportTime(rt *bee.Runtime) {
	rt.AddFunction("now", NowFunction)
	rt.AddFunction("timeit", TimeitFunction)
}

// ImportAll registers every extension.
func ImportAll(rt *bee.Runtime) {
	ImportRandom(rt)
	ImportRegex(rt)
	ImportTime(rt)
}
