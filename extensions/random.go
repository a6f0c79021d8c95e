package beeext

import (
	"math/rand"
	"time"

	"github.com/glycerine/bee/bee"
)

var defaultRand = rand.New(rand.NewSource(time.Now().Unix()))

// RandomFunction returns an f64 in [0, 1).
func RandomFunction(env *bee.Enclosing, name string) bee.Ref {
	return env.Runtime().NewF64(defaultRand.Float64())
}

// RandintFunction returns an i64 in [0, n).
func RandintFunction(env *bee.Enclosing, name string) bee.Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return rt.NewError(name + "() takes one argument")
	}
	n, ok := intArg(rt, args[0])
	if !ok || n <= 0 {
		return rt.NewError(name + "() needs a positive integer")
	}
	return rt.NewI64(defaultRand.Int63n(n))
}

func intArg(rt *bee.Runtime, r bee.Ref) (int64, bool) {
	o := rt.Get(r)
	if o == nil {
		return 0, false
	}
	switch o.Kind {
	case bee.KindI64:
		return o.I64(), true
	case bee.KindU64:
		return int64(o.U64()), true
	}
	return 0, false
}

func ImportRandom(rt *bee.Runtime) {
	rt.AddFunction("random", RandomFunction)
	rt.AddFunction("randint", RandintFunction)
}
